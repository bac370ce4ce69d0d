package main

import (
	"context"
	"fmt"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/user"
)

// addUser registers a new account with the given role.
func (cli *commandLine) addUser(email, first, last, role, pwd string) error {
	usr, err := cli.usrSvc.Register(context.Background(), user.NewUser{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Password:  pwd,
		Role:      user.Role(core.CleanString(role, true /* lower */)),
	})
	if err != nil {
		return err
	}
	fmt.Printf("created %s account %d (%s)\n", usr.Role, usr.ID, usr.Email)
	return nil
}
