package main

import (
	"context"
	"fmt"

	"github.com/edusphere/backend/core/user"
)

// resetPassword replaces the password of the account registered under email.
func (cli *commandLine) resetPassword(email, pwd string) error {
	if err := cli.usrSvc.ResetPassword(context.Background(), user.ForgotPassword{
		Email:       email,
		NewPassword: pwd,
	}); err != nil {
		return err
	}
	fmt.Printf("password reset for %s\n", email)
	return nil
}
