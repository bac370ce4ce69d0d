package main

import (
	"fmt"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/storage/database"
)

// migrate applies pending goose migrations.
func (cli *commandLine) migrate() error {
	if err := database.Migrate(cli.db, core.Conf.WorkDir); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}
