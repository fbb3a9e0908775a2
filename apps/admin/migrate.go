package main

import (
	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/storage/database"
)

var (
	gooseRunFunc = database.Migrate // mockable

	errNoDatabase = errors.New("migrate requires the postgres storage backend")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.sqlDB == nil {
		return errNoDatabase
	}
	return gooseRunFunc(cli.sqlDB.DB, args[0], args[1:]...)
}
