package main

import (
	"context"
)

func (cli *commandLine) seed() error {
	if err := cli.db.Seed(context.Background()); err != nil {
		return err
	}
	cli.printf("storage seeded\n")
	return nil
}

func (cli *commandLine) reset() error {
	if err := cli.db.Reset(context.Background()); err != nil {
		return err
	}
	cli.printf("storage reset\n")
	return nil
}
