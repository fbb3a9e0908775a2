package main

import (
	"context"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	if err := cli.members.SetPassword(context.Background(), email, pwd); err != nil {
		return err
	}
	cli.printf("password of %s reset\n", email)
	return nil
}
