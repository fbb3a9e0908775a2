package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core/member"
)

var errInvalidRole = errors.New("invalid role")

// promote sets the role of a member, bypassing the organization's permission rules.
// Used to bootstrap the first managers.
func (cli *commandLine) promote(email string, role member.Role) error {
	if !role.IsValid() {
		return errInvalidRole
	}
	ctx := context.Background()
	mbr, err := cli.members.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	mbr.Role = role
	if _, err := cli.members.Save(ctx, mbr); err != nil {
		return err
	}
	cli.printf("%s is now %s\n", mbr.Email, role.Label())
	return nil
}
