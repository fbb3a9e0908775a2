package main

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core/student"
)

func (cli *commandLine) importRoster(classID, path string) error {
	ctx := context.Background()
	class, err := cli.orgs.GetClass(ctx, classID)
	if err != nil {
		return err
	}

	format, err := student.FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer f.Close()

	rows, err := student.ParseRows(f, format)
	if err != nil {
		return err
	}
	created, err := cli.students.Import(ctx, class.ID, rows)
	if err != nil {
		return errors.Wrapf(err, "imported %d students before failing", len(created))
	}
	cli.printf("%d students enrolled in %s\n", len(created), class.Name)
	return nil
}
