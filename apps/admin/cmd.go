package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/student"
	"github.com/shepherd-app/shepherd/storage/database/kvdb"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *kvdb.DB
	sqlDB    *sqlx.DB // nil unless the postgres backend is configured
	members  *member.Service
	orgs     *org.Service
	students *student.Service
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  resetpassword -email EMAIL - reset a member's password")
	fmt.Println("  promote -email EMAIL -role ROLE - change a member's role")
	fmt.Println("  import -class CLASS_ID -file ROSTER - enroll the students of an .xlsx or .csv roster")
	fmt.Println("  seed - overwrite the storage with the demo dataset")
	fmt.Println("  reset - empty the storage")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command against the postgres database")
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	w := cli.out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, format, args...)
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The member's email. The password will be prompted next.")

	promoteCmd := flag.NewFlagSet("promote", flag.ContinueOnError)
	promoteEmail := promoteCmd.String("email", "", "The member's email.")
	promoteRole := promoteCmd.String("role", "", "One of admin, org_leader, dept_leader, teacher, pending.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importClass := importCmd.String("class", "", "The id of the class to enroll the students in.")
	importFile := importCmd.String("file", "", "Path of the .xlsx or .csv roster.")

	switch args[1] {
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, string(pwd))
	case "promote":
		if err := promoteCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *promoteEmail == "" || *promoteRole == "" {
			promoteCmd.Usage()
			return errHelp
		}
		return cli.promote(*promoteEmail, member.Role(*promoteRole))
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importClass == "" || *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importRoster(*importClass, *importFile)
	case "seed":
		return cli.seed()
	case "reset":
		return cli.reset()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
