package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	echoapi "github.com/campusgate/outpass/apps/api/echo"
	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/outpass"
	"github.com/campusgate/outpass/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp             = errors.New("help provided")
	errNoDatabase       = errors.New("migrations need the postgres engine")
	errPasswordMismatch = errors.New("passwords do not match")
)

type commandLine struct {
	conf      *core.Config
	db        *sql.DB // nil with the memory engine
	students  *student.Service
	outpasses *outpass.Service
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                 - run a goose command (up, down, status, redo...)")
	fmt.Fprintln(cli.out, "  sweep                                  - mark overdue Exited outpasses as Late")
	fmt.Fprintln(cli.out, "  remind                                 - send today's reminders for Approved outpasses")
	fmt.Fprintln(cli.out, "  token -role ROLE -id ID [-name NAME]   - issue an API token for a staff member or student")
	fmt.Fprintln(cli.out, "  setpassword -rollno ROLLNO             - set a student's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenRole := tokenCmd.String("role", "", "One of student, admin or security.")
	tokenID := tokenCmd.String("id", "", "The subject id, e.g. AD-001 or SEC-01.")
	tokenName := tokenCmd.String("name", "", "Display name carried by the token.")

	setPasswordCmd := flag.NewFlagSet("setpassword", flag.ContinueOnError)
	setPasswordRollNo := setPasswordCmd.String("rollno", "", "The student's roll number. The password will be prompted next.")

	ctx := context.Background()
	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "sweep":
		return cli.sweep(ctx)

	case "remind":
		return cli.remind(ctx)

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		role := echoapi.Role(core.CleanString(*tokenRole, true /* lower */))
		if !role.Valid() || core.CleanString(*tokenID) == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(role, core.CleanString(*tokenID), core.CleanString(*tokenName))

	case "setpassword":
		if err := setPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setPasswordRollNo == "" {
			setPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.prompt("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			setPasswordCmd.Usage()
			return errHelp
		}
		confirm, err := cli.prompt("Confirm password:")
		if err != nil {
			return err
		}
		if confirm != pwd {
			return errPasswordMismatch
		}
		return cli.setPassword(ctx, *setPasswordRollNo, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) prompt(label string) (string, error) {
	fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	return string(pwd), err
}

func (cli *commandLine) sweep(ctx context.Context) error {
	sweeper := outpass.NewLateSweeper(cli.outpasses, cli.conf.Jobs.LateSweepInterval, cli.conf.Jobs.LateSweepTimeout)
	ctx, cancel := context.WithTimeout(ctx, sweeper.Timeout)
	defer cancel()

	marked, err := sweeper.Tick(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d outpass(es) marked Late\n", marked)
	return nil
}

func (cli *commandLine) remind(ctx context.Context) error {
	n, err := outpass.NewReminder(cli.outpasses).Tick(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "reminders sent for %d outpass(es)\n", n)
	return nil
}

func (cli *commandLine) token(role echoapi.Role, id, name string) error {
	token, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, id, name, role))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}

func (cli *commandLine) setPassword(ctx context.Context, rollNo, pwd string) error {
	std, err := cli.students.GetByRollNo(ctx, rollNo)
	if err != nil {
		return err
	}
	return cli.students.SetPassword(ctx, std.ID, student.SetPassword{Password: pwd, PasswordConfirm: pwd})
}
