package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/campusgate/outpass/apps/shared"
	"github.com/campusgate/outpass/core"
)

func main() {
	conf := core.NewConfig()
	logger := shared.NewLogger("ADMIN", conf)

	deps, err := shared.NewDeps(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up dependencies: %v", err), err)
	}

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}
	cli := commandLine{
		conf:      conf,
		db:        db,
		students:  deps.Students,
		outpasses: deps.Outpasses,
		out:       os.Stdout,
	}
	err = cli.run(os.Args)
	if cerr := deps.Close(); cerr != nil {
		logger.Error("closing dependencies", cerr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
