package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	_ "time/tzdata"

	echoapi "github.com/campusgate/outpass/apps/api/echo"
	"github.com/campusgate/outpass/apps/shared"
	"github.com/campusgate/outpass/core"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	logger := shared.NewLogger("API", conf)

	deps, err := shared.NewDeps(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up dependencies: %v", err), err)
	}
	defer func() {
		if err = deps.Close(); err != nil {
			logger.Error("closing dependencies", err)
		}
	}()
	if err = deps.MigrateUp(); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), map[string]interface{}{
		"engine":       conf.Database.Engine,
		"sms_provider": conf.SMS.Provider,
		"timezone":     conf.Timezone,
	})
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Background Jobs

	if conf.Jobs.SweepEnabled {
		scheduler, err := shared.NewScheduler(conf, logger, deps.Outpasses)
		if err != nil {
			logger.Fatal(fmt.Sprintf("scheduling jobs: %v", err), err)
		}
		scheduler.Start()
		defer func() {
			// wait for running jobs
			<-scheduler.Stop().Done()
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			Validate:       deps.Validate,
			Translator:     deps.Translator,
			Students:       deps.Students,
			Outpasses:      deps.Outpasses,
			Gate:           deps.Gate,
			Notifications:  deps.Notifications,
			Feedback:       deps.Feedback,
			MetricsHandler: deps.Metrics.Handler(),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
