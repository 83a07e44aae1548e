// Package main provides the bewegung tool: it runs the FLIP computation over
// scripted scenarios and prints the synthesized keyframes.
//
// Usage:
//
//	bewegung compute [--out FILE] SCENARIO...   Print keyframes as YAML
//	bewegung check --golden FILE SCENARIO       Diff against a golden file
//	bewegung watch SCENARIO                     Recompute on every change
//	bewegung dumpconfig [DESTINATION]           Print the effective configuration
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	bewegung "github.com/copyandpaetow/bewegung-sub000"
)

const version = "0.1.0"

// initializeEnv loads the configuration and prepares logging after the
// command line has been parsed.
func initializeEnv(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	e := envFromContext(ctx)

	cfg, err := bewegung.LoadConfig(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	if cmd.Bool("debug") {
		cfg.Logging.Console.Level = "debug"
	}
	cfg.Logging.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return ctx, fmt.Errorf("invalid configuration: %w", err)
	}

	log, closeLog, err := cfg.Logging.Prepare()
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	e.Cfg, e.Log, e.closeLog = cfg, log, closeLog

	e.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", version))
	if cmd.String("config") == "" {
		e.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyEnv(ctx context.Context, cmd *cli.Command) (err error) {
	e := envFromContext(ctx)
	e.Log.Debug("Program ended", zap.Duration("elapsed", e.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	if e.closeLog != nil {
		if er := e.closeLog(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close logs: %w", er))
		}
	}
	return err
}

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	envFromContext(ctx).Log.Error("Program ended with error", zap.Error(err))
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            "bewegung",
		Usage:           "computes FLIP keyframes for scripted element trees",
		Version:         version,
		HideHelpCommand: true,
		Before:          initializeEnv,
		After:           destroyEnv,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE` (YAML)",
				Sources: cli.EnvVars("BEWEGUNG_CONFIG"),
			},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log at debug level to the console"},
		},
		Commands: []*cli.Command{
			{
				Name:      "compute",
				Usage:     "Computes keyframes for every scenario and prints them as YAML",
				Action:    runCompute,
				ArgsUsage: "SCENARIO...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write output to `FILE` instead of STDOUT"},
				},
			},
			{
				Name:      "check",
				Usage:     "Compares the computed keyframes of a scenario with a golden file",
				Action:    runCheck,
				ArgsUsage: "SCENARIO",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "golden", Aliases: []string{"g"}, Required: true, Usage: "golden output `FILE`"},
					&cli.BoolFlag{Name: "update", Usage: "rewrite the golden file instead of comparing"},
				},
			},
			{
				Name:      "watch",
				Usage:     "Recomputes a scenario every time its file changes",
				Action:    runWatch,
				ArgsUsage: "SCENARIO",
			},
			{
				Name:      "dumpconfig",
				Usage:     "Dumps the effective configuration (YAML)",
				Action:    runDumpConfig,
				ArgsUsage: "DESTINATION",
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
