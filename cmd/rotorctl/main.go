package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lumapanel/rotor/internal/catalog"
	"github.com/lumapanel/rotor/internal/config"
	"github.com/lumapanel/rotor/internal/store"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches one subcommand and returns the process exit code: 0 on
// success, 1 on operation failure, 2 on usage errors.
func run(args []string) int {
	// optional .env next to the binary, same variables as the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	setupLogging(cfg.LogLevel)

	if len(args) == 0 {
		usage()
		return 2
	}
	switch args[0] {
	case "validate":
		return cmdValidate(cfg, args[1:])
	case "apply":
		return cmdApply(cfg, args[1:])
	case "show":
		return cmdShow(cfg, args[1:])
	case "history", "versions":
		return cmdHistory(cfg, args[1:])
	case "rollback":
		return cmdRollback(cfg, args[1:])
	case "preview":
		return cmdPreview(cfg, args[1:])
	case "status":
		return cmdStatus(cfg, args[1:])
	case "run":
		return cmdRun(cfg, args[1:])
	case "help", "-h", "--help":
		usage()
		return 0
	}
	fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
	usage()
	return 2
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: rotorctl <command> [flags]

commands:
  validate <file>         check a schedule edit without persisting anything
  apply <file>            validate and persist a schedule edit as a new version
  show                    print the active canonical schedule
  history [-n N] [-json]  list saved versions, newest first
  rollback <id>           restore an old version as a new one
  preview [-ticks N]      simulate the rotation and print the selections
  status                  paths, latest version and rotation summary
  run                     drive the rotation loop until interrupted

configuration comes from ROTOR_* environment variables (.env supported).
`)
}

func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(store.Options{
		SchedulePath: cfg.SchedulePath,
		ArchiveDir:   cfg.ArchiveDir,
		Retention:    cfg.Retention,
		Driver:       cfg.HistoryDriver,
		DSN:          cfg.HistoryDSN,
	})
}

func panelCatalog(cfg *config.Config) *catalog.Static {
	return catalog.FromCSV(cfg.Screens)
}
