package main

import (
	"fmt"
	"os"

	"github.com/leadgrid-dev/leadgrid/internal/apiclient"
	"github.com/leadgrid-dev/leadgrid/internal/broadcast"
	"github.com/leadgrid-dev/leadgrid/internal/config"
	"github.com/leadgrid-dev/leadgrid/internal/credstore"
	"github.com/leadgrid-dev/leadgrid/internal/logger"
	"github.com/leadgrid-dev/leadgrid/internal/routegate"
	"github.com/leadgrid-dev/leadgrid/internal/session"
	"github.com/leadgrid-dev/leadgrid/internal/shell"
	"github.com/leadgrid-dev/leadgrid/internal/tokenclock"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	store := credstore.New(cfg.State.Dir)
	clock := tokenclock.New(store)
	manager := session.New(store, clock, log)

	watcher, err := broadcast.NewFileWatcher(store.Dir())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to watch state directory")
	}
	manager.SetBroadcast(watcher, nil)

	table := routegate.DefaultTable()
	if cfg.Shell.RouteTable != "" {
		if table, err = routegate.LoadTable(cfg.Shell.RouteTable); err != nil {
			log.Fatal().Err(err).Msg("Failed to load route table")
		}
	}

	srv := shell.New(cfg, store, clock, manager,
		routegate.New(store, clock), apiclient.New(cfg.API.BaseURL, store), table, log)

	log.Info().Msg("Starting LeadGrid app shell...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("App shell failed to start")
	}
}
