package commands

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/leadgrid-dev/leadgrid/internal/apiclient"
	"github.com/leadgrid-dev/leadgrid/internal/broadcast"
	"github.com/leadgrid-dev/leadgrid/internal/config"
	"github.com/leadgrid-dev/leadgrid/internal/credstore"
	"github.com/leadgrid-dev/leadgrid/internal/logger"
	"github.com/leadgrid-dev/leadgrid/internal/routegate"
	"github.com/leadgrid-dev/leadgrid/internal/session"
	"github.com/leadgrid-dev/leadgrid/internal/tokenclock"
)

// appContext bundles the shared session components every command needs.
type appContext struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *credstore.Store
	clock   *tokenclock.Clock
	manager *session.Manager
	gate    *routegate.Gate
	api     *apiclient.Client
}

// newAppContext builds the per-invocation object graph. The session
// manager gets a Redis publisher when one is configured, so a CLI logout
// reaches clients on other hosts too.
func newAppContext() (*appContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	store := credstore.New(cfg.State.Dir)
	clock := tokenclock.New(store)
	manager := session.New(store, clock, log)

	if cfg.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})
		manager.SetBroadcast(nil, broadcast.NewRedisPublisher(client, ""))
	}

	return &appContext{
		cfg:     cfg,
		log:     log,
		store:   store,
		clock:   clock,
		manager: manager,
		gate:    routegate.New(store, clock),
		api:     apiclient.New(cfg.API.BaseURL, store),
	}, nil
}
