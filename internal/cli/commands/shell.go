package commands

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/leadgrid-dev/leadgrid/internal/broadcast"
	"github.com/leadgrid-dev/leadgrid/internal/routegate"
	"github.com/leadgrid-dev/leadgrid/internal/shell"
)

// NewShellCmd creates the shell command
func NewShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run the local app shell",
		Long: `Serves the CRM navigation surface on a local port. Every screen request
passes the role gate, and the session auto-logout timer runs for as long
as the shell is up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			// Same-machine logout propagation via the shared state dir
			watchers := []broadcast.Watcher{}
			fileWatcher, err := broadcast.NewFileWatcher(app.store.Dir())
			if err != nil {
				return fmt.Errorf("failed to watch state directory: %w", err)
			}
			watchers = append(watchers, fileWatcher)

			// Cross-host propagation when Redis is configured
			var publisher broadcast.Publisher
			if app.cfg.Redis.Address != "" {
				client := redis.NewClient(&redis.Options{Addr: app.cfg.Redis.Address})
				publisher = broadcast.NewRedisPublisher(client, "")
				watchers = append(watchers, broadcast.NewRedisWatcher(context.Background(), client, ""))
			}
			app.manager.SetBroadcast(broadcast.Merge(watchers...), publisher)

			table := routegate.DefaultTable()
			if app.cfg.Shell.RouteTable != "" {
				table, err = routegate.LoadTable(app.cfg.Shell.RouteTable)
				if err != nil {
					return err
				}
			}

			srv := shell.New(app.cfg, app.store, app.clock, app.manager, app.gate, app.api, table, app.log)
			return srv.Start()
		},
	}
}
