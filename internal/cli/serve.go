package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/entitygraph/pkg/server"
)

// serveFlags maps command-line flags to server config keys.
var serveFlags = map[string]string{
	"addr":         "addr",
	"cache":        "cache.backend",
	"cache-dir":    "cache.dir",
	"redis-url":    "cache.redis_url",
	"store":        "store.backend",
	"store-dir":    "store.dir",
	"mongo-uri":    "store.mongo_uri",
	"watch":        "watch.data_file",
	"watch-config": "watch.config_file",
	"watch-id":     "watch.dataset_id",
	"rate-limit":   "rate_limit.requests_per_second",
}

// serveCommand creates the serve command, which runs the HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve views, rendered graphs and datasets over HTTP",
		Long: `Serve views, rendered graphs and datasets over HTTP.

Settings come from defaults, an optional config file (--config), ENTITYGRAPH_*
environment variables and flags, in increasing precedence. For example
ENTITYGRAPH_CACHE_REDIS_URL sets cache.redis_url.

With --watch the data file (and --watch-config) is published as a dataset
and republished on every change; open /datasets/live to see it update.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := server.NewViper(configPath)
			if err != nil {
				return err
			}
			if err := bindServeFlags(v, cmd); err != nil {
				return err
			}
			cfg, err := server.ConfigFrom(v)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			srv, err := server.Open(ctx, cfg, c.Logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			printInfo(c.stdout, "Serving on %s", StyleValue.Render(cfg.Addr))
			if cfg.Watch.DataFile != "" {
				printDetail(c.stdout, "Watching %s as /datasets/%s", cfg.Watch.DataFile, cfg.Watch.DatasetID)
			}
			return srv.ListenAndServe(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "server config file (.toml, .yaml or .json)")
	f.String("addr", "", "listen address (default :8080)")
	f.String("cache", "", "cache backend: file (default), redis, none")
	f.String("cache-dir", "", "file cache directory")
	f.String("redis-url", "", "redis URL for --cache redis")
	f.String("store", "", "dataset store: memory (default), file, mongo")
	f.String("store-dir", "", "dataset directory for --store file")
	f.String("mongo-uri", "", "MongoDB URI for --store mongo")
	f.String("watch", "", "entity data file to publish and watch")
	f.String("watch-config", "", "style configurations file to publish and watch")
	f.String("watch-id", "", "dataset id of the watched files (default live)")
	f.Float64("rate-limit", 0, "API requests per second per client (0 disables)")

	return cmd
}

// bindServeFlags binds the serve flags to their config keys. Flags only
// override the other sources when set.
func bindServeFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range serveFlags {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}
