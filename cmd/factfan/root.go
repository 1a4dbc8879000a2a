package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/matt-hoiland/factfan/internal/app"
	"github.com/matt-hoiland/factfan/internal/config"
	"github.com/matt-hoiland/factfan/internal/upstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	return newRootCmdWith(viper.New(), run)
}

// newRootCmdWith builds the root command around v, calling serve with the
// loaded configuration.
func newRootCmdWith(v *viper.Viper, serve func(config.ServerConfig) error) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "factfan",
		Short: "Serve to-do titles and cat facts fetched from upstream APIs",
		Long: `factfan answers GET /basic with the title of a to-do item and
GET /double with that title plus a random cat fact, both fetched from
third-party JSON APIs on every request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadFile(v, configPath); err != nil {
				return err
			}
			return setupLogging(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	config.SetDefaults(v)
	config.BindEnv(v)

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "config file (default: config.yaml in /etc/factfan, $HOME/.factfan or .)")
	flags.String(config.KeyAddr, config.DefaultAddr, "address to listen on")
	flags.String(config.KeyTodoURL, config.DefaultTodoURL, "base URL of the to-do service")
	flags.String(config.KeyCatsURL, config.DefaultCatsURL, "base URL of the cat-fact service")
	flags.String(config.KeyMetricsAddr, "", "address for the Prometheus /metrics listener (disabled when empty)")
	flags.Duration(config.KeyUpstreamTimeout, 0, "timeout for each upstream call (0 waits forever)")
	flags.Bool(config.KeyConcurrentDouble, false, "fetch both upstreams of /double concurrently")
	flags.String(config.KeyLogLevel, "INFO", "log level")
	flags.Bool(config.KeyLogJSON, false, "log as JSON")
	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("binding flags: %w", err))
	}

	return cmd
}

func setupLogging(v *viper.Viper) error {
	level, err := log.ParseLevel(v.GetString(config.KeyLogLevel))
	if err != nil {
		return fmt.Errorf("fatal error logging: %w", err)
	}
	log.SetLevel(level)
	if v.GetBool(config.KeyLogJSON) {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}

func run(cfg config.ServerConfig) error {
	log.Info("(づ｡◕‿‿◕｡)づ Hello! Starting up!")

	log.WithFields(log.Fields{
		"todo-url":          cfg.TodoURL,
		"cats-url":          cfg.CatsURL,
		"upstream-timeout":  cfg.UpstreamTimeout,
		"concurrent-double": cfg.ConcurrentDouble,
		"log-json":          cfg.LogJSON,
		"log-level":         cfg.LogLevel,
	}).Debug("configuration")

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	client := upstream.NewClient(cfg.UpstreamTimeout)
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: app.NewServer(chi.NewRouter(), client, cfg),
	}

	log.WithFields(log.Fields{
		"address": "http://" + srv.Addr,
	}).Info("(づ￣ ³￣)づ Here we go! Serving!")
	return srv.ListenAndServe()
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func serveMetrics(addr string) {
	log.WithField("address", addr).Info("metrics listener active")
	if err := http.ListenAndServe(addr, metricsMux()); err != nil {
		log.WithError(err).Error("metrics listener stopped")
	}
}
