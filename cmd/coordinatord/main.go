package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"commitcoord/internal/config"
	"commitcoord/internal/httpapi"
	"commitcoord/pkg/coordinator"
	"commitcoord/pkg/registry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", "coordinatord.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := initConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	initLogger(&cfg)

	reg := registry.New[config.CoordinatorConfig, *coordinator.Coordinator](map[string]registry.Builder[config.CoordinatorConfig, *coordinator.Coordinator]{
		"memory": func(conf config.CoordinatorConfig) (*coordinator.Coordinator, error) {
			return coordinator.New(conf.MaxUnbackfilled), nil
		},
	})

	var coord *coordinator.Coordinator
	for _, name := range cfg.Seed.Builders {
		coord, err = reg.Get(name, cfg.Coordinator)
		if err != nil {
			slog.Error("failed to build seeded coordinator", "name", name, "error", err)
			os.Exit(1)
		}
	}
	if coord == nil {
		coord = coordinator.New(cfg.Coordinator.MaxUnbackfilled)
	}

	server := httpapi.NewServer(coord, cfg.HTTP.ListenAddress)
	if err := server.Start(); err != nil {
		slog.Error("failed to start HTTP server", "error", err)
		os.Exit(1)
	}

	slog.Info("coordinatord started", "addr", cfg.HTTP.ListenAddress, "max_unbackfilled", cfg.Coordinator.MaxUnbackfilled)

	<-ctx.Done()
	slog.Info("shutting down")

	if err := server.Stop(); err != nil {
		slog.Error("error during shutdown", "error", err)
		os.Exit(1)
	}
}
