// Command trafficwatch replays recorded detection dumps through the
// tracking pipeline: per-stream IoU tracking, per-class counting and
// periodic count snapshots persisted to SQLite.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"trafficwatch/config"
	"trafficwatch/labels"
	"trafficwatch/storage"
	"trafficwatch/stream"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(*configPath, log); err != nil {
		log.Error("trafficwatch failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, log *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	manager := stream.NewManager(cfg.StreamSettings(), log,
		storage.NewSink(store, cfg.Stats.SnapshotInterval))

	for _, sc := range cfg.Streams {
		source, err := stream.OpenReplay(sc.Dump)
		if err != nil {
			return err
		}
		defer source.Close()
		if err := manager.SetSource(sc.ID, source); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.Run(ctx); err != nil {
		return err
	}

	for class, count := range manager.Aggregator().Totals() {
		log.Info("final count",
			"class", labels.DisplayName(class),
			"count", count,
			"mean", manager.History().Mean(class))
	}
	return nil
}
