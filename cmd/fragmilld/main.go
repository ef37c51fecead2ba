package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fragmill/internal/config"
	"fragmill/internal/converter"
	"fragmill/internal/daemon"
	"fragmill/internal/dispatch"
	"fragmill/internal/history"
	"fragmill/internal/jobs"
	"fragmill/internal/logging"
	"fragmill/internal/preflight"
	"fragmill/internal/watch"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	convertOnly := flag.Bool("convert-only", false, "convert existing files and exit")
	skipPreflight := flag.Bool("skip-preflight", false, "skip environment checks on startup")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if !*skipPreflight {
		results := preflight.RunAll(cfg)
		for _, res := range results {
			if res.Passed {
				logger.Debug("preflight check passed",
					logging.String("check", res.Name),
					logging.String("detail", res.Detail),
				)
				continue
			}
			logger.Warn("preflight check failed",
				logging.String("check", res.Name),
				logging.String("detail", res.Detail),
			)
		}
		if !preflight.Passed(results) {
			logger.Warn("continuing despite failed preflight checks")
		}
	}

	command, scriptArgs := cfg.ConverterArgs()
	runner, err := converter.New(command, scriptArgs, cfg.Converter.TimeoutSeconds)
	if err != nil {
		logger.Error("init converter", logging.Error(err))
		os.Exit(1)
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			logger.Error("open history store", logging.Error(err))
			os.Exit(1)
		}
	}

	var recorder dispatch.Recorder
	if store != nil {
		recorder = store
	}
	dispatcher, err := dispatch.New(cfg, jobs.NewRegistry(), runner, recorder, logger)
	if err != nil {
		logger.Error("init dispatcher", logging.Error(err))
		os.Exit(1)
	}

	if *convertOnly {
		d, err := daemon.New(cfg, dispatcher, nil, store, logger)
		if err != nil {
			logger.Error("create daemon", logging.Error(err))
			os.Exit(1)
		}
		defer d.Close()
		if err := d.RunBatch(ctx, 0); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	var watcher *watch.Watcher
	if cfg.Watch.Enabled {
		watcher, err = watch.New(watch.Options{
			Dir:    cfg.Paths.InputDir,
			Settle: time.Duration(cfg.Watch.SettleSeconds) * time.Second,
		}, dispatcher, logger)
		if err != nil {
			logger.Error("init watcher", logging.Error(err))
			os.Exit(1)
		}
	}

	d, err := daemon.New(cfg, dispatcher, watcher, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("fragmilld shutting down")
}
