package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/gridlight/cmd"
	"github.com/smazurov/gridlight/internal/api"
	"github.com/smazurov/gridlight/internal/config"
	"github.com/smazurov/gridlight/internal/events"
	"github.com/smazurov/gridlight/internal/logging"
	"github.com/smazurov/gridlight/internal/metrics/exporters"
	"github.com/smazurov/gridlight/internal/monitor"
	"github.com/smazurov/gridlight/internal/mqtt"
	"github.com/smazurov/gridlight/internal/signal"
	"github.com/smazurov/gridlight/internal/systemd"
	"github.com/smazurov/gridlight/internal/version"
)

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *config.Options) {
		// Snapshot of defaults and CLI values, reused when the file changes
		base := *opts

		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.LoggingConfig())
		logger := logging.GetLogger("main")

		if validErr := opts.Validate(); validErr != nil {
			logger.Error("Invalid configuration", "error", validErr)
			os.Exit(1)
		}

		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))

		// OnStart runs on its own goroutine; OnStop runs on the signal path
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		var (
			mu       sync.Mutex
			stoppers []func()
		)
		onShutdown := func(stop func()) {
			mu.Lock()
			stoppers = append(stoppers, stop)
			mu.Unlock()
		}

		hooks.OnStart(func() {
			defer close(done)

			eventBus := events.New()

			fetcher, err := cmd.NewFetcher(opts)
			if err != nil {
				logger.Error("Failed to create signal fetcher", "error", err)
				os.Exit(1)
			}

			mon := monitor.New(&monitor.Options{
				Fetcher:    fetcher,
				Classifier: signal.NewClassifier(logging.GetLogger("signal")),
				Indicator:  cmd.NewIndicator(opts, eventBus),
				EventBus:   eventBus,
				Watchdog:   notifier,
				Logger:     logging.GetLogger("monitor"),
			})

			if opts.Config != "" {
				watcher := config.NewWatcher(opts.Config, config.LoggingReloader(base, cli.Root()), logging.GetLogger("config"))
				watcher.OnReload(func(cfg logging.Config) {
					logging.Initialize(cfg)
					logger.Info("Logging levels reloaded", "level", cfg.Level)
				})
				if watchErr := watcher.Start(); watchErr != nil {
					logger.Debug("Config file not watched", "path", opts.Config, "error", watchErr)
				} else {
					onShutdown(func() {
						if stopErr := watcher.Stop(); stopErr != nil {
							logger.Warn("Error stopping config watcher", "error", stopErr)
						}
					})
				}
			}

			if opts.MQTTBroker != "" {
				publisher := mqtt.NewPublisher(mqtt.Config{
					Broker:   opts.MQTTBroker,
					ClientID: opts.MQTTClientID,
					Topic:    opts.MQTTTopic,
				}, logging.GetLogger("mqtt"))
				if mqttErr := publisher.Start(eventBus); mqttErr != nil {
					logger.Warn("MQTT publishing disabled", "error", mqttErr)
				} else {
					onShutdown(publisher.Stop)
				}
			}

			if opts.ServerEnabled {
				server := api.NewServer(&api.Options{
					EventBus:          eventBus,
					PrometheusHandler: exporters.HTTPHandler(),
				})
				go func() {
					if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
						logger.Error("Failed to start HTTP server", "error", startErr)
					}
				}()
				onShutdown(func() {
					if stopErr := server.Stop(); stopErr != nil {
						logger.Error("Error stopping HTTP server", "error", stopErr)
					}
				})
			}

			logger.Info("Starting gridlight", "version", version.String(), "url", fetcher.URL())
			notifier.Ready()

			if runErr := mon.Run(ctx); runErr != nil {
				logger.Error("Monitor failed", "error", runErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			// Monitor first so the LEDs are off before anything else goes away
			cancel()
			<-done

			mu.Lock()
			defer mu.Unlock()
			for i := len(stoppers) - 1; i >= 0; i-- {
				stoppers[i]()
			}
		})
	})

	cli.Root().Use = "gridlight"
	cli.Root().Short = "Show the grid renewable-energy signal on traffic-light LEDs"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateCheckCmd())
	cli.Root().AddCommand(cmd.CreateLEDsCmd())

	cli.Run()
}
