// Command fireplace-control drives the fireplace heater and light from MQTT commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/elzekool/mqtt-fireplace-control/internal/config"
	"github.com/elzekool/mqtt-fireplace-control/internal/engine"
	"github.com/elzekool/mqtt-fireplace-control/internal/gpio"
	"github.com/elzekool/mqtt-fireplace-control/internal/journal"
	"github.com/elzekool/mqtt-fireplace-control/internal/logger"
	"github.com/elzekool/mqtt-fireplace-control/internal/metrics"
	"github.com/elzekool/mqtt-fireplace-control/internal/mqtt"
	"github.com/elzekool/mqtt-fireplace-control/internal/status"
	"github.com/elzekool/mqtt-fireplace-control/internal/web"
)

const (
	// healthMaxAge is how long a loop may go without stepping before /health fails.
	healthMaxAge    = 5 * time.Second
	refreshInterval = time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(cfg.Log.Level)
	os.Exit(runMain(cfg, log))
}

// runMain runs the controller until SIGINT/SIGTERM and returns the exit
// code. Deferred cleanup completes before main exits.
func runMain(cfg *config.Config, log *logger.Logger) int {
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Errorw("fatal", "err", err)
		return 1
	}
	log.Infow("stopped")
	return 0
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	act, err := gpio.NewRealActuator(cfg.GPIO.Chip, cfg.Pins(), cfg.PWM())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := act.Close(); err != nil {
			log.Errorw("close gpio", "err", err)
		}
	}()

	bus, err := mqtt.NewRealBus(mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		QoS:      byte(cfg.MQTT.QoS),
		Retain:   cfg.MQTT.Retain,
		Topics:   cfg.Topics(),
	}, log.Named("mqtt"))
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer bus.Close()

	return serve(ctx, cfg, log, act, bus)
}

// commandBus is what serve needs from the broker connection.
type commandBus interface {
	mqtt.Bus
	mqtt.ConnectionStatus
}

// serve wires the engines, observers and status server around an already
// initialised actuator and bus, and runs until ctx is done or a loop fails.
func serve(ctx context.Context, cfg *config.Config, log *logger.Logger, act gpio.Actuator, bus commandBus) error {
	tracker := status.NewTracker(time.Now(), status.Config{
		Broker:      cfg.MQTT.Broker,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		HTTPAddr:    cfg.HTTP.Addr,
		PreRollMs:   cfg.Heater.PreRoll.Milliseconds(),
		CooldownMs:  cfg.Heater.Cooldown.Milliseconds(),
		IdleMs:      cfg.Loop.Idle.Milliseconds(),
		JournalPath: cfg.Journal.Path,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	reg := prometheus.NewRegistry()
	observers := engine.Observers{tracker, metrics.New(reg)}
	webOpts := web.Options{Metrics: metrics.Handler(reg)}

	var jrnl *journal.Journal
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path, log.Named("journal"))
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
		jrnl = j
		observers = append(observers, j)
		webOpts.Events = j
	}

	opts := engine.Options{
		Actuator: act,
		Bus:      bus,
		Topics:   cfg.Topics(),
		Observer: observers,
		Log:      log.Named("engine"),
		Timings:  cfg.Timings(),
		Idle:     cfg.Loop.Idle,
	}
	heater := engine.NewHeater(opts)
	light := engine.NewLight(opts)
	sup := &engine.Supervisor{
		Router: engine.NewRouter(bus, heater, light, opts),
		Heater: heater,
		Light:  light,
	}
	webOpts.Health = func(now time.Time) error { return sup.Healthy(now, healthMaxAge) }

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sup.Run(gctx) })
	g.Go(func() error { return refreshLoop(gctx, tracker, sup, bus, refreshInterval) })
	if jrnl != nil {
		g.Go(func() error { return jrnl.Run(gctx) })
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, webOpts)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		log.Infow("http status server listening", "addr", cfg.HTTP.Addr)
	}

	log.Infow("started",
		"broker", cfg.MQTT.Broker,
		"prefix", cfg.MQTT.TopicPrefix,
		"preroll", cfg.Heater.PreRoll,
		"cooldown", cfg.Heater.Cooldown,
		"idle", cfg.Loop.Idle,
	)

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// refreshLoop copies engine state into the tracker until ctx is done.
func refreshLoop(ctx context.Context, tracker *status.Tracker, sup *engine.Supervisor, conn mqtt.ConnectionStatus, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		tracker.Update(sup.Heater.State(), sup.Light.State())
		tracker.SetMQTTConnected(conn.IsConnected())
		if net := readNetworkInfo(); net != nil {
			tracker.SetNetwork(net)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
