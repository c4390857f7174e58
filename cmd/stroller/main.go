// Command stroller runs the smart stroller control loop. It samples the grip
// sensors and turn pads, drives the brake solenoid and turn LEDs, and reports
// every change to the telemetry collector.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sweeney/smart-stroller/internal/config"
	"github.com/sweeney/smart-stroller/internal/gpio"
	"github.com/sweeney/smart-stroller/internal/logic"
	"github.com/sweeney/smart-stroller/internal/loop"
	"github.com/sweeney/smart-stroller/internal/metrics"
	"github.com/sweeney/smart-stroller/internal/mqtt"
	"github.com/sweeney/smart-stroller/internal/status"
	"github.com/sweeney/smart-stroller/internal/telemetry"
	"github.com/sweeney/smart-stroller/internal/web"
)

// shutdownGrace bounds how long in-flight deliveries may delay exit.
const shutdownGrace = 2 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newApp() *cli.App {
	app := &cli.App{
		Name:  "stroller",
		Usage: "smart stroller brake and turn-signal controller",
		UsageText: "stroller [--config <file>] [--collector <url>] [--print-state]" +
			"\n\nEXAMPLE:" +
			"\n\tstroller --config /etc/stroller.yaml --collector https://collector.local/items",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "collector", Usage: "telemetry collector `URL`"},
			&cli.DurationFlag{Name: "period", Usage: "control loop period"},
			&cli.StringFlag{Name: "broker", Usage: "MQTT broker address (empty to disable)"},
			&cli.StringFlag{Name: "http", Usage: "HTTP status address (empty to disable)"},
			&cli.DurationFlag{Name: "heartbeat", Usage: "heartbeat interval (0 to disable)"},
			&cli.StringFlag{Name: "chip", Usage: "GPIO chip name"},
			&cli.BoolFlag{Name: "print-state", Usage: "print current inputs and exit"},
		},
		Action: func(c *cli.Context) error {
			printState := c.Bool("print-state")
			cfg, err := loadConfig(c, printState)
			if err != nil {
				return err
			}
			return run(cfg, printState)
		},
	}
	sort.Sort(cli.FlagsByName(app.Flags))
	return app
}

// loadConfig reads defaults, file and environment, then applies flags that
// were set explicitly on the command line.
func loadConfig(c *cli.Context, printState bool) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	if c.IsSet("collector") {
		cfg.Collector.URL = c.String("collector")
	}
	if c.IsSet("period") {
		cfg.Period = c.Duration("period")
	}
	if c.IsSet("broker") {
		cfg.MQTT.Broker = c.String("broker")
	}
	if c.IsSet("http") {
		cfg.HTTP.Addr = c.String("http")
	}
	if c.IsSet("heartbeat") {
		cfg.Heartbeat = c.Duration("heartbeat")
	}
	if c.IsSet("chip") {
		cfg.GPIO.Chip = c.String("chip")
	}

	// Reading the inputs needs no collector.
	if printState {
		if err := cfg.GPIO.Pins.Pins().Validate(); err != nil {
			return cfg, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cfg config.Config, printState bool) error {
	// Outputs are requested low: brake applied, LEDs off.
	port, err := gpio.NewRealPort(cfg.GPIO.Chip, cfg.GPIO.Pins.Pins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer port.Close()

	if printState {
		return printInputs(port)
	}

	m := metrics.New()

	tracker := status.NewTracker(time.Now(), status.Config{
		PeriodMs:    cfg.Period.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Collector:   cfg.Collector.URL,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		Chip:        cfg.GPIO.Chip,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	collector := telemetry.NewHTTPSink(cfg.Collector.URL, &http.Client{},
		telemetry.WithTimeout(cfg.Collector.Timeout),
		telemetry.WithResultFunc(deliveryObserver(m, tracker)),
	)
	sinks := telemetry.Multi{collector}
	dispatchers := []*telemetry.Dispatcher{collector}

	d := &daemon{
		tracker:   tracker,
		heartbeat: cfg.Heartbeat,
		now:       time.Now,
	}

	// The MQTT mirror is optional; the controller runs without a broker.
	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewRealPublisher(cfg.MQTT.Broker)
		if err != nil {
			log.Printf("mqtt: %v, mirror disabled", err)
		} else {
			defer pub.Close()
			mirror := telemetry.NewDispatcher("mqtt", mqtt.DeliverFunc(pub, time.Now),
				telemetry.WithResultFunc(m.ObserveDelivery),
			)
			sinks = append(sinks, mirror)
			dispatchers = append(dispatchers, mirror)
			d.publisher = pub
			d.mqttStatus = pub
		}
	}

	d.runner = loop.New(port, sinks, loop.WithMetrics(m), loop.WithPeriod(cfg.Period))

	d.publishSystem("STARTUP", "")

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, m)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: period=%v collector=%s broker=%s heartbeat=%v chip=%s",
		cfg.Period, cfg.Collector.URL, cfg.MQTT.Broker, cfg.Heartbeat, cfg.GPIO.Chip)

	ticker := loop.NewTicker(cfg.Period)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	loopErr := runLoop(d, ticker.C, sigCh)
	ticker.Stop()

	// Fail-safe first: brake applied and LEDs off before waiting on the network.
	if err := port.Close(); err != nil {
		log.Printf("gpio close: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	for _, disp := range dispatchers {
		if err := disp.Close(ctx); err != nil {
			log.Printf("telemetry: abandoning in-flight deliveries: %v", err)
			break
		}
	}

	return loopErr
}

func printInputs(port gpio.Port) error {
	s, err := loop.Sample(port)
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	fmt.Printf("left_touch=%s right_touch=%s left_turn=%s right_turn=%s mode=%s brake=%s\n",
		onOff(s.LeftTouch), onOff(s.RightTouch), onOff(s.LeftTurn), onOff(s.RightTurn),
		logic.Mode(s), brakeString(logic.Brake(s)))
	return nil
}

// deliveryObserver counts collector outcomes in metrics and the status page.
func deliveryObserver(m *metrics.Metrics, tracker *status.Tracker) telemetry.ResultFunc {
	return func(sink, label string, err error) {
		m.ObserveDelivery(sink, label, err)
		if err != nil {
			tracker.AddTelemetryFailure()
		}
	}
}

// daemon wires the control loop to the status tracker and lifecycle events.
type daemon struct {
	runner     *loop.Runner
	publisher  mqtt.Publisher        // nil when the MQTT mirror is disabled
	mqttStatus mqtt.ConnectionStatus // nil when the MQTT mirror is disabled
	tracker    *status.Tracker
	heartbeat  time.Duration
	now        func() time.Time

	lastHeartbeat time.Time
}

// runLoop runs the control loop until a signal arrives or the loop stops on a
// hardware fault. A fault is recorded, announced and returned.
func runLoop(d *daemon, tick <-chan time.Time, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan os.Signal, 1)
	go func() {
		select {
		case s := <-sig:
			received <- s
			cancel()
		case <-ctx.Done():
		}
	}()

	d.lastHeartbeat = d.now()
	d.runner.AfterTick = d.afterTick

	if err := d.runner.Run(ctx, tick); err != nil {
		d.tracker.SetFault(err)
		if errors.Is(err, gpio.ErrHardwareFault) {
			log.Printf("stopping on hardware fault: %v", err)
		}
		d.publishSystem("FAULT", err.Error())
		return err
	}

	reason := "UNKNOWN"
	select {
	case s := <-received:
		log.Printf("received %v, shutting down", s)
		reason = signalName(s)
	default:
	}
	d.publishSystem("SHUTDOWN", reason)
	return nil
}

func (d *daemon) afterTick(res loop.Result) {
	d.tracker.Update(res.State, res.Ticks, res.Counts)
	d.refreshMQTT()

	if d.heartbeat <= 0 || res.Time.Sub(d.lastHeartbeat) < d.heartbeat {
		return
	}
	d.lastHeartbeat = res.Time

	if net := readNetworkInfo(); net != nil {
		d.tracker.SetNetwork(net)
	}
	snap := d.tracker.Snapshot()
	log.Printf("heartbeat: uptime=%v ticks=%d mode=%s telemetry_failures=%d",
		snap.Uptime().Truncate(time.Second), snap.Ticks, snap.Mode(), snap.TelemetryFailures)
	d.publishSystem("HEARTBEAT", "")
}

func (d *daemon) refreshMQTT() {
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// publishSystem sends a lifecycle event carrying the full status snapshot.
// It is a no-op without a broker.
func (d *daemon) publishSystem(event, reason string) {
	if d.publisher == nil {
		return
	}
	d.refreshMQTT()
	snap := d.tracker.Snapshot()

	ev := mqtt.SystemEvent{
		Timestamp:  d.now(),
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := d.publisher.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
		return
	}
	log.Printf("published %s event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
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

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func brakeString(released bool) string {
	if released {
		return "RELEASED"
	}
	return "APPLIED"
}
