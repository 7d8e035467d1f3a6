// WattsUp logger - records power, voltage and current from a WattsUp
// meter on a serial port, or replays a captured raw stream, to a plain
// text log while showing live readings.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"wattsup-logger/internal/collector"
	"wattsup-logger/internal/config"
	"wattsup-logger/internal/display"
	"wattsup-logger/internal/meter"
	"wattsup-logger/internal/metrics"
	"wattsup-logger/internal/version"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Command line flag variables
var (
	cfgFile string // Configuration file path
	verbose bool   // Info level logging
	debug   bool   // Debug level logging
)

var rootCmd = &cobra.Command{
	Use:   "wattsup-logger",
	Short: "Log power readings from a WattsUp meter",
	Long: `wattsup-logger puts a WattsUp power meter into external logging mode and
records every sample (power, voltage, current) to a text log. With --simulate
it replays a raw capture made with --raw instead of reading a device.`,
	Version:      version.Version,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.SetVersionTemplate(version.Info("wattsup-logger") + "\n")

	defaults := config.DefaultConfig()
	flags := rootCmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "./wattsup.yaml", "config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log session progress")
	flags.BoolVarP(&debug, "debug", "d", false, "log every line and rejected record")

	flags.StringP("port", "p", defaults.Meter.Port, "meter serial device, or raw file with --simulate")
	flags.IntP("interval", "i", defaults.Meter.Interval, "sample interval in seconds")
	flags.BoolP("simulate", "s", defaults.Simulation.Enabled, "replay a raw capture instead of reading a meter")
	flags.Float64("speedup", defaults.Simulation.Speedup, "replay speed factor for --simulate")
	flags.BoolP("raw", "r", defaults.Output.Raw, "also capture accepted lines to a .raw file next to the log")
	flags.Bool("internal-at-end", defaults.Meter.InternalModeAtEnd, "switch the meter to internal logging when done")
	flags.Bool("chart", defaults.Display.Chart, "draw a live power chart")
	flags.StringP("outfile", "o", defaults.Output.File, "sample log file, empty to disable")
	flags.Duration("silence-timeout", defaults.Meter.SilenceTimeout, "end the session when the meter sends nothing this long, 0 to wait forever")
	flags.String("metrics-listen", defaults.Metrics.Listen, "serve Prometheus metrics on this address")

	bind := map[string]string{
		"meter.port":                 "port",
		"meter.interval":             "interval",
		"meter.internal_mode_at_end": "internal-at-end",
		"meter.silence_timeout":      "silence-timeout",
		"simulation.enabled":         "simulate",
		"simulation.speedup":         "speedup",
		"output.file":                "outfile",
		"output.raw":                 "raw",
		"display.chart":              "chart",
		"metrics.listen":             "metrics-listen",
	}
	for key, name := range bind {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	viper.SetConfigFile(cfgFile)
	viper.SetEnvPrefix("WATTSUP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	switch {
	case err == nil:
		if verbose || debug {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	case errors.Is(err, os.ErrNotExist) && !rootCmd.Flags().Changed("config"):
		// no config file is fine unless one was asked for
	default:
		fmt.Fprintf(os.Stderr, "Warning: config file %s: %v\n", cfgFile, err)
	}
}

func runLogger() error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	switch {
	case debug:
		cfg.Logging.Level = "debug"
	case verbose:
		cfg.Logging.Level = "info"
	}

	fs := afero.NewOsFs()
	logger, logCloser, err := config.NewLogger(fs, cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := meter.Open(fs, meter.Options{
		Port:           cfg.Meter.Port,
		BaudRate:       cfg.Meter.BaudRate,
		Simulate:       cfg.Simulation.Enabled,
		SilenceTimeout: cfg.Meter.SilenceTimeout,
	}, logger)
	if errors.Is(err, meter.ErrDeviceNotFound) {
		return fmt.Errorf("%w\nCheck that the meter is plugged in and its USB serial driver is installed,\n"+
			"or pass --port (the usual device on %s is %s)", err, runtime.GOOS, config.DefaultPort(runtime.GOOS))
	}
	if err != nil {
		return err
	}

	var observers []collector.Observer
	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		observers = append(observers, metrics.NewExporter(cfg.Meter.Interval, reg))
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, reg, logger); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	view := newView(cfg, logger)
	opts := collector.Options{
		Interval:          cfg.Meter.Interval,
		Simulate:          cfg.Simulation.Enabled,
		Speedup:           cfg.Simulation.Speedup,
		InternalModeAtEnd: cfg.Meter.InternalModeAtEnd,
		RawCapture:        cfg.Output.Raw,
		OutFile:           cfg.Output.File,
		Fs:                fs,
		Observers:         observers,
		Logger:            logger,
	}

	var sum collector.Summary
	if cfg.Display.Chart {
		p := collector.NewPipeline(view, cfg.Display.Buffer)
		opts.View = p.Producer()
		sum, err = p.Run(ctx, collector.NewSession(src, opts))
	} else {
		opts.View = view
		sum, err = collector.NewSession(src, opts).Run(ctx)
	}

	printSummary(os.Stdout, sum)
	return err
}

// newView picks a full-screen view on a terminal and plain lines
// otherwise. Keyboard quit is best effort.
func newView(cfg *config.Config, logger *slog.Logger) collector.View {
	var keys display.Quitter
	if kr, err := display.NewKeyReader(os.Stdin); err != nil {
		logger.Warn("keyboard quit unavailable, use Ctrl-C", "err", err)
	} else {
		keys = kr
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return display.NewTerminal(os.Stdout, keys, cfg.Display.Chart)
	}
	return display.NewLines(os.Stdout, keys)
}

func printSummary(w io.Writer, sum collector.Summary) {
	fmt.Fprintf(w, "\nSession %s ended: %s\n", sum.ID, sum.Reason)
	fmt.Fprintf(w, "Samples: %d (%d rejected)\n", sum.Samples, sum.Rejected)
	fmt.Fprintf(w, "Duration: %v\n", time.Duration(sum.Elapsed)*time.Second)
	fmt.Fprintf(w, "Average power: %.1f W\n", sum.AvgPower)
	fmt.Fprintf(w, "Energy: %.3f Wh\n", sum.EnergyWh)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
