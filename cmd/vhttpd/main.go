package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/coffyg/vhttpd"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFlag      string
	addrFlag        string
	portFlag        int
	rootFlag        string
	workersFlag     int
	verboseFlag     bool
	logFilenameFlag string

	// this is set at build time
	version string
)

func init() {
	flag.StringVar(&configFlag, "config", "", "YAML configuration file")
	flag.StringVar(&addrFlag, "addr", "", "Address to bind (overrides config)")
	flag.IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	flag.StringVar(&rootFlag, "root", "", "Content root directory (overrides config)")
	flag.IntVar(&workersFlag, "workers", 0, "Worker count in multi-threaded mode (overrides config)")
	flag.BoolVar(&verboseFlag, "v", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	logLevel := zerolog.InfoLevel
	if verboseFlag {
		logLevel = zerolog.TraceLevel
	}

	// stdout, plus the log file if one was given
	logOutputs := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout}}
	if logFilenameFlag != "" {
		logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		}
		defer logFileOutput.Close()
		logOutputs = append(logOutputs, logFileOutput)
	}
	log.Logger = log.Level(logLevel).Output(zerolog.MultiLevelWriter(logOutputs...)).
		With().Timestamp().Str("version", version).Logger()
	vhttpd.SetupLogger(&log.Logger)

	config := vhttpd.DefaultConfig()
	if configFlag != "" {
		var err error
		if config, err = vhttpd.LoadConfig(configFlag); err != nil {
			log.Fatal().Err(err).Msg("Cannot load configuration")
		}
	}
	if addrFlag != "" {
		config.Addr = addrFlag
	}
	if portFlag != 0 {
		config.Port = portFlag
	}
	if rootFlag != "" {
		config.ContentRoot = rootFlag
	}
	if workersFlag != 0 {
		config.Workers = workersFlag
	}

	server, err := vhttpd.NewServer(config, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
	log.Info().Msg("Server shut down")
}
