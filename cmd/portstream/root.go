//go:build linux

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	serial "github.com/luhtfiimanal/portstream"
	"github.com/luhtfiimanal/portstream/internal/banner"
	"github.com/luhtfiimanal/portstream/internal/logging"
	"github.com/luhtfiimanal/portstream/internal/ports"
)

const (
	envPort = "PORTSTREAM_PORT"
	envBaud = "PORTSTREAM_BAUD"

	defaultBaud = "115200"
)

var errNoPort = errors.New("no serial port given")

type options struct {
	port      string
	baud      string
	timestamp bool
	clean     bool
	list      bool
	verbose   bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "portstream -p <port> [-b <baud>] [-t] [-c]",
		Short: "print everything a serial port receives",
		Long: "portstream opens a serial device read-only in raw 8N1 mode and copies\n" +
			"every byte it receives to stdout until interrupted.",
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.NoArgs(cmd, args))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			godotenv.Load()
			applyEnv(cmd, &opts)
			if opts.verbose {
				logging.Level.Set(slog.LevelDebug)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	f := cmd.Flags()
	f.StringVarP(&opts.port, "port", "p", "", "serial device path (env "+envPort+")")
	f.StringVarP(&opts.baud, "baud", "b", defaultBaud, "baud rate (env "+envBaud+")")
	f.BoolVarP(&opts.timestamp, "timestamp", "t", false, "prefix each received chunk with a timestamp")
	f.BoolVarP(&opts.clean, "clean", "c", false, "don't print the startup banner")
	f.BoolVarP(&opts.list, "list", "l", false, "list serial ports and exit")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	return cmd
}

// usageError logs a command-line mistake, which cobra would otherwise
// return silently since errors are silenced for run's own diagnostics.
func usageError(err error) error {
	if err != nil {
		slog.Default().Error("invalid command line", "error", err)
	}
	return err
}

// applyEnv fills flags the user didn't set from the environment.
func applyEnv(cmd *cobra.Command, opts *options) {
	if v, ok := os.LookupEnv(envPort); ok && !cmd.Flags().Changed("port") {
		opts.port = v
	}
	if v, ok := os.LookupEnv(envBaud); ok && !cmd.Flags().Changed("baud") {
		opts.baud = v
	}
}

// run configures and opens the port, then prints until ctx is cancelled.
// It returns nil only when listing ports; a session always ends in an error.
func run(ctx context.Context, stdout io.Writer, opts options) error {
	log := slog.Default()

	if opts.list {
		list, err := ports.List()
		if err != nil {
			log.Error("unable to list ports", "error", err)
			return err
		}
		return ports.Write(stdout, list)
	}

	var cfg serial.Config
	if opts.port == "" {
		log.Error("no serial port given, use -p <port>")
		return errNoPort
	}
	if err := cfg.SetPort(opts.port); err != nil {
		log.Error("unable to connect to port", "port", opts.port, "error", err)
		return err
	}
	if err := cfg.SetBaudRate(opts.baud); err != nil {
		log.Error("setup of baud-rate failed", "baud", opts.baud, "error", err)
		return err
	}
	if opts.timestamp {
		cfg.EnableTimestamp()
	}

	if !opts.clean {
		if err := banner.Write(stdout, cfg.Device, opts.baud, cfg.Settings().Timestamp); err != nil {
			return err
		}
	}

	s, err := serial.Open(ctx, cfg)
	if errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		log.Error("unable to open port", "port", cfg.Device, "error", err)
		return err
	}
	defer s.Close()
	log.Debug("session started", "port", cfg.Device, "baud", cfg.BaudRate)

	err = s.Run(ctx, stdout)
	if errors.Is(err, context.Canceled) {
		log.Debug("interrupted, port closed", "port", cfg.Device)
	} else {
		log.Error("session ended", "port", cfg.Device, "error", err)
	}
	return err
}
