// Package serial provides a minimal, Linux-only, read-only serial port
// monitor session.
//
// A session opens a character device, puts the line discipline into raw
// 8N1 mode with a 100ms read timeout, and copies every chunk the device
// delivers to an io.Writer, optionally prefixed with a timestamp of the
// form [DD/MM HH:MM:SS.mmm]: .
//
// Features:
//   - Raw syscall-based serial I/O on Linux, no buffering delays
//   - Validated configuration (port path bound, strict baud parsing)
//   - Bounded poll wait between reads instead of busy spinning
//   - Self-pipe and context cancellation for killability
//   - PTY-based tests for reliability
//
// This package does **not** support Windows, and it never writes to the
// device.
//
// Example usage:
//
//	var cfg serial.Config
//	if err := cfg.SetPort("/dev/ttyUSB0"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.SetBaudRate("115200"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg.EnableTimestamp()
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	s, err := serial.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	// Run returns once ctx is cancelled or Close is called.
//	err = s.Run(ctx, os.Stdout)
package serial
