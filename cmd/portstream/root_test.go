//go:build linux

package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	serial "github.com/luhtfiimanal/portstream"
	"github.com/luhtfiimanal/portstream/internal/logging"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_ConfigErrors(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer

	err := run(ctx, &out, options{baud: "9600"})
	require.ErrorIs(t, err, errNoPort)

	err = run(ctx, &out, options{port: "/dev/" + strings.Repeat("x", serial.MaxPortLen), baud: "9600"})
	require.ErrorIs(t, err, serial.ErrAllocation)

	// Invalid baud fails before anything is opened or printed.
	err = run(ctx, &out, options{port: "/dev/ttyUSB0", baud: "0"})
	require.ErrorIs(t, err, serial.ErrInvalidBaudRate)
	require.Empty(t, out.String())

	err = run(ctx, &out, options{port: "/dev/does-not-exist", baud: "9600", clean: true})
	require.ErrorIs(t, err, serial.ErrOpen)
}

func TestRun_InterruptEndsSession(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &lockedBuffer{}

	result := make(chan error, 1)
	go func() {
		result <- run(ctx, out, options{port: slave.Name(), baud: "115200", clean: true})
	}()

	require.Eventually(t, func() bool {
		master.Write([]byte("ping\n"))
		return strings.Contains(out.String(), "ping\n")
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-result:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for run to exit after interrupt")
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-p", "/dev/ttyACM0", "-b", "9600", "-t", "-c"}))

	port, _ := cmd.Flags().GetString("port")
	baud, _ := cmd.Flags().GetString("baud")
	ts, _ := cmd.Flags().GetBool("timestamp")
	clean, _ := cmd.Flags().GetBool("clean")
	require.Equal(t, "/dev/ttyACM0", port)
	require.Equal(t, "9600", baud)
	require.True(t, ts)
	require.True(t, clean)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(envPort, "/dev/ttyS1")
	t.Setenv(envBaud, "57600")

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-b", "9600"}))

	opts := options{baud: "9600"}
	applyEnv(cmd, &opts)
	require.Equal(t, "/dev/ttyS1", opts.port)
	require.Equal(t, "9600", opts.baud, "explicit flag wins over the environment")
}

func TestRootCmd_BannerThenError(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-p", "/dev/does-not-exist", "-b", "9600"})

	err := cmd.Execute()
	require.ErrorIs(t, err, serial.ErrOpen)
	require.Contains(t, out.String(), "PortStream")
	require.Contains(t, out.String(), "/dev/does-not-exist")
}

// captureLog points the default logger at a buffer for the test.
func captureLog(t *testing.T) *lockedBuffer {
	t.Helper()
	logs := &lockedBuffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(logging.New(logs, logging.Options{Level: slog.LevelInfo, NoColor: true, Module: "portstream"})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return logs
}

func TestRootCmd_BadCommandLineIsReported(t *testing.T) {
	for name, tc := range map[string]struct {
		args []string
		want string
	}{
		"unknown flag":  {[]string{"-x"}, "unknown shorthand flag"},
		"missing value": {[]string{"-p"}, "flag needs an argument"},
		"extra arg":     {[]string{"-p", "/dev/ttyS0", "extra"}, "unknown command"},
	} {
		t.Run(name, func(t *testing.T) {
			logs := captureLog(t)
			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tc.args)

			err := cmd.Execute()
			require.Error(t, err)
			require.Empty(t, out.String())
			require.Contains(t, logs.String(), "[portstream] invalid command line")
			require.Contains(t, logs.String(), tc.want)
			require.Equal(t, 1, strings.Count(logs.String(), "\n"))
		})
	}
}

func TestRun_MissingPortIsReported(t *testing.T) {
	logs := captureLog(t)

	err := run(context.Background(), &bytes.Buffer{}, options{baud: "9600"})
	require.ErrorIs(t, err, errNoPort)
	require.Contains(t, logs.String(), "no serial port given")
}
