//go:build linux

package serial

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// ReadChunkSize is the most a single read takes from the port.
	ReadChunkSize = 127

	// settleDelay lets the driver's input buffer settle before it is flushed.
	settleDelay = time.Millisecond

	// pollTimeout bounds how long Run waits for data before re-checking
	// for cancellation. Matches VTIME.
	pollTimeout = 100 * time.Millisecond
)

// Session is an open, configured, read-only serial port.
// Run owns the descriptor while active; Close may be called from any goroutine.
type Session struct {
	mu        sync.Mutex
	fd        int
	done      chan struct{}
	closeOnce sync.Once
	config    Config
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
	now       func() time.Time
}

// Open opens the device named by cfg and configures it for raw,
// non-blocking 8N1 reception. If ctx is done before setup completes the
// descriptor is released and ctx.Err() returned.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDONLY|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, cfg.Device, err)
	}

	// Nothing else may happen between open and attribute setup.
	time.Sleep(settleDelay)
	if err := flush(fd); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := configure(fd, cfg.BaudRate); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// Create self-pipe for killability
	pipeFds := make([]int, 2)
	if err := unix.Pipe2(pipeFds, unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("pipe: %w", err)
	}

	return &Session{
		fd:     fd,
		done:   make(chan struct{}),
		config: cfg,
		pipeR:  pipeFds[0],
		pipeW:  pipeFds[1],
		now:    time.Now,
	}, nil
}

// Run copies everything the port receives to w until ctx is cancelled or
// the session is closed. Cancelling ctx closes the session.
//
// Read errors and empty reads are treated as "nothing available" and never
// end the loop. Run returns ctx.Err() after cancellation, ErrClosed after a
// direct Close, or the first error returned by w.
func (s *Session) Run(ctx context.Context, w io.Writer) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	p := NewPrinter(w, s.config.Settings())
	p.now = s.now
	buf := make([]byte, ReadChunkSize)
	for {
		n, ok := s.readChunk(buf)
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			return ErrClosed
		}
		if n <= 0 {
			continue
		}
		if err := p.Print(buf[:n]); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
}

// readChunk waits up to pollTimeout for data and reads at most len(buf)
// bytes. ok is false once the session is closed; the descriptor is never
// touched after that.
func (s *Session) readChunk(buf []byte) (n int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return 0, false
	default:
	}

	// Use poll to wait for data or kill signal
	pfd := []unix.PollFd{
		{Fd: int32(s.fd), Events: unix.POLLIN},
		{Fd: int32(s.pipeR), Events: unix.POLLIN},
	}
	ready, err := unix.Poll(pfd, int(pollTimeout/time.Millisecond))
	if err != nil || ready == 0 {
		return 0, true
	}
	if pfd[1].Revents&unix.POLLIN != 0 {
		return 0, false
	}

	n, err = unix.Read(s.fd, buf)
	if err != nil || n <= 0 {
		// A hung-up line polls ready forever; don't spin on it.
		if pfd[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
			s.idle()
		}
		return 0, true
	}
	return n, true
}

func (s *Session) idle() {
	t := time.NewTimer(pollTimeout)
	defer t.Stop()
	select {
	case <-s.done:
	case <-t.C:
	}
}

// Close closes the serial port and unblocks Run.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		// Wake up poll using self-pipe
		unix.Write(s.pipeW, []byte{1})

		s.mu.Lock()
		defer s.mu.Unlock()
		err = unix.Close(s.fd)
		unix.Close(s.pipeR)
		unix.Close(s.pipeW)
	})
	return err
}
