package serial

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPortLen is the longest device path a Config accepts, in bytes.
const MaxPortLen = 127

var (
	// ErrAllocation reports a port path that cannot be stored: empty,
	// longer than MaxPortLen or containing a NUL byte.
	ErrAllocation = errors.New("port path cannot be stored")
	// ErrInvalidBaudRate reports a baud rate that is not a positive base-10 integer.
	ErrInvalidBaudRate = errors.New("invalid baud rate")
	// ErrConfiguration reports a failure to apply terminal attributes.
	ErrConfiguration = errors.New("unable to apply serial attributes")
	// ErrOpen reports a device that could not be opened.
	ErrOpen = errors.New("unable to open port")
	// ErrClosed is returned by Run when the session was closed directly.
	ErrClosed = errors.New("serial session closed")
)

// Settings holds the display options of a session.
type Settings struct {
	Timestamp bool
}

// Config holds configuration parameters for opening a serial port.
//
// The setters validate their input and leave the Config untouched on
// failure. A Config built as a literal is validated again by Open.
type Config struct {
	Device    string
	BaudRate  int
	Timestamp bool
}

// SetPort stores the device path.
func (c *Config) SetPort(path string) error {
	if err := checkPort(path); err != nil {
		return err
	}
	c.Device = path
	return nil
}

// SetBaudRate parses text as a base-10 baud rate and stores it.
// Zero, signed, empty and non-numeric input are all rejected.
func (c *Config) SetBaudRate(text string) error {
	baud, err := parseBaudRate(text)
	if err != nil {
		return err
	}
	c.BaudRate = baud
	return nil
}

// EnableTimestamp turns on the per-chunk timestamp prefix.
func (c *Config) EnableTimestamp() { c.Timestamp = true }

// Settings returns a copy of the display settings.
func (c *Config) Settings() Settings {
	return Settings{Timestamp: c.Timestamp}
}

func (c Config) validate() error {
	if err := checkPort(c.Device); err != nil {
		return err
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, c.BaudRate)
	}
	return nil
}

func checkPort(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("%w: empty path", ErrAllocation)
	case len(path) > MaxPortLen:
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrAllocation, len(path), MaxPortLen)
	case strings.IndexByte(path, 0) >= 0:
		return fmt.Errorf("%w: path contains NUL", ErrAllocation)
	}
	return nil
}

func parseBaudRate(text string) (int, error) {
	v, err := strconv.ParseUint(text, 10, 31)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBaudRate, text)
	}
	return int(v), nil
}
