package serial

import (
	"io"
	"time"
)

// TimestampLayout is the time.Layout of the chunk prefix: DD/MM HH:MM:SS.mmm.
const TimestampLayout = "02/01 15:04:05.000"

// FormatTimestamp renders t the way chunk prefixes show it.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Printer writes received chunks to an io.Writer.
// Each non-empty chunk results in exactly one Write call.
type Printer struct {
	w         io.Writer
	timestamp bool
	now       func() time.Time
	buf       []byte
}

// NewPrinter returns a Printer honouring the given settings.
func NewPrinter(w io.Writer, s Settings) *Printer {
	return &Printer{w: w, timestamp: s.Timestamp, now: time.Now}
}

// Print writes chunk, prefixed with "[<timestamp>]: " when timestamps are
// enabled. An empty chunk writes nothing.
func (p *Printer) Print(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	p.buf = p.buf[:0]
	if p.timestamp {
		p.buf = append(p.buf, '[')
		p.buf = append(p.buf, FormatTimestamp(p.now())...)
		p.buf = append(p.buf, "]: "...)
	}
	p.buf = append(p.buf, chunk...)
	_, err := p.w.Write(p.buf)
	return err
}
