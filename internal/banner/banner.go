// Package banner renders the startup header shown before a session starts.
package banner

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Width is the header width in columns.
const Width = 80

const title = " PortStream "

var titleColor = color.New(color.FgCyan, color.Bold)

// Write prints the header for port and baud to w.
func Write(w io.Writer, port, baud string, timestamps bool) error {
	state := "disabled"
	if timestamps {
		state = "enabled"
	}

	side := strings.Repeat("*", (Width-len(title))/2)
	if _, err := fmt.Fprint(w, side); err != nil {
		return err
	}
	if _, err := titleColor.Fprint(w, title); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n%s%s%s%s\n",
		side,
		row("Port", port),
		row("Baud-rate", baud),
		row("Timestamps", state),
		strings.Repeat("*", Width),
	)
	return err
}

// row right-aligns value inside "* label: ... *".
func row(label, value string) string {
	head := "* " + label + ": "
	pad := Width - len(head) - len(" *")
	return fmt.Sprintf("%s%*s *\n", head, pad, value)
}
