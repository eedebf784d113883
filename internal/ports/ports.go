// Package ports lists the serial ports present on the system.
package ports

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Port describes one serial device.
type Port struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// List enumerates serial ports, sorted by name.
func List() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerating ports: %w", err)
	}
	return fromDetails(details), nil
}

func fromDetails(details []*enumerator.PortDetails) []Port {
	var list []Port
	for _, p := range details {
		if p == nil {
			continue
		}
		list = append(list, Port{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          strings.ToUpper(p.VID),
			PID:          strings.ToUpper(p.PID),
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Write prints one port per line.
func Write(w io.Writer, list []Port) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no serial ports found")
		return err
	}
	for _, p := range list {
		if _, err := fmt.Fprintln(w, p.String()); err != nil {
			return err
		}
	}
	return nil
}

func (p Port) String() string {
	if !p.IsUSB {
		return p.Name
	}
	s := fmt.Sprintf("%s  [%s:%s]", p.Name, p.VID, p.PID)
	if p.Product != "" {
		s += " " + p.Product
	}
	if p.SerialNumber != "" {
		s += " (" + p.SerialNumber + ")"
	}
	return s
}
