//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// RP2040VID is the Raspberry Pi USB vendor ID used by RP2040 boards
const RP2040VID = "2E8A"

var ErrNoDevice = errors.New("serial: no LED driver found")

// PortInfo describes one serial port on the host
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

func (p PortInfo) String() string {
	if !p.IsUSB {
		return p.Name
	}
	s := fmt.Sprintf("%s [%s:%s]", p.Name, p.VID, p.PID)
	if p.Product != "" {
		s += " " + p.Product
	}
	if p.SerialNumber != "" {
		s += " sn=" + p.SerialNumber
	}
	return s
}

// ListPorts enumerates the serial ports on the host, sorted by name
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          strings.ToUpper(d.VID),
			PID:          strings.ToUpper(d.PID),
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}

// FindDevice returns the first USB port with an RP2040 vendor ID
func FindDevice(ports []PortInfo) (PortInfo, error) {
	for _, p := range ports {
		if p.IsUSB && p.VID == RP2040VID {
			return p, nil
		}
	}
	return PortInfo{}, ErrNoDevice
}
