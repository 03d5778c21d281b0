//go:build rp2040

package main

import "machine"

// debugUART carries debug text, or the led_state stream when that backend is
// selected. TX=GPIO12, RX=GPIO13.
var debugUART = machine.UART0

// initDebugUART configures UART0 at 115200 baud
func initDebugUART() error {
	return debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO12,
		RX:       machine.GPIO13,
	})
}

// debugWrite is the core.DebugWriter for this board
func debugWrite(s string) {
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
