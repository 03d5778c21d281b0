//go:build rp2040

package main

import (
	"device/rp"
	"machine"

	"dmxled/dmx"
)

// DMX-512 line format: 250k baud, 8 data bits, 2 stop bits
const dmxBaud = 250000

// UARTDR error flags
const (
	uartDRFraming = 1 << 8
	uartDRBreak   = 1 << 10
	uartDROverrun = 1 << 11
)

var dmxReceiver *dmx.Receiver

// initDMX configures UART1 for DMX on rx and takes over its RX FIFO. The
// machine package's interrupt handler drops the error flags, and the break
// flag is what frames a DMX packet, so the FIFO is polled directly.
func initDMX(rx uint8, live *dmx.Buffer) error {
	err := machine.UART1.Configure(machine.UARTConfig{
		BaudRate: dmxBaud,
		TX:       machine.GPIO8,
		RX:       machine.Pin(rx),
	})
	if err != nil {
		return err
	}
	if err := machine.UART1.SetFormat(8, 2, machine.ParityNone); err != nil {
		return err
	}
	rp.UART1.UARTIMSC.ClearBits(rp.UART0_UARTIMSC_RXIM | rp.UART0_UARTIMSC_RTIM)

	dmxReceiver = dmx.NewReceiver(live)
	return nil
}

// pollDMX drains the UART FIFO into the receiver. The FIFO holds 32 slots,
// about 1.4ms of line time, so the main loop must call this at least that
// often.
func pollDMX() {
	if dmxReceiver == nil {
		return
	}
	for !rp.UART1.UARTFR.HasBits(rp.UART0_UARTFR_RXFE) {
		dr := rp.UART1.UARTDR.Get()
		switch {
		case dr&uartDRBreak != 0:
			dmxReceiver.Break()
		case dr&(uartDRFraming|uartDROverrun) != 0:
			dmxReceiver.FramingError()
		default:
			dmxReceiver.Byte(uint8(dr))
		}
	}
}
