//go:build rp2040

package main

import "machine"

// InitUSB configures machine.Serial, which is USB CDC-ACM on the RP2040.
// The descriptors come from the TinyGo runtime.
func InitUSB() {
	if err := machine.Serial.Configure(machine.UARTConfig{}); err != nil {
		return
	}
}

// USBAvailable returns the number of bytes waiting on USB
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads one byte from USB
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes data to USB
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
