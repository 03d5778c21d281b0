//go:build rp2040

package main

import (
	"errors"
	"machine"
	"runtime"
	"time"

	"dmxled/config"
	"dmxled/core"
	"dmxled/dmx"
	"dmxled/output"
	"dmxled/protocol"
)

const firmwareVersion = "dmxled-rp2040"

var (
	// Link buffers
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	// Debug counters
	msgerrors uint32

	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	// Clear watchdog state left over from a previous reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitUSB()

	cfg := config.DefaultConfig()
	core.SetDebugEnabled(cfg.Debug)
	if err := initDebugUART(); err == nil && cfg.Output.Backend != config.BackendStream {
		core.SetDebugWriter(debugWrite)
	}
	core.InitAsyncDebug()

	ticks := InitClock(cfg.Timing.TickPeriod)

	live := dmx.NewBuffer(cfg.DMX.Address, cfg.DMX.LEDs)
	mux := dmx.NewMux(live, cfg.DMX.LEDs)
	ctrl := core.NewController(ticks, cfg.DMX.LEDs)

	if err := initDMX(cfg.Pins.DMXRX, live); err != nil {
		core.DebugPrintln("[DMX] " + err.Error())
	} else {
		core.SetDMXCounters(dmxReceiver)
	}

	core.InitLinkCommands(ctrl, mux)
	core.RegisterConstant(core.ConstDMXAddress, live.Address())
	core.GetGlobalDictionary().SetVersion(firmwareVersion)
	core.GetGlobalDictionary().SetBuildVersions("tinygo " + runtime.Version())

	driver, err := newLEDDriver(cfg)
	if err == nil {
		err = driver.Configure(cfg.DMX.LEDs)
	}
	if err != nil {
		// Keep the link up so the failure can be read back with dump_timing
		core.RecordTiming(core.EvtOutputError, 0, 0, 0, 0)
		core.DebugPrintln("[LED] " + err.Error())
		driver = output.Multi{}
	}
	core.SetLEDDriver(driver)

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()

	transport = protocol.NewTransport(outputBuffer, core.DispatchCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
		mux.ClearOverride()
	})
	// ACKs go out before the next block is parsed
	transport.SetFlushCallback(writeUSB)
	core.SetGlobalTransport(transport)

	go usbReaderLoop()

	ticks.Start(cfg.Timing.TickPeriod)

	outputFailing := false
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			pollDMX()

			levels := ctrl.Iterate(mux.Snapshot())
			if err := core.MustLED().Write(levels); err != nil {
				if !outputFailing {
					status := ctrl.Status()
					core.RecordTiming(core.EvtOutputError, status.Ticks, status.Loops, 0, 0)
					core.DebugAsync("[LED] " + err.Error())
				}
				outputFailing = true
			} else {
				outputFailing = false
			}

			// an I2C frame can take longer than the UART FIFO lasts
			pollDMX()

			if inputBuffer.Available() > 0 {
				data := inputBuffer.Data()
				input := protocol.NewSliceInputBuffer(data)
				transport.Receive(input)
				if consumed := len(data) - input.Available(); consumed > 0 {
					inputBuffer.Pop(consumed)
				}
			}

			if len(outputBuffer.Result()) > 0 {
				writeUSB()
			}
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

// newLEDDriver builds the output backend named by the config
func newLEDDriver(cfg *config.Config) (core.LEDDriver, error) {
	switch cfg.Output.Backend {
	case config.BackendPWM:
		return NewRP2040PWMDriver(cfg.Pins.LEDs), nil
	case config.BackendPCA9685:
		bus, err := configureI2C(cfg.Pins.SDA, cfg.Pins.SCL)
		if err != nil {
			return nil, err
		}
		return output.NewPCA9685Driver(bus, cfg.Output.PCA9685.Address, cfg.Output.PCA9685.Period), nil
	case config.BackendWS2812:
		return NewWS2812Driver(machine.Pin(cfg.Pins.WS2812))
	case config.BackendStream:
		id, _ := core.ResponseID("led_state")
		return output.NewStreamDriver(debugUART, id), nil
	}
	return nil, errors.New("backend not available on this board: " + cfg.Output.Backend)
}

// usbReaderLoop moves USB bytes into the input fifo
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				msgerrors++
				time.Sleep(time.Millisecond)
				continue
			}

			// First byte after a disconnect starts a fresh session
			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				transport.Reset()
				consecutiveWriteFailures = 0
			}

			if inputBuffer.Write([]byte{data}) == 0 {
				msgerrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB flushes the output buffer. After repeated failures the host is
// assumed gone and pending output is dropped.
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				inputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
