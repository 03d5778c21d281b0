//go:build !tinygo

package core

import "sync"

// irqState is unused on the host. There are no interrupts to mask, so the
// critical section is a mutex that only serialises Rearm callers; Fire does
// not take it and relies on the counter's atomics.
type irqState struct{}

var irqMu sync.Mutex

func disableInterrupts() irqState {
	irqMu.Lock()
	return irqState{}
}

func restoreInterrupts(irqState) {
	irqMu.Unlock()
}
