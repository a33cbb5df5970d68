package fft

import (
	"fmt"
	"sync"
)

// Device is an externally acquired handle onto an accelerator context. The
// handles are opaque to this package; zero values request the engine default.
// One Device serialises the calls submitted through it, so concurrent callers
// sharing a command queue never interleave.
type Device struct {
	Platform     uintptr
	Device       uintptr
	Context      uintptr
	CommandQueue uintptr
	ID           uint64

	mu sync.Mutex
}

// NewDevice returns a handle on the engine's device with the given id.
func NewDevice(id uint64) *Device {
	return &Device{ID: id}
}

func (d *Device) String() string {
	if d == nil {
		return "default device"
	}
	return fmt.Sprintf("device %d", d.ID)
}

// Submit validates p, runs it on engine while holding the device, and turns
// a non-success code into an *EngineError.
func (d *Device) Submit(engine Engine, p *Parameters) error {
	if err := CheckBuffers(p); err != nil {
		return err
	}
	if d != nil {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	if res := engine.Run(d, p); res != Success {
		return &EngineError{Code: res}
	}
	return nil
}
