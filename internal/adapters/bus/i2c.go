package bus

import (
	"bytes"
	"sync"

	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// I2CBus is a simulated I2C transport. Same bounded duplex buffers as
// the UART sim; the device address and clock speed stay local to the
// concrete type.
type I2CBus struct {
	mu       sync.Mutex
	inbound  bytes.Buffer
	outbound bytes.Buffer

	address    byte
	clockSpeed int // Hz
}

func NewI2CBus(address byte) *I2CBus {
	return &I2CBus{address: address, clockSpeed: 100_000}
}

func (b *I2CBus) Type() ports.BusType { return ports.BusI2C }

func (b *I2CBus) Write(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outbound.Len()+len(data) > maxBufferSize {
		return false
	}
	b.outbound.Write(data)
	return true
}

func (b *I2CBus) Read(maxLen int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inbound.Len() == 0 || maxLen <= 0 {
		return nil
	}
	n := maxLen
	if n > b.inbound.Len() {
		n = b.inbound.Len()
	}
	out := make([]byte, n)
	b.inbound.Read(out)
	return out
}

// Inject places raw bytes on the inbound side, dropping on overflow.
func (b *I2CBus) Inject(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inbound.Len()+len(data) > maxBufferSize {
		return
	}
	b.inbound.Write(data)
}

// Drain moves everything written by the device off the outbound buffer.
func (b *I2CBus) Drain() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outbound.Len() == 0 {
		return nil
	}
	out := make([]byte, b.outbound.Len())
	b.outbound.Read(out)
	return out
}

func (b *I2CBus) Address() byte { return b.address }

func (b *I2CBus) SetClockSpeed(hz int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clockSpeed = hz
}

func (b *I2CBus) ClockSpeed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clockSpeed
}

var _ ports.Bus = (*I2CBus)(nil)
