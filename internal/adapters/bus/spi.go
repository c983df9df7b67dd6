package bus

import (
	"bytes"
	"sync"

	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// SPIBus is a simulated SPI transport. Chip select and SPI mode are
// local configuration, invisible through ports.Bus.
type SPIBus struct {
	mu       sync.Mutex
	inbound  bytes.Buffer
	outbound bytes.Buffer

	chipSelect int
	mode       int // SPI mode 0-3
}

func NewSPIBus(chipSelect int) *SPIBus {
	return &SPIBus{chipSelect: chipSelect}
}

func (b *SPIBus) Type() ports.BusType { return ports.BusSPI }

func (b *SPIBus) Write(data []byte) bool {
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

func (b *SPIBus) Read(maxLen int) []byte {
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

func (b *SPIBus) Inject(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inbound.Len()+len(data) > maxBufferSize {
		return
	}
	b.inbound.Write(data)
}

func (b *SPIBus) Drain() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outbound.Len() == 0 {
		return nil
	}
	out := make([]byte, b.outbound.Len())
	b.outbound.Read(out)
	return out
}

func (b *SPIBus) ChipSelect() int { return b.chipSelect }

func (b *SPIBus) SetMode(mode int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if mode >= 0 && mode <= 3 {
		b.mode = mode
	}
}

func (b *SPIBus) Mode() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

var _ ports.Bus = (*SPIBus)(nil)
