package bus

import (
	"bytes"
	"sync"

	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// maxBufferSize bounds each direction of a simulated bus.
const maxBufferSize = 4096

// SerialPort is a simulated UART implementing ports.Bus. It holds two
// bounded byte FIFOs (inbound: external → device, outbound: device →
// external) behind a single mutex. Inbound overflow silently drops the
// injected command; outbound overflow fails the offending Write.
type SerialPort struct {
	mu       sync.Mutex
	inbound  bytes.Buffer
	outbound bytes.Buffer
	baudRate int
}

func NewSerialPort() *SerialPort {
	return &SerialPort{baudRate: 115200}
}

func (p *SerialPort) Type() ports.BusType { return ports.BusUART }

func (p *SerialPort) Write(data []byte) bool {
	if len(data) == 0 {
		return true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.outbound.Len()+len(data) > maxBufferSize {
		return false
	}
	p.outbound.Write(data)
	return true
}

func (p *SerialPort) Read(maxLen int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inbound.Len() == 0 || maxLen <= 0 {
		return nil
	}
	n := maxLen
	if n > p.inbound.Len() {
		n = p.inbound.Len()
	}
	out := make([]byte, n)
	p.inbound.Read(out)
	return out
}

// Inject simulates an external sender placing a command on the wire.
// A trailing newline is appended if the command does not end with one.
// The whole command is dropped if it would overflow the inbound buffer.
func (p *SerialPort) Inject(command string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	needNewline := len(command) > 0 && command[len(command)-1] != '\n'
	n := len(command)
	if needNewline {
		n++
	}
	if p.inbound.Len()+n > maxBufferSize {
		return
	}
	p.inbound.WriteString(command)
	if needNewline {
		p.inbound.WriteByte('\n')
	}
}

// CollectResponse drains the outbound buffer up to the next newline
// (exclusive) and returns the accumulated string. The second return is
// false when the outbound buffer was empty.
func (p *SerialPort) CollectResponse() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.outbound.Len() == 0 {
		return "", false
	}

	var sb []byte
	for p.outbound.Len() > 0 {
		b, _ := p.outbound.ReadByte()
		if b == '\n' {
			break
		}
		sb = append(sb, b)
	}
	if len(sb) == 0 {
		return "", false
	}
	return string(sb), true
}

// Available reports the number of inbound bytes waiting for the device.
func (p *SerialPort) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inbound.Len()
}

// Clear discards both buffers.
func (p *SerialPort) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inbound.Reset()
	p.outbound.Reset()
}

// SetBaudRate configures the simulated line speed. UART-specific: not
// part of ports.Bus, reachable only with a concrete reference.
func (p *SerialPort) SetBaudRate(rate int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baudRate = rate
}

func (p *SerialPort) BaudRate() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.baudRate
}

var _ ports.Bus = (*SerialPort)(nil)
