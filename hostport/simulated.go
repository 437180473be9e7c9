package hostport

import (
	"bytes"
	"sync"

	"github.com/felixgalindo/xbee-c-library"
)

// Simulated is an in-memory xbee.HostPort backed by two byte buffers: one
// fed by the test (RX, what UARTRead drains) and one UARTWrite appends to
// (TX, what the test inspects). It plays the same role
// in this driver's tests as the teacher's TestLink fake io.ReadWriteCloser
// (spirilis-smacbase/npi_test.go) plays for the SMac NPI PHY tests.
type Simulated struct {
	mu  sync.Mutex
	rx  bytes.Buffer
	TX  bytes.Buffer
	now int64
}

// NewSimulated constructs an empty Simulated port.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// Feed appends bytes to the RX buffer UARTRead will drain from, as if the
// module had just transmitted them.
func (s *Simulated) Feed(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rx.Write(data)
}

// UARTInit is a no-op; Simulated has no real device path or baud rate.
func (s *Simulated) UARTInit(baud int, device string) error { return nil }

// UARTRead drains up to len(buf) bytes from the RX buffer, reporting
// ReadTimeout immediately (no blocking) when the buffer is empty — tests
// drive timing explicitly via Feed, not by waiting on a wall clock.
func (s *Simulated) UARTRead(buf []byte) (xbee.ReadStatus, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rx.Len() == 0 {
		return xbee.ReadTimeout, 0
	}
	n, _ := s.rx.Read(buf)
	if n < len(buf) {
		return xbee.ReadTimeout, n
	}
	return xbee.ReadOK, n
}

// UARTWrite appends buf to TX for later inspection by a test.
func (s *Simulated) UARTWrite(buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TX.Write(buf)
	return nil
}

// Millis returns a counter tests can advance explicitly with Advance, so
// timeout-bounded loops are deterministic instead of depending on wall-clock
// scheduling.
func (s *Simulated) Millis() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the simulated clock forward by ms milliseconds.
func (s *Simulated) Advance(ms int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += ms
}

// Delay advances the simulated clock by ms instead of sleeping, so driver
// timeout loops run at test speed.
func (s *Simulated) Delay(ms int) { s.Advance(int64(ms)) }

// FlushRx discards any buffered-but-unread input.
func (s *Simulated) FlushRx() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rx.Reset()
}

// DebugPrint discards output by default; tests that care about diagnostics
// can wrap Simulated and override this behavior through a thin adapter.
func (s *Simulated) DebugPrint(format string, args ...interface{}) {}
