// Package hostport provides concrete xbee.HostPort implementations: a real
// UART backed by github.com/jacobsa/go-serial (the same library the teacher
// uses for its own PHY, spirilis-smacbase/npi_phy.go's NewSerialPHY), and an
// in-memory Simulated port for tests. Both CLIs (xbeectl, xbeesim) use
// SerialPort.
package hostport

import (
	"fmt"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/sirupsen/logrus"

	"github.com/felixgalindo/xbee-c-library"
)

// SerialPort adapts a real UART to xbee.HostPort, the way
// spirilis-smacbase/npi_phy.go's NewSerialPHY adapts one to an
// io.ReadWriteCloser for the SMac NPI PHY.
type SerialPort struct {
	io  serialReadWriteCloser
	log *logrus.Entry

	readTimeout time.Duration
}

type serialReadWriteCloser interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// NewSerialPort prepares a SerialPort; UARTInit performs the actual open so
// that the Device.Init lifecycle (spec.md §4.G) stays in charge of when the
// port comes up.
func NewSerialPort(logger *logrus.Logger) *SerialPort {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SerialPort{
		log:         logger.WithField("component", "xbee.hostport.serial"),
		readTimeout: xbee.UARTReadTimeoutMs * time.Millisecond,
	}
}

// UARTInit opens the serial device at the given baud rate, 8N1, with a read
// timeout matching spec.md §4.A's default 1000ms window.
func (s *SerialPort) UARTInit(baud int, device string) error {
	opts := serial.OpenOptions{
		PortName:              device,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: uint(s.readTimeout / time.Millisecond),
	}
	port, err := serial.Open(opts)
	if err != nil {
		return fmt.Errorf("hostport: open %s @ %d baud: %w", device, baud, err)
	}
	s.io = port
	s.log.WithFields(logrus.Fields{"device": device, "baud": baud}).Info("uart opened")
	return nil
}

// UARTRead fills buf as far as the port's read timeout allows, reporting
// ReadTimeout if the deadline elapses first.
func (s *SerialPort) UARTRead(buf []byte) (xbee.ReadStatus, int) {
	total := 0
	for total < len(buf) {
		n, err := s.io.Read(buf[total:])
		total += n
		if err != nil || n == 0 {
			return xbee.ReadTimeout, total
		}
	}
	return xbee.ReadOK, total
}

// UARTWrite writes buf in full.
func (s *SerialPort) UARTWrite(buf []byte) error {
	_, err := s.io.Write(buf)
	return err
}

// Millis returns a monotonic millisecond counter based on time.Now().
func (s *SerialPort) Millis() int64 { return time.Now().UnixMilli() }

// Delay cooperatively sleeps for ms milliseconds.
func (s *SerialPort) Delay(ms int) { time.Sleep(time.Duration(ms) * time.Millisecond) }

// FlushRx is a no-op: github.com/jacobsa/go-serial does not expose an
// explicit RX-buffer flush primitive.
func (s *SerialPort) FlushRx() {}

// DebugPrint logs through logrus, the ecosystem's LoRaWAN-stack logger
// (adopted from other_examples/manifests/brocaar-lorawan).
func (s *SerialPort) DebugPrint(format string, args ...interface{}) {
	s.log.Debugf(format, args...)
}

// Close releases the underlying serial port.
func (s *SerialPort) Close() error {
	if s.io == nil {
		return nil
	}
	return s.io.Close()
}
