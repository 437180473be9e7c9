package xbee

// Transport wraps a HostPort with the frame-level read/write state machine.
// It is the only place in the driver that talks raw bytes; everything above
// it deals in Frame values.
//
// The read side is a byte-accumulation loop with explicit states. It
// resynchronizes on garbage one byte per call: a call whose first byte is
// not the start delimiter fails with ErrInvalidStartDelimiter, and the next
// call starts again at the following byte.
type Transport struct {
	Port         HostPort
	MaxFrameSize int
}

// NewTransport constructs a Transport bound to port with the given maximum
// frame size (payload+type). A non-positive size falls back to
// DefaultMaxFrameSize.
func NewTransport(port HostPort, maxFrameSize int) *Transport {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Transport{Port: port, MaxFrameSize: maxFrameSize}
}

// SendFrame encodes and writes a frame in one shot.
func (t *Transport) SendFrame(typ byte, payload []byte) error {
	buf, err := Encode(typ, payload, t.MaxFrameSize)
	if err != nil {
		return err
	}
	if err := t.Port.UARTWrite(buf); err != nil {
		return newErrorf(ErrUartFailure, "%v", err)
	}
	return nil
}

type rxState int

const (
	stateWaitDelim rxState = iota
	stateReadLen
	stateReadData
	stateReadChecksum
)

// ReceiveFrame runs the frame-assembly FSM to completion: wait for 0x7E,
// read the big-endian length, read that many payload bytes, read and verify
// the checksum. Each HostPort.UARTRead call already carries its own
// per-call timeout; ReceiveFrame does not add a second timeout layer of its
// own — a caller wanting an overall deadline loops on ReceiveFrame and
// checks Millis() itself (see Device.SendATCommandAndGetResponse).
func (t *Transport) ReceiveFrame() (*Frame, error) {
	state := stateWaitDelim
	var one [1]byte
	var lenBuf [2]byte
	var length int
	var data []byte

	for {
		switch state {
		case stateWaitDelim:
			status, n := t.Port.UARTRead(one[:])
			if status != ReadOK || n < 1 {
				return nil, newError(ErrInvalidStartDelimiter)
			}
			if one[0] != StartDelimiter {
				return nil, newError(ErrInvalidStartDelimiter)
			}
			state = stateReadLen

		case stateReadLen:
			status, n := t.Port.UARTRead(lenBuf[:])
			if n < 2 || status != ReadOK {
				return nil, newError(ErrTimeoutLen)
			}
			length = int(lenBuf[0])<<8 | int(lenBuf[1])
			if length < 1 || length > t.MaxFrameSize {
				return nil, newErrorf(ErrLengthExceedsBuffer, "length=%d max=%d", length, t.MaxFrameSize)
			}
			data = make([]byte, length)
			state = stateReadData

		case stateReadData:
			status, n := t.Port.UARTRead(data)
			if n < length || status != ReadOK {
				return nil, newError(ErrTimeoutData)
			}
			state = stateReadChecksum

		case stateReadChecksum:
			// A read returning zero bytes (n < 1) is the timeout case; a
			// checksum byte value of 0x00 itself is perfectly legitimate
			// and must not be mistaken for a timeout.
			status, n := t.Port.UARTRead(one[:])
			if n < 1 || status != ReadOK {
				return nil, newError(ErrTimeoutChecksum)
			}
			typ := data[0]
			payload := data[1:]
			if checksumOf(typ, payload) != one[0] {
				return nil, newError(ErrInvalidChecksum)
			}
			return &Frame{Type: typ, Payload: append([]byte(nil), payload...)}, nil
		}
	}
}
