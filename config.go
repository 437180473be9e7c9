package xbee

// Config bounds the codec/transport layer. MaxFrameSize defaults to
// DefaultMaxFrameSize (256) when left zero, matching the source library's
// compile-time constant while letting callers raise or lower it.
type Config struct {
	MaxFrameSize int
}

// Callbacks is the user-supplied notification table. Any field may be left
// nil to mean "no handler"; the driver checks for nil before every call
// rather than requiring a full implementation.
type Callbacks struct {
	OnReceive    func(d *Device, packet interface{})
	OnSend       func(d *Device, packet interface{})
	OnConnect    func(d *Device)
	OnDisconnect func(d *Device)
}
