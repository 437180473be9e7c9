package xbee

import "github.com/felixgalindo/xbee-c-library/atcmd"

// Variant is the polymorphic surface a module family (LoRaWAN, Cellular)
// must implement. Device supplies the lifecycle glue and AT-command
// plumbing every variant shares; Variant supplies the frame types, state
// machines, and higher-level operations unique to a family.
//
// Device holds a Variant value and dispatches to it dynamically, while the
// variant's own public API (e.g. lorawan.Device.SetAppEUI) is resolved
// statically by its concrete type.
type Variant interface {
	Init(d *Device) error
	Connect(d *Device) error
	Disconnect(d *Device) error
	SendData(d *Device, packet interface{}) error
	SoftReset(d *Device) bool
	HardReset(d *Device) bool
	Process(d *Device) error
	Connected(d *Device) bool
	HandleRxPacketFrame(d *Device, f *Frame)
	HandleTransmitStatusFrame(d *Device, f *Frame)
	Configure(d *Device, cfg interface{}) error
}

// Device owns the host-port transport, the user callback table, the
// frame-ID counter, and a reference to whichever Variant implementation a
// caller constructed it with.
type Device struct {
	Transport *Transport
	Callbacks Callbacks
	Variant   Variant

	frameIDCntr byte
}

// NewDevice constructs a Device. cfg may be the zero value to accept
// defaults (DefaultMaxFrameSize).
func NewDevice(port HostPort, cfg Config, callbacks Callbacks) *Device {
	return &Device{
		Transport: NewTransport(port, cfg.MaxFrameSize),
		Callbacks: callbacks,
	}
}

// nextFrameID returns the next frame ID to stamp on an outbound frame that
// requires correlation: monotonic, 8-bit, wrapping to 1 and never emitting 0.
// The counter is primed to 1 by Init, so the first ID a freshly-initialized
// device emits is 1, not 2 — it hands out the current value, then advances.
func (d *Device) nextFrameID() byte {
	id := d.frameIDCntr
	d.frameIDCntr++
	if d.frameIDCntr == 0 {
		d.frameIDCntr = 1
	}
	return id
}

// Init opens the host port, resets the frame-ID counter to 1, and delegates
// to the variant's own Init.
func (d *Device) Init(variant Variant, baud int, dev string) error {
	d.frameIDCntr = 1
	d.Variant = variant
	if err := d.Transport.Port.UARTInit(baud, dev); err != nil {
		return newErrorf(ErrUartFailure, "%v", err)
	}
	return variant.Init(d)
}

// Connect, Disconnect, SendData, Process, Connected delegate to the
// variant. They exist on Device so callers can program against one type
// regardless of which variant they constructed.
func (d *Device) Connect() error                    { return d.Variant.Connect(d) }
func (d *Device) Disconnect() error                 { return d.Variant.Disconnect(d) }
func (d *Device) SendData(packet interface{}) error { return d.Variant.SendData(d, packet) }
func (d *Device) Process() error                    { return d.Variant.Process(d) }
func (d *Device) Connected() bool                   { return d.Variant.Connected(d) }
func (d *Device) Configure(cfg interface{}) error   { return d.Variant.Configure(d, cfg) }

// SoftReset sends AT RE and returns whether the command frame was accepted
// (status 0). It does not wait for or verify the module actually restarted.
func (d *Device) SoftReset() bool {
	var resp [32]byte
	var n int
	err := d.SendATCommandAndGetResponse(atcmd.RE, nil, resp[:], &n, 1000)
	return err == nil
}

// WriteConfig sends AT WR and waits up to 5s for the reply.
func (d *Device) WriteConfig() error {
	var resp [32]byte
	var n int
	return d.SendATCommandAndGetResponse(atcmd.WR, nil, resp[:], &n, 5000)
}

// ApplyChanges sends AT AC and waits up to 5s for the reply.
func (d *Device) ApplyChanges() error {
	var resp [32]byte
	var n int
	return d.SendATCommandAndGetResponse(atcmd.AC, nil, resp[:], &n, 5000)
}

// SetAPIOptions sends AT AO with a single byte parameter.
func (d *Device) SetAPIOptions(value byte) error {
	var resp [32]byte
	var n int
	return d.SendATCommandAndGetResponse(atcmd.AO, []byte{value}, resp[:], &n, 5000)
}

// FirmwareVersion reads AT VR (4 bytes, assembled MSB-first).
func (d *Device) FirmwareVersion() (uint32, error) {
	var resp [4]byte
	var n int
	if err := d.SendATCommandAndGetResponse(atcmd.VR, nil, resp[:], &n, 5000); err != nil {
		return 0, err
	}
	if n < 4 {
		return 0, newErrorf(ErrBufferTooSmall, "VR returned %d bytes, want 4", n)
	}
	return beUint32(resp[:4]), nil
}

// HardwareVersion reads AT HV (2 bytes).
func (d *Device) HardwareVersion() (uint16, error) {
	var resp [2]byte
	var n int
	if err := d.SendATCommandAndGetResponse(atcmd.HV, nil, resp[:], &n, 5000); err != nil {
		return 0, err
	}
	if n < 2 {
		return 0, newErrorf(ErrBufferTooSmall, "HV returned %d bytes, want 2", n)
	}
	return uint16(resp[0])<<8 | uint16(resp[1]), nil
}

// LastHopRSSI reads AT DB (1 byte), returned negated as signed dBm.
func (d *Device) LastHopRSSI() (int, error) {
	var resp [1]byte
	var n int
	if err := d.SendATCommandAndGetResponse(atcmd.DB, nil, resp[:], &n, 5000); err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, newErrorf(ErrBufferTooSmall, "DB returned %d bytes, want 1", n)
	}
	return -int(resp[0]), nil
}

// SerialNumber reads AT SH + AT SL (each 4 bytes) and combines them into a
// 64-bit serial number.
func (d *Device) SerialNumber() (uint64, error) {
	var shResp, slResp [4]byte
	var n int
	if err := d.SendATCommandAndGetResponse(atcmd.SH, nil, shResp[:], &n, 5000); err != nil {
		return 0, err
	}
	if n < 4 {
		return 0, newErrorf(ErrBufferTooSmall, "SH returned %d bytes, want 4", n)
	}
	if err := d.SendATCommandAndGetResponse(atcmd.SL, nil, slResp[:], &n, 5000); err != nil {
		return 0, err
	}
	if n < 4 {
		return 0, newErrorf(ErrBufferTooSmall, "SL returned %d bytes, want 4", n)
	}
	return uint64(beUint32(shResp[:]))<<32 | uint64(beUint32(slResp[:])), nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// routeFrame dispatches a received frame (other than the AT response the
// correlator itself is waiting on) to the right handler by type. A type
// with no variant handler is logged and dropped, never silently discarded
// without trace and never panicking.
func (d *Device) routeFrame(f *Frame) {
	switch f.Type {
	case FrameATResponse:
		d.debugf("routeFrame: unsolicited AT response frame, dropping")
	case FrameModemStatus:
		d.debugf("routeFrame: modem status frame payload=% X", f.Payload)
	case FrameTXStatus:
		if d.Variant != nil {
			d.Variant.HandleTransmitStatusFrame(d, f)
		} else {
			d.debugf("routeFrame: TX status frame with no variant handler set, dropping")
		}
	case FrameLRRx, FrameLRExplicitRx, FrameSocketRx, FrameSocketRxFrom:
		if d.Variant != nil {
			d.Variant.HandleRxPacketFrame(d, f)
		} else {
			d.debugf("routeFrame: RX frame type=0x%02X with no variant handler set, dropping", f.Type)
		}
	default:
		d.debugf("routeFrame: unknown frame type=0x%02X, dropping", f.Type)
	}
}

// RouteFrame exposes the Frame Router to variant packages that run their
// own dedicated wait loop for a frame type the router doesn't recognize
// (e.g. Cellular's socket-response frames 0xC0/0xC2/0xC6/0xCF): they receive
// frames themselves, and hand off anything that isn't the response they're
// waiting for to RouteFrame so it isn't silently lost.
func (d *Device) RouteFrame(f *Frame) { d.routeFrame(f) }

// NextFrameID exposes the monotonic frame-ID counter to variant packages
// that need to correlate their own non-AT frames (LR TX requests, Cellular
// socket frames) the same way the correlator does for AT commands.
func (d *Device) NextFrameID() byte { return d.nextFrameID() }

// ReceiveAndRoute receives one frame and dispatches it through the Frame
// Router (routeFrame), returning the frame alongside any receive error so a
// variant-level loop (Process, the LoRaWAN TX-status wait) can inspect its
// own bookkeeping immediately afterward without duplicating dispatch logic.
func (d *Device) ReceiveAndRoute() (*Frame, error) {
	f, err := d.Transport.ReceiveFrame()
	if err != nil {
		return nil, err
	}
	d.routeFrame(f)
	return f, nil
}

// Millis exposes the host port's clock to variant packages implementing
// their own timeout-bounded waits.
func (d *Device) Millis() int64 { return d.Transport.Port.Millis() }

// Delay exposes the host port's cooperative sleep to variant packages.
func (d *Device) Delay(ms int) { d.Transport.Port.Delay(ms) }

// DebugPrint exposes the host port's diagnostic sink to variant packages.
func (d *Device) DebugPrint(format string, args ...interface{}) { d.debugf(format, args...) }

func (d *Device) debugf(format string, args ...interface{}) {
	if d.Transport != nil && d.Transport.Port != nil {
		d.Transport.Port.DebugPrint(format, args...)
	}
}
