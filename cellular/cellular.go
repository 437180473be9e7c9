// Package cellular implements the Cellular module variant:
// APN/SIM/carrier configuration, stateless IPv4 transmit, and the full
// Extended Socket state machine (create/bind/connect/send/sendto/close),
// tracked per socket with named states (SocketState) that each socket
// operation sets directly; there is no separate transition table.
package cellular

import (
	"github.com/felixgalindo/xbee-c-library"
	"github.com/felixgalindo/xbee-c-library/atcmd"
)

// maxSendPayload caps a single Send/SendTo payload.
const maxSendPayload = 120

// Config is the caller-supplied, immutable-by-the-core copy of
// {APN, SIM-PIN, carrier-profile}.
type Config struct {
	APN      string
	SIMPIN   string
	Carrier  string
	Blocking bool // if true, Connect polls AT AI to completion
}

// Device is the Cellular Variant implementation.
type Device struct {
	*xbee.Device

	cfg       Config
	connected bool
	sockets   *socketRegistry
}

// New constructs a Cellular device bound to the given host port.
func New(port xbee.HostPort, xcfg xbee.Config, callbacks xbee.Callbacks) *Device {
	return &Device{
		Device:  xbee.NewDevice(port, xcfg, callbacks),
		sockets: newSocketRegistry(),
	}
}

// Init satisfies xbee.Variant; Cellular needs no extra init beyond what
// xbee.Device.Init already performed.
func (d *Device) Init(base *xbee.Device) error { return nil }

// Configure copies cfg's {APN, SIM-PIN, carrier} fields into the device.
func (d *Device) Configure(base *xbee.Device, cfg interface{}) error {
	c, ok := cfg.(Config)
	if !ok {
		if p, ok2 := cfg.(*Config); ok2 {
			c = *p
		} else {
			return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "cellular.Configure expects cellular.Config"}
		}
	}
	d.cfg = c
	return nil
}

func (d *Device) sendAT(cmd atcmd.Command, param []byte, timeoutMs int) error {
	var resp [64]byte
	var n int
	return d.SendATCommandAndGetResponse(cmd, param, resp[:], &n, timeoutMs)
}

// Connect pushes the stored config by AT command (PN if SIMPIN is
// non-empty, AN if APN is non-empty, CP if Carrier is non-empty), then, if
// cfg.Blocking, polls AT AI up to 60 times with a 1s delay between polls;
// success is response byte == 0.
func (d *Device) Connect(base *xbee.Device) error {
	if d.cfg.SIMPIN != "" {
		if err := d.sendAT(atcmd.PN, []byte(d.cfg.SIMPIN), 5000); err != nil {
			return err
		}
	}
	if d.cfg.APN != "" {
		if err := d.sendAT(atcmd.AN, []byte(d.cfg.APN), 5000); err != nil {
			return err
		}
	}
	if d.cfg.Carrier != "" {
		if err := d.sendAT(atcmd.CP, []byte(d.cfg.Carrier), 5000); err != nil {
			return err
		}
	}

	if !d.cfg.Blocking {
		return nil
	}

	const maxPolls = 60
	for i := 0; i < maxPolls; i++ {
		var resp [1]byte
		var n int
		err := base.SendATCommandAndGetResponse(atcmd.AI, nil, resp[:], &n, 5000)
		if err == nil && n >= 1 && resp[0] == 0 {
			d.connected = true
			if base.Callbacks.OnConnect != nil {
				base.Callbacks.OnConnect(base)
			}
			return nil
		}
		base.Delay(1000)
	}
	return &xbee.Error{Kind: xbee.ErrResponseTimeout, Detail: "cellular attach did not complete within poll budget"}
}

// Disconnect forgets local attach state; there is no explicit detach frame
// in this wire protocol.
func (d *Device) Disconnect(base *xbee.Device) error {
	d.connected = false
	if base.Callbacks.OnDisconnect != nil {
		base.Callbacks.OnDisconnect(base)
	}
	return nil
}

// Connected reports whether the last blocking Connect() observed AI==0.
func (d *Device) Connected(base *xbee.Device) bool { return d.connected }

// SoftReset delegates to the shared AT RE implementation.
func (d *Device) SoftReset(base *xbee.Device) bool { return base.SoftReset() }

// HardReset has no cellular-specific hard-reset line beyond the host port;
// reports unsupported.
func (d *Device) HardReset(base *xbee.Device) bool { return false }

// Process pumps exactly one inbound frame (if any is immediately available)
// through the Frame Router.
func (d *Device) Process(base *xbee.Device) error {
	_, err := base.ReceiveAndRoute()
	return err
}

// SendData satisfies xbee.Variant by accepting a *Packet and deferring to
// SendPacket (the stateless IPv4 transmit, not a socket send).
func (d *Device) SendData(base *xbee.Device, packet interface{}) error {
	p, ok := packet.(*Packet)
	if !ok {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "cellular.SendData expects *cellular.Packet"}
	}
	return d.SendPacket(p)
}

// SendPacket builds the stateless IPv4 TX frame (type 0x20):
// [frameId, protocol, portMsb, portLsb, ip0..3, payload…].
func (d *Device) SendPacket(p *Packet) error {
	id := d.NextFrameID()
	p.FrameID = id

	payload := make([]byte, 0, 8+len(p.Payload))
	payload = append(payload, id, p.Protocol, byte(p.Port>>8), byte(p.Port))
	payload = append(payload, p.IP[:]...)
	payload = append(payload, p.Payload...)

	if err := d.Transport.SendFrame(xbee.FrameTXRequest, payload); err != nil {
		return err
	}
	if d.Callbacks.OnSend != nil {
		d.Callbacks.OnSend(d.Device, p)
	}
	return nil
}

// HandleTransmitStatusFrame satisfies xbee.Variant. The stateless IPv4 send
// path has no per-packet TX-status frame in this wire protocol; any 0x8B
// frame received on a Cellular device is logged and dropped.
func (d *Device) HandleTransmitStatusFrame(base *xbee.Device, f *xbee.Frame) {
	base.DebugPrint("cellular: unexpected TX status frame, dropping")
}

// HandleRxPacketFrame satisfies xbee.Variant, dispatching 0xCD (connected
// socket RX) and 0xCE (socket RX-from) frames.
func (d *Device) HandleRxPacketFrame(base *xbee.Device, f *xbee.Frame) {
	switch f.Type {
	case xbee.FrameSocketRx:
		d.handleSocketRx(base, f)
	case xbee.FrameSocketRxFrom:
		d.handleSocketRxFrom(base, f)
	default:
		base.DebugPrint("cellular: unexpected RX frame type=0x%02X, dropping", f.Type)
	}
}

func (d *Device) handleSocketRx(base *xbee.Device, f *xbee.Frame) {
	if len(f.Payload) < 3 {
		base.DebugPrint("cellular: 0xCD frame too short (%d bytes), dropping", len(f.Payload))
		return
	}
	p := &Packet{
		FrameID:  f.Payload[0],
		SocketID: f.Payload[1],
		Status:   f.Payload[2],
		Payload:  append([]byte(nil), f.Payload[3:]...),
	}
	if base.Callbacks.OnReceive != nil {
		base.Callbacks.OnReceive(base, p)
	}
}

func (d *Device) handleSocketRxFrom(base *xbee.Device, f *xbee.Frame) {
	if len(f.Payload) < 9 {
		base.DebugPrint("cellular: 0xCE frame too short (%d bytes), dropping", len(f.Payload))
		return
	}
	p := &Packet{
		FrameID:    f.Payload[0],
		SocketID:   f.Payload[1],
		Status:     f.Payload[2],
		RemotePort: uint16(f.Payload[7])<<8 | uint16(f.Payload[8]),
		Payload:    append([]byte(nil), f.Payload[9:]...),
	}
	copy(p.IP[:], f.Payload[3:7])
	if base.Callbacks.OnReceive != nil {
		base.Callbacks.OnReceive(base, p)
	}
}
