// Package lorawan implements the LoRaWAN variant of spec.md §4.H: join
// semantics, TX-status-bounded send, downlink delivery, and the
// APP-EUI/APP-KEY/NWK-KEY/class/region/RX-window setters.
//
// It is grounded on the teacher's appdrivers.FrameReceiver pattern
// (spirilis-smacbase/appdrivers), generalized from a progID-keyed handler
// registry to the single HandleRxPacketFrame entry point the Frame Router
// of this driver calls by frame type.
package lorawan

import (
	"github.com/felixgalindo/xbee-c-library"
	"github.com/felixgalindo/xbee-c-library/atcmd"
)

// Class identifies a LoRaWAN device class.
type Class byte

const (
	ClassA Class = 'A'
	ClassB Class = 'B'
	ClassC Class = 'C'
)

// Device is the LoRaWAN Variant implementation. It embeds *xbee.Device for
// the common lifecycle/AT-command plumbing and adds the bookkeeping spec.md
// §3 calls out as variant-specific state: outstanding TX-status tracking.
type Device struct {
	*xbee.Device

	joined bool

	pendingFrameID byte
	pendingStatus  byte
	gotStatus      bool
}

// New constructs a LoRaWAN device bound to the given host port.
func New(port xbee.HostPort, cfg xbee.Config, callbacks xbee.Callbacks) *Device {
	d := &Device{Device: xbee.NewDevice(port, cfg, callbacks)}
	return d
}

// Init satisfies xbee.Variant. It performs no LoRaWAN-specific setup beyond
// what xbee.Device.Init already did (frameIdCntr reset); join happens in
// Connect.
func (d *Device) Init(base *xbee.Device) error { return nil }

// Connect sends AT JN (join) and then polls AT AI until the response byte
// equals 1 (attached) or the poll budget is exhausted (spec.md §4.H).
func (d *Device) Connect(base *xbee.Device) error {
	var resp [8]byte
	var n int
	if err := base.SendATCommandAndGetResponse(atcmd.JN, nil, resp[:], &n, 5000); err != nil {
		return err
	}

	const pollInterval = 1000 // ms
	const maxPolls = 60
	for i := 0; i < maxPolls; i++ {
		var aiResp [1]byte
		var aiN int
		err := base.SendATCommandAndGetResponse(atcmd.AI, nil, aiResp[:], &aiN, 5000)
		if err == nil && aiN >= 1 && aiResp[0] == 1 {
			d.joined = true
			if base.Callbacks.OnConnect != nil {
				base.Callbacks.OnConnect(base)
			}
			return nil
		}
		base.Delay(pollInterval)
	}
	return &xbee.Error{Kind: xbee.ErrResponseTimeout, Detail: "join did not attach within poll budget"}
}

// Disconnect has no LoRaWAN-specific teardown frame; it just forgets local
// join state so Connected() reports false until the next successful join.
func (d *Device) Disconnect(base *xbee.Device) error {
	d.joined = false
	if base.Callbacks.OnDisconnect != nil {
		base.Callbacks.OnDisconnect(base)
	}
	return nil
}

// Connected reports whether the last Connect() call observed AI==1.
func (d *Device) Connected(base *xbee.Device) bool { return d.joined }

// SoftReset delegates to the shared AT RE implementation.
func (d *Device) SoftReset(base *xbee.Device) bool { return base.SoftReset() }

// HardReset has no LoRaWAN-specific hard-reset line to toggle beyond what
// the host port itself exposes; the base driver has none, so this reports
// unsupported by returning false without sending anything.
func (d *Device) HardReset(base *xbee.Device) bool { return false }

// Process pumps exactly one inbound frame (if any is immediately available)
// through the Frame Router; a cooperative caller's main loop calls this
// repeatedly to keep RX/TX-status handling live between explicit calls.
func (d *Device) Process(base *xbee.Device) error {
	_, err := base.ReceiveAndRoute()
	return err
}

// Configure always returns an ErrInvalidCommand error for LoRaWAN: there is
// no caller-supplied config struct analogous to Cellular's APN/PIN/carrier,
// only the per-field setters in config.go.
func (d *Device) Configure(base *xbee.Device, cfg interface{}) error {
	return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "LoRaWAN variant has no bulk Configure; use the individual setters"}
}

// SendData satisfies xbee.Variant by accepting a *Packet and deferring to
// SendPacket.
func (d *Device) SendData(base *xbee.Device, packet interface{}) error {
	p, ok := packet.(*Packet)
	if !ok {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "lorawan.SendData expects *lorawan.Packet"}
	}
	_, err := d.SendPacket(p, 10000)
	return err
}

// SendPacket builds a TX request frame (type 0x20) from pkt, sends it, then
// blocks until a TX-Status frame (type 0x8B) with the matching frame ID
// updates delivery status, or timeoutMs elapses. It returns the delivery
// status byte (0 = success) from that TX-Status frame.
func (d *Device) SendPacket(pkt *Packet, timeoutMs int) (byte, error) {
	id := d.NextFrameID()
	pkt.FrameID = id

	ack := byte(0)
	if pkt.Ack {
		ack = 1
	}
	payload := make([]byte, 0, 3+len(pkt.Payload))
	payload = append(payload, id, pkt.Port, ack)
	payload = append(payload, pkt.Payload...)

	if err := d.Transport.SendFrame(xbee.FrameTXRequest, payload); err != nil {
		return 0, err
	}
	if d.Callbacks.OnSend != nil {
		d.Callbacks.OnSend(d.Device, pkt)
	}

	d.gotStatus = false
	d.pendingFrameID = id

	start := d.Millis()
	for {
		if _, err := d.ReceiveAndRoute(); err != nil {
			d.DebugPrint("lorawan: SendPacket recv error while waiting for TX status: %v", err)
		}
		if d.gotStatus && d.pendingFrameID == id {
			pkt.Status = d.pendingStatus
			return d.pendingStatus, nil
		}
		if d.Millis()-start >= int64(timeoutMs) {
			return 0, &xbee.Error{Kind: xbee.ErrResponseTimeout, Detail: "no TX status frame before timeout"}
		}
		d.Delay(1)
	}
}

// HandleTransmitStatusFrame satisfies xbee.Variant: payload is
// [frameId, deliveryStatus]. It records the result for whichever SendPacket
// call is waiting on this frame ID.
func (d *Device) HandleTransmitStatusFrame(base *xbee.Device, f *xbee.Frame) {
	if len(f.Payload) < 2 {
		base.DebugPrint("lorawan: malformed TX status frame, dropping")
		return
	}
	if f.Payload[0] != d.pendingFrameID {
		base.DebugPrint("lorawan: TX status frame ID mismatch, dropping")
		return
	}
	d.pendingStatus = f.Payload[1]
	d.gotStatus = true
}

// HandleRxPacketFrame satisfies xbee.Variant. It deserializes
// [port, rssi, snr, counter(4), payload...] (type 0xA0 or 0xA1) and invokes
// the OnReceive callback with a populated Packet.
func (d *Device) HandleRxPacketFrame(base *xbee.Device, f *xbee.Frame) {
	if len(f.Payload) < 7 {
		base.DebugPrint("lorawan: RX frame too short (%d bytes), dropping", len(f.Payload))
		return
	}
	p := &Packet{
		Port:    f.Payload[0],
		RSSI:    int8(f.Payload[1]),
		SNR:     int8(f.Payload[2]),
		Counter: uint32(f.Payload[3])<<24 | uint32(f.Payload[4])<<16 | uint32(f.Payload[5])<<8 | uint32(f.Payload[6]),
		Payload: append([]byte(nil), f.Payload[7:]...),
	}
	if base.Callbacks.OnReceive != nil {
		base.Callbacks.OnReceive(base, p)
	}
}
