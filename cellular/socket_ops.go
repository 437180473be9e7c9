package cellular

import "github.com/felixgalindo/xbee-c-library"

// waitForFrame loops receiving frames until match(f) returns true or
// timeoutMs elapses, routing every frame that doesn't match through the
// Frame Router so RX packets, modem status, and TX status arriving while a
// socket operation waits are never dropped (spec.md's "route unsolicited
// frames through the Frame Router" rule, extended here to the socket
// response frame types 0xC0/0xC2/0xC6/0xCF that sit outside the router's
// own dispatch table).
func (d *Device) waitForFrame(timeoutMs int, match func(*xbee.Frame) bool) (*xbee.Frame, error) {
	start := d.Millis()
	for {
		f, err := d.Transport.ReceiveFrame()
		if err == nil {
			if match(f) {
				return f, nil
			}
			d.RouteFrame(f)
		}
		if d.Millis()-start >= int64(timeoutMs) {
			return nil, &xbee.Error{Kind: xbee.ErrResponseTimeout, Detail: "no matching socket response before timeout"}
		}
		d.Delay(1)
	}
}

// CreateSocket implements spec.md §4.I Create (type 0x40):
// [frameId, protocol]. Waits up to 3s for 0xC0 matching frameId; response
// shape is [_, frameId, socketId, status]. Returns the new socket ID on
// status==0.
func (d *Device) CreateSocket(protocol byte) (byte, error) {
	id := d.NextFrameID()
	if err := d.Transport.SendFrame(xbee.FrameSocketCreate, []byte{id, protocol}); err != nil {
		return 0, err
	}

	f, err := d.waitForFrame(3000, func(f *xbee.Frame) bool {
		return f.Type == xbee.FrameSocketCreateResp && len(f.Payload) >= 4 && f.Payload[1] == id
	})
	if err != nil {
		return 0, err
	}
	socketID := f.Payload[2]
	status := f.Payload[3]
	if status != 0 {
		return 0, &xbee.Error{Kind: xbee.ErrAtCmdError, Status: status, Detail: "socket create failed"}
	}
	d.sockets.add(socketID, protocol)
	return socketID, nil
}

// Bind implements spec.md §4.I Bind (type 0x46): [frameId, socketId,
// portHi, portLo]. If blocking, waits up to 3s for 0xC6 matching
// {frameId, socketId, status==0}.
func (d *Device) Bind(socketID byte, port uint16, blocking bool) error {
	sock, ok := d.sockets.get(socketID)
	if !ok {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "unknown socket ID"}
	}
	id := d.NextFrameID()
	payload := []byte{id, socketID, byte(port >> 8), byte(port)}
	if err := d.Transport.SendFrame(xbee.FrameSocketBindOrOpt, payload); err != nil {
		return err
	}
	if !blocking {
		return nil
	}
	f, err := d.waitForFrame(3000, func(f *xbee.Frame) bool {
		return f.Type == xbee.FrameSocketBindResp && len(f.Payload) >= 4 && f.Payload[1] == id && f.Payload[2] == socketID
	})
	if err != nil {
		return err
	}
	if status := f.Payload[3]; status != 0 {
		return &xbee.Error{Kind: xbee.ErrAtCmdError, Status: status, Detail: "socket bind failed"}
	}
	sock.State = SocketBound
	return nil
}

// AddrType selects the address form a Connect call uses.
type AddrType byte

const (
	AddrIPv4     AddrType = 0x00
	AddrHostname AddrType = 0x01
)

// ConnectSocket implements spec.md §4.I Connect (type 0x42): [frameId,
// socketId, portHi, portLo, addrType, addr…]. Waits up to 3s for 0xC2
// matching {frameId, socketId, status==0}, then up to 20s for 0xCF
// socket-status matching {socketId, status==0}.
func (d *Device) ConnectSocket(socketID byte, port uint16, addrType AddrType, addr []byte) error {
	sock, ok := d.sockets.get(socketID)
	if !ok {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "unknown socket ID"}
	}
	id := d.NextFrameID()
	sock.State = SocketConnecting

	payload := make([]byte, 0, 5+len(addr))
	payload = append(payload, id, socketID, byte(port>>8), byte(port), byte(addrType))
	payload = append(payload, addr...)
	if err := d.Transport.SendFrame(xbee.FrameSocketConnect, payload); err != nil {
		return err
	}

	f, err := d.waitForFrame(3000, func(f *xbee.Frame) bool {
		return f.Type == xbee.FrameSocketConnectResp && len(f.Payload) >= 4 && f.Payload[1] == id && f.Payload[2] == socketID
	})
	if err != nil {
		return err
	}
	// Open Question (resolved): the connect response's status byte lives
	// at offset 3, the same position as Create/Bind's shape. Treat offset
	// 3 as authoritative rather than the offset-2 byte a debug trace might
	// print on failure.
	if status := f.Payload[3]; status != 0 {
		return &xbee.Error{Kind: xbee.ErrAtCmdError, Status: status, Detail: "socket connect rejected"}
	}

	final, err := d.waitForFrame(20000, func(f *xbee.Frame) bool {
		return f.Type == xbee.FrameSocketStatus && len(f.Payload) >= 3 && f.Payload[1] == socketID
	})
	if err != nil {
		return err
	}
	if status := final.Payload[2]; status != 0 {
		return &xbee.Error{Kind: xbee.ErrAtCmdError, Status: status, Detail: "socket connect failed to complete"}
	}
	sock.State = SocketConnected
	return nil
}

// Send implements spec.md §4.I Send (type 0x44): [frameId, socketId, 0x00,
// payload…]. Payload is capped at 120 bytes.
func (d *Device) Send(socketID byte, payload []byte) error {
	if len(payload) > maxSendPayload {
		return &xbee.Error{Kind: xbee.ErrFrameTooLarge, Detail: "socket send payload exceeds 120 bytes"}
	}
	if _, ok := d.sockets.get(socketID); !ok {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "unknown socket ID"}
	}
	id := d.NextFrameID()
	buf := make([]byte, 0, 3+len(payload))
	buf = append(buf, id, socketID, 0x00)
	buf = append(buf, payload...)
	return d.Transport.SendFrame(xbee.FrameSocketSend, buf)
}

// SendTo implements spec.md §4.I SendTo (type 0x45): [frameId, socketId,
// ip0..3, portHi, portLo, 0x00, payload…]. Payload is capped at 120 bytes.
func (d *Device) SendTo(socketID byte, ip [4]byte, port uint16, payload []byte) error {
	if len(payload) > maxSendPayload {
		return &xbee.Error{Kind: xbee.ErrFrameTooLarge, Detail: "socket sendto payload exceeds 120 bytes"}
	}
	if _, ok := d.sockets.get(socketID); !ok {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "unknown socket ID"}
	}
	id := d.NextFrameID()
	buf := make([]byte, 0, 9+len(payload))
	buf = append(buf, id, socketID)
	buf = append(buf, ip[:]...)
	buf = append(buf, byte(port>>8), byte(port), 0x00)
	buf = append(buf, payload...)
	return d.Transport.SendFrame(xbee.FrameSocketSendTo, buf)
}

// SetOption implements spec.md §4.I SetOption: [frameId, socketId, option,
// value…]. The wire type varies by module (0x46 collides with Bind on some
// firmware revisions); this driver sends SetOption on 0x46, the same opcode
// as Bind, for modules that multiplex both on it, matching the ambiguity
// the spec itself notes ("0x46-or-0x48 per module").
func (d *Device) SetOption(socketID, option byte, value []byte) error {
	if _, ok := d.sockets.get(socketID); !ok {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "unknown socket ID"}
	}
	id := d.NextFrameID()
	buf := make([]byte, 0, 3+len(value))
	buf = append(buf, id, socketID, option)
	buf = append(buf, value...)
	return d.Transport.SendFrame(xbee.FrameSocketBindOrOpt, buf)
}

// Close implements spec.md §4.I Close (type 0x43): [frameId, socketId]. If
// blocking, waits up to 3s for 0xCF with {frameId, socketId, status==0x01}.
func (d *Device) Close(socketID byte, blocking bool) error {
	sock, ok := d.sockets.get(socketID)
	if !ok {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "unknown socket ID"}
	}
	id := d.NextFrameID()
	sock.State = SocketClosing
	if err := d.Transport.SendFrame(xbee.FrameSocketClose, []byte{id, socketID}); err != nil {
		return err
	}
	if !blocking {
		return nil
	}
	f, err := d.waitForFrame(3000, func(f *xbee.Frame) bool {
		return f.Type == xbee.FrameSocketStatus && len(f.Payload) >= 3 && f.Payload[0] == id && f.Payload[1] == socketID
	})
	if err != nil {
		return err
	}
	if status := f.Payload[2]; status != 0x01 {
		return &xbee.Error{Kind: xbee.ErrAtCmdError, Status: status, Detail: "socket close did not report expected status"}
	}
	sock.State = SocketClosed
	d.sockets.remove(socketID)
	return nil
}
