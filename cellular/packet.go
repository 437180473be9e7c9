package cellular

// Packet is a Cellular application packet, carrying the protocol, port,
// destination/source IPv4 address, payload, frame correlation ID, and
// socket bookkeeping for both the stateless send path and socket RX. The
// caller owns Payload's backing array; the driver does not retain it past
// the call that receives or sends it.
type Packet struct {
	Protocol   byte
	Port       uint16
	IP         [4]byte
	Payload    []byte
	FrameID    byte
	SocketID   byte
	RemotePort uint16
	Status     byte
}
