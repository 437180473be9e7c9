package lorawan

// Packet is the LR Packet of spec.md §3: `{payload, payloadSize, port, ack,
// frameId, status, rssi, snr, counter}`. The caller owns Payload's backing
// array; the driver does not retain it past the call that receives or
// sends it.
type Packet struct {
	Payload []byte
	Port    byte
	Ack     bool
	FrameID byte
	Status  byte // delivery status after SendPacket; 0 = success
	RSSI    int8
	SNR     int8
	Counter uint32
}
