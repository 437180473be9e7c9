package cellular

// SocketState enumerates the Extended Socket lifecycle of spec.md §4.I.
type SocketState int

const (
	SocketClosed SocketState = iota
	SocketCreated
	SocketBound
	SocketConnecting
	SocketConnected
	SocketClosing
)

func (s SocketState) String() string {
	switch s {
	case SocketClosed:
		return "closed"
	case SocketCreated:
		return "created"
	case SocketBound:
		return "bound"
	case SocketConnecting:
		return "connecting"
	case SocketConnected:
		return "connected"
	case SocketClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Socket is a handle into the Extended Socket state machine: an opaque
// 8-bit ID, its current state, and the protocol it was created with. It
// remains valid (from the driver's point of view) until a blocking Close
// completes; a module reset does not clear the registry.
type Socket struct {
	ID       byte
	Protocol byte
	State    SocketState
}

// socketRegistry tracks every socket ID this Device has created, mirroring
// the teacher's RxRegistryProgram/RxRegistryAddress maps (npi_linkmgr.go)
// but keyed by socket ID instead of program ID/address, so Close/Send can
// validate a handle before emitting a frame instead of trusting a
// caller-supplied byte blindly.
type socketRegistry struct {
	sockets map[byte]*Socket
}

func newSocketRegistry() *socketRegistry {
	return &socketRegistry{sockets: make(map[byte]*Socket)}
}

func (r *socketRegistry) add(id, protocol byte) *Socket {
	s := &Socket{ID: id, Protocol: protocol, State: SocketCreated}
	r.sockets[id] = s
	return s
}

func (r *socketRegistry) get(id byte) (*Socket, bool) {
	s, ok := r.sockets[id]
	return s, ok
}

func (r *socketRegistry) remove(id byte) {
	delete(r.sockets, id)
}
