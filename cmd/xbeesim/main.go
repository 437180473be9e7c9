// Command xbeesim plays the module side of the protocol: it answers AT
// commands, join/attach requests, and socket operations the way a real XBee
// LoRaWAN or Cellular module would, so xbeectl (or any other HostPort-driven
// caller) can be exercised over a real serial pair (e.g. a socat-created PTY
// pair) without hardware. It is the frame-level analog of
// other_examples/.../meshtastic-simulator-device.go, rebuilt around this
// driver's own Frame/Transport types instead of that example's protobuf
// stream.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/felixgalindo/xbee-c-library"
	"github.com/felixgalindo/xbee-c-library/hostport"
)

var (
	app = kingpin.New("xbeesim", "Frame-level simulator for the XBee LoRaWAN/Cellular wire protocol")

	device  = app.Flag("device", "Path to the serial port device to listen on").Required().String()
	baud    = app.Flag("baud", "Serial port baud rate").Default("9600").Int()
	variant = app.Flag("variant", "Module family to emulate: lorawan or cellular").Default("lorawan").Enum("lorawan", "cellular")
	verbose = app.Flag("verbose", "Enable debug logging").Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	port := hostport.NewSerialPort(logger)
	if err := port.UARTInit(*baud, *device); err != nil {
		logger.WithError(err).Fatal("failed to open serial port")
	}
	defer port.Close()

	transport := xbee.NewTransport(port, xbee.DefaultMaxFrameSize)

	sim := &simulator{
		log:       logger.WithField("component", "xbeesim"),
		transport: transport,
		variant:   *variant,
		nextSock:  1,
	}
	sim.run()
}

// simulator holds the minimal state needed to answer AT/frame traffic the
// way a module would: association progress and the open-socket set. It is
// deliberately not the Device/Variant machinery the driver itself uses —
// this is the other end of the wire, standing in for hardware.
type simulator struct {
	log       *logrus.Entry
	transport *xbee.Transport
	variant   string

	joined      bool
	joinPolls   int
	nextSock    byte
	openSockets map[byte]bool
}

func (s *simulator) run() {
	s.openSockets = make(map[byte]bool)
	s.log.WithField("variant", s.variant).Info("xbeesim listening")
	for {
		f, err := s.transport.ReceiveFrame()
		if err != nil {
			continue
		}
		s.handle(f)
	}
}

func (s *simulator) handle(f *xbee.Frame) {
	switch f.Type {
	case xbee.FrameATCommand:
		s.handleATCommand(f)
	case xbee.FrameTXRequest:
		s.handleTXRequest(f)
	case xbee.FrameSocketCreate:
		s.handleSocketCreate(f)
	case xbee.FrameSocketConnect:
		s.handleSocketConnect(f)
	case xbee.FrameSocketBindOrOpt:
		s.handleSocketBind(f)
	case xbee.FrameSocketSend, xbee.FrameSocketSendTo:
		s.log.Debug("socket send accepted, no response frame expected")
	case xbee.FrameSocketClose:
		s.handleSocketClose(f)
	default:
		s.log.Debugf("unhandled frame type=0x%02X, ignoring", f.Type)
	}
}

// handleATCommand answers frame type 0x08 with a 0x88 AT response carrying
// canned data plausible for each command (spec.md §4.B/§4.C).
func (s *simulator) handleATCommand(f *xbee.Frame) {
	if len(f.Payload) < 3 {
		s.log.Debug("malformed AT command frame, ignoring")
		return
	}
	frameID := f.Payload[0]
	code := string(f.Payload[1:3])

	var data []byte
	switch code {
	case "VR":
		data = []byte{0x01, 0x02, 0x00, 0x03}
	case "HV":
		data = []byte{0x01, 0x42}
	case "DB":
		data = []byte{0x3C} // -60 dBm
	case "SH":
		data = []byte{0x00, 0x13, 0xA2, 0x00}
	case "SL":
		data = []byte{0x40, 0x12, 0x34, 0x56}
	case "JN":
		s.joined = false
		s.joinPolls = 0
		data = nil
	case "AI":
		data = []byte{s.associationByte()}
	case "RE", "WR", "AC", "AO", "AE", "KY", "NK", "CL", "RG", "D1", "D2", "F2", "PN", "AN", "CP":
		data = nil
	default:
		s.log.Debugf("AT %s not modeled, acking with empty data", code)
	}

	resp := make([]byte, 0, 4+len(data))
	resp = append(resp, frameID, f.Payload[1], f.Payload[2], 0x00)
	resp = append(resp, data...)
	if err := s.transport.SendFrame(xbee.FrameATResponse, resp); err != nil {
		s.log.WithError(err).Debug("failed to send AT response")
	}
}

// associationByte reports "not yet joined" for the first few polls, then
// flips to "joined"/"attached", so a caller's poll loop (lorawan.Connect,
// cellular.Connect) observes a realistic attach delay instead of succeeding
// on the first AT AI.
func (s *simulator) associationByte() byte {
	s.joinPolls++
	if s.joinPolls < 3 {
		return 0xFF
	}
	s.joined = true
	if s.variant == "cellular" {
		return 0x00
	}
	return 0x01
}

// handleTXRequest answers a LoRaWAN TX request (type 0x20) with a TX-Status
// frame (0x8B) reporting success. A Cellular stateless send gets no reply.
func (s *simulator) handleTXRequest(f *xbee.Frame) {
	if len(f.Payload) < 1 {
		return
	}
	frameID := f.Payload[0]
	if s.variant == "cellular" {
		// The stateless IPv4 TX path has no per-packet status frame.
		return
	}
	if err := s.transport.SendFrame(xbee.FrameTXStatus, []byte{frameID, 0x00}); err != nil {
		s.log.WithError(err).Debug("failed to send TX status")
	}
}

func (s *simulator) handleSocketCreate(f *xbee.Frame) {
	if len(f.Payload) < 2 {
		return
	}
	frameID := f.Payload[0]
	id := s.nextSock
	s.nextSock++
	s.openSockets[id] = true
	s.transport.SendFrame(xbee.FrameSocketCreateResp, []byte{0x00, frameID, id, 0x00})
}

func (s *simulator) handleSocketConnect(f *xbee.Frame) {
	if len(f.Payload) < 2 {
		return
	}
	frameID, socketID := f.Payload[0], f.Payload[1]
	s.transport.SendFrame(xbee.FrameSocketConnectResp, []byte{0x00, frameID, socketID, 0x00})
	s.transport.SendFrame(xbee.FrameSocketStatus, []byte{0x00, socketID, 0x00})
}

func (s *simulator) handleSocketBind(f *xbee.Frame) {
	if len(f.Payload) < 2 {
		return
	}
	frameID, socketID := f.Payload[0], f.Payload[1]
	s.transport.SendFrame(xbee.FrameSocketBindResp, []byte{0x00, frameID, socketID, 0x00})
}

func (s *simulator) handleSocketClose(f *xbee.Frame) {
	if len(f.Payload) < 2 {
		return
	}
	frameID, socketID := f.Payload[0], f.Payload[1]
	delete(s.openSockets, socketID)
	s.transport.SendFrame(xbee.FrameSocketStatus, []byte{frameID, socketID, 0x01})
}
