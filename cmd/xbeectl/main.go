// Command xbeectl exercises the xbee driver end to end over a real serial
// port: attach/join, send a packet, stream received packets, or issue a raw
// AT command. It plays the same role in this repo that
// spirilis-smacbase/cmd/smacprint and cmd/npioff play for the teacher: a
// thin CLI wrapper proving the library actually drives hardware.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/felixgalindo/xbee-c-library"
	"github.com/felixgalindo/xbee-c-library/atcmd"
	"github.com/felixgalindo/xbee-c-library/cellular"
	"github.com/felixgalindo/xbee-c-library/hostport"
	"github.com/felixgalindo/xbee-c-library/lorawan"
)

var (
	app = kingpin.New("xbeectl", "Control surface for Digi XBee LoRaWAN/Cellular modules")

	device   = app.Flag("device", "Path to the serial port device").Required().String()
	baudRate = app.Flag("baud", "Serial port baud rate").Default("9600").Int()
	variant  = app.Flag("variant", "Module family: lorawan or cellular").Default("lorawan").Enum("lorawan", "cellular")
	verbose  = app.Flag("verbose", "Enable debug logging").Bool()

	attachCmd = app.Command("attach", "Join (LoRaWAN) or attach (Cellular) and block until connected")

	sendCmd     = app.Command("send", "Send one packet")
	sendPort    = sendCmd.Flag("port", "Application port").Default("1").Uint8()
	sendPayload = sendCmd.Arg("payload", "Payload bytes, read from stdin if omitted").String()

	recvCmd = app.Command("recv", "Stream received packets to stdout")

	atCmd      = app.Command("atcmd", "Issue a raw AT command")
	atCmdName  = atCmd.Arg("command", "Two-character AT command, e.g. VR").Required().String()
	atCmdParam = atCmd.Arg("param", "Optional ASCII-hex parameter").String()

	resetCmd = app.Command("reset", "Issue a soft reset (AT RE)")
)

var atCatalog = map[string]atcmd.Command{
	"VR": atcmd.VR, "HV": atcmd.HV, "DB": atcmd.DB, "SH": atcmd.SH, "SL": atcmd.SL,
	"RE": atcmd.RE, "WR": atcmd.WR, "AC": atcmd.AC, "AO": atcmd.AO, "AI": atcmd.AI,
	"JN": atcmd.JN, "DE": atcmd.DE, "AE": atcmd.AE, "KY": atcmd.KY, "NK": atcmd.NK,
	"CL": atcmd.CL, "RG": atcmd.RG, "D1": atcmd.D1, "D2": atcmd.D2, "F2": atcmd.F2,
	"PN": atcmd.PN, "AN": atcmd.AN, "CP": atcmd.CP,
}

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	port := hostport.NewSerialPort(logger)
	base := newBaseDevice(port)

	switch cmd {
	case attachCmd.FullCommand():
		runAttach(base)
	case sendCmd.FullCommand():
		runSend(base)
	case recvCmd.FullCommand():
		runRecv(base)
	case atCmd.FullCommand():
		runAtCmd(base)
	case resetCmd.FullCommand():
		runReset(base)
	}
}

func newBaseDevice(port *hostport.SerialPort) *xbee.Device {
	callbacks := xbee.Callbacks{
		OnReceive: func(d *xbee.Device, packet interface{}) {
			fmt.Printf("RX: %+v\n", packet)
		},
		OnConnect: func(d *xbee.Device) {
			fmt.Println("attached")
		},
	}

	var d *xbee.Device
	var v xbee.Variant
	switch *variant {
	case "cellular":
		cd := cellular.New(port, xbee.Config{}, callbacks)
		v = cd
		d = cd.Device
	default:
		ld := lorawan.New(port, xbee.Config{}, callbacks)
		v = ld
		d = ld.Device
	}

	if err := d.Init(v, *baudRate, *device); err != nil {
		fatal("init failed: %v", err)
	}
	return d
}

func runAttach(d *xbee.Device) {
	if *variant == "cellular" {
		// cellular Connect only polls AT AI when the stored config is blocking.
		if err := d.Configure(cellular.Config{Blocking: true}); err != nil {
			fatal("configure failed: %v", err)
		}
	}
	if err := d.Connect(); err != nil {
		fatal("attach failed: %v", err)
	}
	fmt.Println("attached successfully")
}

func runSend(d *xbee.Device) {
	payload := []byte(*sendPayload)
	if payload == nil || len(payload) == 0 {
		data, _ := io.ReadAll(bufio.NewReader(os.Stdin))
		payload = data
	}

	switch *variant {
	case "cellular":
		pkt := &cellular.Packet{Protocol: 0, Port: uint16(*sendPort), Payload: payload}
		if err := d.SendData(pkt); err != nil {
			fatal("send failed: %v", err)
		}
	default:
		pkt := &lorawan.Packet{Port: *sendPort, Payload: payload}
		if err := d.SendData(pkt); err != nil {
			fatal("send failed: %v", err)
		}
		fmt.Printf("delivery status: 0x%02X\n", pkt.Status)
	}
}

func runRecv(d *xbee.Device) {
	fmt.Println("listening for inbound packets, Ctrl-C to stop")
	for {
		if err := d.Process(); err != nil {
			// ReceiveFrame errors (noise, resync, timeouts) are routine on
			// an idle link; keep polling rather than aborting.
			continue
		}
	}
}

func runAtCmd(d *xbee.Device) {
	cmd, ok := atCatalog[*atCmdName]
	if !ok {
		fatal("unknown AT command %q", *atCmdName)
	}
	var param []byte
	if *atCmdParam != "" {
		param = make([]byte, len(*atCmdParam)/2)
		if xbee.AsciiToBytes(*atCmdParam, param) < 0 {
			fatal("param must be ASCII-hex")
		}
	}
	var resp [256]byte
	var n int
	if err := d.SendATCommandAndGetResponse(cmd, param, resp[:], &n, 5000); err != nil {
		fatal("AT %s failed: %v", *atCmdName, err)
	}
	fmt.Printf("AT %s -> %s\n", *atCmdName, xbee.BytesToAscii(resp[:n]))
}

func runReset(d *xbee.Device) {
	if !d.SoftReset() {
		fatal("soft reset was not accepted")
	}
	fmt.Println("reset issued")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "xbeectl: "+format+"\n", args...)
	os.Exit(1)
}
