package lorawan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgalindo/xbee-c-library"
	"github.com/felixgalindo/xbee-c-library/hostport"
)

func newTestDevice(t *testing.T) (*Device, *hostport.Simulated) {
	t.Helper()
	port := hostport.NewSimulated()
	d := New(port, xbee.Config{}, xbee.Callbacks{})
	require.NoError(t, d.Device.Init(d, 9600, "sim"))
	return d, port
}

func TestSetAppEUIValid(t *testing.T) {
	d, port := newTestDevice(t)

	resp, err := xbee.Encode(xbee.FrameATResponse, []byte{0x01, 'A', 'E', 0x00}, xbee.DefaultMaxFrameSize)
	require.NoError(t, err)
	port.Feed(resp)

	require.NoError(t, d.SetAppEUI("0004A30B001C0530"))

	sent, err := xbee.Decode(port.TX.Bytes())
	require.NoError(t, err)
	require.Equal(t, xbee.FrameATCommand, sent.Type)
	require.Equal(t, []byte{0x01, 'A', 'E', 0x00, 0x04, 0xA3, 0x0B, 0x00, 0x1C, 0x05, 0x30}, sent.Payload)
}

func TestSetAppEUIRejectsWrongLength(t *testing.T) {
	d, _ := newTestDevice(t)
	err := d.SetAppEUI("ABCD")
	require.Error(t, err)
}

func TestSetAppKeyRejectsNonHex(t *testing.T) {
	d, _ := newTestDevice(t)
	err := d.SetAppKey("ZZ" + string(make([]byte, 30)))
	require.Error(t, err)
}

func TestSetClassRejectsInvalidValue(t *testing.T) {
	d, _ := newTestDevice(t)
	err := d.SetClass(Class('Z'))
	require.Error(t, err)
}

func TestSendPacketBuildsFrameAndBlocksOnTxStatus(t *testing.T) {
	// Scenario 8: SendPacket blocks until a TX-status frame with the
	// matching frame ID arrives, and returns its delivery-status byte.
	d, port := newTestDevice(t)

	pkt := &Packet{Port: 5, Ack: true, Payload: []byte{0xAA, 0xBB}}

	// frameIDCntr is primed to 1 by Init; the packet we're about to send
	// will carry frame ID 1, so feed a matching TX-status frame now.
	txStatus, err := xbee.Encode(xbee.FrameTXStatus, []byte{0x01, 0x00}, xbee.DefaultMaxFrameSize)
	require.NoError(t, err)
	port.Feed(txStatus)

	status, err := d.SendPacket(pkt, 1000)
	require.NoError(t, err)
	require.EqualValues(t, 0x00, status)
	require.EqualValues(t, 0x00, pkt.Status)
	require.EqualValues(t, 1, pkt.FrameID)

	sent, err := xbee.Decode(port.TX.Bytes())
	require.NoError(t, err)
	require.Equal(t, xbee.FrameTXRequest, sent.Type)
	require.Equal(t, []byte{0x01, 0x05, 0x01, 0xAA, 0xBB}, sent.Payload)
}

func TestSendPacketTimesOutWithoutTxStatus(t *testing.T) {
	d, _ := newTestDevice(t)
	pkt := &Packet{Port: 1, Payload: []byte{0x01}}
	_, err := d.SendPacket(pkt, 5)
	require.Error(t, err)
}

func TestHandleRxPacketFrame(t *testing.T) {
	var got *Packet
	port := hostport.NewSimulated()
	d := New(port, xbee.Config{}, xbee.Callbacks{
		OnReceive: func(dev *xbee.Device, packet interface{}) {
			got = packet.(*Packet)
		},
	})
	require.NoError(t, d.Device.Init(d, 9600, "sim"))

	f := &xbee.Frame{
		Type:    xbee.FrameLRRx,
		Payload: []byte{0x07, 0xE0 /* -32 */, 0x05, 0x00, 0x00, 0x00, 0x2A, 'h', 'i'},
	}
	d.HandleRxPacketFrame(d.Device, f)

	require.NotNil(t, got)
	require.EqualValues(t, 7, got.Port)
	require.EqualValues(t, -32, got.RSSI)
	require.EqualValues(t, 5, got.SNR)
	require.EqualValues(t, 0x2A, got.Counter)
	require.Equal(t, []byte("hi"), got.Payload)
}

func TestConnectJoinsAndPolls(t *testing.T) {
	d, port := newTestDevice(t)

	joinResp, err := xbee.Encode(xbee.FrameATResponse, []byte{0x01, 'J', 'N', 0x00}, xbee.DefaultMaxFrameSize)
	require.NoError(t, err)
	aiResp, err := xbee.Encode(xbee.FrameATResponse, []byte{0x02, 'A', 'I', 0x00, 0x01}, xbee.DefaultMaxFrameSize)
	require.NoError(t, err)
	port.Feed(joinResp)
	port.Feed(aiResp)

	var connected bool
	d.Device.Callbacks.OnConnect = func(dev *xbee.Device) { connected = true }

	require.NoError(t, d.Connect(d.Device))
	require.True(t, d.Connected(d.Device))
	require.True(t, connected)
}
