package cellular

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgalindo/xbee-c-library"
	"github.com/felixgalindo/xbee-c-library/hostport"
)

func TestCreateSocketSuccess(t *testing.T) {
	d, port := newTestDevice(t)

	// frameIDCntr=1 after Init, so the Create call uses frame ID 1.
	createResp, err := xbee.Encode(xbee.FrameSocketCreateResp, []byte{0x00, 0x01, 0x07, 0x00}, xbee.DefaultMaxFrameSize)
	require.NoError(t, err)
	port.Feed(createResp)

	id, err := d.CreateSocket(6)
	require.NoError(t, err)
	require.EqualValues(t, 7, id)

	sock, ok := d.sockets.get(7)
	require.True(t, ok)
	require.Equal(t, SocketCreated, sock.State)
}

func TestCreateSocketFailureStatus(t *testing.T) {
	d, port := newTestDevice(t)
	createResp, _ := xbee.Encode(xbee.FrameSocketCreateResp, []byte{0x00, 0x01, 0x00, 0x01}, xbee.DefaultMaxFrameSize)
	port.Feed(createResp)

	_, err := d.CreateSocket(6)
	require.Error(t, err)
}

func TestBindRequiresKnownSocket(t *testing.T) {
	d, _ := newTestDevice(t)
	err := d.Bind(42, 5000, true)
	require.Error(t, err)
}

func TestBindSuccess(t *testing.T) {
	d, port := newTestDevice(t)
	d.sockets.add(7, 6)

	bindResp, _ := xbee.Encode(xbee.FrameSocketBindResp, []byte{0x00, 0x01, 0x07, 0x00}, xbee.DefaultMaxFrameSize)
	port.Feed(bindResp)

	require.NoError(t, d.Bind(7, 5000, true))
	sock, _ := d.sockets.get(7)
	require.Equal(t, SocketBound, sock.State)
}

func TestConnectSocketFullHandshake(t *testing.T) {
	d, port := newTestDevice(t)
	d.sockets.add(7, 6)

	connResp, _ := xbee.Encode(xbee.FrameSocketConnectResp, []byte{0x00, 0x01, 0x07, 0x00}, xbee.DefaultMaxFrameSize)
	statusResp, _ := xbee.Encode(xbee.FrameSocketStatus, []byte{0x00, 0x07, 0x00}, xbee.DefaultMaxFrameSize)
	port.Feed(connResp)
	port.Feed(statusResp)

	err := d.ConnectSocket(7, 443, AddrIPv4, []byte{93, 184, 216, 34})
	require.NoError(t, err)

	sock, _ := d.sockets.get(7)
	require.Equal(t, SocketConnected, sock.State)
}

func TestConnectSocketRejectedByConnectResponse(t *testing.T) {
	d, port := newTestDevice(t)
	d.sockets.add(7, 6)

	connResp, _ := xbee.Encode(xbee.FrameSocketConnectResp, []byte{0x00, 0x01, 0x07, 0x01}, xbee.DefaultMaxFrameSize)
	port.Feed(connResp)

	err := d.ConnectSocket(7, 443, AddrIPv4, []byte{93, 184, 216, 34})
	require.Error(t, err)
}

func TestSendRespectsPayloadCap(t *testing.T) {
	d, _ := newTestDevice(t)
	d.sockets.add(7, 6)

	err := d.Send(7, make([]byte, maxSendPayload+1))
	require.Error(t, err)

	require.NoError(t, d.Send(7, make([]byte, maxSendPayload)))
}

func TestSendToBuildsFrame(t *testing.T) {
	d, port := newTestDevice(t)
	d.sockets.add(7, 6)

	require.NoError(t, d.SendTo(7, [4]byte{10, 0, 0, 5}, 53, []byte{0x01, 0x02}))

	sent, err := xbee.Decode(port.TX.Bytes())
	require.NoError(t, err)
	require.Equal(t, xbee.FrameSocketSendTo, sent.Type)
	require.Equal(t, []byte{0x01, 0x07, 10, 0, 0, 5, 0x00, 0x35, 0x00, 0x01, 0x02}, sent.Payload)
}

func TestCloseSuccess(t *testing.T) {
	d, port := newTestDevice(t)
	d.sockets.add(7, 6)

	closeResp, _ := xbee.Encode(xbee.FrameSocketStatus, []byte{0x01, 0x07, 0x01}, xbee.DefaultMaxFrameSize)
	port.Feed(closeResp)

	require.NoError(t, d.Close(7, true))
	_, ok := d.sockets.get(7)
	require.False(t, ok)
}

func TestSocketOpsOnUnknownIDFail(t *testing.T) {
	d, _ := newTestDevice(t)
	require.Error(t, d.Send(99, []byte{0x01}))
	require.Error(t, d.Close(99, true))
	require.Error(t, d.SendTo(99, [4]byte{1, 1, 1, 1}, 1, []byte{0x01}))
}

func TestWaitForFrameRoutesUnmatchedFrames(t *testing.T) {
	d, port := hostportDeviceForSocketOps(t)
	d.sockets.add(7, 6)

	modemStatus, _ := xbee.Encode(xbee.FrameModemStatus, []byte{0x00}, xbee.DefaultMaxFrameSize)
	bindResp, _ := xbee.Encode(xbee.FrameSocketBindResp, []byte{0x00, 0x01, 0x07, 0x00}, xbee.DefaultMaxFrameSize)
	port.Feed(modemStatus)
	port.Feed(bindResp)

	require.NoError(t, d.Bind(7, 5000, true))
}

func hostportDeviceForSocketOps(t *testing.T) (*Device, *hostport.Simulated) {
	t.Helper()
	port := hostport.NewSimulated()
	d := New(port, xbee.Config{}, xbee.Callbacks{})
	require.NoError(t, d.Device.Init(d, 9600, "sim"))
	return d, port
}
