package xbee

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgalindo/xbee-c-library/hostport"
)

// fakeVariant is a minimal Variant used to exercise Device's dispatch
// plumbing without pulling in a concrete module family.
type fakeVariant struct {
	initErr      error
	rxFrames     []*Frame
	txStatusMsgs []*Frame
}

func (f *fakeVariant) Init(d *Device) error                          { return f.initErr }
func (f *fakeVariant) Connect(d *Device) error                       { return nil }
func (f *fakeVariant) Disconnect(d *Device) error                    { return nil }
func (f *fakeVariant) SendData(d *Device, packet interface{}) error  { return nil }
func (f *fakeVariant) SoftReset(d *Device) bool                      { return true }
func (f *fakeVariant) HardReset(d *Device) bool                      { return true }
func (f *fakeVariant) Process(d *Device) error                       { return nil }
func (f *fakeVariant) Connected(d *Device) bool                       { return true }
func (f *fakeVariant) Configure(d *Device, cfg interface{}) error     { return nil }
func (f *fakeVariant) HandleRxPacketFrame(d *Device, fr *Frame)       { f.rxFrames = append(f.rxFrames, fr) }
func (f *fakeVariant) HandleTransmitStatusFrame(d *Device, fr *Frame) {
	f.txStatusMsgs = append(f.txStatusMsgs, fr)
}

func TestFrameIDMonotonicityFromFreshInit(t *testing.T) {
	d := NewDevice(hostport.NewSimulated(), Config{}, Callbacks{})
	v := &fakeVariant{}
	require.NoError(t, d.Init(v, 9600, "sim"))

	var ids []byte
	for i := 0; i < 257; i++ {
		ids = append(ids, d.nextFrameID())
	}

	require.Equal(t, byte(1), ids[0])
	require.Equal(t, byte(2), ids[1])
	require.Equal(t, byte(255), ids[254])
	require.Equal(t, byte(1), ids[255]) // wraps, skipping 0
	require.Equal(t, byte(2), ids[256])
	for _, id := range ids {
		require.NotEqual(t, byte(0), id)
	}
}

func TestRouteFrameDispatchesToVariant(t *testing.T) {
	d := NewDevice(hostport.NewSimulated(), Config{}, Callbacks{})
	v := &fakeVariant{}
	d.Variant = v

	d.routeFrame(&Frame{Type: FrameTXStatus, Payload: []byte{0x01, 0x00}})
	require.Len(t, v.txStatusMsgs, 1)

	d.routeFrame(&Frame{Type: FrameLRRx, Payload: []byte{0x01}})
	require.Len(t, v.rxFrames, 1)

	d.routeFrame(&Frame{Type: FrameSocketRxFrom, Payload: []byte{0x02}})
	require.Len(t, v.rxFrames, 2)
}

func TestRouteFrameNoVariantDoesNotPanic(t *testing.T) {
	d := NewDevice(hostport.NewSimulated(), Config{}, Callbacks{})
	require.NotPanics(t, func() {
		d.routeFrame(&Frame{Type: FrameTXStatus, Payload: []byte{0x01, 0x00}})
		d.routeFrame(&Frame{Type: FrameLRRx, Payload: []byte{0x01}})
		d.routeFrame(&Frame{Type: FrameATResponse, Payload: []byte{0x01}})
		d.routeFrame(&Frame{Type: FrameModemStatus, Payload: []byte{0x00}})
		d.routeFrame(&Frame{Type: 0xFE, Payload: nil})
	})
}

func TestDeviceGetters(t *testing.T) {
	d, port := newTestDevice()
	d.frameIDCntr = 1

	resp, err := Encode(FrameATResponse, []byte{0x01, 'V', 'R', 0x00, 0x01, 0x02, 0x03, 0x04}, DefaultMaxFrameSize)
	require.NoError(t, err)
	port.Feed(resp)
	version, err := d.FirmwareVersion()
	require.NoError(t, err)
	require.EqualValues(t, 0x01020304, version)
}
