package lorawan

import (
	"github.com/felixgalindo/xbee-c-library"
	"github.com/felixgalindo/xbee-c-library/atcmd"
)

func (d *Device) sendSetter(cmd atcmd.Command, param []byte) error {
	var resp [8]byte
	var n int
	return d.SendATCommandAndGetResponse(cmd, param, resp[:], &n, 5000)
}

// SetAppEUI sets the App EUI from a 16-hex-character string (8 bytes).
func (d *Device) SetAppEUI(hexEUI string) error {
	var buf [8]byte
	if xbee.AsciiToBytes(hexEUI, buf[:]) != len(buf) {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "App EUI must be 16 hex characters"}
	}
	return d.sendSetter(atcmd.AE, buf[:])
}

// SetAppKey sets the App Key from a 32-hex-character string (16 bytes).
func (d *Device) SetAppKey(hexKey string) error {
	var buf [16]byte
	if xbee.AsciiToBytes(hexKey, buf[:]) != len(buf) {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "App Key must be 32 hex characters"}
	}
	return d.sendSetter(atcmd.KY, buf[:])
}

// SetNwkKey sets the Network Key from a 32-hex-character string (16 bytes).
func (d *Device) SetNwkKey(hexKey string) error {
	var buf [16]byte
	if xbee.AsciiToBytes(hexKey, buf[:]) != len(buf) {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "Network Key must be 32 hex characters"}
	}
	return d.sendSetter(atcmd.NK, buf[:])
}

// DevEUI reads AT DE: 16 ASCII characters representing the device EUI.
func (d *Device) DevEUI() (string, error) {
	var resp [16]byte
	var n int
	if err := d.SendATCommandAndGetResponse(atcmd.DE, nil, resp[:], &n, 5000); err != nil {
		return "", err
	}
	return string(resp[:n]), nil
}

// SetClass configures the LoRaWAN device class ('A', 'B', or 'C').
func (d *Device) SetClass(class Class) error {
	if class != ClassA && class != ClassB && class != ClassC {
		return &xbee.Error{Kind: xbee.ErrInvalidCommand, Detail: "class must be 'A', 'B', or 'C'"}
	}
	return d.sendSetter(atcmd.CL, []byte{byte(class)})
}

// SetRegion sets the 1-byte region code.
func (d *Device) SetRegion(region byte) error {
	return d.sendSetter(atcmd.RG, []byte{region})
}

// SetRX1Delay sets the RX1 delay in milliseconds (big-endian 16-bit).
func (d *Device) SetRX1Delay(ms uint16) error {
	return d.sendSetter(atcmd.D1, []byte{byte(ms >> 8), byte(ms)})
}

// SetRX2Delay sets the RX2 delay in milliseconds (big-endian 16-bit).
func (d *Device) SetRX2Delay(ms uint16) error {
	return d.sendSetter(atcmd.D2, []byte{byte(ms >> 8), byte(ms)})
}

// SetRX2Frequency sets the RX2 frequency in Hz (big-endian 32-bit).
func (d *Device) SetRX2Frequency(hz uint32) error {
	return d.sendSetter(atcmd.F2, []byte{byte(hz >> 24), byte(hz >> 16), byte(hz >> 8), byte(hz)})
}
