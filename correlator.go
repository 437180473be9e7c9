package xbee

import "github.com/felixgalindo/xbee-c-library/atcmd"

// SendATCommandAndGetResponse issues a framed AT command, then pumps frames
// until the matching AT response arrives (or timeoutMs elapses), routing every
// frame that is not an AT response to the Frame Router in arrival order. An
// AT response carrying a different frame ID is logged and skipped.
//
// respBuf receives the response's data bytes (copied only on full success);
// *respLen is set to the response's data length. A response larger than
// respBuf is rejected whole with ErrBufferTooSmall rather than partially
// copied.
func (d *Device) SendATCommandAndGetResponse(cmd atcmd.Command, param []byte, respBuf []byte, respLen *int, timeoutMs int) error {
	code, ok := atcmd.Bytes(cmd)
	if !ok {
		return newErrorf(ErrInvalidCommand, "%v", cmd)
	}
	if respLen == nil {
		return newError(ErrNullOutput)
	}

	id := d.nextFrameID()
	payload := make([]byte, 0, 3+len(param))
	payload = append(payload, id, code[0], code[1])
	payload = append(payload, param...)

	if err := d.Transport.SendFrame(FrameATCommand, payload); err != nil {
		return err
	}

	start := d.Transport.Port.Millis()
	for {
		f, err := d.Transport.ReceiveFrame()
		if err == nil {
			if f.Type == FrameATResponse {
				if matched, handled := d.tryMatchATResponse(f, id, respBuf, respLen); matched {
					return handled
				}
				// Frame type matched but frame ID did not: treat it like
				// any other unsolicited frame and keep waiting for ours.
				d.debugf("correlator: AT response frame ID mismatch, continuing to wait")
			} else {
				d.routeFrame(f)
			}
		}
		// recv errors (bad checksum, resync noise, etc.) are not fatal to
		// the correlation attempt; keep looping until the timeout budget
		// is exhausted.
		if d.Transport.Port.Millis()-start >= int64(timeoutMs) {
			return newError(ErrResponseTimeout)
		}
		d.Transport.Port.Delay(1)
	}
}

// tryMatchATResponse interprets f as [frameId, cmdHi, cmdLo, status, data...].
// matched is true only when the frame ID agrees with the one we sent; err is
// the terminal result to return from the correlator in that case (nil on
// success).
func (d *Device) tryMatchATResponse(f *Frame, wantID byte, respBuf []byte, respLen *int) (matched bool, err error) {
	if len(f.Payload) < 4 {
		d.debugf("correlator: malformed AT response frame, dropping")
		return false, nil
	}
	gotID := f.Payload[0]
	status := f.Payload[3]
	data := f.Payload[4:]

	if gotID != wantID {
		return false, nil
	}

	if status != 0 {
		return true, &Error{Kind: ErrAtCmdError, Status: status}
	}
	if len(data) > len(respBuf) {
		return true, newErrorf(ErrBufferTooSmall, "response is %d bytes, buffer holds %d", len(data), len(respBuf))
	}
	copy(respBuf, data)
	*respLen = len(data)
	return true, nil
}
