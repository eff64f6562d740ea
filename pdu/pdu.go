// Package pdu implements encoding and decoding of the seven DICOM Upper
// Layer Protocol Data Units and their variable items, P3.8 section 9.3.
// Every PDU shares a 6-byte header (1-byte type, 1 reserved byte, 4-byte
// big-endian length) followed by a type-specific body.
package pdu

import (
	"encoding/binary"
	"fmt"
	"io"
)

// PDU is implemented by every Upper Layer Protocol Data Unit.
type PDU interface {
	fmt.Stringer
	pduType() byte
	writeBody(w *writer)
}

// Encode serializes p to its full wire representation, including the
// 6-byte PDU header.
func Encode(p PDU) []byte {
	bodyW := &writer{}
	p.writeBody(bodyW)
	body := bodyW.bytes()

	out := make([]byte, 6+len(body))
	out[0] = p.pduType()
	out[1] = 0
	binary.BigEndian.PutUint32(out[2:6], uint32(len(body)))
	copy(out[6:], body)
	return out
}

// ReadHeader reads the 6-byte PDU header from r, returning the PDU type
// byte and the declared body length.
func ReadHeader(r io.Reader) (pduType byte, length uint32, err error) {
	var hdr [6]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, err
	}
	return hdr[0], binary.BigEndian.Uint32(hdr[2:6]), nil
}

// Decode parses a PDU body (with its type already known from ReadHeader)
// into the corresponding concrete PDU type.
func Decode(pduType byte, body []byte) (PDU, error) {
	c := newCursor(body)
	switch pduType {
	case TypeAAssociateRQ:
		return decodeAAssociateRQ(c)
	case TypeAAssociateAC:
		return decodeAAssociateAC(c)
	case TypeAAssociateRJ:
		return decodeAAssociateRJ(c)
	case TypePDataTF:
		return decodePDataTf(c)
	case TypeAReleaseRQ:
		return decodeAReleaseRQ(c)
	case TypeAReleaseRP:
		return decodeAReleaseRP(c)
	case TypeAAbort:
		return decodeAAbort(c)
	default:
		return nil, fmt.Errorf("pdu: unrecognized PDU type 0x%02x", pduType)
	}
}

// ReadPDU reads one full PDU (header plus body) from r.
func ReadPDU(r io.Reader, maxLength uint32) (PDU, error) {
	pduType, length, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if maxLength > 0 && length > maxLength {
		return nil, fmt.Errorf("pdu: body length %d exceeds negotiated maximum %d", length, maxLength)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("pdu: reading body: %w", err)
	}
	return Decode(pduType, body)
}

// WritePDU encodes p and writes it to w in one call.
func WritePDU(w io.Writer, p PDU) error {
	_, err := w.Write(Encode(p))
	return err
}
