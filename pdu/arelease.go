package pdu

import "fmt"

// AReleaseRQ is the A-RELEASE-RQ PDU, requesting an orderly association
// release. P3.8 9.3.6.
type AReleaseRQ struct{}

func (p *AReleaseRQ) pduType() byte          { return TypeAReleaseRQ }
func (p *AReleaseRQ) writeBody(w *writer)    { w.writeZeros(4) }
func (p *AReleaseRQ) String() string         { return "A-RELEASE-RQ{}" }

func decodeAReleaseRQ(c *cursor) (*AReleaseRQ, error) {
	if err := c.skip(4); err != nil {
		return nil, err
	}
	return &AReleaseRQ{}, nil
}

// AReleaseRP is the A-RELEASE-RP PDU, confirming release. P3.8 9.3.7.
type AReleaseRP struct{}

func (p *AReleaseRP) pduType() byte       { return TypeAReleaseRP }
func (p *AReleaseRP) writeBody(w *writer) { w.writeZeros(4) }
func (p *AReleaseRP) String() string      { return "A-RELEASE-RP{}" }

func decodeAReleaseRP(c *cursor) (*AReleaseRP, error) {
	if err := c.skip(4); err != nil {
		return nil, err
	}
	return &AReleaseRP{}, nil
}

// AAbort is the A-ABORT PDU, used for both user-initiated and
// provider-initiated abnormal association termination. P3.8 9.3.8.
type AAbort struct {
	Source byte
	Reason AbortReasonType
}

func (p *AAbort) pduType() byte { return TypeAAbort }

func (p *AAbort) writeBody(w *writer) {
	w.writeZeros(2)
	w.writeByte(p.Source)
	w.writeByte(byte(p.Reason))
}

func (p *AAbort) String() string {
	return fmt.Sprintf("A-ABORT{source:%d reason:%d}", p.Source, p.Reason)
}

func decodeAAbort(c *cursor) (*AAbort, error) {
	if err := c.skip(2); err != nil {
		return nil, err
	}
	source, err := c.readByte()
	if err != nil {
		return nil, err
	}
	reason, err := c.readByte()
	if err != nil {
		return nil, err
	}
	return &AAbort{Source: source, Reason: AbortReasonType(reason)}, nil
}
