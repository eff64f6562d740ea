package pdu

import "fmt"

// AAssociateRJ is the A-ASSOCIATE-RJ PDU, sent when the acceptor refuses
// the association outright. P3.8 9.3.4.
type AAssociateRJ struct {
	Result byte
	Source byte
	Reason byte
}

func (p *AAssociateRJ) pduType() byte { return TypeAAssociateRJ }

func (p *AAssociateRJ) writeBody(w *writer) {
	w.writeByte(0)
	w.writeByte(p.Result)
	w.writeByte(p.Source)
	w.writeByte(p.Reason)
}

func (p *AAssociateRJ) String() string {
	return fmt.Sprintf("A-ASSOCIATE-RJ{result:%d source:%d reason:%d}", p.Result, p.Source, p.Reason)
}

func decodeAAssociateRJ(c *cursor) (*AAssociateRJ, error) {
	if _, err := c.readByte(); err != nil {
		return nil, err
	}
	result, err := c.readByte()
	if err != nil {
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
	return &AAssociateRJ{Result: result, Source: source, Reason: reason}, nil
}
