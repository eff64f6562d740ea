package pdu

import "fmt"

// AAssociateRQ is the A-ASSOCIATE-RQ PDU, sent by a requestor to open an
// association. P3.8 9.3.2.
type AAssociateRQ struct {
	ProtocolVersion        uint16
	CalledAETitle          string
	CallingAETitle         string
	ApplicationContextName string
	PresentationContexts   []*PresentationContextItemRQ
	UserInformation        *UserInformationItem
}

func (p *AAssociateRQ) pduType() byte { return TypeAAssociateRQ }

func (p *AAssociateRQ) writeBody(w *writer) {
	w.writeUint16(p.ProtocolVersion)
	w.writeZeros(2)
	w.writeString(fillAETitle(p.CalledAETitle))
	w.writeString(fillAETitle(p.CallingAETitle))
	w.writeZeros(32)
	writeItem(w, &ApplicationContextItem{Name: p.ApplicationContextName})
	for _, pc := range p.PresentationContexts {
		writeItem(w, pc)
	}
	if p.UserInformation != nil {
		writeItem(w, p.UserInformation)
	}
}

func (p *AAssociateRQ) String() string {
	return fmt.Sprintf("A-ASSOCIATE-RQ{called:%q calling:%q contexts:%d}",
		TrimAETitle(p.CalledAETitle), TrimAETitle(p.CallingAETitle), len(p.PresentationContexts))
}

func decodeAAssociateRQ(c *cursor) (*AAssociateRQ, error) {
	p := &AAssociateRQ{}
	version, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	p.ProtocolVersion = version
	if err := c.skip(2); err != nil {
		return nil, err
	}
	called, err := c.readString(aeTitleWireLength)
	if err != nil {
		return nil, err
	}
	p.CalledAETitle = TrimAETitle(called)
	calling, err := c.readString(aeTitleWireLength)
	if err != nil {
		return nil, err
	}
	p.CallingAETitle = TrimAETitle(calling)
	if err := c.skip(32); err != nil {
		return nil, err
	}
	for !c.exhausted() {
		item, err := DecodeSubItem(c)
		if err != nil {
			return nil, err
		}
		switch v := item.(type) {
		case *ApplicationContextItem:
			p.ApplicationContextName = v.Name
		case *PresentationContextItemRQ:
			p.PresentationContexts = append(p.PresentationContexts, v)
		case *UserInformationItem:
			p.UserInformation = v
		default:
			return nil, fmt.Errorf("pdu: unexpected sub-item %v in A-ASSOCIATE-RQ", item)
		}
	}
	return p, nil
}
