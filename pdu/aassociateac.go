package pdu

import "fmt"

// AAssociateAC is the A-ASSOCIATE-AC PDU, the acceptor's response when the
// association is accepted (possibly with some presentation contexts
// rejected). P3.8 9.3.3.
type AAssociateAC struct {
	ProtocolVersion        uint16
	CalledAETitle          string
	CallingAETitle         string
	ApplicationContextName string
	PresentationContexts   []*PresentationContextItemAC
	UserInformation        *UserInformationItem
}

func (p *AAssociateAC) pduType() byte { return TypeAAssociateAC }

func (p *AAssociateAC) writeBody(w *writer) {
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

func (p *AAssociateAC) String() string {
	return fmt.Sprintf("A-ASSOCIATE-AC{called:%q calling:%q contexts:%d}",
		TrimAETitle(p.CalledAETitle), TrimAETitle(p.CallingAETitle), len(p.PresentationContexts))
}

func decodeAAssociateAC(c *cursor) (*AAssociateAC, error) {
	p := &AAssociateAC{}
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
		case *PresentationContextItemAC:
			p.PresentationContexts = append(p.PresentationContexts, v)
		case *UserInformationItem:
			p.UserInformation = v
		default:
			return nil, fmt.Errorf("pdu: unexpected sub-item %v in A-ASSOCIATE-AC", item)
		}
	}
	return p, nil
}
