package pdu

import "fmt"

// PresentationDataValueItem is one PDV inside a P-DATA-TF PDU: a
// presentation-context ID, a message control header byte, and a fragment
// of either a command set or a data set. P3.8 9.3.5.1.
//
// Message control header bits (P3.8 Table 9-23):
//   bit 0: 1 = command fragment, 0 = data set fragment
//   bit 1: 1 = last fragment for this message, 0 = more fragments follow
type PresentationDataValueItem struct {
	ContextID byte
	Header    byte
	Data      []byte
}

const (
	pdvHeaderCommand = 1 << 0
	pdvHeaderLast    = 1 << 1
)

func (v *PresentationDataValueItem) IsCommand() bool    { return v.Header&pdvHeaderCommand != 0 }
func (v *PresentationDataValueItem) IsLastFragment() bool { return v.Header&pdvHeaderLast != 0 }

func NewPDVHeader(isCommand, isLast bool) byte {
	var h byte
	if isCommand {
		h |= pdvHeaderCommand
	}
	if isLast {
		h |= pdvHeaderLast
	}
	return h
}

func (v *PresentationDataValueItem) writeTo(w *writer) {
	length := uint32(1 + 1 + len(v.Data))
	w.writeUint32(length)
	w.writeByte(v.ContextID)
	w.writeByte(v.Header)
	w.writeBytes(v.Data)
}

func (v *PresentationDataValueItem) String() string {
	return fmt.Sprintf("PDV{ctx:%d command:%v last:%v len:%d}", v.ContextID, v.IsCommand(), v.IsLastFragment(), len(v.Data))
}

func decodePDV(c *cursor) (*PresentationDataValueItem, error) {
	length, err := c.readUint32()
	if err != nil {
		return nil, err
	}
	body, err := c.sub(int(length))
	if err != nil {
		return nil, err
	}
	ctxID, err := body.readByte()
	if err != nil {
		return nil, err
	}
	header, err := body.readByte()
	if err != nil {
		return nil, err
	}
	data, err := body.readBytes(body.remaining())
	if err != nil {
		return nil, err
	}
	return &PresentationDataValueItem{
		ContextID: ctxID,
		Header:    header,
		Data:      append([]byte(nil), data...),
	}, nil
}

// PDataTf is the P-DATA-TF PDU: one or more PDVs, each belonging to a
// single presentation context, carrying DIMSE command/data fragments.
// P3.8 9.3.5.
type PDataTf struct {
	Items []*PresentationDataValueItem
}

func (p *PDataTf) pduType() byte { return TypePDataTF }

func (p *PDataTf) writeBody(w *writer) {
	for _, item := range p.Items {
		item.writeTo(w)
	}
}

func (p *PDataTf) String() string {
	return fmt.Sprintf("P-DATA-TF{pdvs:%d}", len(p.Items))
}

func decodePDataTf(c *cursor) (*PDataTf, error) {
	p := &PDataTf{}
	for !c.exhausted() {
		pdv, err := decodePDV(c)
		if err != nil {
			return nil, err
		}
		p.Items = append(p.Items, pdv)
	}
	return p, nil
}
