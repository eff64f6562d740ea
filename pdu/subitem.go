package pdu

import "fmt"

// SubItem is the common interface for every PDU variable item / sub-item.
// Encoding is big-endian throughout; every item shares the
// {type(1), reserved(1), length-u16(2), value} frame. P3.8 9.3, Annex D.
type SubItem interface {
	fmt.Stringer
	ItemType() byte
	writeValue(w *writer)
}

// writeItem wraps v's value bytes in the common item frame.
func writeItem(w *writer, v SubItem) {
	valueW := &writer{}
	v.writeValue(valueW)
	value := valueW.bytes()
	w.writeByte(v.ItemType())
	w.writeByte(0) // reserved
	w.writeUint16(uint16(len(value)))
	w.writeBytes(value)
}

// DecodeSubItem reads one sub-item frame from c and dispatches to the
// type-specific decoder. Unknown item types are preserved as opaque bytes
// so that encode(decode(x))==x holds even for sub-items this version does
// not interpret (spec.md section 4.1, "preserve unknown optional
// sub-items as opaque bytes").
func DecodeSubItem(c *cursor) (SubItem, error) {
	itemType, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if _, err := c.readByte(); err != nil { // reserved
		return nil, err
	}
	length, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	value, err := c.sub(int(length))
	if err != nil {
		return nil, fmt.Errorf("pdu: sub-item type 0x%02x: %w", itemType, err)
	}
	switch itemType {
	case ItemTypeApplicationContext:
		return &ApplicationContextItem{Name: trimUID(string(mustRest(value)))}, nil
	case ItemTypeAbstractSyntax:
		return &AbstractSyntaxSubItem{Name: trimUID(string(mustRest(value)))}, nil
	case ItemTypeTransferSyntax:
		return &TransferSyntaxSubItem{Name: trimUID(string(mustRest(value)))}, nil
	case ItemTypePresentationContextRQ:
		return decodePresentationContextRQ(value)
	case ItemTypePresentationContextAC:
		return decodePresentationContextAC(value)
	case ItemTypeUserInformation:
		return decodeUserInformation(value)
	case ItemTypeMaxLength:
		return decodeMaxLength(value)
	case ItemTypeImplementationClassUID:
		return &ImplementationClassUIDItem{UID: trimUID(string(mustRest(value)))}, nil
	case ItemTypeImplementationVersionName:
		return &ImplementationVersionNameItem{Name: string(mustRest(value))}, nil
	case ItemTypeAsyncOperationsWindow:
		return decodeAsyncOperationsWindow(value)
	case ItemTypeRoleSelection:
		return decodeRoleSelection(value)
	case ItemTypeSOPClassExtendedNegotiation:
		return decodeSOPClassExtendedNegotiation(value)
	case ItemTypeSOPClassCommonExtNegotiation:
		return decodeSOPClassCommonExtendedNegotiation(value)
	case ItemTypeUserIdentityRQ:
		return decodeUserIdentityRQ(value)
	case ItemTypeUserIdentityAC:
		return decodeUserIdentityAC(value)
	default:
		return &OpaqueItem{Type: itemType, Value: append([]byte(nil), mustRest(value)...)}, nil
	}
}

func mustRest(c *cursor) []byte {
	b, _ := c.readBytes(c.remaining())
	return b
}

// OpaqueItem preserves an unrecognized sub-item's raw bytes for round-trip
// fidelity. DecodeSubItem always returns one for an unknown item type;
// this package has no strict mode that fails the decode instead.
type OpaqueItem struct {
	Type  byte
	Value []byte
}

func (v *OpaqueItem) ItemType() byte       { return v.Type }
func (v *OpaqueItem) writeValue(w *writer) { w.writeBytes(v.Value) }
func (v *OpaqueItem) String() string {
	return fmt.Sprintf("OpaqueItem{type:0x%02x len:%d}", v.Type, len(v.Value))
}

// ApplicationContextItem names the DICOM application context. P3.8 9.3.2.1.
type ApplicationContextItem struct {
	Name string
}

func (v *ApplicationContextItem) ItemType() byte { return ItemTypeApplicationContext }
func (v *ApplicationContextItem) writeValue(w *writer) {
	w.writeString(padUID(v.Name))
}
func (v *ApplicationContextItem) String() string {
	return fmt.Sprintf("ApplicationContextItem{%s}", v.Name)
}

// DICOMApplicationContextName is the single standard application context
// UID used by every association, P3.7 Annex A.
const DICOMApplicationContextName = "1.2.840.10008.3.1.1.1"

// AbstractSyntaxSubItem names a presentation context's abstract syntax.
type AbstractSyntaxSubItem struct {
	Name string
}

func (v *AbstractSyntaxSubItem) ItemType() byte       { return ItemTypeAbstractSyntax }
func (v *AbstractSyntaxSubItem) writeValue(w *writer) { w.writeString(padUID(v.Name)) }
func (v *AbstractSyntaxSubItem) String() string {
	return fmt.Sprintf("AbstractSyntax{%s}", v.Name)
}

// TransferSyntaxSubItem names one candidate (RQ) or the chosen (AC)
// transfer syntax.
type TransferSyntaxSubItem struct {
	Name string
}

func (v *TransferSyntaxSubItem) ItemType() byte       { return ItemTypeTransferSyntax }
func (v *TransferSyntaxSubItem) writeValue(w *writer) { w.writeString(padUID(v.Name)) }
func (v *TransferSyntaxSubItem) String() string {
	return fmt.Sprintf("TransferSyntax{%s}", v.Name)
}

// PresentationContextItemRQ is the requestor's proposal for one
// presentation context: one abstract syntax, one or more transfer
// syntaxes in preference order. P3.8 9.3.2.2.
type PresentationContextItemRQ struct {
	ContextID        byte
	AbstractSyntax   string
	TransferSyntaxes []string
}

func (v *PresentationContextItemRQ) ItemType() byte { return ItemTypePresentationContextRQ }
func (v *PresentationContextItemRQ) writeValue(w *writer) {
	w.writeByte(v.ContextID)
	w.writeZeros(3)
	writeItem(w, &AbstractSyntaxSubItem{Name: v.AbstractSyntax})
	for _, ts := range v.TransferSyntaxes {
		writeItem(w, &TransferSyntaxSubItem{Name: ts})
	}
}
func (v *PresentationContextItemRQ) String() string {
	return fmt.Sprintf("PresentationContextRQ{id:%d abstract:%s transfer:%v}", v.ContextID, v.AbstractSyntax, v.TransferSyntaxes)
}

func decodePresentationContextRQ(c *cursor) (*PresentationContextItemRQ, error) {
	v := &PresentationContextItemRQ{}
	id, err := c.readByte()
	if err != nil {
		return nil, err
	}
	v.ContextID = id
	if err := c.skip(3); err != nil {
		return nil, err
	}
	for !c.exhausted() {
		item, err := DecodeSubItem(c)
		if err != nil {
			return nil, err
		}
		switch n := item.(type) {
		case *AbstractSyntaxSubItem:
			v.AbstractSyntax = n.Name
		case *TransferSyntaxSubItem:
			v.TransferSyntaxes = append(v.TransferSyntaxes, n.Name)
		default:
			return nil, fmt.Errorf("pdu: unexpected sub-item %v in PresentationContextItemRQ", item)
		}
	}
	return v, nil
}

// PresentationContextItemAC is the acceptor's response for one
// presentation context: a result code and, iff accepted, exactly one
// chosen transfer syntax. P3.8 9.3.3.2.
type PresentationContextItemAC struct {
	ContextID      byte
	Result         byte
	TransferSyntax string
}

func (v *PresentationContextItemAC) ItemType() byte { return ItemTypePresentationContextAC }
func (v *PresentationContextItemAC) writeValue(w *writer) {
	w.writeByte(v.ContextID)
	w.writeByte(0)
	w.writeByte(v.Result)
	w.writeByte(0)
	if v.TransferSyntax != "" {
		writeItem(w, &TransferSyntaxSubItem{Name: v.TransferSyntax})
	}
}
func (v *PresentationContextItemAC) String() string {
	return fmt.Sprintf("PresentationContextAC{id:%d result:%d transfer:%s}", v.ContextID, v.Result, v.TransferSyntax)
}

func decodePresentationContextAC(c *cursor) (*PresentationContextItemAC, error) {
	v := &PresentationContextItemAC{}
	id, err := c.readByte()
	if err != nil {
		return nil, err
	}
	v.ContextID = id
	if _, err := c.readByte(); err != nil {
		return nil, err
	}
	result, err := c.readByte()
	if err != nil {
		return nil, err
	}
	v.Result = result
	if _, err := c.readByte(); err != nil {
		return nil, err
	}
	for !c.exhausted() {
		item, err := DecodeSubItem(c)
		if err != nil {
			return nil, err
		}
		ts, ok := item.(*TransferSyntaxSubItem)
		if !ok {
			return nil, fmt.Errorf("pdu: unexpected sub-item %v in PresentationContextItemAC", item)
		}
		v.TransferSyntax = ts.Name
	}
	return v, nil
}

// UserInformationItem is a container of user-information sub-items.
// P3.8 9.3.2.3, Annex D.
type UserInformationItem struct {
	Items []SubItem
}

func (v *UserInformationItem) ItemType() byte { return ItemTypeUserInformation }
func (v *UserInformationItem) writeValue(w *writer) {
	for _, item := range v.Items {
		writeItem(w, item)
	}
}
func (v *UserInformationItem) String() string {
	return fmt.Sprintf("UserInformation%s", SubItemListString(v.Items))
}

func decodeUserInformation(c *cursor) (*UserInformationItem, error) {
	v := &UserInformationItem{}
	for !c.exhausted() {
		item, err := DecodeSubItem(c)
		if err != nil {
			return nil, err
		}
		v.Items = append(v.Items, item)
	}
	return v, nil
}

// MaxLengthItem advertises the sender's maximum PDU length it is willing
// to receive. 0 means unlimited. P3.8 Annex D.1.
type MaxLengthItem struct {
	MaxLength uint32
}

func (v *MaxLengthItem) ItemType() byte       { return ItemTypeMaxLength }
func (v *MaxLengthItem) writeValue(w *writer) { w.writeUint32(v.MaxLength) }
func (v *MaxLengthItem) String() string       { return fmt.Sprintf("MaxLength{%d}", v.MaxLength) }

func decodeMaxLength(c *cursor) (*MaxLengthItem, error) {
	n, err := c.readUint32()
	if err != nil {
		return nil, err
	}
	return &MaxLengthItem{MaxLength: n}, nil
}

// ImplementationClassUIDItem. P3.8 Annex D.3.3.2.
type ImplementationClassUIDItem struct {
	UID string
}

func (v *ImplementationClassUIDItem) ItemType() byte       { return ItemTypeImplementationClassUID }
func (v *ImplementationClassUIDItem) writeValue(w *writer) { w.writeString(padUID(v.UID)) }
func (v *ImplementationClassUIDItem) String() string {
	return fmt.Sprintf("ImplementationClassUID{%s}", v.UID)
}

// ImplementationVersionNameItem. P3.8 Annex D.3.3.2.
type ImplementationVersionNameItem struct {
	Name string
}

func (v *ImplementationVersionNameItem) ItemType() byte { return ItemTypeImplementationVersionName }
func (v *ImplementationVersionNameItem) writeValue(w *writer) {
	w.writeString(v.Name)
}
func (v *ImplementationVersionNameItem) String() string {
	return fmt.Sprintf("ImplementationVersionName{%s}", v.Name)
}

// AsyncOperationsWindowItem negotiates asynchronous operation windows.
// P3.8 Annex D.3.3.3.
type AsyncOperationsWindowItem struct {
	MaxOperationsInvoked   uint16
	MaxOperationsPerformed uint16
}

func (v *AsyncOperationsWindowItem) ItemType() byte { return ItemTypeAsyncOperationsWindow }
func (v *AsyncOperationsWindowItem) writeValue(w *writer) {
	w.writeUint16(v.MaxOperationsInvoked)
	w.writeUint16(v.MaxOperationsPerformed)
}
func (v *AsyncOperationsWindowItem) String() string {
	return fmt.Sprintf("AsyncOperationsWindow{invoked:%d performed:%d}", v.MaxOperationsInvoked, v.MaxOperationsPerformed)
}

func decodeAsyncOperationsWindow(c *cursor) (*AsyncOperationsWindowItem, error) {
	invoked, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	performed, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	return &AsyncOperationsWindowItem{MaxOperationsInvoked: invoked, MaxOperationsPerformed: performed}, nil
}

// RoleSelectionItem negotiates SCU/SCP roles for one abstract syntax.
// P3.8 Annex D.3.3.4.
type RoleSelectionItem struct {
	SOPClassUID string
	SCURole     byte
	SCPRole     byte
}

func (v *RoleSelectionItem) ItemType() byte { return ItemTypeRoleSelection }
func (v *RoleSelectionItem) writeValue(w *writer) {
	uid := padUID(v.SOPClassUID)
	w.writeUint16(uint16(len(uid)))
	w.writeString(uid)
	w.writeByte(v.SCURole)
	w.writeByte(v.SCPRole)
}
func (v *RoleSelectionItem) String() string {
	return fmt.Sprintf("RoleSelection{sop:%s scu:%d scp:%d}", v.SOPClassUID, v.SCURole, v.SCPRole)
}

func decodeRoleSelection(c *cursor) (*RoleSelectionItem, error) {
	uidLen, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	uid, err := c.readString(int(uidLen))
	if err != nil {
		return nil, err
	}
	scu, err := c.readByte()
	if err != nil {
		return nil, err
	}
	scp, err := c.readByte()
	if err != nil {
		return nil, err
	}
	return &RoleSelectionItem{SOPClassUID: trimUID(uid), SCURole: scu, SCPRole: scp}, nil
}

// SOPClassExtendedNegotiationItem carries opaque service-class-specific
// negotiation data, passed through uninterpreted by the core (spec.md
// section 4.3). P3.8 Annex D.3.3.5.
type SOPClassExtendedNegotiationItem struct {
	SOPClassUID         string
	ServiceClassAppInfo []byte
}

func (v *SOPClassExtendedNegotiationItem) ItemType() byte {
	return ItemTypeSOPClassExtendedNegotiation
}
func (v *SOPClassExtendedNegotiationItem) writeValue(w *writer) {
	uid := padUID(v.SOPClassUID)
	w.writeUint16(uint16(len(uid)))
	w.writeString(uid)
	w.writeBytes(v.ServiceClassAppInfo)
}
func (v *SOPClassExtendedNegotiationItem) String() string {
	return fmt.Sprintf("SOPClassExtendedNegotiation{sop:%s infoLen:%d}", v.SOPClassUID, len(v.ServiceClassAppInfo))
}

func decodeSOPClassExtendedNegotiation(c *cursor) (*SOPClassExtendedNegotiationItem, error) {
	uidLen, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	uid, err := c.readString(int(uidLen))
	if err != nil {
		return nil, err
	}
	info := append([]byte(nil), mustRest(c)...)
	return &SOPClassExtendedNegotiationItem{SOPClassUID: trimUID(uid), ServiceClassAppInfo: info}, nil
}

// SOPClassCommonExtendedNegotiationItem. P3.8 Annex D.3.3.6.
type SOPClassCommonExtendedNegotiationItem struct {
	SOPClassUID                string
	ServiceClassUID            string
	RelatedGeneralSOPClassUIDs []string
}

func (v *SOPClassCommonExtendedNegotiationItem) ItemType() byte {
	return ItemTypeSOPClassCommonExtNegotiation
}
func (v *SOPClassCommonExtendedNegotiationItem) writeValue(w *writer) {
	sop := padUID(v.SOPClassUID)
	w.writeUint16(uint16(len(sop)))
	w.writeString(sop)
	svc := padUID(v.ServiceClassUID)
	w.writeUint16(uint16(len(svc)))
	w.writeString(svc)
	listW := &writer{}
	for _, uid := range v.RelatedGeneralSOPClassUIDs {
		padded := padUID(uid)
		listW.writeUint16(uint16(len(padded)))
		listW.writeString(padded)
	}
	w.writeUint16(uint16(len(listW.bytes())))
	w.writeBytes(listW.bytes())
}
func (v *SOPClassCommonExtendedNegotiationItem) String() string {
	return fmt.Sprintf("SOPClassCommonExtendedNegotiation{sop:%s service:%s related:%v}", v.SOPClassUID, v.ServiceClassUID, v.RelatedGeneralSOPClassUIDs)
}

func decodeSOPClassCommonExtendedNegotiation(c *cursor) (*SOPClassCommonExtendedNegotiationItem, error) {
	v := &SOPClassCommonExtendedNegotiationItem{}
	sopLen, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	sop, err := c.readString(int(sopLen))
	if err != nil {
		return nil, err
	}
	v.SOPClassUID = trimUID(sop)
	svcLen, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	svc, err := c.readString(int(svcLen))
	if err != nil {
		return nil, err
	}
	v.ServiceClassUID = trimUID(svc)
	listLen, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	listC, err := c.sub(int(listLen))
	if err != nil {
		return nil, err
	}
	for !listC.exhausted() {
		uidLen, err := listC.readUint16()
		if err != nil {
			return nil, err
		}
		uid, err := listC.readString(int(uidLen))
		if err != nil {
			return nil, err
		}
		v.RelatedGeneralSOPClassUIDs = append(v.RelatedGeneralSOPClassUIDs, trimUID(uid))
	}
	return v, nil
}

// UserIdentityItemRQ carries an optional user identity negotiation
// request (username/password or Kerberos/SAML token). P3.8 Annex D.3.3.7.
type UserIdentityItemRQ struct {
	IdentityType              byte
	PositiveResponseRequested bool
	PrimaryField              []byte
	SecondaryField            []byte
}

func (v *UserIdentityItemRQ) ItemType() byte { return ItemTypeUserIdentityRQ }
func (v *UserIdentityItemRQ) writeValue(w *writer) {
	w.writeByte(v.IdentityType)
	if v.PositiveResponseRequested {
		w.writeByte(1)
	} else {
		w.writeByte(0)
	}
	w.writeUint16(uint16(len(v.PrimaryField)))
	w.writeBytes(v.PrimaryField)
	w.writeUint16(uint16(len(v.SecondaryField)))
	w.writeBytes(v.SecondaryField)
}
func (v *UserIdentityItemRQ) String() string {
	return fmt.Sprintf("UserIdentityRQ{type:%d positiveResponse:%v}", v.IdentityType, v.PositiveResponseRequested)
}

func decodeUserIdentityRQ(c *cursor) (*UserIdentityItemRQ, error) {
	idType, err := c.readByte()
	if err != nil {
		return nil, err
	}
	posResp, err := c.readByte()
	if err != nil {
		return nil, err
	}
	primaryLen, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	primary, err := c.readBytes(int(primaryLen))
	if err != nil {
		return nil, err
	}
	secondaryLen, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	secondary, err := c.readBytes(int(secondaryLen))
	if err != nil {
		return nil, err
	}
	return &UserIdentityItemRQ{
		IdentityType:              idType,
		PositiveResponseRequested: posResp != 0,
		PrimaryField:              append([]byte(nil), primary...),
		SecondaryField:            append([]byte(nil), secondary...),
	}, nil
}

// UserIdentityItemAC carries the acceptor's response to a user identity
// negotiation request, when PositiveResponseRequested was set.
type UserIdentityItemAC struct {
	ServerResponse []byte
}

func (v *UserIdentityItemAC) ItemType() byte { return ItemTypeUserIdentityAC }
func (v *UserIdentityItemAC) writeValue(w *writer) {
	w.writeUint16(uint16(len(v.ServerResponse)))
	w.writeBytes(v.ServerResponse)
}
func (v *UserIdentityItemAC) String() string {
	return fmt.Sprintf("UserIdentityAC{responseLen:%d}", len(v.ServerResponse))
}

func decodeUserIdentityAC(c *cursor) (*UserIdentityItemAC, error) {
	respLen, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	resp, err := c.readBytes(int(respLen))
	if err != nil {
		return nil, err
	}
	return &UserIdentityItemAC{ServerResponse: append([]byte(nil), resp...)}, nil
}

// SubItemListString renders a slice of sub-items for debug logging, in the
// same spirit as the teacher's pdu_item.SubItemListString.
func SubItemListString(items []SubItem) string {
	s := "["
	for i, item := range items {
		if i > 0 {
			s += ", "
		}
		s += item.String()
	}
	return s + "]"
}
