package dimse

import (
	"fmt"
	"io"

	"github.com/dcmnet/ul/internal/commandset"
	"github.com/suyashkumar/dicom"
)

// NSetRq is the N-SET-RQ DIMSE message, modifying attribute values of a
// SOP instance with the accompanying data set. P3.7 10.1.3.
type NSetRq struct {
	RequestedSOPClassUID    string
	MessageID               MessageID
	RequestedSOPInstanceUID string
	CommandDataSetType      CommandDataSetType
	Extra                   []*dicom.Element
}

func (v *NSetRq) Encode(e io.Writer) error {
	elems := []*dicom.Element{}

	elem, err := NewElement(commandset.CommandField, v.CommandField())
	if err != nil {
		return fmt.Errorf("NSetRq.Encode: failed to create CommandField element: %w", err)
	}
	elems = append(elems, elem)

	elem, err = NewElement(commandset.RequestedSOPClassUID, v.RequestedSOPClassUID)
	if err != nil {
		return fmt.Errorf("NSetRq.Encode: failed to create RequestedSOPClassUID element: %w", err)
	}
	elems = append(elems, elem)

	elem, err = NewElement(commandset.MessageID, v.MessageID)
	if err != nil {
		return fmt.Errorf("NSetRq.Encode: failed to create MessageID element: %w", err)
	}
	elems = append(elems, elem)

	elem, err = NewElement(commandset.RequestedSOPInstanceUID, v.RequestedSOPInstanceUID)
	if err != nil {
		return fmt.Errorf("NSetRq.Encode: failed to create RequestedSOPInstanceUID element: %w", err)
	}
	elems = append(elems, elem)

	elem, err = NewElement(commandset.CommandDataSetType, uint16(v.CommandDataSetType))
	if err != nil {
		return fmt.Errorf("NSetRq.Encode: failed to create CommandDataSetType element: %w", err)
	}
	elems = append(elems, elem)

	elems = append(elems, v.Extra...)

	if err := EncodeElements(e, elems); err != nil {
		return fmt.Errorf("NSetRq.Encode: failed to encode elements: %w", err)
	}
	return nil
}

func (v *NSetRq) HasData() bool {
	return v.CommandDataSetType != CommandDataSetTypeNull
}

func (v *NSetRq) CommandField() uint16    { return CommandFieldNSetRq }
func (v *NSetRq) GetMessageID() MessageID { return v.MessageID }
func (v *NSetRq) GetStatus() *Status      { return nil }

func (v *NSetRq) String() string {
	return fmt.Sprintf("NSetRq{RequestedSOPClassUID:%v MessageID:%v RequestedSOPInstanceUID:%v}}", v.RequestedSOPClassUID, v.MessageID, v.RequestedSOPInstanceUID)
}

func (NSetRq) decode(d *MessageDecoder) (*NSetRq, error) {
	v := &NSetRq{}
	var err error

	v.RequestedSOPClassUID, err = d.GetString(commandset.RequestedSOPClassUID, RequiredElement)
	if err != nil {
		return nil, fmt.Errorf("NSetRq.decode: failed to decode RequestedSOPClassUID: %w", err)
	}

	v.MessageID, err = d.GetUInt16(commandset.MessageID, RequiredElement)
	if err != nil {
		return nil, fmt.Errorf("NSetRq.decode: failed to decode MessageID: %w", err)
	}

	v.RequestedSOPInstanceUID, err = d.GetString(commandset.RequestedSOPInstanceUID, RequiredElement)
	if err != nil {
		return nil, fmt.Errorf("NSetRq.decode: failed to decode RequestedSOPInstanceUID: %w", err)
	}

	v.CommandDataSetType, err = d.GetCommandDataSetType()
	if err != nil {
		return nil, fmt.Errorf("NSetRq.decode: failed to decode CommandDataSetType: %w", err)
	}

	v.Extra = d.UnparsedElements()
	return v, nil
}

// NSetRsp is the N-SET-RSP DIMSE message.
type NSetRsp struct {
	AffectedSOPClassUID       string
	MessageIDBeingRespondedTo MessageID
	AffectedSOPInstanceUID    string
	CommandDataSetType        CommandDataSetType
	Status                    Status
	Extra                     []*dicom.Element
}

func (v *NSetRsp) Encode(e io.Writer) error {
	elems := []*dicom.Element{}

	elem, err := NewElement(commandset.CommandField, CommandFieldNSetRsp)
	if err != nil {
		return fmt.Errorf("NSetRsp.Encode: failed to create CommandField element: %w", err)
	}
	elems = append(elems, elem)

	elem, err = NewElement(commandset.AffectedSOPClassUID, v.AffectedSOPClassUID)
	if err != nil {
		return fmt.Errorf("NSetRsp.Encode: failed to create AffectedSOPClassUID element: %w", err)
	}
	elems = append(elems, elem)

	elem, err = NewElement(commandset.MessageIDBeingRespondedTo, v.MessageIDBeingRespondedTo)
	if err != nil {
		return fmt.Errorf("NSetRsp.Encode: failed to create MessageIDBeingRespondedTo element: %w", err)
	}
	elems = append(elems, elem)

	if v.AffectedSOPInstanceUID != "" {
		elem, err = NewElement(commandset.AffectedSOPInstanceUID, v.AffectedSOPInstanceUID)
		if err != nil {
			return fmt.Errorf("NSetRsp.Encode: failed to create AffectedSOPInstanceUID element: %w", err)
		}
		elems = append(elems, elem)
	}

	elem, err = NewElement(commandset.CommandDataSetType, uint16(v.CommandDataSetType))
	if err != nil {
		return fmt.Errorf("NSetRsp.Encode: failed to create CommandDataSetType element: %w", err)
	}
	elems = append(elems, elem)

	statusElems, err := v.Status.ToElements()
	if err != nil {
		return fmt.Errorf("NSetRsp.Encode: failed to create Status elements: %w", err)
	}
	elems = append(elems, statusElems...)

	elems = append(elems, v.Extra...)

	if err := EncodeElements(e, elems); err != nil {
		return fmt.Errorf("NSetRsp.Encode: failed to encode elements: %w", err)
	}
	return nil
}

func (v *NSetRsp) HasData() bool {
	return v.CommandDataSetType != CommandDataSetTypeNull
}

func (v *NSetRsp) CommandField() uint16 { return CommandFieldNSetRsp }
func (v *NSetRsp) GetMessageID() MessageID {
	return v.MessageIDBeingRespondedTo
}
func (v *NSetRsp) GetStatus() *Status { return &v.Status }

func (v *NSetRsp) String() string {
	return fmt.Sprintf("NSetRsp{AffectedSOPClassUID:%v MessageIDBeingRespondedTo:%v AffectedSOPInstanceUID:%v Status:%v}}", v.AffectedSOPClassUID, v.MessageIDBeingRespondedTo, v.AffectedSOPInstanceUID, v.Status)
}

func (NSetRsp) decode(d *MessageDecoder) (*NSetRsp, error) {
	v := &NSetRsp{}
	var err error

	v.AffectedSOPClassUID, err = d.GetString(commandset.AffectedSOPClassUID, OptionalElement)
	if err != nil {
		return nil, fmt.Errorf("NSetRsp.decode: failed to decode AffectedSOPClassUID: %w", err)
	}

	v.MessageIDBeingRespondedTo, err = d.GetUInt16(commandset.MessageIDBeingRespondedTo, RequiredElement)
	if err != nil {
		return nil, fmt.Errorf("NSetRsp.decode: failed to decode MessageIDBeingRespondedTo: %w", err)
	}

	v.AffectedSOPInstanceUID, err = d.GetString(commandset.AffectedSOPInstanceUID, OptionalElement)
	if err != nil {
		return nil, fmt.Errorf("NSetRsp.decode: failed to decode AffectedSOPInstanceUID: %w", err)
	}

	v.CommandDataSetType, err = d.GetCommandDataSetType()
	if err != nil {
		return nil, fmt.Errorf("NSetRsp.decode: failed to decode CommandDataSetType: %w", err)
	}

	v.Status, err = d.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("NSetRsp.decode: failed to decode Status: %w", err)
	}

	v.Extra = d.UnparsedElements()
	return v, nil
}
