package association

import (
	"context"
	"fmt"

	"github.com/dcmnet/ul/dimse"
)

const verificationSOPClassUID = "1.2.840.10008.1.1"

// SendCEcho issues a C-ECHO-RQ (P3.7 9.1.5) and returns the peer's status.
func (a *Association) SendCEcho(ctx context.Context) (dimse.Status, error) {
	req := &dimse.CEchoRq{MessageID: a.nextMessageID(), CommandDataSetType: dimse.CommandDataSetTypeNull}
	rsp, _, err := a.call(ctx, verificationSOPClassUID, req, nil)
	if err != nil {
		return dimse.Status{}, err
	}
	echo, ok := rsp.(*dimse.CEchoRsp)
	if !ok {
		return dimse.Status{}, fmt.Errorf("association: SendCEcho: unexpected response type %T", rsp)
	}
	return echo.Status, nil
}

// SendCStore stores one composite SOP instance, P3.7 9.1.1. dataSet is
// the encoded data set (not the command set) in the transfer syntax
// negotiated for affectedSOPClassUID.
func (a *Association) SendCStore(ctx context.Context, affectedSOPClassUID, affectedSOPInstanceUID string, priority uint16, dataSet []byte) (dimse.Status, error) {
	dsType := dataSetType(dataSet)
	req := &dimse.CStoreRq{
		AffectedSOPClassUID:    affectedSOPClassUID,
		MessageID:              a.nextMessageID(),
		Priority:               priority,
		CommandDataSetType:     dsType,
		AffectedSOPInstanceUID: affectedSOPInstanceUID,
	}
	rsp, _, err := a.call(ctx, affectedSOPClassUID, req, dataSet)
	if err != nil {
		return dimse.Status{}, err
	}
	store, ok := rsp.(*dimse.CStoreRsp)
	if !ok {
		return dimse.Status{}, fmt.Errorf("association: SendCStore: unexpected response type %T", rsp)
	}
	return store.Status, nil
}

// SendCFind begins a query, P3.7 9.1.2. The returned iterator yields
// zero or more Pending responses (each carrying a matched identifier)
// followed by one final response whose status is not Pending.
func (a *Association) SendCFind(affectedSOPClassUID string, priority uint16, identifier []byte) (*ResponseIterator, error) {
	req := &dimse.CFindRq{
		AffectedSOPClassUID: affectedSOPClassUID,
		MessageID:           a.nextMessageID(),
		Priority:            priority,
		CommandDataSetType:  dataSetType(identifier),
	}
	return a.callStream(affectedSOPClassUID, req, identifier)
}

// SendCGet begins a retrieve-over-the-association operation, P3.7
// 9.1.3. Inbound C-STORE-RQs for the retrieved instances arrive on this
// same association and are served through Handlers.CStore while the
// returned iterator is drained.
func (a *Association) SendCGet(affectedSOPClassUID string, priority uint16, identifier []byte) (*ResponseIterator, error) {
	req := &dimse.CGetRq{
		AffectedSOPClassUID: affectedSOPClassUID,
		MessageID:           a.nextMessageID(),
		Priority:            priority,
		CommandDataSetType:  dataSetType(identifier),
	}
	return a.callStream(affectedSOPClassUID, req, identifier)
}

// SendCMove begins a retrieve-to-a-third-party operation, P3.7 9.1.4.
func (a *Association) SendCMove(affectedSOPClassUID, moveDestination string, priority uint16, identifier []byte) (*ResponseIterator, error) {
	req := &dimse.CMoveRq{
		AffectedSOPClassUID: affectedSOPClassUID,
		MessageID:           a.nextMessageID(),
		Priority:            priority,
		MoveDestination:     moveDestination,
		CommandDataSetType:  dataSetType(identifier),
	}
	return a.callStream(affectedSOPClassUID, req, identifier)
}

// SendNGet retrieves attributes from a SOP instance, P3.7 10.1.2.
func (a *Association) SendNGet(ctx context.Context, requestedSOPClassUID, requestedSOPInstanceUID string, attributeIdentifierList []uint32) (dimse.Status, []byte, error) {
	req := &dimse.NGetRq{
		RequestedSOPClassUID:    requestedSOPClassUID,
		MessageID:               a.nextMessageID(),
		RequestedSOPInstanceUID: requestedSOPInstanceUID,
		AttributeIdentifierList: attributeIdentifierList,
		CommandDataSetType:      dimse.CommandDataSetTypeNull,
	}
	rsp, data, err := a.call(ctx, requestedSOPClassUID, req, nil)
	if err != nil {
		return dimse.Status{}, nil, err
	}
	v, ok := rsp.(*dimse.NGetRsp)
	if !ok {
		return dimse.Status{}, nil, fmt.Errorf("association: SendNGet: unexpected response type %T", rsp)
	}
	return v.Status, data, nil
}

// SendNSet modifies attributes of a SOP instance, P3.7 10.1.3.
func (a *Association) SendNSet(ctx context.Context, requestedSOPClassUID, requestedSOPInstanceUID string, modifications []byte) (dimse.Status, []byte, error) {
	req := &dimse.NSetRq{
		RequestedSOPClassUID:    requestedSOPClassUID,
		MessageID:               a.nextMessageID(),
		RequestedSOPInstanceUID: requestedSOPInstanceUID,
		CommandDataSetType:      dataSetType(modifications),
	}
	rsp, data, err := a.call(ctx, requestedSOPClassUID, req, modifications)
	if err != nil {
		return dimse.Status{}, nil, err
	}
	v, ok := rsp.(*dimse.NSetRsp)
	if !ok {
		return dimse.Status{}, nil, fmt.Errorf("association: SendNSet: unexpected response type %T", rsp)
	}
	return v.Status, data, nil
}

// SendNCreate creates a new SOP instance, P3.7 10.1.4.
// affectedSOPInstanceUID may be empty to let the performer assign one.
func (a *Association) SendNCreate(ctx context.Context, affectedSOPClassUID, affectedSOPInstanceUID string, attrs []byte) (dimse.Status, string, []byte, error) {
	req := &dimse.NCreateRq{
		AffectedSOPClassUID:    affectedSOPClassUID,
		MessageID:              a.nextMessageID(),
		AffectedSOPInstanceUID: affectedSOPInstanceUID,
		CommandDataSetType:     dataSetType(attrs),
	}
	rsp, data, err := a.call(ctx, affectedSOPClassUID, req, attrs)
	if err != nil {
		return dimse.Status{}, "", nil, err
	}
	v, ok := rsp.(*dimse.NCreateRsp)
	if !ok {
		return dimse.Status{}, "", nil, fmt.Errorf("association: SendNCreate: unexpected response type %T", rsp)
	}
	return v.Status, v.AffectedSOPInstanceUID, data, nil
}

// SendNDelete deletes a SOP instance, P3.7 10.1.6.
func (a *Association) SendNDelete(ctx context.Context, requestedSOPClassUID, requestedSOPInstanceUID string) (dimse.Status, error) {
	req := &dimse.NDeleteRq{
		RequestedSOPClassUID:    requestedSOPClassUID,
		MessageID:               a.nextMessageID(),
		RequestedSOPInstanceUID: requestedSOPInstanceUID,
	}
	rsp, _, err := a.call(ctx, requestedSOPClassUID, req, nil)
	if err != nil {
		return dimse.Status{}, err
	}
	v, ok := rsp.(*dimse.NDeleteRsp)
	if !ok {
		return dimse.Status{}, fmt.Errorf("association: SendNDelete: unexpected response type %T", rsp)
	}
	return v.Status, nil
}

// SendNAction invokes an action on a SOP instance, P3.7 10.1.5.
func (a *Association) SendNAction(ctx context.Context, requestedSOPClassUID, requestedSOPInstanceUID string, actionTypeID uint16, actionInfo []byte) (dimse.Status, []byte, error) {
	req := &dimse.NActionRq{
		RequestedSOPClassUID:    requestedSOPClassUID,
		MessageID:               a.nextMessageID(),
		RequestedSOPInstanceUID: requestedSOPInstanceUID,
		ActionTypeID:            actionTypeID,
		CommandDataSetType:      dataSetType(actionInfo),
	}
	rsp, data, err := a.call(ctx, requestedSOPClassUID, req, actionInfo)
	if err != nil {
		return dimse.Status{}, nil, err
	}
	v, ok := rsp.(*dimse.NActionRsp)
	if !ok {
		return dimse.Status{}, nil, fmt.Errorf("association: SendNAction: unexpected response type %T", rsp)
	}
	return v.Status, data, nil
}

// SendNEventReport notifies a peer of an event, P3.7 10.1.1.
func (a *Association) SendNEventReport(ctx context.Context, affectedSOPClassUID, affectedSOPInstanceUID string, eventTypeID uint16, info []byte) (dimse.Status, []byte, error) {
	req := &dimse.NEventReportRq{
		AffectedSOPClassUID:    affectedSOPClassUID,
		MessageID:              a.nextMessageID(),
		AffectedSOPInstanceUID: affectedSOPInstanceUID,
		EventTypeID:            eventTypeID,
		CommandDataSetType:     dataSetType(info),
	}
	rsp, data, err := a.call(ctx, affectedSOPClassUID, req, info)
	if err != nil {
		return dimse.Status{}, nil, err
	}
	v, ok := rsp.(*dimse.NEventReportRsp)
	if !ok {
		return dimse.Status{}, nil, fmt.Errorf("association: SendNEventReport: unexpected response type %T", rsp)
	}
	return v.Status, data, nil
}

func dataSetType(data []byte) dimse.CommandDataSetType {
	if len(data) == 0 {
		return dimse.CommandDataSetTypeNull
	}
	return dimse.CommandDataSetTypeNonNull
}
