package dimse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
)

func roundTrip(t *testing.T, v Message) Message {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, EncodeMessage(buf, v))
	dataset, err := dicom.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()), nil, dicom.SkipPixelData(), dicom.SkipMetadataReadOnNewParserInit())
	require.NoError(t, err)
	got, err := ReadMessage(&dataset)
	require.NoError(t, err)
	return got
}

func TestCEchoRqRoundTrip(t *testing.T) {
	v := &CEchoRq{MessageID: 0x1234, CommandDataSetType: CommandDataSetTypeNull}
	got := roundTrip(t, v).(*CEchoRq)
	assert.Equal(t, v.MessageID, got.MessageID)
	assert.Equal(t, v.CommandDataSetType, got.CommandDataSetType)
}

func TestCEchoRspRoundTrip(t *testing.T) {
	v := &CEchoRsp{
		MessageIDBeingRespondedTo: 0x1234,
		CommandDataSetType:        CommandDataSetTypeNull,
		Status:                    Success,
	}
	got := roundTrip(t, v).(*CEchoRsp)
	assert.Equal(t, v.MessageIDBeingRespondedTo, got.MessageIDBeingRespondedTo)
	assert.Equal(t, v.Status.Status, got.Status.Status)
}

func TestCStoreRqRoundTrip(t *testing.T) {
	v := &CStoreRq{
		AffectedSOPClassUID:    "1.2.840.10008.5.1.4.1.1.7",
		MessageID:              1,
		Priority:               0,
		CommandDataSetType:     CommandDataSetTypeNonNull,
		AffectedSOPInstanceUID: "1.2.3.4.5.6",
	}
	got := roundTrip(t, v).(*CStoreRq)
	assert.Equal(t, v.AffectedSOPClassUID, got.AffectedSOPClassUID)
	assert.Equal(t, v.AffectedSOPInstanceUID, got.AffectedSOPInstanceUID)
	assert.True(t, got.HasData())
}

func TestCStoreRspRoundTrip(t *testing.T) {
	v := &CStoreRsp{
		AffectedSOPClassUID:       "1.2.840.10008.5.1.4.1.1.7",
		MessageIDBeingRespondedTo: 1,
		CommandDataSetType:        CommandDataSetTypeNull,
		AffectedSOPInstanceUID:    "1.2.3.4.5.6",
		Status:                    Success,
	}
	got := roundTrip(t, v).(*CStoreRsp)
	assert.Equal(t, v.AffectedSOPInstanceUID, got.AffectedSOPInstanceUID)
	assert.Equal(t, StatusSuccess, got.Status.Status)
}

func TestCFindRqRoundTrip(t *testing.T) {
	v := &CFindRq{
		AffectedSOPClassUID: "1.2.840.10008.5.1.4.1.2.2.1",
		MessageID:           7,
		Priority:            2,
		CommandDataSetType:  CommandDataSetTypeNonNull,
	}
	got := roundTrip(t, v).(*CFindRq)
	assert.Equal(t, v.AffectedSOPClassUID, got.AffectedSOPClassUID)
	assert.Equal(t, v.Priority, got.Priority)
}

func TestCFindRspRoundTrip(t *testing.T) {
	v := &CFindRsp{
		MessageIDBeingRespondedTo: 7,
		CommandDataSetType:        CommandDataSetTypeNull,
		Status:                    Status{Status: StatusPending},
	}
	got := roundTrip(t, v).(*CFindRsp)
	assert.Equal(t, StatusPending, got.Status.Status)
}

func TestCGetRqRoundTrip(t *testing.T) {
	v := &CGetRq{
		AffectedSOPClassUID: "1.2.840.10008.5.1.4.1.2.3.1",
		MessageID:           9,
		Priority:            0,
		CommandDataSetType:  CommandDataSetTypeNonNull,
	}
	got := roundTrip(t, v).(*CGetRq)
	assert.Equal(t, v.AffectedSOPClassUID, got.AffectedSOPClassUID)
}

func TestCGetRspRoundTrip(t *testing.T) {
	v := &CGetRsp{
		MessageIDBeingRespondedTo:      9,
		CommandDataSetType:             CommandDataSetTypeNull,
		NumberOfRemainingSuboperations: 3,
		NumberOfCompletedSuboperations: 1,
		Status:                         Status{Status: StatusPending},
	}
	got := roundTrip(t, v).(*CGetRsp)
	assert.Equal(t, v.NumberOfRemainingSuboperations, got.NumberOfRemainingSuboperations)
	assert.Equal(t, v.NumberOfCompletedSuboperations, got.NumberOfCompletedSuboperations)
}

func TestCMoveRqRoundTrip(t *testing.T) {
	v := &CMoveRq{
		AffectedSOPClassUID: "1.2.840.10008.5.1.4.1.2.2.2",
		MessageID:           11,
		Priority:            0,
		MoveDestination:     "REMOTE_AE",
		CommandDataSetType:  CommandDataSetTypeNonNull,
	}
	got := roundTrip(t, v).(*CMoveRq)
	assert.Equal(t, v.MoveDestination, got.MoveDestination)
}

func TestCMoveRspRoundTrip(t *testing.T) {
	v := &CMoveRsp{
		MessageIDBeingRespondedTo:   11,
		CommandDataSetType:          CommandDataSetTypeNull,
		NumberOfCompletedSuboperations: 5,
		NumberOfFailedSuboperations:    1,
		Status:                      Success,
	}
	got := roundTrip(t, v).(*CMoveRsp)
	assert.Equal(t, v.NumberOfCompletedSuboperations, got.NumberOfCompletedSuboperations)
	assert.Equal(t, v.NumberOfFailedSuboperations, got.NumberOfFailedSuboperations)
}

func TestCCancelRqRoundTrip(t *testing.T) {
	v := &CCancelRq{MessageIDBeingRespondedTo: 7, CommandDataSetType: CommandDataSetTypeNull}
	got := roundTrip(t, v).(*CCancelRq)
	assert.Equal(t, v.MessageIDBeingRespondedTo, got.MessageIDBeingRespondedTo)
}

func TestNGetRqRoundTrip(t *testing.T) {
	v := &NGetRq{
		RequestedSOPClassUID:    "1.2.840.10008.5.1.1.9",
		MessageID:               1,
		RequestedSOPInstanceUID: "1.2.3.4",
		AttributeIdentifierList: []uint32{0x00080018, 0x00100010},
		CommandDataSetType:      CommandDataSetTypeNull,
	}
	got := roundTrip(t, v).(*NGetRq)
	assert.Equal(t, v.RequestedSOPInstanceUID, got.RequestedSOPInstanceUID)
	assert.Equal(t, v.AttributeIdentifierList, got.AttributeIdentifierList)
}

func TestNGetRspRoundTrip(t *testing.T) {
	v := &NGetRsp{
		AffectedSOPClassUID:       "1.2.840.10008.5.1.1.9",
		MessageIDBeingRespondedTo: 1,
		AffectedSOPInstanceUID:    "1.2.3.4",
		CommandDataSetType:        CommandDataSetTypeNonNull,
		Status:                    Success,
	}
	got := roundTrip(t, v).(*NGetRsp)
	assert.Equal(t, v.AffectedSOPInstanceUID, got.AffectedSOPInstanceUID)
	assert.True(t, got.HasData())
}

func TestNSetRqRoundTrip(t *testing.T) {
	v := &NSetRq{
		RequestedSOPClassUID:    "1.2.840.10008.5.1.1.9",
		MessageID:               2,
		RequestedSOPInstanceUID: "1.2.3.4",
		CommandDataSetType:      CommandDataSetTypeNonNull,
	}
	got := roundTrip(t, v).(*NSetRq)
	assert.Equal(t, v.RequestedSOPInstanceUID, got.RequestedSOPInstanceUID)
}

func TestNSetRspRoundTrip(t *testing.T) {
	v := &NSetRsp{
		AffectedSOPClassUID:       "1.2.840.10008.5.1.1.9",
		MessageIDBeingRespondedTo: 2,
		CommandDataSetType:        CommandDataSetTypeNull,
		Status:                    Success,
	}
	got := roundTrip(t, v).(*NSetRsp)
	assert.Equal(t, StatusSuccess, got.Status.Status)
}

func TestNCreateRqRoundTrip(t *testing.T) {
	v := &NCreateRq{
		AffectedSOPClassUID: "1.2.840.10008.5.1.4.1.1.1",
		MessageID:           3,
		CommandDataSetType:  CommandDataSetTypeNonNull,
	}
	got := roundTrip(t, v).(*NCreateRq)
	assert.Equal(t, v.AffectedSOPClassUID, got.AffectedSOPClassUID)
	assert.Empty(t, got.AffectedSOPInstanceUID)
}

func TestNCreateRspRoundTrip(t *testing.T) {
	v := &NCreateRsp{
		AffectedSOPClassUID:       "1.2.840.10008.5.1.4.1.1.1",
		MessageIDBeingRespondedTo: 3,
		AffectedSOPInstanceUID:    "1.2.3.4.5",
		CommandDataSetType:        CommandDataSetTypeNull,
		Status:                    Success,
	}
	got := roundTrip(t, v).(*NCreateRsp)
	assert.Equal(t, v.AffectedSOPInstanceUID, got.AffectedSOPInstanceUID)
}

func TestNDeleteRqRoundTrip(t *testing.T) {
	v := &NDeleteRq{
		RequestedSOPClassUID:    "1.2.840.10008.5.1.4.1.1.1",
		MessageID:               4,
		RequestedSOPInstanceUID: "1.2.3.4.5",
	}
	got := roundTrip(t, v).(*NDeleteRq)
	assert.Equal(t, v.RequestedSOPInstanceUID, got.RequestedSOPInstanceUID)
	assert.False(t, got.HasData())
}

func TestNDeleteRspRoundTrip(t *testing.T) {
	v := &NDeleteRsp{
		MessageIDBeingRespondedTo: 4,
		Status:                    Success,
	}
	got := roundTrip(t, v).(*NDeleteRsp)
	assert.Equal(t, StatusSuccess, got.Status.Status)
}

func TestNActionRqRoundTrip(t *testing.T) {
	v := &NActionRq{
		RequestedSOPClassUID:    "1.2.840.10008.5.1.1.33",
		MessageID:               5,
		RequestedSOPInstanceUID: "1.2.3.4.5",
		ActionTypeID:            1,
		CommandDataSetType:      CommandDataSetTypeNonNull,
	}
	got := roundTrip(t, v).(*NActionRq)
	assert.Equal(t, v.ActionTypeID, got.ActionTypeID)
}

func TestNActionRspRoundTrip(t *testing.T) {
	v := &NActionRsp{
		AffectedSOPClassUID:       "1.2.840.10008.5.1.1.33",
		MessageIDBeingRespondedTo: 5,
		ActionTypeID:              1,
		CommandDataSetType:        CommandDataSetTypeNull,
		Status:                    Success,
	}
	got := roundTrip(t, v).(*NActionRsp)
	assert.Equal(t, v.ActionTypeID, got.ActionTypeID)
}

func TestNEventReportRqRoundTrip(t *testing.T) {
	v := &NEventReportRq{
		AffectedSOPClassUID:    "1.2.840.10008.5.1.1.33",
		MessageID:              6,
		AffectedSOPInstanceUID: "1.2.3.4.5",
		EventTypeID:            2,
		CommandDataSetType:     CommandDataSetTypeNull,
	}
	got := roundTrip(t, v).(*NEventReportRq)
	assert.Equal(t, v.EventTypeID, got.EventTypeID)
}

func TestNEventReportRspRoundTrip(t *testing.T) {
	v := &NEventReportRsp{
		AffectedSOPClassUID:       "1.2.840.10008.5.1.1.33",
		MessageIDBeingRespondedTo: 6,
		EventTypeID:               2,
		CommandDataSetType:        CommandDataSetTypeNull,
		Status:                    Success,
	}
	got := roundTrip(t, v).(*NEventReportRsp)
	assert.Equal(t, v.EventTypeID, got.EventTypeID)
}
