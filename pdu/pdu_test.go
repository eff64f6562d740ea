package pdu

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, p PDU) PDU {
	t.Helper()
	encoded := Encode(p)
	pduType, length, err := ReadHeader(bytes.NewReader(encoded))
	require.NoError(t, err)
	body := encoded[6:]
	require.EqualValues(t, len(body), length)
	got, err := Decode(pduType, body)
	require.NoError(t, err)
	return got
}

func TestAAssociateRQRoundTrip(t *testing.T) {
	rq := &AAssociateRQ{
		ProtocolVersion:        CurrentProtocolVersion,
		CalledAETitle:          "STORESCP",
		CallingAETitle:         "STORESCU",
		ApplicationContextName: DICOMApplicationContextName,
		PresentationContexts: []*PresentationContextItemRQ{
			{
				ContextID:        1,
				AbstractSyntax:   "1.2.840.10008.1.1",
				TransferSyntaxes: []string{"1.2.840.10008.1.2", "1.2.840.10008.1.2.1"},
			},
		},
		UserInformation: &UserInformationItem{
			Items: []SubItem{
				&MaxLengthItem{MaxLength: 16384},
				&ImplementationClassUIDItem{UID: "1.2.3.4.5"},
				&ImplementationVersionNameItem{Name: "DCMNET_1"},
			},
		},
	}
	got := roundTrip(t, rq)
	out, ok := got.(*AAssociateRQ)
	require.True(t, ok)
	assert.Equal(t, rq.ProtocolVersion, out.ProtocolVersion)
	assert.Equal(t, rq.CalledAETitle, out.CalledAETitle)
	assert.Equal(t, rq.CallingAETitle, out.CallingAETitle)
	assert.Equal(t, rq.ApplicationContextName, out.ApplicationContextName)
	require.Len(t, out.PresentationContexts, 1)
	assert.Equal(t, rq.PresentationContexts[0].AbstractSyntax, out.PresentationContexts[0].AbstractSyntax)
	assert.Equal(t, rq.PresentationContexts[0].TransferSyntaxes, out.PresentationContexts[0].TransferSyntaxes)
	require.NotNil(t, out.UserInformation)
	require.Len(t, out.UserInformation.Items, 3)
}

func TestAAssociateACRoundTrip(t *testing.T) {
	ac := &AAssociateAC{
		ProtocolVersion:        CurrentProtocolVersion,
		CalledAETitle:          "STORESCP",
		CallingAETitle:         "STORESCU",
		ApplicationContextName: DICOMApplicationContextName,
		PresentationContexts: []*PresentationContextItemAC{
			{ContextID: 1, Result: PresentationResultAcceptance, TransferSyntax: "1.2.840.10008.1.2"},
		},
		UserInformation: &UserInformationItem{
			Items: []SubItem{&MaxLengthItem{MaxLength: 16384}},
		},
	}
	got := roundTrip(t, ac)
	out, ok := got.(*AAssociateAC)
	require.True(t, ok)
	assert.Equal(t, ac.CalledAETitle, out.CalledAETitle)
	require.Len(t, out.PresentationContexts, 1)
	assert.Equal(t, ac.PresentationContexts[0].TransferSyntax, out.PresentationContexts[0].TransferSyntax)
}

func TestAAssociateRJRoundTrip(t *testing.T) {
	rj := &AAssociateRJ{Result: ResultRejectedPermanent, Source: SourceULServiceUserACSE, Reason: ReasonCalledAETitleNotRecognized}
	got := roundTrip(t, rj)
	out, ok := got.(*AAssociateRJ)
	require.True(t, ok)
	assert.Equal(t, rj, out)
}

func TestPDataTfRoundTrip(t *testing.T) {
	pdt := &PDataTf{
		Items: []*PresentationDataValueItem{
			{ContextID: 1, Header: NewPDVHeader(true, true), Data: []byte{0x01, 0x02, 0x03}},
			{ContextID: 1, Header: NewPDVHeader(false, true), Data: []byte{0xAA, 0xBB}},
		},
	}
	got := roundTrip(t, pdt)
	out, ok := got.(*PDataTf)
	require.True(t, ok)
	require.Len(t, out.Items, 2)
	assert.True(t, out.Items[0].IsCommand())
	assert.True(t, out.Items[0].IsLastFragment())
	assert.False(t, out.Items[1].IsCommand())
	assert.Equal(t, []byte{0xAA, 0xBB}, out.Items[1].Data)
}

func TestAReleaseRoundTrip(t *testing.T) {
	rq := roundTrip(t, &AReleaseRQ{})
	_, ok := rq.(*AReleaseRQ)
	assert.True(t, ok)

	rp := roundTrip(t, &AReleaseRP{})
	_, ok = rp.(*AReleaseRP)
	assert.True(t, ok)
}

func TestAAbortRoundTrip(t *testing.T) {
	ab := &AAbort{Source: AbortSourceULServiceProvider, Reason: AbortReasonUnexpectedPDU}
	got := roundTrip(t, ab)
	out, ok := got.(*AAbort)
	require.True(t, ok)
	assert.Equal(t, ab, out)
}

func TestUnknownSubItemPreservedOpaque(t *testing.T) {
	w := &writer{}
	w.writeByte(0x7F) // unrecognized item type
	w.writeByte(0)
	w.writeUint16(3)
	w.writeBytes([]byte{1, 2, 3})
	c := newCursor(w.bytes())
	item, err := DecodeSubItem(c)
	require.NoError(t, err)
	opaque, ok := item.(*OpaqueItem)
	require.True(t, ok)
	assert.Equal(t, byte(0x7F), opaque.Type)
	assert.Equal(t, []byte{1, 2, 3}, opaque.Value)
}

func TestValidateAETitle(t *testing.T) {
	assert.NoError(t, ValidateAETitle("STORESCP"))
	assert.Error(t, ValidateAETitle(""))
	assert.Error(t, ValidateAETitle("THIS_AE_TITLE_IS_WAY_TOO_LONG"))
	assert.Error(t, ValidateAETitle("BAD\\TITLE"))
}

func TestValidateUID(t *testing.T) {
	assert.NoError(t, ValidateUID("1.2.840.10008.1.1"))
	assert.Error(t, ValidateUID(""))
	assert.Error(t, ValidateUID("1.2.x.4"))
}
