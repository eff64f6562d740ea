package association

import (
	"context"

	"github.com/dcmnet/ul/dimse"
)

// SubopProgress reports the sub-operation counters carried by C-GET/
// C-MOVE responses, P3.7 C.4.3.1.3/C.4.2.2.1.3.
type SubopProgress struct {
	Remaining uint16
	Completed uint16
	Failed    uint16
	Warning   uint16
}

// Responder produces the successive responses a C-FIND service class
// provider sends for one request. Next is called once per response;
// cancelled is true once a matching C-CANCEL-RQ has arrived. done==true
// marks the identifier/status just returned as the final one.
type Responder interface {
	Next(cancelled bool) (status dimse.Status, identifier []byte, done bool)
}

// ResponderFunc adapts a plain function to Responder.
type ResponderFunc func(cancelled bool) (dimse.Status, []byte, bool)

func (f ResponderFunc) Next(cancelled bool) (dimse.Status, []byte, bool) { return f(cancelled) }

// RetrieveResponder is the C-GET/C-MOVE analogue of Responder, also
// reporting sub-operation progress on every response.
type RetrieveResponder interface {
	Next(cancelled bool) (status dimse.Status, progress SubopProgress, identifier []byte, done bool)
}

// RetrieveResponderFunc adapts a plain function to RetrieveResponder.
type RetrieveResponderFunc func(cancelled bool) (dimse.Status, SubopProgress, []byte, bool)

func (f RetrieveResponderFunc) Next(cancelled bool) (dimse.Status, SubopProgress, []byte, bool) {
	return f(cancelled)
}

// CStoreHandler stores one composite object and returns the status to
// report back to the requestor.
type CStoreHandler func(ctx context.Context, req *dimse.CStoreRq, dataSet []byte) dimse.Status

// CFindHandler begins a query and returns the Responder that will be
// drained for successive C-FIND-RSP identifiers.
type CFindHandler func(ctx context.Context, req *dimse.CFindRq, identifier []byte) Responder

// CGetHandler begins a retrieve-and-store-over-the-association
// operation and returns the RetrieveResponder that will be drained for
// successive C-GET-RSP progress/status.
type CGetHandler func(ctx context.Context, req *dimse.CGetRq, identifier []byte) RetrieveResponder

// CMoveHandler begins a retrieve-and-store-to-a-third-party operation.
type CMoveHandler func(ctx context.Context, req *dimse.CMoveRq, identifier []byte) RetrieveResponder

// NGetHandler returns the requested attribute list.
type NGetHandler func(ctx context.Context, req *dimse.NGetRq) (dimse.Status, []byte)

// NSetHandler applies modifications and returns the resulting attribute list.
type NSetHandler func(ctx context.Context, req *dimse.NSetRq, modifications []byte) (dimse.Status, []byte)

// NCreateHandler creates a new SOP instance, returning the instance UID
// it was assigned (echoed if the requestor already supplied one) and
// its attribute list.
type NCreateHandler func(ctx context.Context, req *dimse.NCreateRq, attrs []byte) (dimse.Status, string, []byte)

// NDeleteHandler deletes a SOP instance.
type NDeleteHandler func(ctx context.Context, req *dimse.NDeleteRq) dimse.Status

// NActionHandler invokes an action on a SOP instance, returning a reply.
type NActionHandler func(ctx context.Context, req *dimse.NActionRq, actionInfo []byte) (dimse.Status, []byte)

// NEventReportHandler delivers an event notification.
type NEventReportHandler func(ctx context.Context, req *dimse.NEventReportRq, info []byte) dimse.Status

// LifecycleHandler observes association lifecycle transitions. err is
// non-nil only for OnAborted, carrying the reason the association
// layer or its peer gave for the abort.
type LifecycleHandler func(a *Association, err error)

// Handlers bundles every callback an Association can be configured
// with. A nil field means "not supported"; incoming requests for it are
// answered with StatusUnrecognizedOperation.
type Handlers struct {
	OnEstablished LifecycleHandler
	OnReleased    LifecycleHandler
	OnAborted     LifecycleHandler

	CStore       CStoreHandler
	CFind        CFindHandler
	CGet         CGetHandler
	CMove        CMoveHandler
	NGet         NGetHandler
	NSet         NSetHandler
	NCreate      NCreateHandler
	NDelete      NDeleteHandler
	NAction      NActionHandler
	NEventReport NEventReportHandler
}
