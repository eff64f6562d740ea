// Package acse builds and interprets the Association Control Service
// Element PDUs (A-ASSOCIATE-RQ/AC/RJ, A-RELEASE-RQ/RP, A-ABORT),
// translating between primitives and pdu wire types and driving
// presentation context negotiation. P3.8 7, 9.3. The teacher inlines
// this logic directly into state-machine actions (AE-2, AE-3, AE-6,
// AE-7, AE-8); this package pulls it into its own layer, called from
// dulsm.
package acse

import (
	"fmt"

	"github.com/dcmnet/ul/pdu"
	"github.com/dcmnet/ul/presentation"
	"github.com/dcmnet/ul/primitives"
)

// BuildAssociateRQ constructs the wire PDU for an outgoing association
// request, registering the proposed contexts with mgr. AE-2.
func BuildAssociateRQ(mgr *presentation.Manager, assoc primitives.AAssociate, proposals []presentation.Proposal) *pdu.AAssociateRQ {
	items, userInfo := mgr.ProposeContexts(proposals, assoc.MaxPDULength)
	return &pdu.AAssociateRQ{
		ProtocolVersion:        pdu.CurrentProtocolVersion,
		CalledAETitle:          assoc.CalledAETitle,
		CallingAETitle:         assoc.CallingAETitle,
		ApplicationContextName: pdu.DICOMApplicationContextName,
		PresentationContexts:   items,
		UserInformation:        userInfo,
	}
}

// OnAssociateAC processes an accepted association, recording the
// negotiated contexts into mgr. AE-3.
func OnAssociateAC(mgr *presentation.Manager, ac *pdu.AAssociateAC) error {
	return mgr.OnAssociateResponse(ac.PresentationContexts, ac.UserInformation)
}

// RejectionFromRJ converts a received A-ASSOCIATE-RJ into the
// structured rejection result handed to the service user. AE-4.
func RejectionFromRJ(rj *pdu.AAssociateRJ) primitives.AAssociateResult {
	return primitives.AAssociateResult{
		Accepted: false,
		Result:   rj.Result,
		Source:   rj.Source,
		Reason:   rj.Reason,
	}
}

// OnAssociateRQ validates an incoming association request's protocol
// version and application context, and if acceptable negotiates
// presentation contexts against supported, building the A-ASSOCIATE-AC
// to send back. On rejection it returns a non-nil *pdu.AAssociateRJ
// instead. AE-6.
func OnAssociateRQ(mgr *presentation.Manager, rq *pdu.AAssociateRQ, supported []presentation.Proposal, localAETitle string, maxPDULength uint32) (*pdu.AAssociateAC, *pdu.AAssociateRJ) {
	if rq.ProtocolVersion != pdu.CurrentProtocolVersion {
		return nil, &pdu.AAssociateRJ{
			Result: pdu.ResultRejectedPermanent,
			Source: pdu.SourceULServiceProviderACSE,
			Reason: pdu.ReasonNoReasonGiven,
		}
	}
	if rq.ApplicationContextName != pdu.DICOMApplicationContextName {
		return nil, &pdu.AAssociateRJ{
			Result: pdu.ResultRejectedPermanent,
			Source: pdu.SourceULServiceProviderACSE,
			Reason: pdu.ReasonApplicationContextNameNotSupported,
		}
	}
	if localAETitle != "" && rq.CalledAETitle != localAETitle {
		return nil, &pdu.AAssociateRJ{
			Result: pdu.ResultRejectedPermanent,
			Source: pdu.SourceULServiceUserACSE,
			Reason: pdu.ReasonCalledAETitleNotRecognized,
		}
	}

	contexts, userInfo := mgr.OnAssociateRequest(rq.PresentationContexts, rq.UserInformation, supported, maxPDULength)
	return &pdu.AAssociateAC{
		ProtocolVersion:        pdu.CurrentProtocolVersion,
		CalledAETitle:          rq.CalledAETitle,
		CallingAETitle:         rq.CallingAETitle,
		ApplicationContextName: rq.ApplicationContextName,
		PresentationContexts:   contexts,
		UserInformation:        userInfo,
	}, nil
}

// BuildReleaseRQ/BuildReleaseRP/BuildAbort are trivial but kept as
// named constructors so callers never build bare pdu values by hand.
func BuildReleaseRQ() *pdu.AReleaseRQ { return &pdu.AReleaseRQ{} }
func BuildReleaseRP() *pdu.AReleaseRP { return &pdu.AReleaseRP{} }

func BuildAbort(source byte, reason pdu.AbortReasonType) *pdu.AAbort {
	return &pdu.AAbort{Source: source, Reason: reason}
}

// AbortFromPDU converts a received A-ABORT PDU to a provider-abort
// primitive for upward delivery to the service user.
func AbortFromPDU(a *pdu.AAbort) primitives.APAbort {
	return primitives.APAbort{Reason: byte(a.Reason)}
}

// ValidateAssociate checks the locally-supplied association parameters
// before a request is even sent, catching malformed AE titles early
// rather than failing a round trip to the peer for nothing.
func ValidateAssociate(assoc primitives.AAssociate) error {
	if err := pdu.ValidateAETitle(assoc.CalledAETitle); err != nil {
		return fmt.Errorf("acse: called AE title: %w", err)
	}
	if err := pdu.ValidateAETitle(assoc.CallingAETitle); err != nil {
		return fmt.Errorf("acse: calling AE title: %w", err)
	}
	if len(assoc.PresentationContexts) == 0 {
		return fmt.Errorf("acse: at least one presentation context must be proposed")
	}
	return nil
}
