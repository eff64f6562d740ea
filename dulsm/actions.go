package dulsm

import (
	"bytes"
	"fmt"

	"github.com/dcmnet/ul/acse"
	"github.com/dcmnet/ul/dimse"
	"github.com/dcmnet/ul/pdu"
	"github.com/grailbio/go-dicom/dicomlog"
)

type stateAction struct {
	Name        string
	Description string
	Callback    func(sm *StateMachine, event stateEvent) stateType
}

func (a *stateAction) String() string {
	return fmt.Sprintf("%s(%s)", a.Name, a.Description)
}

var actionAe1 = &stateAction{"AE-1", "Issue TRANSPORT CONNECT request primitive to local transport service",
	func(sm *StateMachine, event stateEvent) stateType {
		return sta04
	}}

var actionAe2 = &stateAction{"AE-2", "Connection established on the user side. Send A-ASSOCIATE-RQ PDU",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.conn = event.conn
		go networkReaderThread(sm.netCh, event.conn, sm.opts.MaxUnlimitedPDUSize(), sm.label)
		rq := acse.BuildAssociateRQ(sm.presentation, sm.assoc, sm.proposals)
		sendPDU(sm, rq)
		sm.startTimer(sm.opts.ACSETimeout)
		return sta05
	}}

var actionAe3 = &stateAction{"AE-3", "Issue A-ASSOCIATE confirmation (accept) primitive",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.stopTimer()
		ac := event.pdu.(*pdu.AAssociateAC)
		if err := acse.OnAssociateAC(sm.presentation, ac); err != nil {
			dicomlog.Vprintf(0, "dulsm(%s): AE-3: %v", sm.label, err)
			return actionAa8.Callback(sm, event)
		}
		sm.upcallCh <- UpcallEvent{Type: UpcallAssociateAccepted}
		return sta06
	}}

var actionAe4 = &stateAction{"AE-4", "Issue A-ASSOCIATE confirmation (reject) primitive and close transport connection",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.stopTimer()
		sm.upcallCh <- UpcallEvent{Type: UpcallAssociateRejected, Rejection: event.pdu.(*pdu.AAssociateRJ)}
		sm.closeConnection()
		return sta01
	}}

var actionAe5 = &stateAction{"AE-5", "Issue Transport connection response primitive; start ARTIM timer",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.startTimer(sm.opts.ACSETimeout)
		go networkReaderThread(sm.netCh, sm.conn, sm.opts.MaxUnlimitedPDUSize(), sm.label)
		return sta02
	}}

var actionAe6 = &stateAction{"AE-6", "Stop ARTIM timer and accept/reject the incoming A-ASSOCIATE-RQ",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.stopTimer()
		rq := event.pdu.(*pdu.AAssociateRQ)
		ac, rj := acse.OnAssociateRQ(sm.presentation, rq, sm.proposals, sm.assoc.CalledAETitle, sm.opts.MaxPDULength)
		if rj != nil {
			sm.downcallCh <- stateEvent{event: evt08, rejection: rj}
		} else {
			sm.downcallCh <- stateEvent{event: evt07, pdu: ac}
		}
		return sta03
	}}

var actionAe7 = &stateAction{"AE-7", "Send A-ASSOCIATE-AC PDU",
	func(sm *StateMachine, event stateEvent) stateType {
		sendPDU(sm, event.pdu.(*pdu.AAssociateAC))
		sm.upcallCh <- UpcallEvent{Type: UpcallAssociateAccepted}
		return sta06
	}}

var actionAe8 = &stateAction{"AE-8", "Send A-ASSOCIATE-RJ PDU and start ARTIM timer",
	func(sm *StateMachine, event stateEvent) stateType {
		sendPDU(sm, event.rejection)
		sm.startTimer(sm.opts.ACSETimeout)
		return sta13
	}}

// splitDataIntoPDUs produces the P-DATA-TF PDUs that collectively carry
// data over the presentation context bound to abstractSyntaxName.
func splitDataIntoPDUs(sm *StateMachine, abstractSyntaxName string, isCommand bool, data []byte) ([]*pdu.PDataTf, error) {
	ctx, err := sm.presentation.LookupByAbstractSyntaxUID(abstractSyntaxName)
	if err != nil {
		return nil, fmt.Errorf("dulsm(%s): %w", sm.label, err)
	}
	maxChunkSize := int(sm.peerMaxPDULength()) - 8
	if maxChunkSize <= 0 {
		maxChunkSize = 16 * 1024
	}
	var pdus []*pdu.PDataTf
	for len(data) > 0 {
		chunkSize := len(data)
		if chunkSize > maxChunkSize {
			chunkSize = maxChunkSize
		}
		chunk := data[0:chunkSize]
		data = data[chunkSize:]
		pdus = append(pdus, &pdu.PDataTf{Items: []*pdu.PresentationDataValueItem{{
			ContextID: ctx.ID,
			Header:    pdu.NewPDVHeader(isCommand, false),
			Data:      chunk,
		}}})
	}
	if len(pdus) > 0 {
		last := pdus[len(pdus)-1].Items[0]
		last.Header = pdu.NewPDVHeader(isCommand, true)
	}
	return pdus, nil
}

func sendDIMSE(sm *StateMachine, payload *DIMSEPayload) error {
	e := bytes.Buffer{}
	if err := dimse.EncodeMessage(&e, payload.Command); err != nil {
		return fmt.Errorf("dulsm(%s): failed to encode DIMSE command: %w", sm.label, err)
	}
	pdus, err := splitDataIntoPDUs(sm, payload.AbstractSyntax, true, e.Bytes())
	if err != nil {
		return err
	}
	for _, p := range pdus {
		sendPDU(sm, p)
	}
	if payload.Command.HasData() {
		pdus, err := splitDataIntoPDUs(sm, payload.AbstractSyntax, false, payload.Data)
		if err != nil {
			return err
		}
		for _, p := range pdus {
			sendPDU(sm, p)
		}
	}
	return nil
}

var actionDt1 = &stateAction{"DT-1", "Send P-DATA-TF PDU",
	func(sm *StateMachine, event stateEvent) stateType {
		if err := sendDIMSE(sm, event.dimsePayload); err != nil {
			dicomlog.Vprintf(0, "dulsm(%s): DT-1: %v", sm.label, err)
			return actionAa8.Callback(sm, event)
		}
		return sta06
	}}

var actionDt2 = &stateAction{"DT-2", "Send P-DATA indication primitive",
	func(sm *StateMachine, event stateEvent) stateType {
		contextID, command, data, err := sm.commandAssembler.AddDataPDU(event.pdu.(*pdu.PDataTf))
		if err != nil {
			dicomlog.Vprintf(0, "dulsm(%s): DT-2: failed to assemble data: %v", sm.label, err)
			return actionAa8.Callback(sm, event)
		}
		if command != nil {
			sm.upcallCh <- UpcallEvent{Type: UpcallData, ContextID: contextID, Command: command, Data: data}
		}
		return sta06
	}}

var actionAr1 = &stateAction{"AR-1", "Send A-RELEASE-RQ PDU",
	func(sm *StateMachine, event stateEvent) stateType {
		sendPDU(sm, acse.BuildReleaseRQ())
		return sta07
	}}

var actionAr2 = &stateAction{"AR-2", "Issue A-RELEASE indication primitive",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.upcallCh <- UpcallEvent{Type: UpcallReleased}
		sm.downcallCh <- stateEvent{event: evt14}
		return sta08
	}}

var actionAr3 = &stateAction{"AR-3", "Issue A-RELEASE confirmation primitive and close transport connection",
	func(sm *StateMachine, event stateEvent) stateType {
		sendPDU(sm, acse.BuildReleaseRP())
		sm.upcallCh <- UpcallEvent{Type: UpcallReleased}
		sm.closeConnection()
		return sta01
	}}

var actionAr4 = &stateAction{"AR-4", "Issue A-RELEASE-RP PDU and start ARTIM timer",
	func(sm *StateMachine, event stateEvent) stateType {
		sendPDU(sm, acse.BuildReleaseRP())
		sm.startTimer(sm.opts.ACSETimeout)
		return sta13
	}}

var actionAr5 = &stateAction{"AR-5", "Stop ARTIM timer",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.stopTimer()
		return sta01
	}}

var actionAr6 = &stateAction{"AR-6", "Issue P-DATA indication",
	func(sm *StateMachine, event stateEvent) stateType {
		return sta07
	}}

var actionAr7 = &stateAction{"AR-7", "Issue P-DATA-TF PDU",
	func(sm *StateMachine, event stateEvent) stateType {
		if err := sendDIMSE(sm, event.dimsePayload); err != nil {
			dicomlog.Vprintf(0, "dulsm(%s): AR-7: %v", sm.label, err)
		}
		sm.downcallCh <- stateEvent{event: evt14}
		return sta08
	}}

var actionAr8 = &stateAction{"AR-8", "Issue A-RELEASE indication (release collision)",
	func(sm *StateMachine, event stateEvent) stateType {
		if sm.isUser {
			return sta09
		}
		return sta10
	}}

var actionAr9 = &stateAction{"AR-9", "Send A-RELEASE-RP PDU",
	func(sm *StateMachine, event stateEvent) stateType {
		sendPDU(sm, acse.BuildReleaseRP())
		return sta11
	}}

var actionAr10 = &stateAction{"AR-10", "Issue A-RELEASE confirmation primitive",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.upcallCh <- UpcallEvent{Type: UpcallReleased}
		return sta12
	}}

var actionAa1 = &stateAction{"AA-1", "Send A-ABORT PDU (service-user source) and restart ARTIM timer",
	func(sm *StateMachine, event stateEvent) stateType {
		reason := event.abortReason
		if sm.currentState == sta02 {
			reason = pdu.AbortReasonUnexpectedPDU
		}
		sendPDU(sm, acse.BuildAbort(pdu.AbortSourceULServiceUser, reason))
		sm.startTimer(sm.opts.ACSETimeout)
		return sta13
	}}

var actionAa2 = &stateAction{"AA-2", "Stop ARTIM timer if running. Close transport connection",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.stopTimer()
		sm.closeConnection()
		return sta01
	}}

var actionAa3 = &stateAction{"AA-3", "Issue A-ABORT or A-P-ABORT indication and close transport connection",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.upcallCh <- UpcallEvent{Type: UpcallAborted}
		sm.closeConnection()
		return sta01
	}}

var actionAa4 = &stateAction{"AA-4", "Issue A-P-ABORT indication primitive",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.upcallCh <- UpcallEvent{Type: UpcallAborted}
		return sta01
	}}

var actionAa5 = &stateAction{"AA-5", "Stop ARTIM timer",
	func(sm *StateMachine, event stateEvent) stateType {
		sm.stopTimer()
		return sta01
	}}

var actionAa6 = &stateAction{"AA-6", "Ignore PDU",
	func(sm *StateMachine, event stateEvent) stateType {
		return sta13
	}}

var actionAa7 = &stateAction{"AA-7", "Send A-ABORT PDU",
	func(sm *StateMachine, event stateEvent) stateType {
		sendPDU(sm, acse.BuildAbort(pdu.AbortSourceULServiceUser, pdu.AbortReasonNotSpecified))
		return sta13
	}}

var actionAa8 = &stateAction{"AA-8", "Send A-ABORT PDU (service-dul source), issue A-P-ABORT indication and start ARTIM timer",
	func(sm *StateMachine, event stateEvent) stateType {
		sendPDU(sm, acse.BuildAbort(pdu.AbortSourceULServiceProvider, pdu.AbortReasonNotSpecified))
		sm.upcallCh <- UpcallEvent{Type: UpcallAborted, AbortError: event.err}
		sm.startTimer(sm.opts.ACSETimeout)
		return sta13
	}}

type stateTransitionKey struct {
	current stateType
	event   eventType
}

var stateTransitions = map[stateTransitionKey]*stateAction{
	{sta01, evt01}: actionAe1,
	{sta01, evt05}: actionAe5,
	{sta02, evt03}: actionAa1,
	{sta02, evt04}: actionAa1,
	{sta02, evt06}: actionAe6,
	{sta02, evt10}: actionAa1,
	{sta02, evt12}: actionAa1,
	{sta02, evt13}: actionAa1,
	{sta02, evt16}: actionAa2,
	{sta02, evt17}: actionAa5,
	{sta02, evt18}: actionAa2,
	{sta02, evt19}: actionAa1,
	{sta03, evt03}: actionAa8,
	{sta03, evt04}: actionAa8,
	{sta03, evt06}: actionAa8,
	{sta03, evt07}: actionAe7,
	{sta03, evt08}: actionAe8,
	{sta03, evt10}: actionAa8,
	{sta03, evt12}: actionAa8,
	{sta03, evt13}: actionAa8,
	{sta03, evt15}: actionAa1,
	{sta03, evt16}: actionAa3,
	{sta03, evt17}: actionAa4,
	{sta03, evt19}: actionAa8,
	{sta04, evt02}: actionAe2,
	{sta04, evt15}: actionAa2,
	{sta04, evt17}: actionAa4,
	{sta05, evt03}: actionAe3,
	{sta05, evt04}: actionAe4,
	{sta05, evt06}: actionAa8,
	{sta05, evt10}: actionAa8,
	{sta05, evt12}: actionAa8,
	{sta05, evt13}: actionAa8,
	{sta05, evt15}: actionAa1,
	{sta05, evt16}: actionAa3,
	{sta05, evt17}: actionAa4,
	{sta05, evt18}: actionAa8,
	{sta05, evt19}: actionAa8,
	{sta06, evt03}: actionAa8,
	{sta06, evt04}: actionAa8,
	{sta06, evt06}: actionAa8,
	{sta06, evt09}: actionDt1,
	{sta06, evt10}: actionDt2,
	{sta06, evt11}: actionAr1,
	{sta06, evt12}: actionAr2,
	{sta06, evt13}: actionAa8,
	{sta06, evt15}: actionAa1,
	{sta06, evt16}: actionAa3,
	{sta06, evt17}: actionAa4,
	{sta06, evt19}: actionAa8,
	{sta07, evt03}: actionAa8,
	{sta07, evt04}: actionAa8,
	{sta07, evt06}: actionAa8,
	{sta07, evt10}: actionAr6,
	{sta07, evt12}: actionAr8,
	{sta07, evt13}: actionAr3,
	{sta07, evt15}: actionAa1,
	{sta07, evt16}: actionAa3,
	{sta07, evt17}: actionAa4,
	{sta07, evt19}: actionAa8,
	{sta08, evt03}: actionAa8,
	{sta08, evt04}: actionAa8,
	{sta08, evt06}: actionAa8,
	{sta08, evt09}: actionAr7,
	{sta08, evt10}: actionAa8,
	{sta08, evt12}: actionAa8,
	{sta08, evt13}: actionAa8,
	{sta08, evt14}: actionAr4,
	{sta08, evt15}: actionAa1,
	{sta08, evt16}: actionAa3,
	{sta08, evt17}: actionAa4,
	{sta08, evt19}: actionAa8,
	{sta09, evt03}: actionAa8,
	{sta09, evt04}: actionAa8,
	{sta09, evt06}: actionAa8,
	{sta09, evt10}: actionAa8,
	{sta09, evt12}: actionAa8,
	{sta09, evt13}: actionAa8,
	{sta09, evt14}: actionAr9,
	{sta09, evt15}: actionAa1,
	{sta09, evt16}: actionAa3,
	{sta09, evt17}: actionAa4,
	{sta09, evt19}: actionAa8,
	{sta10, evt03}: actionAa8,
	{sta10, evt04}: actionAa8,
	{sta10, evt06}: actionAa8,
	{sta10, evt10}: actionAa8,
	{sta10, evt12}: actionAa8,
	{sta10, evt13}: actionAr10,
	{sta10, evt15}: actionAa1,
	{sta10, evt16}: actionAa3,
	{sta10, evt17}: actionAa4,
	{sta10, evt19}: actionAa8,
	{sta11, evt03}: actionAa8,
	{sta11, evt04}: actionAa8,
	{sta11, evt06}: actionAa8,
	{sta11, evt10}: actionAa8,
	{sta11, evt12}: actionAa8,
	{sta11, evt13}: actionAr3,
	{sta11, evt15}: actionAa1,
	{sta11, evt16}: actionAa3,
	{sta11, evt17}: actionAa4,
	{sta11, evt19}: actionAa8,
	{sta12, evt03}: actionAa8,
	{sta12, evt04}: actionAa8,
	{sta12, evt06}: actionAa8,
	{sta12, evt10}: actionAa8,
	{sta12, evt12}: actionAa8,
	{sta12, evt13}: actionAa8,
	{sta12, evt14}: actionAr4,
	{sta12, evt15}: actionAa1,
	{sta12, evt16}: actionAa3,
	{sta12, evt17}: actionAa4,
	{sta12, evt19}: actionAa8,
	{sta13, evt03}: actionAa6,
	{sta13, evt04}: actionAa6,
	{sta13, evt06}: actionAa7,
	{sta13, evt07}: actionAa7,
	{sta13, evt08}: actionAa7,
	{sta13, evt09}: actionAa7,
	{sta13, evt10}: actionAa6,
	{sta13, evt11}: actionAa6,
	{sta13, evt12}: actionAa6,
	{sta13, evt13}: actionAa6,
	{sta13, evt14}: actionAa6,
	{sta13, evt15}: actionAa2,
	{sta13, evt16}: actionAa2,
	{sta13, evt17}: actionAr5,
	{sta13, evt18}: actionAa2,
	{sta13, evt19}: actionAa7,
}

func findAction(currentState stateType, event *stateEvent) *stateAction {
	return stateTransitions[stateTransitionKey{currentState, event.event}]
}
