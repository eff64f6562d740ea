package dulsm

import (
	"fmt"
	"net"

	"github.com/dcmnet/ul/dimse"
	"github.com/dcmnet/ul/pdu"
)

// UpcallEventType distinguishes the indications a StateMachine delivers
// to its owner (the association package) on UpcallCh.
type UpcallEventType int

const (
	// UpcallAssociateAccepted fires once the handshake completes,
	// whichever side initiated it.
	UpcallAssociateAccepted UpcallEventType = iota
	// UpcallAssociateRejected fires when a requested association is
	// refused by the peer.
	UpcallAssociateRejected
	// UpcallData fires once a full DIMSE command (and, if
	// command.HasData(), its data set) has been reassembled from
	// P-DATA-TF fragments.
	UpcallData
	// UpcallReleased fires once the association is fully released.
	UpcallReleased
	// UpcallAborted fires on local or peer abort, or a fatal protocol
	// error (AA-8). AbortError is non-nil when the abort follows a PDU
	// read or decode failure (malformed or oversized PDU); it is nil for
	// an ARTIM timer expiry.
	UpcallAborted
	// UpcallClosed is not sent by this state machine; the end of the
	// transport connection shows as the Upcalls channel being closed.
	UpcallClosed
)

// UpcallEvent is delivered to the association layer as the state
// machine progresses.
type UpcallEvent struct {
	Type       UpcallEventType
	Rejection  *pdu.AAssociateRJ // set iff Type==UpcallAssociateRejected
	AbortError error             // set only for UpcallAborted after a PDU read/decode failure
	ContextID  byte              // set iff Type==UpcallData
	Command    dimse.Message     // set iff Type==UpcallData
	Data       []byte            // set iff Type==UpcallData
}

// DIMSEPayload is a DIMSE command (and optional data set) the
// association layer hands down to be sent as P-DATA-TF. AbstractSyntax
// selects which negotiated presentation context carries it.
type DIMSEPayload struct {
	AbstractSyntax string
	Command        dimse.Message
	Data           []byte
}

type debugInfo struct {
	state stateType
}

// stateEvent is the internal representation of both downcalls (from
// the association layer) and PDU/transport events (from the network
// reader goroutine and the ARTIM timer).
type stateEvent struct {
	event eventType
	pdu   pdu.PDU
	err   error
	conn  net.Conn

	rejection *pdu.AAssociateRJ // set iff event==evt08

	dimsePayload *DIMSEPayload // set iff event==evt09
	abortReason  pdu.AbortReasonType // set iff event==evt15, local abort request
	debug        *debugInfo
}

func (e *stateEvent) String() string {
	debug := ""
	if e.debug != nil {
		debug = e.debug.state.String()
	}
	var p string
	if e.pdu != nil {
		p = e.pdu.String()
	}
	return fmt.Sprintf("type:%s err:%v debug:%v pdu:%v", e.event.String(), e.err, debug, p)
}
