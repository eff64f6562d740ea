// Package dulsm implements the DICOM Upper Layer state machine, P3.8
// 9.2.3 Figure 9-1 and Table 9-2 through 9-11. One stateMachine runs
// per TCP connection, translating between wire PDUs (pdu), ACSE
// primitives (acse, primitives) and DIMSE payloads (dimse) on behalf
// of the association package above it.
package dulsm

import "fmt"

type stateType int

const (
	sta01 stateType = iota + 1
	sta02
	sta03
	sta04
	sta05
	sta06
	sta07
	sta08
	sta09
	sta10
	sta11
	sta12
	sta13
)

var stateDescriptions = map[stateType]string{
	sta01: "Idle",
	sta02: "Transport connection open (Awaiting A-ASSOCIATE-RQ PDU)",
	sta03: "Awaiting local A-ASSOCIATE response primitive (from local user)",
	sta04: "Awaiting transport connection opening to complete (from local transport service)",
	sta05: "Awaiting A-ASSOCIATE-AC or A-ASSOCIATE-RJ PDU",
	sta06: "Association established and ready for data transfer",
	sta07: "Awaiting A-RELEASE-RP PDU",
	sta08: "Awaiting local A-RELEASE response primitive (from local user)",
	sta09: "Release collision requestor side; awaiting A-RELEASE response (from local user)",
	sta10: "Release collision acceptor side; awaiting A-RELEASE-RP PDU",
	sta11: "Release collision requestor side; awaiting A-RELEASE-RP PDU",
	sta12: "Release collision acceptor side; awaiting A-RELEASE response primitive (from local user)",
	sta13: "Awaiting Transport Connection Close Indication (Association no longer exists)",
}

func (s stateType) String() string {
	description, ok := stateDescriptions[s]
	if !ok {
		description = "Unknown state"
	}
	return fmt.Sprintf("sta%02d(%s)", s, description)
}

type eventType int

const (
	evt01 eventType = iota + 1
	evt02
	evt03
	evt04
	evt05
	evt06
	evt07
	evt08
	evt09
	evt10
	evt11
	evt12
	evt13
	evt14
	evt15
	evt16
	evt17
	evt18
	evt19
)

var eventDescriptions = map[eventType]string{
	evt01: "A-ASSOCIATE request (local user)",
	evt02: "Connection established (for service user)",
	evt03: "A-ASSOCIATE-AC PDU (received on transport connection)",
	evt04: "A-ASSOCIATE-RJ PDU (received on transport connection)",
	evt05: "Connection accepted (for service provider)",
	evt06: "A-ASSOCIATE-RQ PDU (on transport connection)",
	evt07: "A-ASSOCIATE response primitive (accept)",
	evt08: "A-ASSOCIATE response primitive (reject)",
	evt09: "P-DATA request primitive",
	evt10: "P-DATA-TF PDU (on transport connection)",
	evt11: "A-RELEASE request primitive",
	evt12: "A-RELEASE-RQ PDU (on transport)",
	evt13: "A-RELEASE-RP PDU (on transport)",
	evt14: "A-RELEASE response primitive",
	evt15: "A-ABORT request primitive",
	evt16: "A-ABORT PDU (on transport)",
	evt17: "Transport connection closed indication (local transport service)",
	evt18: "ARTIM timer expired (Association reject/release timer)",
	evt19: "Unrecognized or invalid PDU received",
}

func (e eventType) String() string {
	description, ok := eventDescriptions[e]
	if !ok {
		description = "Unknown event"
	}
	return fmt.Sprintf("evt%02d(%s)", e, description)
}
