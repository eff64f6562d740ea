package dulsm

import (
	"io"
	"net"
	"time"

	"github.com/dcmnet/ul/dimse"
	"github.com/dcmnet/ul/pdu"
	"github.com/dcmnet/ul/presentation"
	"github.com/dcmnet/ul/primitives"
	"github.com/grailbio/go-dicom/dicomlog"
)

// Options configures the timing and sizing behavior of a StateMachine.
// The teacher hardcodes all of these to 10 seconds and leaves Maximum
// Length=0 ("unlimited") unguarded; both are made explicit here.
type Options struct {
	// ACSETimeout bounds how long the ARTIM timer runs while waiting for
	// association establishment/release PDUs, P3.8 9.1.5/9.1.6.
	ACSETimeout time.Duration
	// DIMSETimeout bounds how long SendXxx helpers in the association
	// layer wait for a DIMSE response once the association is up; the
	// association layer reads it from its own Config.Options and treats
	// zero as no limit. Unused by the state machine itself (the 30s that
	// withDefaults fills in affects only the state machine's copy);
	// carried here so callers have one Options value to configure both
	// layers from.
	DIMSETimeout time.Duration
	// MaxPDULength is advertised to the peer as this side's Maximum
	// Length (P3.8 D.3.3.1). Zero advertises no limit, in which case
	// MaxUnlimitedPDUSize bounds what this side will actually accept.
	MaxPDULength uint32
	// MaxUnlimitedPDUSizeValue caps the size of any single PDU body this
	// side will read off the wire when the negotiated Maximum Length is
	// 0 ("unlimited"), as a guard against a misbehaving or malicious
	// peer exhausting memory. Defaults to 128 MiB.
	MaxUnlimitedPDUSizeValue uint32
}

// DefaultMaxUnlimitedPDUSize is the safety ceiling applied to incoming
// PDUs when Maximum Length negotiates to 0 ("unlimited").
const DefaultMaxUnlimitedPDUSize = 128 * 1024 * 1024

func (o Options) MaxUnlimitedPDUSize() uint32 {
	if o.MaxUnlimitedPDUSizeValue != 0 {
		return o.MaxUnlimitedPDUSizeValue
	}
	return DefaultMaxUnlimitedPDUSize
}

func (o Options) withDefaults() Options {
	if o.ACSETimeout == 0 {
		o.ACSETimeout = 30 * time.Second
	}
	if o.DIMSETimeout == 0 {
		o.DIMSETimeout = 30 * time.Second
	}
	return o
}

// StateMachine runs the P3.8 9.2.3 DUL state machine for one TCP
// connection, translating between wire PDUs, ACSE primitives and DIMSE
// payloads on behalf of the association layer above it. One
// StateMachine is created per association and discarded once it returns
// to sta01.
type StateMachine struct {
	label string
	isUser bool

	assoc     primitives.AAssociate
	proposals []presentation.Proposal

	presentation *presentation.Manager
	opts         Options

	netCh      chan stateEvent
	errorCh    chan stateEvent
	downcallCh chan stateEvent
	timerCh    chan stateEvent
	upcallCh   chan UpcallEvent

	conn             net.Conn
	currentState     stateType
	commandAssembler dimse.CommandAssembler
	timer            *time.Timer
}

// NewRequestor builds a StateMachine that will drive an outbound
// association request once Run is called with an already-dialed conn.
func NewRequestor(label string, assoc primitives.AAssociate, proposals []presentation.Proposal, opts Options) *StateMachine {
	return newStateMachine(label, true, assoc, proposals, opts)
}

// NewAcceptor builds a StateMachine that will respond to an inbound
// association request arriving on an already-accepted conn.
func NewAcceptor(label string, assoc primitives.AAssociate, proposals []presentation.Proposal, opts Options) *StateMachine {
	return newStateMachine(label, false, assoc, proposals, opts)
}

func newStateMachine(label string, isUser bool, assoc primitives.AAssociate, proposals []presentation.Proposal, opts Options) *StateMachine {
	return &StateMachine{
		label:        label,
		isUser:       isUser,
		assoc:        assoc,
		proposals:    proposals,
		presentation: presentation.NewManager(),
		opts:         opts.withDefaults(),
		netCh:        make(chan stateEvent, 128),
		errorCh:      make(chan stateEvent, 128),
		downcallCh:   make(chan stateEvent, 128),
		timerCh:      make(chan stateEvent, 128),
		upcallCh:     make(chan UpcallEvent, 128),
		currentState: sta01,
	}
}

// Upcalls returns the channel on which the association layer observes
// association lifecycle and data events as the state machine progresses.
// It is closed once the state machine returns to sta01 for good.
func (sm *StateMachine) Upcalls() <-chan UpcallEvent {
	return sm.upcallCh
}

func (sm *StateMachine) peerMaxPDULength() uint32 {
	if n := sm.presentation.PeerMaxPDULength(); n != 0 {
		return n
	}
	return sm.opts.MaxUnlimitedPDUSize()
}

func (sm *StateMachine) closeConnection() {
	if sm.conn != nil {
		sm.conn.Close()
	}
}

// SendData hands a DIMSE command (and data set, if any) down to the
// state machine to be fragmented into P-DATA-TF and sent. It blocks
// until accepted onto the downcall channel.
func (sm *StateMachine) SendData(abstractSyntax string, command dimse.Message, data []byte) {
	sm.downcallCh <- stateEvent{event: evt09, dimsePayload: &DIMSEPayload{AbstractSyntax: abstractSyntax, Command: command, Data: data}}
}

// RequestRelease initiates an orderly association release.
func (sm *StateMachine) RequestRelease() {
	sm.downcallCh <- stateEvent{event: evt11}
}

// RequestAbort initiates a local abort with the given reason (P3.8
// Table 9-26; AbortReasonNotSpecified is the usual service-user value).
func (sm *StateMachine) RequestAbort(reason pdu.AbortReasonType) {
	sm.downcallCh <- stateEvent{event: evt15, abortReason: reason}
}

// LookupContext returns the negotiated presentation context accepted
// for abstractSyntax, or an error if none was accepted.
func (sm *StateMachine) LookupContext(abstractSyntax string) (*presentation.Context, error) {
	return sm.presentation.LookupByAbstractSyntaxUID(abstractSyntax)
}

// ContextAbstractSyntax returns the abstract syntax UID bound to
// contextID by negotiation.
func (sm *StateMachine) ContextAbstractSyntax(contextID byte) (string, error) {
	ctx, err := sm.presentation.LookupByContextID(contextID)
	if err != nil {
		return "", err
	}
	return ctx.AbstractSyntax, nil
}

// AcceptedContexts returns every presentation context the peer accepted.
func (sm *StateMachine) AcceptedContexts() []*presentation.Context {
	return sm.presentation.AcceptedContexts()
}

func sendPDU(sm *StateMachine, v pdu.PDU) {
	dicomlog.Vprintf(1, "dulsm(%s): sending %v", sm.label, v)
	if err := pdu.WritePDU(sm.conn, v); err != nil {
		dicomlog.Vprintf(0, "dulsm(%s): write failed: %v", sm.label, err)
		sm.errorCh <- stateEvent{event: evt17, err: err}
	}
}

func (sm *StateMachine) startTimer(d time.Duration) {
	sm.stopTimer()
	sm.timer = time.AfterFunc(d, func() {
		sm.timerCh <- stateEvent{event: evt18}
	})
}

func (sm *StateMachine) stopTimer() {
	if sm.timer != nil {
		sm.timer.Stop()
		sm.timer = nil
	}
}

// networkReaderThread reads PDUs off conn and translates each into the
// corresponding stateEvent, forwarding it onto ch. It exits once the
// connection is closed or an unrecoverable read error occurs.
func networkReaderThread(ch chan stateEvent, conn net.Conn, maxPDUSize uint32, label string) {
	for {
		p, err := pdu.ReadPDU(conn, maxPDUSize)
		if err != nil {
			if err == io.EOF {
				ch <- stateEvent{event: evt17, err: err}
			} else {
				ch <- stateEvent{event: evt19, err: err}
			}
			return
		}
		dicomlog.Vprintf(1, "dulsm(%s): received %v", label, p)
		var ev eventType
		switch p.(type) {
		case *pdu.AAssociateRQ:
			ev = evt06
		case *pdu.AAssociateAC:
			ev = evt03
		case *pdu.AAssociateRJ:
			ev = evt04
		case *pdu.PDataTf:
			ev = evt10
		case *pdu.AReleaseRQ:
			ev = evt12
		case *pdu.AReleaseRP:
			ev = evt13
		case *pdu.AAbort:
			ev = evt16
		default:
			ev = evt19
		}
		ch <- stateEvent{event: ev, pdu: p}
	}
}

func (sm *StateMachine) getNextEvent() stateEvent {
	select {
	case e := <-sm.netCh:
		return e
	case e := <-sm.errorCh:
		return e
	case e := <-sm.timerCh:
		return e
	case e := <-sm.downcallCh:
		return e
	}
}

func (sm *StateMachine) runOneStep() bool {
	event := sm.getNextEvent()
	action := findAction(sm.currentState, &event)
	if action == nil {
		dicomlog.Vprintf(0, "dulsm(%s): no action for %v in %v; aborting", sm.label, event.event, sm.currentState)
		action = actionAa2
	}
	dicomlog.Vprintf(2, "dulsm(%s): %v -- %v --> %s", sm.label, sm.currentState, event.event, action.Name)
	sm.currentState = action.Callback(sm, event)
	return sm.currentState != sta01
}

// RunRequestor drives the state machine from sta01 through association
// establishment, data transfer and release/abort over conn, which the
// caller has already dialed. It returns once the association returns to
// sta01 (fully closed).
func RunRequestor(sm *StateMachine, conn net.Conn) {
	sm.downcallCh <- stateEvent{event: evt01, conn: conn}
	sm.downcallCh <- stateEvent{event: evt02, conn: conn}
	for sm.runOneStep() {
	}
	close(sm.upcallCh)
}

// RunAcceptor drives the state machine from sta01 for an inbound
// connection the caller has already accept()ed.
func RunAcceptor(sm *StateMachine, conn net.Conn) {
	sm.conn = conn
	sm.downcallCh <- stateEvent{event: evt05, conn: conn}
	for sm.runOneStep() {
	}
	close(sm.upcallCh)
}
