// Package association is the public façade over dulsm/acse/presentation:
// establishing associations as either requestor or acceptor, sending and
// serving DIMSE operations across them, and releasing or aborting them.
// P3.8 7, P3.7 9-10.
package association

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dcmnet/ul/acse"
	"github.com/dcmnet/ul/dimse"
	"github.com/dcmnet/ul/dulsm"
	"github.com/dcmnet/ul/identity"
	"github.com/dcmnet/ul/metrics"
	"github.com/dcmnet/ul/pdu"
	"github.com/dcmnet/ul/presentation"
	"github.com/dcmnet/ul/primitives"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config configures one association, on either side.
type Config struct {
	// LocalAETitle is this side's AE title: CallingAETitle when
	// requesting, the only CalledAETitle accepted when serving (empty
	// accepts any called title, matching the teacher's permissive default).
	LocalAETitle string
	// SupportedContexts lists the presentation contexts this side is
	// willing to propose (requestor) or accept (acceptor).
	SupportedContexts []presentation.Proposal
	Options           dulsm.Options
	Handlers          Handlers
	// CorrelationID overrides the generated per-association correlation
	// ID; leave empty to have one assigned.
	CorrelationID string
	// Logger overrides the package default logger.
	Logger *zerolog.Logger
	// Metrics, if set, is updated with association and DIMSE-operation
	// outcome counts as this association progresses.
	Metrics *metrics.Metrics
}

type pendingEntry struct {
	ch chan pendingResult
}

type pendingResult struct {
	command dimse.Message
	data    []byte
}

// Association is one live DICOM Upper Layer association, wrapping a
// dulsm.StateMachine with message correlation, a handler dispatch loop
// and a synchronous request/response façade.
type Association struct {
	cfg    Config
	sm     *dulsm.StateMachine
	conn   net.Conn
	isUser bool

	logger        zerolog.Logger
	correlationID string

	messageIDCounter uint32

	mu        sync.Mutex
	pending   map[dimse.MessageID]*pendingEntry
	cancelled map[dimse.MessageID]bool

	released          chan struct{}
	releasedOnce      sync.Once
	releaseRequestOnce sync.Once
	abortRequestOnce  sync.Once

	establishDone chan struct{}
	establishOnce sync.Once
	establishErr  error

	closed     chan struct{}
	closedOnce sync.Once
	lastErr    error

	established bool
	gaugeOnce   sync.Once
}

func newAssociation(cfg Config, sm *dulsm.StateMachine, conn net.Conn, isUser bool) *Association {
	correlationID := cfg.CorrelationID
	if correlationID == "" {
		correlationID = identity.New()
	}
	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.Logger
	}
	logger = logger.With().Str("correlation_id", correlationID).Logger()
	return &Association{
		cfg:           cfg,
		sm:            sm,
		conn:          conn,
		isUser:        isUser,
		logger:        logger,
		correlationID: correlationID,
		pending:       make(map[dimse.MessageID]*pendingEntry),
		cancelled:     make(map[dimse.MessageID]bool),
		released:      make(chan struct{}),
		establishDone: make(chan struct{}),
		closed:        make(chan struct{}),
	}
}

// Associate dials addr and requests an association with calledAETitle,
// blocking until the peer accepts or rejects it (or ctx is done).
func Associate(ctx context.Context, network, addr, calledAETitle string, cfg Config) (*Association, error) {
	assocPrimitive := primitives.AAssociate{
		CalledAETitle:             calledAETitle,
		CallingAETitle:            cfg.LocalAETitle,
		PresentationContexts:      proposalsAsContexts(cfg.SupportedContexts),
		MaxPDULength:              cfg.Options.MaxPDULength,
		ImplementationClassUID:    presentation.DefaultImplementationClassUID,
		ImplementationVersionName: presentation.DefaultImplementationVersionName,
	}
	if err := acse.ValidateAssociate(assocPrimitive); err != nil {
		return nil, err
	}

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("association: dial %s: %w", addr, err)
	}

	label := fmt.Sprintf("%s<-%s", calledAETitle, cfg.LocalAETitle)
	sm := dulsm.NewRequestor(label, assocPrimitive, cfg.SupportedContexts, cfg.Options)
	a := newAssociation(cfg, sm, conn, true)
	a.logger.Info().Str("called_aet", calledAETitle).Str("calling_aet", cfg.LocalAETitle).Str("addr", addr).Msg("association: requesting")

	go dulsm.RunRequestor(sm, conn)
	go a.dispatchLoop()

	select {
	case <-a.establishDone:
	case <-ctx.Done():
		a.Abort()
		return nil, ctx.Err()
	}
	if a.establishErr != nil {
		conn.Close()
		return nil, a.establishErr
	}
	return a, nil
}

// Accept drives conn, which the caller has already accept()ed, through
// the acceptor side of association establishment. It never blocks;
// establishment outcome is observed through Handlers.OnEstablished/
// OnAborted or by calling Wait.
func Accept(conn net.Conn, cfg Config) *Association {
	assocPrimitive := primitives.AAssociate{
		CalledAETitle:             cfg.LocalAETitle,
		PresentationContexts:      proposalsAsContexts(cfg.SupportedContexts),
		MaxPDULength:              cfg.Options.MaxPDULength,
		ImplementationClassUID:    presentation.DefaultImplementationClassUID,
		ImplementationVersionName: presentation.DefaultImplementationVersionName,
	}

	label := fmt.Sprintf("%s<-%s", cfg.LocalAETitle, conn.RemoteAddr())
	sm := dulsm.NewAcceptor(label, assocPrimitive, cfg.SupportedContexts, cfg.Options)
	a := newAssociation(cfg, sm, conn, false)
	a.logger.Info().Str("remote_addr", conn.RemoteAddr().String()).Msg("association: accepting")

	go dulsm.RunAcceptor(sm, conn)
	go a.dispatchLoop()
	return a
}

// proposalsAsContexts informationally carries the locally supported
// contexts on primitives.AAssociate so acse.ValidateAssociate's
// non-empty check passes; actual negotiation happens through the
// separate proposals slice handed to dulsm.
func proposalsAsContexts(proposals []presentation.Proposal) []primitives.PresentationContext {
	out := make([]primitives.PresentationContext, 0, len(proposals))
	for i, p := range proposals {
		out = append(out, primitives.PresentationContext{
			ID:               byte(1 + 2*i),
			AbstractSyntax:   p.AbstractSyntax,
			TransferSyntaxes: p.TransferSyntaxes,
		})
	}
	return out
}

func (a *Association) dispatchLoop() {
	for ev := range a.sm.Upcalls() {
		switch ev.Type {
		case dulsm.UpcallAssociateAccepted:
			a.onEstablished()
		case dulsm.UpcallAssociateRejected:
			a.onRejected(ev.Rejection)
		case dulsm.UpcallData:
			a.onData(ev.ContextID, ev.Command, ev.Data)
		case dulsm.UpcallReleased:
			a.onReleased()
		case dulsm.UpcallAborted:
			a.onAborted(ev.AbortError)
		case dulsm.UpcallClosed:
			// handled uniformly by onClosed below once the channel closes
		}
	}
	a.onClosed()
}

func (a *Association) onEstablished() {
	a.establishOnce.Do(func() { close(a.establishDone) })
	a.logger.Info().Msg("association: established")
	if m := a.cfg.Metrics; m != nil {
		m.AssociationsEstablished.Inc()
		m.ActiveAssociations.Inc()
	}
	a.mu.Lock()
	a.established = true
	a.mu.Unlock()
	if h := a.cfg.Handlers.OnEstablished; h != nil {
		h(a, nil)
	}
}

func (a *Association) onRejected(rj *pdu.AAssociateRJ) {
	a.mu.Lock()
	a.establishErr = rjError(rj)
	a.mu.Unlock()
	a.logger.Warn().Int("result", int(rj.Result)).Int("source", int(rj.Source)).Int("reason", int(rj.Reason)).Msg("association: rejected")
	if m := a.cfg.Metrics; m != nil {
		m.AssociationsRejected.Inc()
	}
	a.establishOnce.Do(func() { close(a.establishDone) })
}

func (a *Association) onData(contextID byte, command dimse.Message, data []byte) {
	if cancel, ok := command.(*dimse.CCancelRq); ok {
		a.mu.Lock()
		a.cancelled[cancel.MessageIDBeingRespondedTo] = true
		a.mu.Unlock()
		return
	}

	if command.GetStatus() != nil {
		if m := a.cfg.Metrics; m != nil {
			m.DIMSEOperations.WithLabelValues(
				fmt.Sprintf("0x%04x", command.CommandField()),
				metrics.StatusClass(uint16(command.GetStatus().Status)),
			).Inc()
		}
		a.mu.Lock()
		entry, ok := a.pending[command.GetMessageID()]
		a.mu.Unlock()
		if !ok {
			a.logger.Warn().Uint16("message_id", command.GetMessageID()).Msg("association: response for unknown request, dropped")
			return
		}
		select {
		case entry.ch <- pendingResult{command: command, data: data}:
		case <-a.closed:
		}
		return
	}

	go a.serveRequest(contextID, command, data)
}

func (a *Association) onReleased() {
	a.logger.Info().Msg("association: released")
	a.decrementActiveGauge()
	a.releasedOnce.Do(func() { close(a.released) })
	if h := a.cfg.Handlers.OnReleased; h != nil {
		h(a, nil)
	}
}

func (a *Association) onAborted(err error) {
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
	a.logger.Warn().Err(err).Msg("association: aborted")
	if m := a.cfg.Metrics; m != nil {
		m.AssociationsAborted.Inc()
	}
	a.decrementActiveGauge()
	a.releasedOnce.Do(func() { close(a.released) })
	if h := a.cfg.Handlers.OnAborted; h != nil {
		h(a, err)
	}
}

func (a *Association) decrementActiveGauge() {
	a.mu.Lock()
	established := a.established
	a.mu.Unlock()
	if !established {
		return
	}
	a.gaugeOnce.Do(func() {
		if m := a.cfg.Metrics; m != nil {
			m.ActiveAssociations.Dec()
		}
	})
}

func (a *Association) onClosed() {
	a.establishOnce.Do(func() {
		a.mu.Lock()
		if a.establishErr == nil {
			a.establishErr = fmt.Errorf("association: closed before establishment")
		}
		a.mu.Unlock()
		close(a.establishDone)
	})
	a.releasedOnce.Do(func() { close(a.released) })
	a.closedOnce.Do(func() { close(a.closed) })
}

func rjError(rj *pdu.AAssociateRJ) error {
	return primitives.AAssociateResult{Accepted: false, Result: rj.Result, Source: rj.Source, Reason: rj.Reason}
}

// nextMessageID returns the next MessageID (0000,0110) this side will
// use for a new outbound request, per association.
func (a *Association) nextMessageID() dimse.MessageID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messageIDCounter++
	return dimse.MessageID(a.messageIDCounter)
}

// ErrNoAcceptableContext is returned by the SendC*/SendN* helpers when no
// presentation context was accepted for the abstract syntax being sent.
// This is a configuration/negotiation error (P3.8 spec §7): it never
// tears down the association, unlike a protocol violation detected after
// a send has actually gone on the wire.
var ErrNoAcceptableContext = errors.New("association: no acceptable presentation context")

// call sends req (and data, if any) over the context negotiated for
// abstractSyntax and blocks for exactly one response. Multi-response
// services use callStream instead.
func (a *Association) call(ctx context.Context, abstractSyntax string, req dimse.Message, data []byte) (dimse.Message, []byte, error) {
	ch, err := a.send(abstractSyntax, req, data)
	if err != nil {
		return nil, nil, err
	}
	return a.awaitOne(ctx, req.GetMessageID(), ch)
}

// callStream is like call but leaves the pending entry registered so
// further responses (C-FIND/C-GET/C-MOVE's Pending stream) keep
// arriving; the caller is responsible for eventually calling
// a.forget(msgID).
func (a *Association) callStream(abstractSyntax string, req dimse.Message, data []byte) (*ResponseIterator, error) {
	ch, err := a.send(abstractSyntax, req, data)
	if err != nil {
		return nil, err
	}
	return &ResponseIterator{assoc: a, abstractSyntax: abstractSyntax, ch: ch, msgID: req.GetMessageID()}, nil
}

func (a *Association) send(abstractSyntax string, req dimse.Message, data []byte) (chan pendingResult, error) {
	if _, err := a.sm.LookupContext(abstractSyntax); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoAcceptableContext, abstractSyntax)
	}
	ch := make(chan pendingResult, 1)
	a.mu.Lock()
	a.pending[req.GetMessageID()] = &pendingEntry{ch: ch}
	a.mu.Unlock()
	a.sm.SendData(abstractSyntax, req, data)
	return ch, nil
}

func (a *Association) awaitOne(ctx context.Context, msgID dimse.MessageID, ch chan pendingResult) (dimse.Message, []byte, error) {
	defer a.forget(msgID)
	var timeoutC <-chan time.Time
	if d := a.cfg.Options.DIMSETimeout; d > 0 {
		timeout := time.NewTimer(d)
		defer timeout.Stop()
		timeoutC = timeout.C
	}
	select {
	case r := <-ch:
		return r.command, r.data, nil
	case <-timeoutC:
		err := fmt.Errorf("association: DIMSE response timeout awaiting message %d", msgID)
		a.forceAbort(err)
		return nil, nil, err
	case <-a.closed:
		return nil, nil, a.closeError()
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func (a *Association) forget(msgID dimse.MessageID) {
	a.mu.Lock()
	delete(a.pending, msgID)
	delete(a.cancelled, msgID)
	a.mu.Unlock()
}

func (a *Association) consumeCancelled(msgID dimse.MessageID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelled[msgID]
}

func (a *Association) closeError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastErr != nil {
		return a.lastErr
	}
	return fmt.Errorf("association: closed")
}

func (a *Association) forceAbort(err error) {
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
	a.sm.RequestAbort(pdu.AbortReasonNotSpecified)
}

// sendCancel issues a C-CANCEL-RQ targeting origMsgID, P3.7 9.3.2.3.
// abstractSyntax selects which negotiated context to send it on; the
// teacher's own services send C-CANCEL-RQ on the same context as the
// operation it targets.
func (a *Association) sendCancel(abstractSyntax string, origMsgID dimse.MessageID) error {
	a.sm.SendData(abstractSyntax, &dimse.CCancelRq{
		MessageIDBeingRespondedTo: origMsgID,
		CommandDataSetType:        dimse.CommandDataSetTypeNull,
	}, nil)
	return nil
}

// Release initiates an orderly association release and blocks until it
// completes. Calling it more than once, or after the peer has already
// released/aborted the association, is a no-op.
func (a *Association) Release(ctx context.Context) error {
	a.releaseRequestOnce.Do(func() {
		a.sm.RequestRelease()
	})
	select {
	case <-a.released:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Abort forces an immediate service-user abort, P3.8 7.3-1. Idempotent.
func (a *Association) Abort() {
	a.abortRequestOnce.Do(func() {
		a.sm.RequestAbort(pdu.AbortReasonNotSpecified)
	})
}

// Wait blocks until the association has reached a terminal state
// (released, aborted, or the transport closed).
func (a *Association) Wait() {
	<-a.closed
}

// CorrelationID returns the correlation ID attached to every log event
// and handler context for this association.
func (a *Association) CorrelationID() string {
	return a.correlationID
}

// Context builds a context.Context carrying this association's
// correlation ID, suitable for passing to a service handler.
func (a *Association) Context(parent context.Context) context.Context {
	return identity.WithCorrelationID(parent, a.correlationID)
}

// LookupContext returns the negotiated presentation context for
// abstractSyntax, or an error if the peer did not accept one.
func (a *Association) LookupContext(abstractSyntax string) (*presentation.Context, error) {
	return a.sm.LookupContext(abstractSyntax)
}
