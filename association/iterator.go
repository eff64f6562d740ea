package association

import (
	"context"
	"fmt"
	"time"

	"github.com/dcmnet/ul/dimse"
)

// ResponseIterator consumes the successive responses of a multi-response
// DIMSE operation (C-FIND, C-GET, C-MOVE) from the requestor side.
type ResponseIterator struct {
	assoc          *Association
	abstractSyntax string
	ch             chan pendingResult
	msgID          dimse.MessageID
	done           bool
	err            error
}

// Next blocks for the next response. ok is false once the final
// response (Next having already returned a non-Pending status) has
// been consumed, or the association closed, or ctx was cancelled, or
// the DIMSE timeout expired — in the last three cases Err() reports why.
func (it *ResponseIterator) Next(ctx context.Context) (status dimse.Status, identifier []byte, progress SubopProgress, ok bool) {
	if it.done {
		return dimse.Status{}, nil, SubopProgress{}, false
	}

	var timeoutC <-chan time.Time
	if d := it.assoc.cfg.Options.DIMSETimeout; d > 0 {
		timeout := time.NewTimer(d)
		defer timeout.Stop()
		timeoutC = timeout.C
	}

	select {
	case r := <-it.ch:
		status = statusOf(r.command)
		identifier = r.data
		progress = progressOf(r.command)
		if status.Status != dimse.StatusPending && status.Status != dimse.StatusPendingWithWarnings {
			it.done = true
			it.assoc.forget(it.msgID)
		}
		return status, identifier, progress, true
	case <-timeoutC:
		it.err = fmt.Errorf("association: DIMSE response timeout awaiting message %d", it.msgID)
		it.assoc.forceAbort(it.err)
		it.done = true
		return dimse.Status{}, nil, SubopProgress{}, false
	case <-it.assoc.closed:
		it.err = it.assoc.closeError()
		it.done = true
		return dimse.Status{}, nil, SubopProgress{}, false
	case <-ctx.Done():
		it.err = ctx.Err()
		it.done = true
		return dimse.Status{}, nil, SubopProgress{}, false
	}
}

// Cancel sends a C-CANCEL-RQ for the operation this iterator is
// draining, P3.7 9.3.2.3. The operation's SCP decides when (and
// whether) to stop; Next keeps delivering responses until it does.
func (it *ResponseIterator) Cancel() error {
	return it.assoc.sendCancel(it.abstractSyntax, it.msgID)
}

// Err returns the error that ended iteration, if any.
func (it *ResponseIterator) Err() error {
	return it.err
}

func statusOf(command dimse.Message) dimse.Status {
	if s := command.GetStatus(); s != nil {
		return *s
	}
	return dimse.Status{}
}

func progressOf(command dimse.Message) SubopProgress {
	switch v := command.(type) {
	case *dimse.CGetRsp:
		return SubopProgress{
			Remaining: v.NumberOfRemainingSuboperations,
			Completed: v.NumberOfCompletedSuboperations,
			Failed:    v.NumberOfFailedSuboperations,
			Warning:   v.NumberOfWarningSuboperations,
		}
	case *dimse.CMoveRsp:
		return SubopProgress{
			Remaining: v.NumberOfRemainingSuboperations,
			Completed: v.NumberOfCompletedSuboperations,
			Failed:    v.NumberOfFailedSuboperations,
			Warning:   v.NumberOfWarningSuboperations,
		}
	default:
		return SubopProgress{}
	}
}
