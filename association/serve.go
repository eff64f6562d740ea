package association

import (
	"context"

	"github.com/dcmnet/ul/dimse"
)

// serveRequest handles one inbound DIMSE request, dispatching to the
// configured Handlers and sending back the response(s) it produces.
// Invoked as its own goroutine per request so that a slow handler never
// blocks the dispatch loop delivering further upcalls (in particular,
// inbound C-STORE-RQs arriving mid-C-GET).
func (a *Association) serveRequest(contextID byte, command dimse.Message, data []byte) {
	abstractSyntax, err := a.sm.ContextAbstractSyntax(contextID)
	if err != nil {
		a.logger.Warn().Err(err).Msg("association: request on unknown presentation context, dropped")
		return
	}
	ctx := a.Context(context.Background())

	switch req := command.(type) {
	case *dimse.CEchoRq:
		a.serveCEcho(abstractSyntax, req)
	case *dimse.CStoreRq:
		a.serveCStore(ctx, abstractSyntax, req, data)
	case *dimse.CFindRq:
		a.serveCFind(ctx, abstractSyntax, req, data)
	case *dimse.CGetRq:
		a.serveCGet(ctx, abstractSyntax, req, data)
	case *dimse.CMoveRq:
		a.serveCMove(ctx, abstractSyntax, req, data)
	case *dimse.NGetRq:
		a.serveNGet(ctx, abstractSyntax, req)
	case *dimse.NSetRq:
		a.serveNSet(ctx, abstractSyntax, req, data)
	case *dimse.NCreateRq:
		a.serveNCreate(ctx, abstractSyntax, req, data)
	case *dimse.NDeleteRq:
		a.serveNDelete(ctx, abstractSyntax, req)
	case *dimse.NActionRq:
		a.serveNAction(ctx, abstractSyntax, req, data)
	case *dimse.NEventReportRq:
		a.serveNEventReport(ctx, abstractSyntax, req, data)
	default:
		a.logger.Warn().Str("command", command.String()).Msg("association: unsupported inbound command")
	}
}

func (a *Association) serveCEcho(abstractSyntax string, req *dimse.CEchoRq) {
	rsp := &dimse.CEchoRsp{
		MessageIDBeingRespondedTo: req.MessageID,
		CommandDataSetType:        dimse.CommandDataSetTypeNull,
		Status:                    dimse.Success,
	}
	a.sm.SendData(abstractSyntax, rsp, nil)
}

func (a *Association) serveCStore(ctx context.Context, abstractSyntax string, req *dimse.CStoreRq, data []byte) {
	status := dimse.Status{Status: dimse.StatusUnrecognizedOperation}
	if h := a.cfg.Handlers.CStore; h != nil {
		status = h(ctx, req, data)
	}
	rsp := &dimse.CStoreRsp{
		AffectedSOPClassUID:       req.AffectedSOPClassUID,
		MessageIDBeingRespondedTo: req.MessageID,
		CommandDataSetType:        dimse.CommandDataSetTypeNull,
		AffectedSOPInstanceUID:    req.AffectedSOPInstanceUID,
		Status:                    status,
	}
	a.sm.SendData(abstractSyntax, rsp, nil)
}

func isPending(status dimse.Status) bool {
	return status.Status == dimse.StatusPending || status.Status == dimse.StatusPendingWithWarnings
}

func (a *Association) serveCFind(ctx context.Context, abstractSyntax string, req *dimse.CFindRq, identifier []byte) {
	if h := a.cfg.Handlers.CFind; h != nil {
		responder := h(ctx, req, identifier)
		for {
			cancelled := a.consumeCancelled(req.MessageID)
			status, ident, done := responder.Next(cancelled)
			dsType := dimse.CommandDataSetTypeNull
			if isPending(status) {
				dsType = dataSetType(ident)
			} else {
				ident = nil
			}
			rsp := &dimse.CFindRsp{
				AffectedSOPClassUID:       req.AffectedSOPClassUID,
				MessageIDBeingRespondedTo: req.MessageID,
				CommandDataSetType:        dsType,
				Status:                    status,
			}
			a.sm.SendData(abstractSyntax, rsp, ident)
			if done || !isPending(status) {
				break
			}
		}
		a.forget(req.MessageID)
		return
	}
	rsp := &dimse.CFindRsp{
		AffectedSOPClassUID:       req.AffectedSOPClassUID,
		MessageIDBeingRespondedTo: req.MessageID,
		CommandDataSetType:        dimse.CommandDataSetTypeNull,
		Status:                    dimse.Status{Status: dimse.StatusUnrecognizedOperation},
	}
	a.sm.SendData(abstractSyntax, rsp, nil)
}

func (a *Association) serveCGet(ctx context.Context, abstractSyntax string, req *dimse.CGetRq, identifier []byte) {
	if h := a.cfg.Handlers.CGet; h != nil {
		a.runRetrieveResponder(abstractSyntax, req.MessageID, req.AffectedSOPClassUID, h(ctx, req, identifier))
		return
	}
	rsp := &dimse.CGetRsp{
		AffectedSOPClassUID:       req.AffectedSOPClassUID,
		MessageIDBeingRespondedTo: req.MessageID,
		CommandDataSetType:        dimse.CommandDataSetTypeNull,
		Status:                    dimse.Status{Status: dimse.StatusUnrecognizedOperation},
	}
	a.sm.SendData(abstractSyntax, rsp, nil)
}

func (a *Association) serveCMove(ctx context.Context, abstractSyntax string, req *dimse.CMoveRq, identifier []byte) {
	if h := a.cfg.Handlers.CMove; h != nil {
		a.runRetrieveResponderMove(abstractSyntax, req.MessageID, req.AffectedSOPClassUID, h(ctx, req, identifier))
		return
	}
	rsp := &dimse.CMoveRsp{
		AffectedSOPClassUID:       req.AffectedSOPClassUID,
		MessageIDBeingRespondedTo: req.MessageID,
		CommandDataSetType:        dimse.CommandDataSetTypeNull,
		Status:                    dimse.Status{Status: dimse.StatusUnrecognizedOperation},
	}
	a.sm.SendData(abstractSyntax, rsp, nil)
}

func (a *Association) runRetrieveResponder(abstractSyntax string, msgID dimse.MessageID, sopClassUID string, responder RetrieveResponder) {
	for {
		cancelled := a.consumeCancelled(msgID)
		status, progress, ident, done := responder.Next(cancelled)
		dsType := dimse.CommandDataSetTypeNull
		if isPending(status) {
			dsType = dataSetType(ident)
		} else {
			ident = nil
		}
		rsp := &dimse.CGetRsp{
			AffectedSOPClassUID:            sopClassUID,
			MessageIDBeingRespondedTo:      msgID,
			CommandDataSetType:             dsType,
			NumberOfRemainingSuboperations: progress.Remaining,
			NumberOfCompletedSuboperations: progress.Completed,
			NumberOfFailedSuboperations:    progress.Failed,
			NumberOfWarningSuboperations:   progress.Warning,
			Status:                         status,
		}
		a.sm.SendData(abstractSyntax, rsp, ident)
		if done || !isPending(status) {
			break
		}
	}
	a.forget(msgID)
}

func (a *Association) runRetrieveResponderMove(abstractSyntax string, msgID dimse.MessageID, sopClassUID string, responder RetrieveResponder) {
	for {
		cancelled := a.consumeCancelled(msgID)
		status, progress, ident, done := responder.Next(cancelled)
		dsType := dimse.CommandDataSetTypeNull
		if isPending(status) {
			dsType = dataSetType(ident)
		} else {
			ident = nil
		}
		rsp := &dimse.CMoveRsp{
			AffectedSOPClassUID:            sopClassUID,
			MessageIDBeingRespondedTo:      msgID,
			CommandDataSetType:             dsType,
			NumberOfRemainingSuboperations: progress.Remaining,
			NumberOfCompletedSuboperations: progress.Completed,
			NumberOfFailedSuboperations:    progress.Failed,
			NumberOfWarningSuboperations:   progress.Warning,
			Status:                         status,
		}
		a.sm.SendData(abstractSyntax, rsp, ident)
		if done || !isPending(status) {
			break
		}
	}
	a.forget(msgID)
}

func (a *Association) serveNGet(ctx context.Context, abstractSyntax string, req *dimse.NGetRq) {
	status := dimse.Status{Status: dimse.StatusUnrecognizedOperation}
	var attrs []byte
	if h := a.cfg.Handlers.NGet; h != nil {
		status, attrs = h(ctx, req)
	}
	rsp := &dimse.NGetRsp{
		AffectedSOPClassUID:       req.RequestedSOPClassUID,
		MessageIDBeingRespondedTo: req.MessageID,
		AffectedSOPInstanceUID:    req.RequestedSOPInstanceUID,
		CommandDataSetType:        dataSetType(attrs),
		Status:                    status,
	}
	a.sm.SendData(abstractSyntax, rsp, attrs)
}

func (a *Association) serveNSet(ctx context.Context, abstractSyntax string, req *dimse.NSetRq, modifications []byte) {
	status := dimse.Status{Status: dimse.StatusUnrecognizedOperation}
	var attrs []byte
	if h := a.cfg.Handlers.NSet; h != nil {
		status, attrs = h(ctx, req, modifications)
	}
	rsp := &dimse.NSetRsp{
		AffectedSOPClassUID:       req.RequestedSOPClassUID,
		MessageIDBeingRespondedTo: req.MessageID,
		AffectedSOPInstanceUID:    req.RequestedSOPInstanceUID,
		CommandDataSetType:        dataSetType(attrs),
		Status:                    status,
	}
	a.sm.SendData(abstractSyntax, rsp, attrs)
}

func (a *Association) serveNCreate(ctx context.Context, abstractSyntax string, req *dimse.NCreateRq, attrsIn []byte) {
	status := dimse.Status{Status: dimse.StatusUnrecognizedOperation}
	instanceUID := req.AffectedSOPInstanceUID
	var attrsOut []byte
	if h := a.cfg.Handlers.NCreate; h != nil {
		status, instanceUID, attrsOut = h(ctx, req, attrsIn)
	}
	rsp := &dimse.NCreateRsp{
		AffectedSOPClassUID:       req.AffectedSOPClassUID,
		MessageIDBeingRespondedTo: req.MessageID,
		AffectedSOPInstanceUID:    instanceUID,
		CommandDataSetType:        dataSetType(attrsOut),
		Status:                    status,
	}
	a.sm.SendData(abstractSyntax, rsp, attrsOut)
}

func (a *Association) serveNDelete(ctx context.Context, abstractSyntax string, req *dimse.NDeleteRq) {
	status := dimse.Status{Status: dimse.StatusUnrecognizedOperation}
	if h := a.cfg.Handlers.NDelete; h != nil {
		status = h(ctx, req)
	}
	rsp := &dimse.NDeleteRsp{
		AffectedSOPClassUID:       req.RequestedSOPClassUID,
		MessageIDBeingRespondedTo: req.MessageID,
		AffectedSOPInstanceUID:    req.RequestedSOPInstanceUID,
		Status:                    status,
	}
	a.sm.SendData(abstractSyntax, rsp, nil)
}

func (a *Association) serveNAction(ctx context.Context, abstractSyntax string, req *dimse.NActionRq, actionInfo []byte) {
	status := dimse.Status{Status: dimse.StatusUnrecognizedOperation}
	var reply []byte
	if h := a.cfg.Handlers.NAction; h != nil {
		status, reply = h(ctx, req, actionInfo)
	}
	rsp := &dimse.NActionRsp{
		AffectedSOPClassUID:       req.RequestedSOPClassUID,
		MessageIDBeingRespondedTo: req.MessageID,
		AffectedSOPInstanceUID:    req.RequestedSOPInstanceUID,
		ActionTypeID:              req.ActionTypeID,
		CommandDataSetType:        dataSetType(reply),
		Status:                    status,
	}
	a.sm.SendData(abstractSyntax, rsp, reply)
}

func (a *Association) serveNEventReport(ctx context.Context, abstractSyntax string, req *dimse.NEventReportRq, info []byte) {
	status := dimse.Status{Status: dimse.StatusUnrecognizedOperation}
	if h := a.cfg.Handlers.NEventReport; h != nil {
		status = h(ctx, req, info)
	}
	rsp := &dimse.NEventReportRsp{
		AffectedSOPClassUID:       req.AffectedSOPClassUID,
		MessageIDBeingRespondedTo: req.MessageID,
		AffectedSOPInstanceUID:    req.AffectedSOPInstanceUID,
		EventTypeID:               req.EventTypeID,
		CommandDataSetType:        dimse.CommandDataSetTypeNull,
		Status:                    status,
	}
	a.sm.SendData(abstractSyntax, rsp, nil)
}
