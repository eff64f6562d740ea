// Package presentation implements DICOM presentation context proposal
// and negotiation, P3.8 7.1.1.13/9.3.2-9.3.3 and Annex D. It sits
// between acse (which builds/parses the A-ASSOCIATE PDUs) and the
// service user, which only deals in abstract/transfer syntax UIDs.
package presentation

import (
	"fmt"
	"sync"

	"github.com/dcmnet/ul/pdu"
)

// Proposal describes one presentation context a requestor offers, or
// one a service-class implementation on the acceptor side is willing
// to support.
type Proposal struct {
	AbstractSyntax   string
	TransferSyntaxes []string
	// SCURole/SCPRole, when true, request/grant that role via Annex
	// D.3.3.4 role selection. Both default false, meaning the
	// traditional requestor-is-SCU assumption applies.
	SCURole bool
	SCPRole bool
}

// Context is a negotiated presentation context: one abstract syntax
// bound to exactly one transfer syntax and a context ID, the unit data
// is framed with on the wire (P3.8 9.3.5).
type Context struct {
	ID             byte
	AbstractSyntax string
	TransferSyntax string
	Result         byte // pdu.PresentationResult*; PresentationResultAcceptance on success
	SCURole        bool
	SCPRole        bool
}

// Accepted reports whether the peer accepted this context.
func (c *Context) Accepted() bool {
	return c.Result == pdu.PresentationResultAcceptance
}

// Manager tracks presentation contexts across the life of one
// association, on either the requestor or the acceptor side.
type Manager struct {
	mu                    sync.Mutex
	byID                  map[byte]*Context
	peerMaxPDULength      uint32
	implementationUID     string
	implementationVersion string
}

func NewManager() *Manager {
	return &Manager{byID: make(map[byte]*Context)}
}

// DefaultImplementationClassUID/Version are used when negotiating user
// information and have no particular registration; they simply need to
// be stable and well-formed per P3.8 D.3.3.2.
const (
	DefaultImplementationClassUID    = "1.2.826.0.1.3680043.2.1143.107.104.103.115"
	DefaultImplementationVersionName = "DCMNET_1"
)

// ProposeContexts builds the presentation-context and user-information
// sub-items for an outgoing A-ASSOCIATE-RQ from the caller's proposals,
// assigning sequential odd context IDs per P3.8 9.3.2.2 (note 2).
func (m *Manager) ProposeContexts(proposals []Proposal, maxPDULength uint32) ([]*pdu.PresentationContextItemRQ, *pdu.UserInformationItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []*pdu.PresentationContextItemRQ
	var id byte = 1
	for _, p := range proposals {
		m.byID[id] = &Context{ID: id, AbstractSyntax: p.AbstractSyntax, SCURole: p.SCURole, SCPRole: p.SCPRole}
		items = append(items, &pdu.PresentationContextItemRQ{
			ContextID:        id,
			AbstractSyntax:   p.AbstractSyntax,
			TransferSyntaxes: append([]string(nil), p.TransferSyntaxes...),
		})
		id += 2
	}

	userInfo := &pdu.UserInformationItem{Items: []pdu.SubItem{
		&pdu.MaxLengthItem{MaxLength: maxPDULength},
		&pdu.ImplementationClassUIDItem{UID: DefaultImplementationClassUID},
		&pdu.ImplementationVersionNameItem{Name: DefaultImplementationVersionName},
	}}
	for _, p := range proposals {
		if p.SCURole || p.SCPRole {
			userInfo.Items = append(userInfo.Items, &pdu.RoleSelectionItem{
				SOPClassUID: p.AbstractSyntax,
				SCURole:     boolToRole(p.SCURole),
				SCPRole:     boolToRole(p.SCPRole),
			})
		}
	}
	return items, userInfo
}

func boolToRole(want bool) byte {
	if want {
		return pdu.RoleSupported
	}
	return pdu.RoleNotSupported
}

// OnAssociateResponse records the acceptor's decision for each
// previously proposed context, found in an A-ASSOCIATE-AC's
// presentation-context and user-information items.
func (m *Manager) OnAssociateResponse(contexts []*pdu.PresentationContextItemAC, userInfo *pdu.UserInformationItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ac := range contexts {
		ctx, ok := m.byID[ac.ContextID]
		if !ok {
			return fmt.Errorf("presentation: A-ASSOCIATE-AC references unknown context ID %d", ac.ContextID)
		}
		ctx.Result = ac.Result
		ctx.TransferSyntax = ac.TransferSyntax
	}
	if userInfo != nil {
		m.applyUserInformation(userInfo)
	}
	return nil
}

// OnAssociateRequest matches an incoming A-ASSOCIATE-RQ's proposed
// contexts against locally supported ones and builds the acceptance/
// rejection sub-items for the A-ASSOCIATE-AC response. It never
// rejects the whole association; per-context mismatches are reported
// individually via the Result field (P3.8 Table 9-18).
func (m *Manager) OnAssociateRequest(requested []*pdu.PresentationContextItemRQ, userInfo *pdu.UserInformationItem, supported []Proposal, maxPDULength uint32) ([]*pdu.PresentationContextItemAC, *pdu.UserInformationItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byAbstractSyntax := make(map[string]Proposal, len(supported))
	for _, p := range supported {
		byAbstractSyntax[p.AbstractSyntax] = p
	}

	var requestedRoles map[string]*pdu.RoleSelectionItem
	if userInfo != nil {
		requestedRoles = make(map[string]*pdu.RoleSelectionItem)
		for _, it := range userInfo.Items {
			if rs, ok := it.(*pdu.RoleSelectionItem); ok {
				requestedRoles[rs.SOPClassUID] = rs
			}
		}
	}

	var responses []*pdu.PresentationContextItemAC
	var roleResponses []pdu.SubItem
	for _, rq := range requested {
		ctx := &Context{ID: rq.ContextID, AbstractSyntax: rq.AbstractSyntax}
		local, ok := byAbstractSyntax[rq.AbstractSyntax]
		if !ok {
			ctx.Result = pdu.PresentationResultAbstractSyntaxNotSupported
			m.byID[ctx.ID] = ctx
			responses = append(responses, &pdu.PresentationContextItemAC{ContextID: ctx.ID, Result: ctx.Result})
			continue
		}
		ts := firstMutual(rq.TransferSyntaxes, local.TransferSyntaxes)
		if ts == "" {
			ctx.Result = pdu.PresentationResultTransferSyntaxesNotSupported
			m.byID[ctx.ID] = ctx
			responses = append(responses, &pdu.PresentationContextItemAC{ContextID: ctx.ID, Result: ctx.Result})
			continue
		}
		ctx.Result = pdu.PresentationResultAcceptance
		ctx.TransferSyntax = ts
		if rs, ok := requestedRoles[rq.AbstractSyntax]; ok {
			// Subset rule: never grant a role the local proposal didn't offer,
			// even if the peer asked for it.
			ctx.SCURole = rs.SCURole == pdu.RoleSupported && local.SCPRole
			ctx.SCPRole = rs.SCPRole == pdu.RoleSupported && local.SCURole
			roleResponses = append(roleResponses, &pdu.RoleSelectionItem{
				SOPClassUID: rq.AbstractSyntax,
				SCURole:     boolToRole(ctx.SCURole),
				SCPRole:     boolToRole(ctx.SCPRole),
			})
		}
		m.byID[ctx.ID] = ctx
		responses = append(responses, &pdu.PresentationContextItemAC{ContextID: ctx.ID, Result: ctx.Result, TransferSyntax: ts})
	}

	if userInfo != nil {
		m.applyUserInformation(userInfo)
	}

	respUserInfo := &pdu.UserInformationItem{Items: []pdu.SubItem{
		&pdu.MaxLengthItem{MaxLength: maxPDULength},
		&pdu.ImplementationClassUIDItem{UID: DefaultImplementationClassUID},
		&pdu.ImplementationVersionNameItem{Name: DefaultImplementationVersionName},
	}}
	respUserInfo.Items = append(respUserInfo.Items, roleResponses...)
	return responses, respUserInfo
}

func (m *Manager) applyUserInformation(userInfo *pdu.UserInformationItem) {
	for _, it := range userInfo.Items {
		if ml, ok := it.(*pdu.MaxLengthItem); ok {
			m.peerMaxPDULength = ml.MaxLength
		}
		if cu, ok := it.(*pdu.ImplementationClassUIDItem); ok {
			m.implementationUID = cu.UID
		}
		if vn, ok := it.(*pdu.ImplementationVersionNameItem); ok {
			m.implementationVersion = vn.Name
		}
	}
}

// firstMutual returns the first transfer syntax in proposed that also
// appears in supported, preserving the requestor's preference order, or
// "" if none match.
func firstMutual(proposed, supported []string) string {
	sup := make(map[string]bool, len(supported))
	for _, ts := range supported {
		sup[ts] = true
	}
	for _, ts := range proposed {
		if sup[ts] {
			return ts
		}
	}
	return ""
}

// LookupByAbstractSyntaxUID returns the negotiated context whose
// abstract syntax matches uid and which the peer accepted.
func (m *Manager) LookupByAbstractSyntaxUID(uid string) (*Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ctx := range m.byID {
		if ctx.AbstractSyntax == uid && ctx.Accepted() {
			return ctx, nil
		}
	}
	return nil, fmt.Errorf("presentation: no accepted context for abstract syntax %s", uid)
}

// LookupByContextID returns the negotiated context with the given ID.
func (m *Manager) LookupByContextID(id byte) (*Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("presentation: unknown context ID %d", id)
	}
	return ctx, nil
}

// PeerMaxPDULength is the Maximum Length the peer advertised in its
// user information, or 0 if unset/unlimited.
func (m *Manager) PeerMaxPDULength() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peerMaxPDULength
}

// AcceptedContexts returns every context the peer accepted.
func (m *Manager) AcceptedContexts() []*Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Context
	for _, ctx := range m.byID {
		if ctx.Accepted() {
			out = append(out, ctx)
		}
	}
	return out
}
