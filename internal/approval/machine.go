package approval

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhopark/store-portal/internal"
)

// Entity is the view of a reviewable record the machine needs. Domain types
// (inventory sheets, disposal requests) implement it over their own fields.
type Entity interface {
	EntityID() int64
	CurrentStatus() Status
	// HasDiscrepancy reports whether any line item sits outside tolerance.
	HasDiscrepancy() bool
}

// Stamp carries the actor and metadata persisted alongside a transition.
type Stamp struct {
	ActorID           int64
	At                time.Time
	DiscrepancyReason string
	RejectionReason   string
}

// Store persists transitions as single atomic conditional updates. Applied
// is false when the persisted status no longer matches expected, meaning a
// concurrent actor won the race; the caller must surface a conflict, never
// overwrite.
type Store interface {
	UpdateStatusIf(ctx context.Context, id int64, expected, next Status, stamp Stamp) (applied bool, err error)
}

// Machine drives the generic multi-stage approval workflow. It holds no
// entity state of its own; every transition is conditioned on the
// authoritative persisted pre-state.
type Machine struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewMachine(store Store, logger *slog.Logger) *Machine {
	return &Machine{store: store, logger: logger, now: time.Now}
}

// RequestApproval moves an editable entity to approval_requested. When the
// entity carries an out-of-tolerance discrepancy, a non-empty reason is
// required or the transition is rejected with a validation error.
func (m *Machine) RequestApproval(ctx context.Context, e Entity, actorID int64, discrepancyReason string) error {
	pre := e.CurrentStatus()
	if !IsEditable(pre) {
		return transitionError(pre, StatusApprovalRequested)
	}

	if e.HasDiscrepancy() && discrepancyReason == "" {
		m.logger.Warn("approval request blocked: discrepancy without reason",
			"entity_id", e.EntityID(), "actor_id", actorID)
		return internal.NewValidationError(
			"a discrepancy reason is required before requesting approval",
			internal.ErrCodeDiscrepancyReasonMissing)
	}

	return m.apply(ctx, e, pre, StatusApprovalRequested, Stamp{
		ActorID:           actorID,
		At:                m.now(),
		DiscrepancyReason: discrepancyReason,
	})
}

// Approve finalizes an approval-requested entity. Approved is terminal;
// the store stamps approvedBy and the entity becomes read-only.
func (m *Machine) Approve(ctx context.Context, e Entity, actorID int64) error {
	pre := e.CurrentStatus()
	if pre != StatusApprovalRequested {
		return transitionError(pre, StatusApproved)
	}

	return m.apply(ctx, e, pre, StatusApproved, Stamp{
		ActorID: actorID,
		At:      m.now(),
	})
}

// Reject sends an approval-requested entity back to draft so the requester
// can resubmit. A non-empty rejection reason is mandatory.
func (m *Machine) Reject(ctx context.Context, e Entity, actorID int64, reason string) error {
	pre := e.CurrentStatus()
	if pre != StatusApprovalRequested {
		return transitionError(pre, StatusDraft)
	}

	if reason == "" {
		return internal.NewValidationError(
			"a rejection reason is required",
			internal.ErrCodeRejectionReasonMissing)
	}

	return m.apply(ctx, e, pre, StatusDraft, Stamp{
		ActorID:         actorID,
		At:              m.now(),
		RejectionReason: reason,
	})
}

func (m *Machine) apply(ctx context.Context, e Entity, pre, next Status, stamp Stamp) error {
	applied, err := m.store.UpdateStatusIf(ctx, e.EntityID(), pre, next, stamp)
	if err != nil {
		return err
	}
	if !applied {
		m.logger.Warn("transition lost optimistic-concurrency race",
			"entity_id", e.EntityID(),
			"expected_status", pre,
			"attempted_status", next,
			"actor_id", stamp.ActorID)
		return internal.ErrStaleStatus
	}

	m.logger.Info("workflow transition applied",
		"entity_id", e.EntityID(),
		"from", pre,
		"to", next,
		"actor_id", stamp.ActorID)
	return nil
}

func transitionError(from, to Status) error {
	if IsTerminal(from) {
		return internal.ErrApprovedReadOnly
	}
	return internal.NewValidationError(
		"no transition from "+string(from)+" to "+string(to),
		internal.ErrCodeInvalidStatusTransition)
}
