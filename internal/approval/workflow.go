package approval

// Status is a workflow state shared by all reviewable entities. The
// inventory reconciliation flow labels these 작성중, 재고불일치, 승인요청,
// 승인 and 거부 in the UI; the wire values below are the canonical ones.
type Status string

const (
	// StatusDraft is the editable starting state. A rejected entity
	// re-enters draft so the requester can fix it up and resubmit.
	StatusDraft Status = "draft"
	// StatusDiscrepant marks a draft whose line items carry an
	// out-of-tolerance discrepancy. Still editable.
	StatusDiscrepant Status = "discrepant"
	// StatusApprovalRequested awaits an approver's decision.
	StatusApprovalRequested Status = "approval_requested"
	// StatusApproved is terminal; the entity becomes read-only.
	StatusApproved Status = "approved"
	// StatusRejected names the reject transition outcome. The persisted
	// post-state is draft; the rejection metadata records what happened.
	StatusRejected Status = "rejected"
)

// transitions enumerates every legal edge. Approved has no outgoing edges.
var transitions = map[Status][]Status{
	StatusDraft:             {StatusDiscrepant, StatusApprovalRequested},
	StatusDiscrepant:        {StatusDraft, StatusApprovalRequested},
	StatusApprovalRequested: {StatusApproved, StatusDraft},
	StatusApproved:          {},
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leads out of the state.
func IsTerminal(s Status) bool {
	next, known := transitions[s]
	return known && len(next) == 0
}

// IsEditable reports whether payload fields may still be mutated.
func IsEditable(s Status) bool {
	return s == StatusDraft || s == StatusDiscrepant
}
