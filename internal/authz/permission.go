package authz

import (
	"encoding/json"
	"fmt"
)

// Action is the kind of access requested on a menu resource.
type Action string

const (
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionApprove Action = "approve"
	// ActionAny is satisfied when any of read/write/approve is granted.
	ActionAny Action = "any"
)

type valueKind int

const (
	kindBool valueKind = iota
	kindActions
)

// PermissionValue is the tagged variant stored per menu key: either a plain
// boolean or a {read, write, approve} record. The document store holds both
// shapes, so JSON (un)marshaling accepts both.
type PermissionValue struct {
	kind    valueKind
	enabled bool
	read    bool
	write   bool
	approve bool
}

// BoolValue builds the boolean variant.
func BoolValue(enabled bool) PermissionValue {
	return PermissionValue{kind: kindBool, enabled: enabled}
}

// ActionValue builds the {read, write, approve} record variant.
func ActionValue(read, write, approve bool) PermissionValue {
	return PermissionValue{kind: kindActions, read: read, write: write, approve: approve}
}

// Allows resolves the variant against the requested action. The boolean
// variant answers every action with its stored value; the record variant
// answers per field, with ActionAny true if any field is.
func (v PermissionValue) Allows(action Action) bool {
	switch v.kind {
	case kindBool:
		return v.enabled
	case kindActions:
		switch action {
		case ActionRead:
			return v.read
		case ActionWrite:
			return v.write
		case ActionApprove:
			return v.approve
		case ActionAny:
			return v.read || v.write || v.approve
		}
	}
	return false
}

// Equal reports whether two values grant exactly the same access. A boolean
// and a record are considered equal when they resolve identically for every
// concrete action.
func (v PermissionValue) Equal(other PermissionValue) bool {
	for _, a := range []Action{ActionRead, ActionWrite, ActionApprove} {
		if v.Allows(a) != other.Allows(a) {
			return false
		}
	}
	return true
}

type actionRecord struct {
	Read    bool `json:"read"`
	Write   bool `json:"write"`
	Approve bool `json:"approve"`
}

func (v PermissionValue) MarshalJSON() ([]byte, error) {
	if v.kind == kindBool {
		return json.Marshal(v.enabled)
	}
	return json.Marshal(actionRecord{Read: v.read, Write: v.write, Approve: v.approve})
}

func (v *PermissionValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var rec actionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("permission value must be a boolean or a read/write/approve record: %w", err)
	}
	*v = ActionValue(rec.Read, rec.Write, rec.Approve)
	return nil
}

// MenuPermissions is the per-user resource permission matrix.
type MenuPermissions map[string]PermissionValue

// AdminPermissions is the per-user admin capability flag map.
type AdminPermissions map[string]bool

// Clone returns a deep copy, used when snapshotting before/after states for
// the audit log so later mutations cannot alias the recorded history.
func (m MenuPermissions) Clone() MenuPermissions {
	if m == nil {
		return nil
	}
	copied := make(MenuPermissions, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

func (a AdminPermissions) Clone() AdminPermissions {
	if a == nil {
		return nil
	}
	copied := make(AdminPermissions, len(a))
	for k, v := range a {
		copied[k] = v
	}
	return copied
}
