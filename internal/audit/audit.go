package audit

import (
	"sort"
	"time"

	"github.com/minhopark/store-portal/internal/authz"
)

// PermissionSnapshot is the full permission state of a user at one point in
// time. Entries store complete before/after snapshots; diffs are projected
// at read time, never persisted.
type PermissionSnapshot struct {
	Role  authz.Role             `json:"role"`
	Menu  authz.MenuPermissions  `json:"menu,omitempty"`
	Admin authz.AdminPermissions `json:"admin,omitempty"`
}

// Entry is one permission change event in the audit trail.
type Entry struct {
	ID           int64              `json:"id"`
	AdminID      int64              `json:"admin_id"`
	TargetUserID int64              `json:"target_user_id"`
	Before       PermissionSnapshot `json:"before"`
	After        PermissionSnapshot `json:"after"`
	Diff         []DiffEntry        `json:"diff"`
	CreatedAt    time.Time          `json:"created_at"`
}

// DiffEntry is one changed key between the before and after snapshots.
type DiffEntry struct {
	Bucket string      `json:"bucket"`
	Key    string      `json:"key"`
	Before interface{} `json:"before"`
	After  interface{} `json:"after"`
}

const (
	BucketRole  = "role"
	BucketMenu  = "menu"
	BucketAdmin = "admin"
)

// ComputeDiff projects the changed keys between two snapshots. Keys present
// on only one side diff against nil; values that grant identical access
// (a boolean true and an all-true record, say) produce no entry.
func ComputeDiff(before, after PermissionSnapshot) []DiffEntry {
	var diff []DiffEntry

	if before.Role != after.Role {
		diff = append(diff, DiffEntry{
			Bucket: BucketRole,
			Key:    "role",
			Before: string(before.Role),
			After:  string(after.Role),
		})
	}

	for _, key := range unionKeysMenu(before.Menu, after.Menu) {
		bv, bok := before.Menu[key]
		av, aok := after.Menu[key]
		switch {
		case bok && aok:
			if !bv.Equal(av) {
				diff = append(diff, DiffEntry{Bucket: BucketMenu, Key: key, Before: bv, After: av})
			}
		case bok:
			diff = append(diff, DiffEntry{Bucket: BucketMenu, Key: key, Before: bv, After: nil})
		default:
			diff = append(diff, DiffEntry{Bucket: BucketMenu, Key: key, Before: nil, After: av})
		}
	}

	for _, key := range unionKeysAdmin(before.Admin, after.Admin) {
		bv, bok := before.Admin[key]
		av, aok := after.Admin[key]
		switch {
		case bok && aok:
			if bv != av {
				diff = append(diff, DiffEntry{Bucket: BucketAdmin, Key: key, Before: bv, After: av})
			}
		case bok:
			diff = append(diff, DiffEntry{Bucket: BucketAdmin, Key: key, Before: bv, After: nil})
		default:
			diff = append(diff, DiffEntry{Bucket: BucketAdmin, Key: key, Before: nil, After: av})
		}
	}

	return diff
}

func unionKeysMenu(a, b authz.MenuPermissions) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unionKeysAdmin(a, b authz.AdminPermissions) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
