package audit

import "time"

// PermissionChangeLog rows are append-only; nothing updates them after
// insert, and the purge job deletes only rows past the retention window.
type PermissionChangeLog struct {
	ID                int64     `db:"id"`
	AdminID           int64     `db:"admin_id"`
	TargetUserID      int64     `db:"target_user_id"`
	BeforePermissions []byte    `db:"before_permissions"`
	AfterPermissions  []byte    `db:"after_permissions"`
	CreatedAt         time.Time `db:"created_at"`
}
