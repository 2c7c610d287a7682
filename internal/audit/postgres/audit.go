package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/minhopark/store-portal/internal/audit"
	datamodel "github.com/minhopark/store-portal/internal/core/datamodel/audit"
)

type AuditRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewAuditRepository(db *sqlx.DB, logger *slog.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

const insertQuery = `
	INSERT INTO permission_change_logs
		(admin_id, target_user_id, before_permissions, after_permissions, created_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`

func (r *AuditRepository) Insert(ctx context.Context, entry *audit.Entry) error {
	beforeJSON, err := json.Marshal(entry.Before)
	if err != nil {
		return err
	}
	afterJSON, err := json.Marshal(entry.After)
	if err != nil {
		return err
	}

	err = r.db.QueryRowxContext(ctx, insertQuery,
		entry.AdminID,
		entry.TargetUserID,
		beforeJSON,
		afterJSON,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		r.logger.Error("failed to insert permission change log", "error", err)
		return err
	}
	return nil
}

const queryQuery = `
	SELECT id, admin_id, target_user_id, before_permissions, after_permissions, created_at
	FROM permission_change_logs
	WHERE created_at >= $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2 OFFSET $3`

func (r *AuditRepository) QuerySince(ctx context.Context, since time.Time, limit, offset int) ([]*audit.Entry, error) {
	var rows []datamodel.PermissionChangeLog
	if err := r.db.SelectContext(ctx, &rows, queryQuery, since, limit, offset); err != nil {
		r.logger.Error("failed to query permission change logs", "error", err)
		return nil, err
	}

	entries := make([]*audit.Entry, 0, len(rows))
	for _, row := range rows {
		entry := &audit.Entry{
			ID:           row.ID,
			AdminID:      row.AdminID,
			TargetUserID: row.TargetUserID,
			CreatedAt:    row.CreatedAt,
		}
		if len(row.BeforePermissions) > 0 {
			if err := json.Unmarshal(row.BeforePermissions, &entry.Before); err != nil {
				r.logger.Error("malformed before_permissions snapshot", "log_id", row.ID, "error", err)
				return nil, err
			}
		}
		if len(row.AfterPermissions) > 0 {
			if err := json.Unmarshal(row.AfterPermissions, &entry.After); err != nil {
				r.logger.Error("malformed after_permissions snapshot", "log_id", row.ID, "error", err)
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

const deleteQuery = `
	DELETE FROM permission_change_logs
	WHERE id IN (
		SELECT id FROM permission_change_logs
		WHERE created_at < $1
		ORDER BY created_at
		LIMIT $2
	)`

func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, batch int) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteQuery, cutoff, batch)
	if err != nil {
		r.logger.Error("failed to delete expired permission change logs", "error", err)
		return 0, err
	}
	return res.RowsAffected()
}
