package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/authz"
)

// Repository persists and queries permission change entries. Query results
// come back most recent first.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	QuerySince(ctx context.Context, since time.Time, limit, offset int) ([]*Entry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, batch int) (int64, error)
}

type Service struct {
	repo      Repository
	resolver  *authz.Resolver
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, resolver *authz.Resolver, retention time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Record appends one permission change to the trail. Failures are reported
// to the caller but must not roll back the permission change itself; the
// change already happened and the trail is best effort.
func (s *Service) Record(ctx context.Context, adminID, targetUserID int64, before, after PermissionSnapshot) error {
	entry := &Entry{
		AdminID:      adminID,
		TargetUserID: targetUserID,
		Before:       before,
		After:        after,
		CreatedAt:    s.now(),
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to record permission change",
			"error", err,
			"admin_id", adminID,
			"target_user_id", targetUserID)
		return err
	}

	s.logger.Info("permission change recorded",
		"admin_id", adminID,
		"target_user_id", targetUserID,
		"changed_keys", len(ComputeDiff(before, after)))
	return nil
}

// Query returns entries newer than since, clamped to the retention window
// so callers can never read past it even before the purge job runs. Diffs
// are projected per entry at read time.
func (s *Service) Query(ctx context.Context, actor *authz.Actor, since time.Time, limit, offset int) ([]*Entry, error) {
	if !s.resolver.CanAccess(actor, authz.RequireAdmin(authz.CapabilityViewAuditLog)) {
		return nil, internal.ErrUnauthorizedAccess
	}

	earliest := s.now().Add(-s.retention)
	if since.Before(earliest) {
		since = earliest
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	entries, err := s.repo.QuerySince(ctx, since, limit, offset)
	if err != nil {
		s.logger.Error("failed to query permission logs", "error", err)
		return nil, err
	}

	for _, entry := range entries {
		entry.Diff = ComputeDiff(entry.Before, entry.After)
	}
	return entries, nil
}

// PurgeExpired deletes entries past the retention window, at most batch rows
// per call. It returns how many rows were removed.
func (s *Service) PurgeExpired(ctx context.Context, batch int) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff, batch)
	if err != nil {
		s.logger.Error("failed to purge expired permission logs", "error", err)
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("purged expired permission logs", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}
