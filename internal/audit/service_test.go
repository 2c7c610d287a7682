package audit_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/audit"
	"github.com/minhopark/store-portal/internal/authz"
)

// MockAuditRepository records the query arguments it receives so retention
// clamping can be asserted.
type MockAuditRepository struct {
	entries   []*audit.Entry
	nextID    int64
	lastSince time.Time
	lastLimit int
	deleted   int64
	failErr   error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{nextID: 1}
}

func (m *MockAuditRepository) Insert(_ context.Context, entry *audit.Entry) error {
	if m.failErr != nil {
		return m.failErr
	}
	entry.ID = m.nextID
	m.nextID++
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockAuditRepository) QuerySince(_ context.Context, since time.Time, limit, _ int) ([]*audit.Entry, error) {
	m.lastSince = since
	m.lastLimit = limit
	var result []*audit.Entry
	for _, entry := range m.entries {
		if entry.CreatedAt.After(since) {
			copied := *entry
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockAuditRepository) DeleteOlderThan(_ context.Context, cutoff time.Time, batch int) (int64, error) {
	var kept []*audit.Entry
	var deleted int64
	for _, entry := range m.entries {
		if entry.CreatedAt.Before(cutoff) && deleted < int64(batch) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	m.entries = kept
	m.deleted += deleted
	return deleted, nil
}

var _ = Describe("Audit Service", func() {
	const retention = 90 * 24 * time.Hour

	var (
		repo    *MockAuditRepository
		service *audit.Service
		ctx     context.Context

		auditor  *authz.Actor
		employee *authz.Actor
	)

	snapshot := func(role authz.Role) audit.PermissionSnapshot {
		return audit.PermissionSnapshot{Role: role}
	}

	BeforeEach(func() {
		repo = NewMockAuditRepository()
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		resolver := authz.NewResolver(authz.DefaultRegistry(), logger)
		service = audit.NewService(repo, resolver, retention, logger)
		ctx = context.Background()

		auditor = &authz.Actor{ID: 1, Role: authz.RoleAdmin, Admin: authz.AdminPermissions{
			string(authz.CapabilityViewAuditLog): true,
		}}
		employee = &authz.Actor{ID: 2, Role: authz.RoleEmployee}
	})

	Describe("Record", func() {
		It("persists the entry with both snapshots", func() {
			err := service.Record(ctx, 1, 42, snapshot(authz.RoleEmployee), snapshot(authz.RoleAdmin))
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.entries).To(HaveLen(1))
			Expect(repo.entries[0].AdminID).To(Equal(int64(1)))
			Expect(repo.entries[0].TargetUserID).To(Equal(int64(42)))
		})

		It("surfaces the store error to the caller", func() {
			repo.failErr = errors.New("insert failed")
			err := service.Record(ctx, 1, 42, snapshot(authz.RoleEmployee), snapshot(authz.RoleAdmin))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Query", func() {
		BeforeEach(func() {
			Expect(service.Record(ctx, 1, 42, snapshot(authz.RoleEmployee), snapshot(authz.RoleAdmin))).To(Succeed())
		})

		It("requires the view-audit-log capability", func() {
			_, err := service.Query(ctx, employee, time.Time{}, 50, 0)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("projects the diff onto each returned entry", func() {
			entries, err := service.Query(ctx, auditor, time.Now().Add(-time.Hour), 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Diff).To(HaveLen(1))
			Expect(entries[0].Diff[0].Bucket).To(Equal(audit.BucketRole))
		})

		It("clamps since to the retention window", func() {
			_, err := service.Query(ctx, auditor, time.Now().Add(-2*retention), 50, 0)
			Expect(err).NotTo(HaveOccurred())

			earliest := time.Now().Add(-retention)
			Expect(repo.lastSince).To(BeTemporally("~", earliest, time.Minute))
		})

		It("leaves an in-window since untouched", func() {
			since := time.Now().Add(-time.Hour)
			_, err := service.Query(ctx, auditor, since, 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastSince).To(Equal(since))
		})

		It("defaults an out-of-range limit", func() {
			_, err := service.Query(ctx, auditor, time.Now().Add(-time.Hour), 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastLimit).To(Equal(50))

			_, err = service.Query(ctx, auditor, time.Now().Add(-time.Hour), 500, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastLimit).To(Equal(50))
		})
	})

	Describe("PurgeExpired", func() {
		It("deletes entries past the retention window in batches", func() {
			old := &audit.Entry{AdminID: 1, TargetUserID: 2, CreatedAt: time.Now().Add(-2 * retention)}
			fresh := &audit.Entry{AdminID: 1, TargetUserID: 3, CreatedAt: time.Now()}
			repo.entries = append(repo.entries, old, fresh)

			deleted, err := service.PurgeExpired(ctx, 500)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(1)))
			Expect(repo.entries).To(HaveLen(1))
			Expect(repo.entries[0].TargetUserID).To(Equal(int64(3)))
		})

		It("reports zero when nothing is expired", func() {
			deleted, err := service.PurgeExpired(ctx, 500)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(BeZero())
		})
	})
})
