package user_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/audit"
	"github.com/minhopark/store-portal/internal/authz"
	"github.com/minhopark/store-portal/internal/user"
)

// MockUserRepository keeps users in a map and honors the conditional-write
// contract of the real repository.
type MockUserRepository struct {
	users  map[int64]*user.User
	hashes map[int64]string
	nextID int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*user.User),
		hashes: make(map[int64]string),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(_ context.Context, u *user.User, passwordHash string) error {
	u.ID = m.nextID
	m.nextID++
	copied := *u
	m.users[u.ID] = &copied
	m.hashes[u.ID] = passwordHash
	return nil
}

func (m *MockUserRepository) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MockUserRepository) List(_ context.Context, _, _ int) ([]*user.User, error) {
	var result []*user.User
	for _, u := range m.users {
		copied := *u
		result = append(result, &copied)
	}
	return result, nil
}

func (m *MockUserRepository) UpdateStatusIf(_ context.Context, id int64, expected, next string) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, internal.ErrUserNotFound
	}
	if u.Status != expected {
		return false, nil
	}
	u.Status = next
	return true, nil
}

func (m *MockUserRepository) UpdatePermissions(_ context.Context, id int64, role authz.Role, menu authz.MenuPermissions, admin authz.AdminPermissions) error {
	u, ok := m.users[id]
	if !ok {
		return internal.ErrUserNotFound
	}
	u.Role = role
	u.MenuPermissions = menu
	u.AdminPermissions = admin
	return nil
}

// MockRecorder captures audit snapshots and can be told to fail.
type MockRecorder struct {
	entries int
	failErr error
	before  audit.PermissionSnapshot
	after   audit.PermissionSnapshot
}

func (m *MockRecorder) Record(_ context.Context, _, _ int64, before, after audit.PermissionSnapshot) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.entries++
	m.before = before
	m.after = after
	return nil
}

type MockNotifier struct {
	kinds []string
}

func (m *MockNotifier) EntityChanged(_ context.Context, kind string, _ int64) {
	m.kinds = append(m.kinds, kind)
}

var _ = Describe("User Service", func() {
	var (
		repo     *MockUserRepository
		recorder *MockRecorder
		notifier *MockNotifier
		service  *user.Service
		ctx      context.Context

		admin    *authz.Actor
		approver *authz.Actor
		employee *authz.Actor
	)

	register := func(email string) *user.User {
		u, err := service.Register(ctx, user.RegisterDTO{
			Email:    email,
			Name:     "Test User",
			Password: "correct-horse-battery",
		})
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	BeforeEach(func() {
		repo = NewMockUserRepository()
		recorder = &MockRecorder{}
		notifier = &MockNotifier{}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		resolver := authz.NewResolver(authz.DefaultRegistry(), logger)
		service = user.NewService(repo, resolver, recorder, notifier, 4, logger)
		ctx = context.Background()

		admin = &authz.Actor{ID: 100, Role: authz.RoleAdmin, Admin: authz.AdminPermissions{
			string(authz.CapabilityManageRoles): true,
		}}
		approver = &authz.Actor{ID: 101, Role: authz.RoleAdmin}
		employee = &authz.Actor{ID: 102, Role: authz.RoleEmployee}
	})

	Describe("Register", func() {
		It("creates a pending employee account", func() {
			u := register("newbie@store-portal.local")
			Expect(u.Status).To(Equal(user.StatusPending))
			Expect(u.Role).To(Equal(authz.RoleEmployee))
			Expect(repo.hashes[u.ID]).NotTo(BeEmpty())
			Expect(repo.hashes[u.ID]).NotTo(Equal("correct-horse-battery"))
		})

		It("rejects a short password", func() {
			_, err := service.Register(ctx, user.RegisterDTO{
				Email:    "weak@store-portal.local",
				Name:     "Weak",
				Password: "short",
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a malformed email", func() {
			_, err := service.Register(ctx, user.RegisterDTO{
				Email:    "not-an-email",
				Name:     "Nobody",
				Password: "long-enough-pass",
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("account approval", func() {
		It("activates a pending account", func() {
			u := register("pending@store-portal.local")
			approved, err := service.ApproveAccount(ctx, approver, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(user.StatusActive))
			Expect(notifier.kinds).To(ContainElement("user"))
		})

		It("rejects a pending account", func() {
			u := register("declined@store-portal.local")
			rejected, err := service.RejectAccount(ctx, approver, u.ID, user.RejectAccountDTO{Reason: "unknown applicant"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(user.StatusRejected))
		})

		It("refuses a second approval of the same account", func() {
			u := register("twice@store-portal.local")
			_, err := service.ApproveAccount(ctx, approver, u.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ApproveAccount(ctx, approver, u.ID)
			Expect(err).To(Equal(internal.ErrStaleStatus))
		})

		It("denies approval to an actor without the capability", func() {
			u := register("blocked@store-portal.local")
			_, err := service.ApproveAccount(ctx, employee, u.ID)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})
	})

	Describe("activation lifecycle", func() {
		var target *user.User

		BeforeEach(func() {
			target = register("lifecycle@store-portal.local")
			_, err := service.ApproveAccount(ctx, approver, target.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("deactivates and reactivates an active account", func() {
			deactivated, err := service.Deactivate(ctx, admin, target.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deactivated.Status).To(Equal(user.StatusInactive))

			reactivated, err := service.Reactivate(ctx, admin, target.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reactivated.Status).To(Equal(user.StatusActive))
		})

		It("refuses to deactivate an already inactive account", func() {
			_, err := service.Deactivate(ctx, admin, target.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Deactivate(ctx, admin, target.ID)
			Expect(err).To(Equal(internal.ErrStaleStatus))
		})

		It("requires the manage-roles capability", func() {
			_, err := service.Deactivate(ctx, approver, target.ID)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})
	})

	Describe("UpdatePermissions", func() {
		var target *user.User

		BeforeEach(func() {
			target = register("perms@store-portal.local")
		})

		It("replaces the permission state and records an audit entry", func() {
			result, err := service.UpdatePermissions(ctx, admin, target.ID, user.UpdatePermissionsDTO{
				Role: "manager",
				MenuPermissions: authz.MenuPermissions{
					"inventory": authz.BoolValue(true),
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AuditLogged).To(BeTrue())
			Expect(result.User.Role).To(Equal(authz.RoleAdmin))
			Expect(recorder.entries).To(Equal(1))
			Expect(recorder.before.Role).To(Equal(authz.RoleEmployee))
			Expect(recorder.after.Role).To(Equal(authz.RoleAdmin))
		})

		It("keeps the current role when the dto leaves it empty", func() {
			result, err := service.UpdatePermissions(ctx, admin, target.ID, user.UpdatePermissionsDTO{
				MenuPermissions: authz.MenuPermissions{"disposal": authz.BoolValue(true)},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.User.Role).To(Equal(authz.RoleEmployee))
		})

		It("rejects an unrecognized role", func() {
			_, err := service.UpdatePermissions(ctx, admin, target.ID, user.UpdatePermissionsDTO{
				Role: "warlord",
			})
			Expect(err).To(HaveOccurred())
		})

		It("reports a degraded success when the audit write fails", func() {
			recorder.failErr = errors.New("audit store unavailable")
			result, err := service.UpdatePermissions(ctx, admin, target.ID, user.UpdatePermissionsDTO{
				Role: "admin",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AuditLogged).To(BeFalse())
			Expect(result.User.Role).To(Equal(authz.RoleAdmin))

			stored, err := repo.GetByID(ctx, target.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Role).To(Equal(authz.RoleAdmin))
		})

		It("denies the change without the manage-roles capability", func() {
			_, err := service.UpdatePermissions(ctx, approver, target.ID, user.UpdatePermissionsDTO{Role: "admin"})
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})
	})

	Describe("reads", func() {
		It("lets a user read their own record", func() {
			u := register("selfie@store-portal.local")
			self := &authz.Actor{ID: u.ID, Role: authz.RoleEmployee}
			got, err := service.GetUser(ctx, self, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Email).To(Equal("selfie@store-portal.local"))
		})

		It("denies reading someone else's record without the capability", func() {
			u := register("private@store-portal.local")
			_, err := service.GetUser(ctx, employee, u.ID)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("lists users for a manager", func() {
			register("one@store-portal.local")
			register("two@store-portal.local")
			users, err := service.ListUsers(ctx, admin, 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
		})
	})
})
