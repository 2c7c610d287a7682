package disposal_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/approval"
	"github.com/minhopark/store-portal/internal/authz"
	"github.com/minhopark/store-portal/internal/disposal"
)

// MockDisposalRepository keeps requests in a map and honors the
// conditional-write contract of the real repository.
type MockDisposalRepository struct {
	requests   map[int64]*disposal.Request
	nextID     int64
	statusFail bool
}

func NewMockDisposalRepository() *MockDisposalRepository {
	return &MockDisposalRepository{requests: make(map[int64]*disposal.Request), nextID: 1}
}

func (m *MockDisposalRepository) Create(_ context.Context, req *disposal.Request) error {
	req.ID = m.nextID
	m.nextID++
	copied := *req
	m.requests[req.ID] = &copied
	return nil
}

func (m *MockDisposalRepository) GetByID(_ context.Context, id int64) (*disposal.Request, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, internal.ErrDisposalNotFound
	}
	copied := *req
	return &copied, nil
}

func (m *MockDisposalRepository) ListByStore(_ context.Context, storeID int64, _, _ int) ([]*disposal.Request, error) {
	var result []*disposal.Request
	for _, req := range m.requests {
		if req.StoreID == storeID {
			copied := *req
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockDisposalRepository) SaveEditable(_ context.Context, req *disposal.Request) (bool, error) {
	stored, ok := m.requests[req.ID]
	if !ok {
		return false, internal.ErrDisposalNotFound
	}
	if !approval.IsEditable(stored.Status) {
		return false, nil
	}
	copied := *req
	m.requests[req.ID] = &copied
	return true, nil
}

func (m *MockDisposalRepository) UpdateStatusIf(_ context.Context, id int64, expected, next approval.Status, stamp approval.Stamp) (bool, error) {
	if m.statusFail {
		return false, nil
	}
	stored, ok := m.requests[id]
	if !ok {
		return false, internal.ErrDisposalNotFound
	}
	if stored.Status != expected {
		return false, nil
	}
	stored.Status = next
	if stamp.RejectionReason != "" {
		stored.RejectionReason = stamp.RejectionReason
	}
	return true, nil
}

type MockNotifier struct {
	kinds []string
}

func (m *MockNotifier) EntityChanged(_ context.Context, kind string, _ int64) {
	m.kinds = append(m.kinds, kind)
}

var _ = Describe("Disposal Service", func() {
	var (
		repo     *MockDisposalRepository
		notifier *MockNotifier
		service  *disposal.Service
		ctx      context.Context

		admin    *authz.Actor
		employee *authz.Actor
	)

	float := func(v float64) *float64 { return &v }

	newDTO := func() disposal.CreateRequestDTO {
		return disposal.CreateRequestDTO{
			StoreID:     7,
			ProductName: "milk 1L",
			Quantity:    float(3),
			Reason:      "past expiry date",
		}
	}

	BeforeEach(func() {
		repo = NewMockDisposalRepository()
		notifier = &MockNotifier{}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		resolver := authz.NewResolver(authz.DefaultRegistry(), logger)
		service = disposal.NewService(repo, resolver, notifier, logger)
		ctx = context.Background()

		admin = &authz.Actor{ID: 1, Role: authz.RoleAdmin}
		employee = &authz.Actor{ID: 2, Role: authz.RoleEmployee, Menu: authz.MenuPermissions{
			"disposal": authz.ActionValue(true, true, false),
		}}
	})

	Describe("CreateRequest", func() {
		It("creates a draft request and notifies", func() {
			req, err := service.CreateRequest(ctx, employee, newDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(approval.StatusDraft))
			Expect(notifier.kinds).To(ContainElement("disposal_request"))
		})

		It("rejects a non-positive quantity", func() {
			dto := newDTO()
			dto.Quantity = float(0)
			_, err := service.CreateRequest(ctx, employee, dto)
			Expect(err).To(HaveOccurred())
			_, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
		})

		It("rejects a missing reason", func() {
			dto := newDTO()
			dto.Reason = ""
			_, err := service.CreateRequest(ctx, employee, dto)
			Expect(err).To(HaveOccurred())
		})

		It("denies an actor without write permission", func() {
			blind := &authz.Actor{ID: 9, Role: authz.RoleEmployee}
			_, err := service.CreateRequest(ctx, blind, newDTO())
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})
	})

	Describe("UpdateRequest", func() {
		var id int64

		BeforeEach(func() {
			req, err := service.CreateRequest(ctx, employee, newDTO())
			Expect(err).NotTo(HaveOccurred())
			id = req.ID
		})

		It("updates an editable request", func() {
			updated, err := service.UpdateRequest(ctx, employee, id, disposal.UpdateRequestDTO{
				ProductName: "milk 1L",
				Quantity:    float(5),
				Reason:      "dropped crate, cartons burst",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Quantity).To(Equal(5.0))
		})

		It("refuses to edit an approved request", func() {
			repo.requests[id].Status = approval.StatusApproved
			_, err := service.UpdateRequest(ctx, employee, id, disposal.UpdateRequestDTO{
				ProductName: "milk 1L",
				Quantity:    float(5),
				Reason:      "late edit",
			})
			Expect(err).To(Equal(internal.ErrApprovedReadOnly))
		})

		It("refuses to edit a request awaiting approval", func() {
			repo.requests[id].Status = approval.StatusApprovalRequested
			_, err := service.UpdateRequest(ctx, employee, id, disposal.UpdateRequestDTO{
				ProductName: "milk 1L",
				Quantity:    float(5),
				Reason:      "late edit",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatusTransition))
		})
	})

	Describe("approval flow", func() {
		var id int64

		BeforeEach(func() {
			req, err := service.CreateRequest(ctx, employee, newDTO())
			Expect(err).NotTo(HaveOccurred())
			id = req.ID
		})

		It("walks a request through request and approve", func() {
			requested, err := service.RequestApproval(ctx, employee, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(requested.Status).To(Equal(approval.StatusApprovalRequested))

			approved, err := service.Approve(ctx, admin, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(approval.StatusApproved))
		})

		It("returns a rejected request to draft", func() {
			_, err := service.RequestApproval(ctx, employee, id)
			Expect(err).NotTo(HaveOccurred())

			rejected, err := service.Reject(ctx, admin, id, disposal.RejectRequestDTO{Reason: "photo missing"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(approval.StatusDraft))
			Expect(rejected.RejectionReason).To(Equal("photo missing"))
		})

		It("requires a rejection reason", func() {
			_, err := service.RequestApproval(ctx, employee, id)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Reject(ctx, admin, id, disposal.RejectRequestDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeRejectionReasonMissing))
		})

		It("denies approval to an actor without the approve action", func() {
			_, err := service.RequestApproval(ctx, employee, id)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Approve(ctx, employee, id)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("surfaces a stale-status conflict on a lost approve race", func() {
			_, err := service.RequestApproval(ctx, employee, id)
			Expect(err).NotTo(HaveOccurred())

			repo.statusFail = true
			_, err = service.Approve(ctx, admin, id)
			Expect(err).To(Equal(internal.ErrStaleStatus))
		})

		It("never enters the discrepant state", func() {
			requested, err := service.RequestApproval(ctx, employee, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(requested.Status).NotTo(Equal(approval.StatusDiscrepant))
		})
	})

	Describe("reads", func() {
		It("reports a missing request", func() {
			_, err := service.GetRequest(ctx, employee, 999)
			Expect(err).To(Equal(internal.ErrDisposalNotFound))
		})

		It("lists requests for a store", func() {
			_, err := service.CreateRequest(ctx, employee, newDTO())
			Expect(err).NotTo(HaveOccurred())

			requests, err := service.ListRequests(ctx, employee, 7, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(requests).To(HaveLen(1))
		})
	})
})
