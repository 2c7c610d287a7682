package inventory_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/approval"
	"github.com/minhopark/store-portal/internal/authz"
	"github.com/minhopark/store-portal/internal/inventory"
)

func timeMustParse(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

// MockSheetRepository keeps sheets in a map and honors the conditional-write
// contract of the real repository.
type MockSheetRepository struct {
	sheets     map[int64]*inventory.Sheet
	nextID     int64
	saveDenied bool
	statusFail bool
}

func NewMockSheetRepository() *MockSheetRepository {
	return &MockSheetRepository{sheets: make(map[int64]*inventory.Sheet), nextID: 1}
}

func (m *MockSheetRepository) Create(_ context.Context, sheet *inventory.Sheet) error {
	sheet.ID = m.nextID
	m.nextID++
	copied := *sheet
	m.sheets[sheet.ID] = &copied
	return nil
}

func (m *MockSheetRepository) GetByID(_ context.Context, id int64) (*inventory.Sheet, error) {
	sheet, ok := m.sheets[id]
	if !ok {
		return nil, internal.ErrSheetNotFound
	}
	copied := *sheet
	return &copied, nil
}

func (m *MockSheetRepository) ListByStore(_ context.Context, storeID int64, _, _ int) ([]*inventory.Sheet, error) {
	var result []*inventory.Sheet
	for _, sheet := range m.sheets {
		if sheet.StoreID == storeID {
			copied := *sheet
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockSheetRepository) SaveEditable(_ context.Context, sheet *inventory.Sheet) (bool, error) {
	if m.saveDenied {
		return false, nil
	}
	stored, ok := m.sheets[sheet.ID]
	if !ok {
		return false, internal.ErrSheetNotFound
	}
	if !approval.IsEditable(stored.Status) {
		return false, nil
	}
	copied := *sheet
	m.sheets[sheet.ID] = &copied
	return true, nil
}

func (m *MockSheetRepository) UpdateStatusIf(_ context.Context, id int64, expected, next approval.Status, stamp approval.Stamp) (bool, error) {
	if m.statusFail {
		return false, nil
	}
	stored, ok := m.sheets[id]
	if !ok {
		return false, internal.ErrSheetNotFound
	}
	if stored.Status != expected {
		return false, nil
	}
	stored.Status = next
	if stamp.DiscrepancyReason != "" {
		stored.DiscrepancyReason = stamp.DiscrepancyReason
	}
	if stamp.RejectionReason != "" {
		stored.RejectionReason = stamp.RejectionReason
	}
	return true, nil
}

// MockNotifier records which entities changed.
type MockNotifier struct {
	kinds []string
	ids   []int64
}

func (m *MockNotifier) EntityChanged(_ context.Context, kind string, id int64) {
	m.kinds = append(m.kinds, kind)
	m.ids = append(m.ids, id)
}

var _ = Describe("Inventory Service", func() {
	var (
		repo     *MockSheetRepository
		notifier *MockNotifier
		service  *inventory.Service
		ctx      context.Context

		admin    *authz.Actor
		employee *authz.Actor
		reader   *authz.Actor
	)

	float := func(v float64) *float64 { return &v }

	today := func() time.Time {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	newDTO := func(morning float64) inventory.CreateSheetDTO {
		return inventory.CreateSheetDTO{
			StoreID:      7,
			BusinessDate: today(),
			Items: []inventory.LineItemDTO{{
				ProductName:     "americano beans 1kg",
				PreviousClosing: float(10),
				Inbound:         float(5),
				MorningStock:    float(morning),
				ClosingStock:    float(12),
			}},
		}
	}

	BeforeEach(func() {
		repo = NewMockSheetRepository()
		notifier = &MockNotifier{}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		resolver := authz.NewResolver(authz.DefaultRegistry(), logger)
		service = inventory.NewService(repo, resolver, notifier, 1, logger)
		ctx = context.Background()

		admin = &authz.Actor{ID: 1, Role: authz.RoleAdmin}
		employee = &authz.Actor{ID: 2, Role: authz.RoleEmployee, Menu: authz.MenuPermissions{
			"inventory": authz.ActionValue(true, true, false),
		}}
		reader = &authz.Actor{ID: 3, Role: authz.RoleEmployee, Menu: authz.MenuPermissions{
			"inventory": authz.ActionValue(true, false, false),
		}}
	})

	Describe("CreateSheet", func() {
		It("creates a draft when the counts reconcile", func() {
			sheet, err := service.CreateSheet(ctx, employee, newDTO(15))
			Expect(err).NotTo(HaveOccurred())
			Expect(sheet.Status).To(Equal(approval.StatusDraft))
			Expect(sheet.Items[0].ExpectedMorning).To(Equal(15.0))
			Expect(sheet.Items[0].WithinTolerance).To(BeTrue())
			Expect(notifier.kinds).To(ContainElement("inventory_sheet"))
		})

		It("creates a discrepant sheet when a count is off", func() {
			sheet, err := service.CreateSheet(ctx, employee, newDTO(14))
			Expect(err).NotTo(HaveOccurred())
			Expect(sheet.Status).To(Equal(approval.StatusDiscrepant))
			Expect(sheet.Items[0].Discrepancy).To(Equal(-1.0))
		})

		It("denies an actor without write permission", func() {
			_, err := service.CreateSheet(ctx, reader, newDTO(15))
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("refuses a back-dated sheet from an employee outside the window", func() {
			dto := newDTO(15)
			dto.BusinessDate = today().AddDate(0, 0, -5)
			_, err := service.CreateSheet(ctx, employee, dto)
			Expect(err).To(Equal(internal.ErrEditWindowClosed))
		})

		It("exempts admins from the edit window", func() {
			dto := newDTO(15)
			dto.BusinessDate = today().AddDate(0, 0, -5)
			sheet, err := service.CreateSheet(ctx, admin, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(sheet.ID).NotTo(BeZero())
		})
	})

	Describe("UpdateLines", func() {
		var sheetID int64

		BeforeEach(func() {
			sheet, err := service.CreateSheet(ctx, employee, newDTO(15))
			Expect(err).NotTo(HaveOccurred())
			sheetID = sheet.ID
		})

		It("recomputes derived values from the new raw counts", func() {
			updated, err := service.UpdateLines(ctx, employee, sheetID, inventory.UpdateLinesDTO{
				Items: []inventory.LineItemDTO{{
					ProductName:     "americano beans 1kg",
					PreviousClosing: float(10),
					Inbound:         float(5),
					MorningStock:    float(15.5),
					ClosingStock:    float(12),
				}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(approval.StatusDiscrepant))
			Expect(updated.Items[0].Discrepancy).To(Equal(0.5))
		})

		It("refuses to edit an approved sheet", func() {
			repo.sheets[sheetID].Status = approval.StatusApproved
			_, err := service.UpdateLines(ctx, employee, sheetID, inventory.UpdateLinesDTO{
				Items: []inventory.LineItemDTO{{ProductName: "x", MorningStock: float(1)}},
			})
			Expect(err).To(Equal(internal.ErrApprovedReadOnly))
		})

		It("refuses to edit a sheet awaiting approval", func() {
			repo.sheets[sheetID].Status = approval.StatusApprovalRequested
			_, err := service.UpdateLines(ctx, employee, sheetID, inventory.UpdateLinesDTO{
				Items: []inventory.LineItemDTO{{ProductName: "x", MorningStock: float(1)}},
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatusTransition))
		})

		It("surfaces a stale-status conflict when the conditional save loses", func() {
			repo.saveDenied = true
			_, err := service.UpdateLines(ctx, employee, sheetID, inventory.UpdateLinesDTO{
				Items: []inventory.LineItemDTO{{ProductName: "x", MorningStock: float(1)}},
			})
			Expect(err).To(Equal(internal.ErrStaleStatus))
		})
	})

	Describe("approval flow", func() {
		var sheetID int64

		BeforeEach(func() {
			sheet, err := service.CreateSheet(ctx, employee, newDTO(14))
			Expect(err).NotTo(HaveOccurred())
			sheetID = sheet.ID
		})

		It("requires a reason to request approval of a discrepant sheet", func() {
			_, err := service.RequestApproval(ctx, employee, sheetID, inventory.RequestApprovalDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDiscrepancyReasonMissing))
		})

		It("walks a sheet through request, approve", func() {
			requested, err := service.RequestApproval(ctx, employee, sheetID, inventory.RequestApprovalDTO{
				DiscrepancyReason: "spoiled batch discarded",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(requested.Status).To(Equal(approval.StatusApprovalRequested))
			Expect(requested.DiscrepancyReason).To(Equal("spoiled batch discarded"))

			approved, err := service.Approve(ctx, admin, sheetID)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(approval.StatusApproved))
		})

		It("returns a rejected sheet to draft with the reason recorded", func() {
			_, err := service.RequestApproval(ctx, employee, sheetID, inventory.RequestApprovalDTO{
				DiscrepancyReason: "spoiled batch discarded",
			})
			Expect(err).NotTo(HaveOccurred())

			rejected, err := service.Reject(ctx, admin, sheetID, inventory.RejectSheetDTO{Reason: "recount required"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(approval.StatusDraft))
			Expect(rejected.RejectionReason).To(Equal("recount required"))
		})

		It("denies approval to an actor without the approve action", func() {
			_, err := service.RequestApproval(ctx, employee, sheetID, inventory.RequestApprovalDTO{
				DiscrepancyReason: "spoiled batch discarded",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Approve(ctx, employee, sheetID)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("surfaces a stale-status conflict on a lost approve race", func() {
			_, err := service.RequestApproval(ctx, employee, sheetID, inventory.RequestApprovalDTO{
				DiscrepancyReason: "spoiled batch discarded",
			})
			Expect(err).NotTo(HaveOccurred())

			repo.statusFail = true
			_, err = service.Approve(ctx, admin, sheetID)
			Expect(err).To(Equal(internal.ErrStaleStatus))
		})
	})

	Describe("reads", func() {
		It("lists sheets for a store to any reader", func() {
			_, err := service.CreateSheet(ctx, employee, newDTO(15))
			Expect(err).NotTo(HaveOccurred())

			sheets, err := service.ListSheets(ctx, reader, 7, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(sheets).To(HaveLen(1))
		})

		It("denies reads without the read action", func() {
			blind := &authz.Actor{ID: 9, Role: authz.RoleEmployee}
			_, err := service.GetSheet(ctx, blind, 1)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("reports a missing sheet", func() {
			_, err := service.GetSheet(ctx, reader, 999)
			Expect(err).To(Equal(internal.ErrSheetNotFound))
		})
	})
})
