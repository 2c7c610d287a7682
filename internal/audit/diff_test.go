package audit_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/minhopark/store-portal/internal/audit"
	"github.com/minhopark/store-portal/internal/authz"
)

var _ = Describe("ComputeDiff", func() {
	It("returns nothing for identical snapshots", func() {
		snapshot := audit.PermissionSnapshot{
			Role:  authz.RoleEmployee,
			Menu:  authz.MenuPermissions{"inventory": authz.BoolValue(true)},
			Admin: authz.AdminPermissions{"account_approval": true},
		}
		Expect(audit.ComputeDiff(snapshot, snapshot)).To(BeEmpty())
	})

	It("records a role change", func() {
		diff := audit.ComputeDiff(
			audit.PermissionSnapshot{Role: authz.RoleEmployee},
			audit.PermissionSnapshot{Role: authz.RoleAdmin},
		)
		Expect(diff).To(HaveLen(1))
		Expect(diff[0].Bucket).To(Equal(audit.BucketRole))
		Expect(diff[0].Before).To(Equal("employee"))
		Expect(diff[0].After).To(Equal("admin"))
	})

	It("records changed and one-sided menu keys", func() {
		diff := audit.ComputeDiff(
			audit.PermissionSnapshot{
				Role: authz.RoleEmployee,
				Menu: authz.MenuPermissions{
					"inventory": authz.BoolValue(true),
					"disposal":  authz.BoolValue(true),
				},
			},
			audit.PermissionSnapshot{
				Role: authz.RoleEmployee,
				Menu: authz.MenuPermissions{
					"inventory": authz.BoolValue(false),
					"reports":   authz.BoolValue(true),
				},
			},
		)
		Expect(diff).To(HaveLen(3))

		keys := make([]string, 0, len(diff))
		for _, d := range diff {
			Expect(d.Bucket).To(Equal(audit.BucketMenu))
			keys = append(keys, d.Key)
		}
		Expect(keys).To(ConsistOf("inventory", "disposal", "reports"))
	})

	It("treats a boolean true and an all-true record as equal grants", func() {
		diff := audit.ComputeDiff(
			audit.PermissionSnapshot{
				Role: authz.RoleEmployee,
				Menu: authz.MenuPermissions{"inventory": authz.BoolValue(true)},
			},
			audit.PermissionSnapshot{
				Role: authz.RoleEmployee,
				Menu: authz.MenuPermissions{"inventory": authz.ActionValue(true, true, true)},
			},
		)
		Expect(diff).To(BeEmpty())
	})

	It("records admin capability changes", func() {
		diff := audit.ComputeDiff(
			audit.PermissionSnapshot{
				Role:  authz.RoleAdmin,
				Admin: authz.AdminPermissions{"manage_roles": false},
			},
			audit.PermissionSnapshot{
				Role:  authz.RoleAdmin,
				Admin: authz.AdminPermissions{"manage_roles": true},
			},
		)
		Expect(diff).To(HaveLen(1))
		Expect(diff[0].Bucket).To(Equal(audit.BucketAdmin))
		Expect(diff[0].Key).To(Equal("manage_roles"))
	})
})
