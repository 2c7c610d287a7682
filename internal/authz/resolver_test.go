package authz_test

import (
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/minhopark/store-portal/internal/authz"
)

var _ = Describe("Resolver", func() {
	var resolver *authz.Resolver

	newActor := func(role authz.Role) *authz.Actor {
		return &authz.Actor{ID: 1, Role: role}
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		resolver = authz.NewResolver(authz.DefaultRegistry(), logger)
	})

	Describe("CanAccess", func() {
		Context("with no actor", func() {
			It("denies everything, even empty requirements", func() {
				Expect(resolver.CanAccess(nil, authz.Requirement{})).To(BeFalse())
				Expect(resolver.CanAccess(nil, authz.RequireMenu(authz.ActionRead, "inventory"))).To(BeFalse())
			})
		})

		Context("with a superadmin", func() {
			It("allows everything regardless of matrices", func() {
				actor := newActor(authz.RoleSuperadmin)
				Expect(resolver.CanAccess(actor, authz.RequireMenu(authz.ActionApprove, "inventory"))).To(BeTrue())
				Expect(resolver.CanAccess(actor, authz.RequireAdmin(authz.CapabilityManageRoles))).To(BeTrue())
				Expect(resolver.CanAccess(actor, authz.RequireRoles(authz.RoleAdmin))).To(BeTrue())
			})

			It("allows even when the matrix explicitly disables the key", func() {
				actor := newActor(authz.RoleSuperadmin)
				actor.Menu = authz.MenuPermissions{"inventory": authz.BoolValue(false)}
				Expect(resolver.CanAccess(actor, authz.RequireMenu(authz.ActionRead, "inventory"))).To(BeTrue())
			})
		})

		Context("role membership requirements", func() {
			It("allows when the actor's role is in the set", func() {
				actor := newActor(authz.RoleEmployee)
				Expect(resolver.CanAccess(actor, authz.RequireRoles(authz.RoleAdmin, authz.RoleEmployee))).To(BeTrue())
			})

			It("denies when the actor's role is not in the set", func() {
				actor := newActor(authz.RoleEmployee)
				Expect(resolver.CanAccess(actor, authz.RequireRoles(authz.RoleAdmin))).To(BeFalse())
			})
		})

		Context("menu key requirements", func() {
			It("resolves a boolean-shaped value for any action", func() {
				actor := newActor(authz.RoleEmployee)
				actor.Menu = authz.MenuPermissions{"inventory": authz.BoolValue(true)}

				Expect(resolver.CanAccess(actor, authz.RequireMenu(authz.ActionRead, "inventory"))).To(BeTrue())
				Expect(resolver.CanAccess(actor, authz.RequireMenu(authz.ActionWrite, "inventory"))).To(BeTrue())
				Expect(resolver.CanAccess(actor, authz.RequireMenu(authz.ActionApprove, "inventory"))).To(BeTrue())
			})

			It("resolves a record-shaped value per action", func() {
				actor := newActor(authz.RoleEmployee)
				actor.Menu = authz.MenuPermissions{"inventory": authz.ActionValue(true, true, false)}

				Expect(resolver.CanAccess(actor, authz.RequireMenu(authz.ActionRead, "inventory"))).To(BeTrue())
				Expect(resolver.CanAccess(actor, authz.RequireMenu(authz.ActionWrite, "inventory"))).To(BeTrue())
				Expect(resolver.CanAccess(actor, authz.RequireMenu(authz.ActionApprove, "inventory"))).To(BeFalse())
			})

			It("treats the zero action as any", func() {
				actor := newActor(authz.RoleEmployee)
				actor.Menu = authz.MenuPermissions{"inventory": authz.ActionValue(false, false, true)}

				Expect(resolver.CanAccess(actor, authz.Requirement{MenuKeys: []string{"inventory"}})).To(BeTrue())
			})

			It("grants if any of several keys resolves true", func() {
				actor := newActor(authz.RoleEmployee)
				actor.Menu = authz.MenuPermissions{
					"inventory": authz.BoolValue(false),
					"disposal":  authz.BoolValue(true),
				}
				Expect(resolver.CanAccess(actor, authz.RequireMenu(authz.ActionAny, "inventory", "disposal"))).To(BeTrue())
			})

			It("defaults an absent key to allow for admins and deny for employees", func() {
				admin := newActor(authz.RoleAdmin)
				employee := newActor(authz.RoleEmployee)

				req := authz.RequireMenu(authz.ActionRead, "unconfigured")
				Expect(resolver.CanAccess(admin, req)).To(BeTrue())
				Expect(resolver.CanAccess(employee, req)).To(BeFalse())
			})

			It("prefers an explicit matrix value over the admin default", func() {
				admin := newActor(authz.RoleAdmin)
				admin.Menu = authz.MenuPermissions{"inventory": authz.BoolValue(false)}
				Expect(resolver.CanAccess(admin, authz.RequireMenu(authz.ActionRead, "inventory"))).To(BeFalse())
			})
		})

		Context("admin capability requirements", func() {
			It("allows via the role grant set", func() {
				admin := newActor(authz.RoleAdmin)
				Expect(resolver.CanAccess(admin, authz.RequireAdmin(authz.CapabilityAccountApproval))).To(BeTrue())
			})

			It("allows via the explicit per-user flag", func() {
				employee := newActor(authz.RoleEmployee)
				employee.Admin = authz.AdminPermissions{string(authz.CapabilityViewAuditLog): true}
				Expect(resolver.CanAccess(employee, authz.RequireAdmin(authz.CapabilityViewAuditLog))).To(BeTrue())
			})

			It("denies when neither grant set nor flag carries the capability", func() {
				employee := newActor(authz.RoleEmployee)
				Expect(resolver.CanAccess(employee, authz.RequireAdmin(authz.CapabilityManageRoles))).To(BeFalse())
			})
		})

		Context("empty requirements", func() {
			It("allows any authenticated actor", func() {
				Expect(resolver.CanAccess(newActor(authz.RoleEmployee), authz.Requirement{})).To(BeTrue())
			})
		})
	})
})

var _ = Describe("Role normalization", func() {
	It("maps synonyms onto canonical roles", func() {
		Expect(authz.Normalize("master")).To(Equal(authz.RoleSuperadmin))
		Expect(authz.Normalize("manager")).To(Equal(authz.RoleAdmin))
		Expect(authz.Normalize("staff")).To(Equal(authz.RoleEmployee))
		Expect(authz.Normalize("parttime")).To(Equal(authz.RoleEmployee))
	})

	It("is case and whitespace insensitive", func() {
		Expect(authz.Normalize("  Manager ")).To(Equal(authz.RoleAdmin))
		Expect(authz.Normalize("SUPERADMIN")).To(Equal(authz.RoleSuperadmin))
	})

	It("is idempotent on canonical roles", func() {
		for _, role := range []authz.Role{authz.RoleSuperadmin, authz.RoleAdmin, authz.RoleEmployee} {
			Expect(authz.Normalize(string(role))).To(Equal(role))
		}
	})

	It("passes unknown values through unchanged", func() {
		Expect(string(authz.Normalize("auditor"))).To(Equal("auditor"))
		Expect(authz.Normalize("auditor").IsKnown()).To(BeFalse())
	})
})

var _ = Describe("Guard", func() {
	var guard *authz.Guard

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		resolver := authz.NewResolver(authz.DefaultRegistry(), logger)
		guard = authz.NewGuard(resolver, "/forbidden")
	})

	It("suspends while identity resolution is in flight", func() {
		decision := guard.Check(nil, false, authz.RequireMenu(authz.ActionRead, "inventory"), "/inventory")
		Expect(decision.Verdict).To(Equal(authz.VerdictPending))
		Expect(decision.RedirectTo).To(BeEmpty())
	})

	It("allows a permitted action", func() {
		actor := &authz.Actor{ID: 1, Role: authz.RoleSuperadmin}
		decision := guard.Check(actor, true, authz.RequireMenu(authz.ActionWrite, "inventory"), "/inventory")
		Expect(decision.Verdict).To(Equal(authz.VerdictAllow))
	})

	It("denies with a redirect preserving the requested location", func() {
		actor := &authz.Actor{ID: 1, Role: authz.RoleEmployee}
		decision := guard.Check(actor, true, authz.RequireMenu(authz.ActionApprove, "inventory"), "/inventory/42?tab=lines")
		Expect(decision.Verdict).To(Equal(authz.VerdictDeny))
		Expect(decision.RedirectTo).To(Equal("/forbidden?from=%2Finventory%2F42%3Ftab%3Dlines"))
	})

	It("denies a loaded-but-absent identity rather than suspending", func() {
		decision := guard.Check(nil, true, authz.RequireMenu(authz.ActionRead, "inventory"), "/inventory")
		Expect(decision.Verdict).To(Equal(authz.VerdictDeny))
	})
})
