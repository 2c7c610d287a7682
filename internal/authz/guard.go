package authz

import (
	"net/url"
)

// Verdict is the outcome of guarding a protected action.
type Verdict int

const (
	// VerdictPending means identity resolution is still in flight. The
	// caller must render/do nothing rather than default-allow or deny,
	// to avoid a flash of forbidden content or a premature grant.
	VerdictPending Verdict = iota
	// VerdictAllow lets the action proceed.
	VerdictAllow
	// VerdictDeny blocks the action and carries a redirect target.
	VerdictDeny
)

// Decision is a Verdict plus the redirect produced on deny.
type Decision struct {
	Verdict Verdict
	// RedirectTo is the forbidden destination, with the originally
	// requested location preserved for an optional post-auth return.
	RedirectTo string
}

// Guard gates navigation and mutation actions on Resolver decisions.
type Guard struct {
	resolver      *Resolver
	forbiddenPath string
}

const defaultForbiddenPath = "/forbidden"

func NewGuard(resolver *Resolver, forbiddenPath string) *Guard {
	if forbiddenPath == "" {
		forbiddenPath = defaultForbiddenPath
	}
	return &Guard{resolver: resolver, forbiddenPath: forbiddenPath}
}

// Check evaluates a requirement for the actor. identityLoaded distinguishes
// "no identity yet" (suspend) from "identity known to be absent" (deny):
// an in-flight permission fetch must be neither-allow-nor-deny.
func (g *Guard) Check(actor *Actor, identityLoaded bool, req Requirement, requestedLocation string) Decision {
	if !identityLoaded {
		return Decision{Verdict: VerdictPending}
	}
	if g.resolver.CanAccess(actor, req) {
		return Decision{Verdict: VerdictAllow}
	}
	return Decision{
		Verdict:    VerdictDeny,
		RedirectTo: g.redirectURL(requestedLocation),
	}
}

func (g *Guard) redirectURL(requestedLocation string) string {
	if requestedLocation == "" {
		return g.forbiddenPath
	}
	return g.forbiddenPath + "?from=" + url.QueryEscape(requestedLocation)
}
