// Package session drives the authenticated console session: the state
// machine that authenticates an actor, grants a capability set, and
// dispatches operation selections until logout or a fatal failure.
package session

import (
	"time"

	"github.com/tunestat/tunestat/core/accounts"
)

// Capability is one category of operations a session may invoke
type Capability string

const (
	CapManageAccounts Capability = "manage-accounts"
	CapRunQueries     Capability = "run-queries"
)

// Session is the live authenticated context for one actor. It is
// created on successful authentication, never persisted, and dies with
// the process.
type Session struct {
	Account      accounts.Account
	StartedAt    time.Time
	capabilities map[Capability]bool
}

// New creates a session for the authenticated account. Admin sessions
// hold both capabilities; user sessions hold only query execution.
func New(acct *accounts.Account) *Session {
	caps := map[Capability]bool{CapRunQueries: true}
	if acct.Role == accounts.RoleAdmin {
		caps[CapManageAccounts] = true
	}
	return &Session{
		Account:      *acct,
		StartedAt:    time.Now(),
		capabilities: caps,
	}
}

// Has reports whether the session holds the capability
func (s *Session) Has(cap Capability) bool {
	return s.capabilities[cap]
}

// IsAdmin reports whether the session belongs to an admin account
func (s *Session) IsAdmin() bool {
	return s.Has(CapManageAccounts)
}
