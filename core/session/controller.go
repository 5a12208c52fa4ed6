package session

import (
	"context"

	"github.com/tunestat/tunestat/core/accounts"
	"github.com/tunestat/tunestat/core/logger"
	"github.com/tunestat/tunestat/core/shared/errors"
)

// State is the session controller's lifecycle state
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAdminMenu
	StateUserMenu
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAdminMenu:
		return "admin-menu"
	case StateUserMenu:
		return "user-menu"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Terminal supplies credentials and operation selections and renders
// results. The CLI owns the concrete implementation; the controller
// only sees this contract.
type Terminal interface {
	// Credentials prompts for one authentication attempt.
	Credentials() (username, password string, err error)

	// Select presents the available operations and returns the chosen
	// operation id with its arguments. Returning OpExit ends the session.
	Select(sess *Session, ops []Operation) (operationID string, args map[string]any, err error)

	// ShowResult renders a successful operation result.
	ShowResult(operationID string, result any)

	// ShowError renders an operation or authentication error.
	ShowError(err error)
}

// Controller runs one console session:
// Unauthenticated -> Authenticating -> {AdminMenu | UserMenu} -> Terminated.
// Terminated is absorbing.
type Controller struct {
	creds       *accounts.CredentialStore
	dispatcher  *Dispatcher
	term        Terminal
	maxAttempts int
	state       State
	log         *logger.Logger
}

// NewController creates a session controller
func NewController(creds *accounts.CredentialStore, dispatcher *Dispatcher, term Terminal, maxAttempts int) *Controller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Controller{
		creds:       creds,
		dispatcher:  dispatcher,
		term:        term,
		maxAttempts: maxAttempts,
		state:       StateUnauthenticated,
		log:         logger.New("session"),
	}
}

// State returns the controller's current state
func (c *Controller) State() State {
	return c.state
}

// Run authenticates and then loops on operation selections until the
// actor exits or a fatal error occurs. Recoverable errors re-present
// the menu; connection failures terminate the session.
func (c *Controller) Run(ctx context.Context) error {
	sess, err := c.authenticate(ctx)
	if err != nil {
		c.state = StateTerminated
		return err
	}

	if sess.IsAdmin() {
		c.state = StateAdminMenu
	} else {
		c.state = StateUserMenu
	}
	c.log.Infof("session started for '%s' (%s)", sess.Account.Username, sess.Account.Role)

	for {
		ops := c.dispatcher.OperationsFor(sess)
		operationID, args, err := c.term.Select(sess, ops)
		if err != nil {
			// Terminal input failed; nothing left to drive the loop.
			c.state = StateTerminated
			return err
		}

		if operationID == OpExit {
			c.log.Infof("session ended for '%s'", sess.Account.Username)
			c.state = StateTerminated
			return nil
		}

		result, err := c.dispatcher.Dispatch(ctx, sess, operationID, args)
		if err != nil {
			c.term.ShowError(err)
			if errors.IsFatal(err) {
				c.log.Errorf("fatal error, terminating session: %v", err)
				c.state = StateTerminated
				return err
			}
			continue
		}
		c.term.ShowResult(operationID, result)
	}
}

// authenticate performs up to maxAttempts authentication attempts.
// Each failed attempt transitions back to Unauthenticated; exhausting
// the budget terminates the session.
func (c *Controller) authenticate(ctx context.Context) (*Session, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		c.state = StateAuthenticating

		username, password, err := c.term.Credentials()
		if err != nil {
			return nil, err
		}

		acct, err := c.creds.Authenticate(ctx, username, password)
		if err == nil {
			return New(acct), nil
		}

		c.term.ShowError(err)
		if errors.IsFatal(err) {
			return nil, err
		}
		c.state = StateUnauthenticated
	}
	return nil, errors.Newf(errors.ErrCodeAuthentication,
		"maximum login attempts exceeded (%d)", c.maxAttempts)
}
