package session

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunestat/tunestat/core/accounts"
	"github.com/tunestat/tunestat/core/shared/errors"
)

type selection struct {
	operationID string
	args        map[string]any
}

// scriptedTerminal replays canned credentials and selections, and
// records everything shown to it.
type scriptedTerminal struct {
	creds      [][2]string
	selections []selection

	shownResults []string
	shownErrors  []error

	// beforeSelect, when set, runs once before the first selection is
	// returned. Used to break the backend mid-session.
	beforeSelect func()
}

func (s *scriptedTerminal) Credentials() (string, string, error) {
	if len(s.creds) == 0 {
		return "", "", io.EOF
	}
	c := s.creds[0]
	s.creds = s.creds[1:]
	return c[0], c[1], nil
}

func (s *scriptedTerminal) Select(sess *Session, ops []Operation) (string, map[string]any, error) {
	if s.beforeSelect != nil {
		s.beforeSelect()
		s.beforeSelect = nil
	}
	if len(s.selections) == 0 {
		return OpExit, nil, nil
	}
	sel := s.selections[0]
	s.selections = s.selections[1:]
	return sel.operationID, sel.args, nil
}

func (s *scriptedTerminal) ShowResult(operationID string, result any) {
	s.shownResults = append(s.shownResults, operationID)
}

func (s *scriptedTerminal) ShowError(err error) {
	s.shownErrors = append(s.shownErrors, err)
}

func newController(t *testing.T, stack *testStack, term Terminal, maxAttempts int) *Controller {
	t.Helper()
	return NewController(stack.creds, stack.dispatcher, term, maxAttempts)
}

func TestControllerHappyPath(t *testing.T) {
	stack := newTestStack(t, "ctrlhappy")
	term := &scriptedTerminal{
		creds: [][2]string{{"admin", "rootpw"}},
		selections: []selection{
			{OpAccountsCreate, map[string]any{"username": "alice", "password": "pw1", "role": "user"}},
			{OpAccountsList, nil},
			{OpExit, nil},
		},
	}

	c := newController(t, stack, term, 3)
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, StateTerminated, c.State())
	assert.Equal(t, []string{OpAccountsCreate, OpAccountsList}, term.shownResults)
	assert.Empty(t, term.shownErrors)
}

func TestControllerRetriesThenSucceeds(t *testing.T) {
	stack := newTestStack(t, "ctrlretry")
	term := &scriptedTerminal{
		creds: [][2]string{
			{"admin", "wrong"},
			{"admin", "rootpw"},
		},
	}

	c := newController(t, stack, term, 3)
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, StateTerminated, c.State())
	require.Len(t, term.shownErrors, 1)
	assert.Equal(t, errors.ErrCodeAuthentication, errors.CodeOf(term.shownErrors[0]))
}

func TestControllerExhaustsLoginAttempts(t *testing.T) {
	stack := newTestStack(t, "ctrlexhaust")
	term := &scriptedTerminal{
		creds: [][2]string{
			{"admin", "wrong"},
			{"mallory", "guess"},
			{"admin", "stillwrong"},
		},
	}

	c := newController(t, stack, term, 3)
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthentication, errors.CodeOf(err))
	assert.Equal(t, StateTerminated, c.State())
	assert.Len(t, term.shownErrors, 3)
}

func TestControllerUserMenuDeniesAccountOperations(t *testing.T) {
	stack := newTestStack(t, "ctrlusermenu")
	ctx := context.Background()

	_, err := stack.manager.Create(ctx,
		accounts.CreateInput{Username: "alice", Password: "pw1", Role: accounts.RoleUser})
	require.NoError(t, err)

	term := &scriptedTerminal{
		creds: [][2]string{{"alice", "pw1"}},
		selections: []selection{
			// Denied, then the loop re-presents the menu
			{OpAccountsDelete, map[string]any{"username": "admin"}},
			{OpExit, nil},
		},
	}

	c := newController(t, stack, term, 3)
	require.NoError(t, c.Run(ctx))

	assert.Equal(t, StateTerminated, c.State())
	require.Len(t, term.shownErrors, 1)
	assert.Equal(t, errors.ErrCodeAuthorization, errors.CodeOf(term.shownErrors[0]))
	assert.Empty(t, term.shownResults)

	// Accounts unchanged: admin still present
	list, err := stack.manager.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestControllerRecoverableErrorKeepsLooping(t *testing.T) {
	stack := newTestStack(t, "ctrlrecover")
	term := &scriptedTerminal{
		creds: [][2]string{{"admin", "rootpw"}},
		selections: []selection{
			// Not found is recoverable
			{OpAccountsDelete, map[string]any{"username": "ghost"}},
			{OpAccountsList, nil},
			{OpExit, nil},
		},
	}

	c := newController(t, stack, term, 3)
	require.NoError(t, c.Run(context.Background()))

	require.Len(t, term.shownErrors, 1)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(term.shownErrors[0]))
	assert.Equal(t, []string{OpAccountsList}, term.shownResults)
}

func TestControllerFatalErrorTerminates(t *testing.T) {
	stack := newTestStack(t, "ctrlfatal")
	term := &scriptedTerminal{
		creds: [][2]string{{"admin", "rootpw"}},
		selections: []selection{
			{OpAccountsList, nil},
			{OpAccountsList, nil},
		},
	}

	// Closing the backend after login makes the next dispatch fail with
	// a connection error, which must terminate the session.
	term.beforeSelect = func() {
		require.NoError(t, stack.conn.Close())
	}

	c := newController(t, stack, term, 3)
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConnectionFailed, errors.CodeOf(err))
	assert.Equal(t, StateTerminated, c.State())
	require.Len(t, term.shownErrors, 1)
}

func TestControllerTerminalInputFailure(t *testing.T) {
	stack := newTestStack(t, "ctrleof")
	term := &scriptedTerminal{}

	c := newController(t, stack, term, 3)
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateTerminated, c.State())
}
