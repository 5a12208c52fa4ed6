package session

import (
	"context"

	"github.com/tunestat/tunestat/core/accounts"
	"github.com/tunestat/tunestat/core/executor"
	"github.com/tunestat/tunestat/core/logger"
	"github.com/tunestat/tunestat/core/shared/errors"
)

// Operation identifiers accepted by the dispatcher
const (
	OpAccountsCreate = "accounts.create"
	OpAccountsUpdate = "accounts.update"
	OpAccountsDelete = "accounts.delete"
	OpAccountsList   = "accounts.list"
	OpQueryRun       = "query.run"

	// OpExit is handled by the controller, not dispatched
	OpExit = "session.exit"
)

// Operation describes one dispatchable operation and the capability it
// requires.
type Operation struct {
	ID         string
	Title      string
	Capability Capability
	handler    func(ctx context.Context, args map[string]any) (any, error)
}

// Dispatcher maps operation selections to the account manager or the
// query executor. The capability check always precedes the handler
// call, so unauthorized selections have no side effect.
type Dispatcher struct {
	ops  []Operation
	byID map[string]*Operation
	log  *logger.Logger
}

// NewDispatcher builds the operation registry over the account manager
// and the query executor.
func NewDispatcher(manager *accounts.Manager, exec *executor.Executor) *Dispatcher {
	d := &Dispatcher{log: logger.New("dispatcher")}

	d.ops = []Operation{
		{
			ID:         OpAccountsCreate,
			Title:      "Create account",
			Capability: CapManageAccounts,
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				username, err := stringArg(args, "username")
				if err != nil {
					return nil, err
				}
				password, err := stringArg(args, "password")
				if err != nil {
					return nil, err
				}
				roleStr, err := stringArg(args, "role")
				if err != nil {
					return nil, err
				}
				role, err := accounts.ParseRole(roleStr)
				if err != nil {
					return nil, err
				}
				return manager.Create(ctx, accounts.CreateInput{Username: username, Password: password, Role: role})
			},
		},
		{
			ID:         OpAccountsUpdate,
			Title:      "Update account",
			Capability: CapManageAccounts,
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				username, err := stringArg(args, "username")
				if err != nil {
					return nil, err
				}
				var in accounts.UpdateInput
				if raw, ok := args["new_password"]; ok {
					pw, ok := raw.(string)
					if !ok {
						return nil, errors.New(errors.ErrCodeValidation, "argument 'new_password' must be a string")
					}
					in.NewPassword = &pw
				}
				if raw, ok := args["new_role"]; ok {
					roleStr, ok := raw.(string)
					if !ok {
						return nil, errors.New(errors.ErrCodeValidation, "argument 'new_role' must be a string")
					}
					role, err := accounts.ParseRole(roleStr)
					if err != nil {
						return nil, err
					}
					in.NewRole = &role
				}
				return manager.Update(ctx, username, in)
			},
		},
		{
			ID:         OpAccountsDelete,
			Title:      "Delete account",
			Capability: CapManageAccounts,
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				username, err := stringArg(args, "username")
				if err != nil {
					return nil, err
				}
				return nil, manager.Delete(ctx, username)
			},
		},
		{
			ID:         OpAccountsList,
			Title:      "List accounts",
			Capability: CapManageAccounts,
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				return manager.List(ctx)
			},
		},
		{
			ID:         OpQueryRun,
			Title:      "Run catalog query",
			Capability: CapRunQueries,
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				rawID, ok := args["query_id"]
				if !ok {
					return nil, errors.New(errors.ErrCodeValidation, "argument 'query_id' is required")
				}
				queryID, ok := rawID.(int)
				if !ok {
					return nil, errors.New(errors.ErrCodeValidation, "argument 'query_id' must be an int")
				}
				params, _ := args["params"].(map[string]any)
				if params == nil {
					params = map[string]any{}
				}
				return exec.Run(ctx, queryID, params)
			},
		},
	}

	d.byID = make(map[string]*Operation, len(d.ops))
	for i := range d.ops {
		d.byID[d.ops[i].ID] = &d.ops[i]
	}
	return d
}

// Dispatch validates the session's capability for the operation and
// routes to the owning component. Typed errors propagate unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *Session, operationID string, args map[string]any) (any, error) {
	op, ok := d.byID[operationID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNotFound, "unknown operation '%s'", operationID)
	}

	if !sess.Has(op.Capability) {
		d.log.Warnf("'%s' denied operation '%s'", sess.Account.Username, operationID)
		return nil, errors.Newf(errors.ErrCodeAuthorization,
			"account '%s' is not authorized for operation '%s'", sess.Account.Username, operationID)
	}

	return op.handler(ctx, args)
}

// OperationsFor returns the operations available to the session, in
// registry order.
func (d *Dispatcher) OperationsFor(sess *Session) []Operation {
	var out []Operation
	for _, op := range d.ops {
		if sess.Has(op.Capability) {
			out = append(out, op)
		}
	}
	return out
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", errors.Newf(errors.ErrCodeValidation, "argument '%s' is required", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.Newf(errors.ErrCodeValidation, "argument '%s' must be a string", key)
	}
	return s, nil
}
