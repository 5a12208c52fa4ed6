package accounts

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/tunestat/tunestat/core/connectors"
	"github.com/tunestat/tunestat/core/logger"
	"github.com/tunestat/tunestat/core/shared/errors"
)

const opTimeout = 3 * time.Second

// Manager performs account CRUD against the backend. Callers are
// expected to hold the ManageAccounts capability; enforcement lives in
// the dispatcher. Validation always precedes any write, including the
// cross-record "at least one admin" check.
type Manager struct {
	conn       connectors.Connector
	bcryptCost int
	validate   *validator.Validate
	log        *logger.Logger
}

// NewManager creates an account manager
func NewManager(conn connectors.Connector, bcryptCost int) *Manager {
	return &Manager{
		conn:       conn,
		bcryptCost: bcryptCost,
		validate:   validator.New(),
		log:        logger.New("accounts"),
	}
}

// CreateInput carries the fields for a new account
type CreateInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Role     Role   `validate:"required,oneof=admin user"`
}

// Create inserts a new account. Fails with DUPLICATE_USERNAME when the
// username exists and VALIDATION_ERROR on empty or malformed fields.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*Account, error) {
	if err := m.validate.Struct(in); err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation, "invalid account fields", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	existing, err := fetchAccount(ctx, m.conn, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Newf(errors.ErrCodeDuplicateUsername, "account '%s' already exists", in.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), m.bcryptCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation, "failed to hash password", err)
	}

	if _, err := m.conn.Exec(ctx,
		`INSERT INTO accounts (username, password_hash, role) VALUES (?, ?, ?)`,
		in.Username, string(hash), string(in.Role)); err != nil {
		return nil, err
	}

	m.log.Infof("created account '%s' with role %s", in.Username, in.Role)
	return &Account{Username: in.Username, PasswordHash: string(hash), Role: in.Role}, nil
}

// UpdateInput carries the optional mutations for an existing account
type UpdateInput struct {
	NewPassword *string
	NewRole     *Role
}

// Update changes an account's password and/or role. Demoting the last
// remaining admin fails with INVARIANT_VIOLATION before any write.
func (m *Manager) Update(ctx context.Context, username string, in UpdateInput) (*Account, error) {
	if in.NewPassword == nil && in.NewRole == nil {
		return nil, errors.New(errors.ErrCodeValidation, "nothing to update")
	}
	if in.NewPassword != nil && *in.NewPassword == "" {
		return nil, errors.New(errors.ErrCodeValidation, "password must not be empty")
	}
	if in.NewRole != nil {
		if _, err := ParseRole(string(*in.NewRole)); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	acct, err := fetchAccount(ctx, m.conn, username)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, errors.Newf(errors.ErrCodeNotFound, "account '%s' does not exist", username)
	}

	if in.NewRole != nil && acct.Role == RoleAdmin && *in.NewRole != RoleAdmin {
		admins, err := m.adminCount(ctx)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, errors.Newf(errors.ErrCodeInvariantViolation,
				"cannot demote '%s': at least one admin account must exist", username)
		}
	}

	if in.NewPassword != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.NewPassword), m.bcryptCost)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeValidation, "failed to hash password", err)
		}
		acct.PasswordHash = string(hash)
	}
	if in.NewRole != nil {
		acct.Role = *in.NewRole
	}

	if _, err := m.conn.Exec(ctx,
		`UPDATE accounts SET password_hash = ?, role = ?, updated_at = CURRENT_TIMESTAMP WHERE username = ?`,
		acct.PasswordHash, string(acct.Role), username); err != nil {
		return nil, err
	}

	m.log.Infof("updated account '%s'", username)
	return acct, nil
}

// Delete removes an account. Deleting the last remaining admin fails
// with INVARIANT_VIOLATION and leaves the table unchanged.
func (m *Manager) Delete(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	acct, err := fetchAccount(ctx, m.conn, username)
	if err != nil {
		return err
	}
	if acct == nil {
		return errors.Newf(errors.ErrCodeNotFound, "account '%s' does not exist", username)
	}

	if acct.Role == RoleAdmin {
		admins, err := m.adminCount(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return errors.Newf(errors.ErrCodeInvariantViolation,
				"cannot delete '%s': at least one admin account must exist", username)
		}
	}

	if _, err := m.conn.Exec(ctx, `DELETE FROM accounts WHERE username = ?`, username); err != nil {
		return err
	}

	m.log.Infof("deleted account '%s'", username)
	return nil
}

// List returns all accounts ordered by username ascending
func (m *Manager) List(ctx context.Context) ([]Account, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := m.conn.Query(ctx,
		`SELECT username, password_hash, role FROM accounts ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}

	out := make([]Account, 0, len(res.Rows))
	for _, row := range res.Rows {
		acct, err := accountFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *acct)
	}
	return out, nil
}

// AdminCount reports the number of admin accounts
func (m *Manager) AdminCount(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return m.adminCount(ctx)
}

func (m *Manager) adminCount(ctx context.Context) (int64, error) {
	res, err := m.conn.Query(ctx, `SELECT COUNT(*) AS n FROM accounts WHERE role = ?`, string(RoleAdmin))
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	return parseCount(res.Rows[0]["n"])
}

// parseCount normalizes a COUNT(*) cell. Some drivers return counts
// as text.
func parseCount(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeConnectionFailed, "malformed count row", err)
		}
		return parsed, nil
	default:
		return 0, errors.New(errors.ErrCodeConnectionFailed, "malformed count row")
	}
}
