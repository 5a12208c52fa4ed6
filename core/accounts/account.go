// Package accounts manages operator accounts and their credentials.
package accounts

import (
	"context"
	"fmt"

	"github.com/tunestat/tunestat/core/connectors"
	"github.com/tunestat/tunestat/core/shared/errors"
)

// Role determines an account's capability set
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole converts a string into a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", errors.Newf(errors.ErrCodeValidation, "invalid role '%s': must be one of: admin, user", s)
	}
}

// Account represents one operator account.
// It maps to the `accounts` table. The password hash never leaves the
// process in serialized form.
type Account struct {
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         Role   `db:"role" json:"role"`
}

// fetchAccount loads one account by exact, case-sensitive username.
// Returns (nil, nil) when no row matches.
func fetchAccount(ctx context.Context, conn connectors.Connector, username string) (*Account, error) {
	res, err := conn.Query(ctx,
		`SELECT username, password_hash, role FROM accounts WHERE username = ?`, username)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return accountFromRow(res.Rows[0])
}

func accountFromRow(row map[string]any) (*Account, error) {
	username, ok1 := row["username"].(string)
	hash, ok2 := row["password_hash"].(string)
	roleStr, ok3 := row["role"].(string)
	if !ok1 || !ok2 || !ok3 {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "malformed account row")
	}
	role, err := ParseRole(roleStr)
	if err != nil {
		return nil, fmt.Errorf("account '%s': %w", username, err)
	}
	return &Account{Username: username, PasswordHash: hash, Role: role}, nil
}
