package accounts

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/tunestat/tunestat/core/connectors"
	"github.com/tunestat/tunestat/core/logger"
	"github.com/tunestat/tunestat/core/shared/errors"
)

// CredentialStore authenticates actors against stored bcrypt hashes
type CredentialStore struct {
	conn      connectors.Connector
	dummyHash []byte
	log       *logger.Logger
}

// NewCredentialStore creates a credential store. The dummy hash is
// generated once at the same cost as real hashes so that attempts
// against unknown usernames perform the same comparison work.
func NewCredentialStore(conn connectors.Connector, bcryptCost int) (*CredentialStore, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("tunestat-credential-placeholder"), bcryptCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation, "invalid bcrypt cost", err)
	}
	return &CredentialStore{
		conn:      conn,
		dummyHash: dummy,
		log:       logger.New("accounts:credentials"),
	}, nil
}

// Authenticate looks up the account by exact, case-sensitive username
// and compares the password against the stored hash. Unknown usernames
// and wrong passwords return the identical error so usernames cannot be
// enumerated; the two cases are only distinguished in debug logs.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	acct, err := fetchAccount(ctx, s.conn, username)
	if err != nil {
		return nil, err
	}

	if acct == nil {
		// Burn a comparison against the dummy hash so this path costs
		// the same as a real mismatch.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.log.Debugf("authentication failed for '%s': unknown username", username)
		return nil, errAuthentication()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		s.log.Debugf("authentication failed for '%s': bad password", username)
		return nil, errAuthentication()
	}

	s.log.Debugf("authenticated '%s' (%s)", acct.Username, acct.Role)
	return acct, nil
}

func errAuthentication() error {
	return errors.New(errors.ErrCodeAuthentication, "invalid username or password")
}
