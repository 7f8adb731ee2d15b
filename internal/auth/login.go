package auth

import (
	"errors"
	"log/slog"

	"github.com/p-kaiser/logingate/internal/userdb"
)

var ErrInvalidLogin = errors.New("invalid login")

// password is the single global secret shared by all test users. Per-user
// passwords are deliberately out of scope for this stub.
const password = "tobira"

type Service struct {
	logger *slog.Logger
	table  userdb.Table
}

func NewService(logger *slog.Logger, table userdb.Table) *Service {
	return &Service{
		logger: logger,
		table:  table,
	}
}

// Login checks the submitted credentials against the table. The comparison
// is exact string equality, no trimming or case folding.
func (s *Service) Login(userID, pass string) (userdb.User, error) {
	s.logger.Debug("login attempt", slog.String("userid", userID))

	if pass != password {
		return userdb.User{}, ErrInvalidLogin
	}

	u, ok := s.table.Lookup(userID)
	if !ok {
		return userdb.User{}, ErrInvalidLogin
	}

	return u, nil
}
