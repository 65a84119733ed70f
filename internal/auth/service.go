package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
)

const (
	maxUsernameLength = 150
	minPasswordLength = 8
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) error
	GetUser(ctx context.Context, id uuid.UUID) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
}

// Service registers users, logs them in and turns bearer tokens into callers.
type Service struct {
	users  UserStore
	tokens *Tokens
	logger *log.Logger
	now    func() time.Time

	// Users already confirmed to exist, keyed by id.
	known cache.Cache[struct{}]
}

func NewService(users UserStore, tokens *Tokens, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentAuth),
		now:    time.Now,
	}
}

// WithUserCache lets Authenticate skip the user lookup for ids seen recently.
func (s *Service) WithUserCache(c cache.Cache[struct{}]) *Service {
	s.known = c
	return s
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)

	var verr core.ValidationError
	switch {
	case username == "":
		verr.Add("username", core.MsgBlank)
	case utf8.RuneCountInString(username) > maxUsernameLength:
		verr.Add("username", fmt.Sprintf(core.MsgTooLong, maxUsernameLength))
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
	}
	if err := verr.Err(); err != nil {
		return core.User{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, err
	}

	u := core.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return core.User{}, err
	}

	s.logger.InfoContext(ctx, "User registered",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, u.ID.String())
	return u, nil
}

// Login checks the credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if core.IsNotFound(err) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := CheckPassword(u.PasswordHash, password); err != nil {
		s.logger.WarnContext(ctx, "Login rejected",
			log.FieldUserID, u.ID.String(),
			log.FieldErrorType, log.ErrorTypeAuth)
		return "", err
	}
	return s.tokens.Issue(u.ID)
}

// Authenticate resolves a bearer token to the caller it was issued for. The
// user must still exist.
func (s *Service) Authenticate(ctx context.Context, token string) (core.Caller, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return core.Caller{}, err
	}
	if s.known != nil {
		if _, ok := s.known.Get(userID.String()); ok {
			return core.NewCaller(userID), nil
		}
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if core.IsNotFound(err) {
			return core.Caller{}, fmt.Errorf("%w: unknown user", ErrInvalidToken)
		}
		return core.Caller{}, err
	}
	if s.known != nil {
		s.known.Set(userID.String(), struct{}{})
	}
	return core.NewCaller(userID), nil
}
