package identity

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/greenbasket/greenbasket/internal/domain"
)

// UserStore is the persistence surface the service needs; *UserRepository
// satisfies it.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id, name string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	GetAddresses(ctx context.Context, id string) ([]domain.Address, error)
	UpdateAddresses(ctx context.Context, id string, addresses []domain.Address) error
}

// Mailer delivers outbound mail; the email service client satisfies it.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Service struct {
	users     UserStore
	passcodes PasscodeStore
	tokens    *TokenManager
	mailer    Mailer
	logger    *slog.Logger
}

func NewService(users UserStore, passcodes PasscodeStore, tokens *TokenManager, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{
		users:     users,
		passcodes: passcodes,
		tokens:    tokens,
		mailer:    mailer,
		logger:    logger,
	}
}

// Register creates a local-credential account and returns it with a session
// token. Duplicate emails fail with ErrEmailTaken.
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Addresses:    []domain.Address{},
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if !user.HasLocalCredential() {
		return nil, "", ErrExternalAuth
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return user, token, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id, name string) (*domain.User, error) {
	user, err := s.users.UpdateProfile(ctx, id, name)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ChangePassword is the authenticated, in-session path: the current password
// must match.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// StartPasswordReset issues a 6-digit single-use code, valid five minutes,
// and mails it to the account's address.
func (s *Service) StartPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	code, err := generatePasscode()
	if err != nil {
		return fmt.Errorf("generate passcode: %w", err)
	}

	if err := s.passcodes.Put(ctx, email, code); err != nil {
		return fmt.Errorf("store passcode: %w", err)
	}

	if err := s.mailer.Send(ctx, email, "Password Reset OTP", "Your OTP is "+code); err != nil {
		return fmt.Errorf("send passcode mail: %w", err)
	}

	s.logger.Info("password reset started", "user_id", user.ID)
	return nil
}

// CompletePasswordReset verifies the code and sets the new password. The code
// is consumed on success and cannot be replayed.
func (s *Service) CompletePasswordReset(ctx context.Context, email, code, newPassword string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	ok, err := s.passcodes.Consume(ctx, email, code)
	if err != nil {
		return fmt.Errorf("verify passcode: %w", err)
	}
	if !ok {
		return ErrInvalidPasscode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	s.logger.Info("password reset completed", "user_id", user.ID)
	return nil
}

// SetRole changes a user's role. Only admins may do this.
func (s *Service) SetRole(ctx context.Context, actorRole domain.Role, userID string, role domain.Role) (*domain.User, error) {
	if actorRole != domain.RoleAdmin {
		return nil, ErrForbidden
	}

	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	s.logger.Info("user role updated", "user_id", userID, "role", role)
	return user, nil
}

func (s *Service) GetAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.users.GetAddresses(ctx, userID)
}

func (s *Service) UpdateAddresses(ctx context.Context, userID string, addresses []domain.Address) error {
	return s.users.UpdateAddresses(ctx, userID, addresses)
}
