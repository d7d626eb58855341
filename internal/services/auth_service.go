package services

import (
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

// AuthService handles registration, login and principal resolution. Login
// never distinguishes "user not found" from a bad password, to avoid username
// enumeration.
type AuthService struct {
	userRepo repositories.UserRepository
	creds    *CredentialStore
	tokens   *TokenService
	log      *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, creds *CredentialStore, tokens *TokenService, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		creds:    creds,
		tokens:   tokens,
		log:      log,
	}
}

// Register hashes the password and persists a new user. Username and email
// collisions are reported as conflicts.
func (s *AuthService) Register(user *models.User, password string) error {
	if password == "" {
		return apperr.Validationf("password is required")
	}

	if _, err := s.userRepo.GetByUsername(user.Username); err == nil {
		return apperr.Conflictf("username %q already taken", user.Username)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if _, err := s.userRepo.GetByEmail(user.Email); err == nil {
		return apperr.Conflictf("email %q already registered", user.Email)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	digest, err := s.creds.Hash(password)
	if err != nil {
		return err
	}
	user.PasswordHash = digest
	user.IsAdmin = false // admin capability is only granted by an existing admin

	if err := s.userRepo.Create(user); err != nil {
		return err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

// Login verifies credentials and issues a token with the username as subject.
func (s *AuthService) Login(username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.Unauthenticatedf("invalid credentials")
		}
		return "", err
	}

	if !s.creds.Verify(password, user.PasswordHash) {
		return "", apperr.Unauthenticatedf("invalid credentials")
	}

	return s.tokens.Issue(user.Username)
}

// ResolvePrincipal turns an opaque token into the authenticated user. An
// invalid token, or a subject deleted after issuance, both resolve to
// ErrUnauthenticated.
func (s *AuthService) ResolvePrincipal(tokenString string) (*models.User, error) {
	subject, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticatedf("unknown subject")
		}
		return nil, err
	}
	return user, nil
}

// UserUpdate carries partial user mutations; nil fields are left untouched.
type UserUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
}

// UpdateUser applies a partial update to a user. Allowed for the user
// themselves or an admin.
func (s *AuthService) UpdateUser(principal *models.User, userID string, update UserUpdate) (*models.User, error) {
	if err := RequireOwnerOrAdmin(principal, userID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Password != nil {
		if *update.Password == "" {
			return nil, apperr.Validationf("password must not be empty")
		}
		digest, err := s.creds.Hash(*update.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = digest
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all users. Admin only.
func (s *AuthService) ListUsers(principal *models.User) ([]models.User, error) {
	if err := RequireAdmin(principal); err != nil {
		return nil, err
	}
	return s.userRepo.GetAll()
}

// SetAdmin grants or revokes the admin capability. Only an existing admin may
// do this; tokens issued before a downgrade stay valid until expiry.
func (s *AuthService) SetAdmin(principal *models.User, userID string, isAdmin bool) (*models.User, error) {
	if err := RequireAdmin(principal); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	user.IsAdmin = isAdmin
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	s.log.Info("admin capability changed",
		zap.String("user_id", user.ID),
		zap.Bool("is_admin", isAdmin),
		zap.String("changed_by", principal.ID))
	return user, nil
}
