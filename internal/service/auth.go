package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"furnistore/internal/auth"
	"furnistore/internal/models"
	"furnistore/internal/pkg/utils"
	"furnistore/internal/repository"
)

// Session is what register and login hand back to the client.
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// AuthService manages accounts and bearer tokens.
type AuthService struct {
	db        *gorm.DB
	users     *repository.UserRepository
	tokens    *auth.TokenService
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenService, blacklist auth.TokenBlacklist, logger *zap.Logger) *AuthService {
	return &AuthService{
		db:        db,
		users:     repository.NewUserRepository(db),
		tokens:    tokens,
		blacklist: blacklist,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a customer account and signs it in. The role is always user.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*Session, error) {
	users := s.users.WithTx(s.usersDB(ctx))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	taken, err := users.EmailTaken(email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     utils.SanitizeText(req.Name),
		Email:    email,
		Password: hash,
		Phone:    utils.SanitizeText(req.Phone),
		Address:  utils.SanitizeText(req.Address),
		Role:     models.RoleUser,
	}
	if err := users.Create(user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Uint("user_id", user.ID))
	return s.session(user)
}

// Login checks credentials and issues a new token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*Session, error) {
	user, err := s.users.WithTx(s.usersDB(ctx)).FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Info("Login failed", zap.Uint("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// Authenticate resolves a bearer token to its account.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, auth.ErrRevokedToken
	}
	user, err := s.users.WithTx(s.usersDB(ctx)).FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	return user, claims, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.Remaining(s.now()))
}

// UpdateProfile changes the editable profile fields that are set in req.
func (s *AuthService) UpdateProfile(ctx context.Context, user *models.User, req models.UpdateProfileRequest) (*models.User, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = utils.SanitizeText(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = utils.SanitizeText(*req.Phone)
	}
	if req.Address != nil {
		updates["address"] = utils.SanitizeText(*req.Address)
	}

	users := s.users.WithTx(s.usersDB(ctx))
	if len(updates) > 0 {
		if err := users.Update(user.ID, updates); err != nil {
			return nil, err
		}
	}
	return users.FindByID(user.ID)
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, req models.ChangePasswordRequest) error {
	if !auth.CheckPassword(user.Password, req.CurrentPassword) {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.WithTx(s.usersDB(ctx)).Update(user.ID, map[string]interface{}{"password": hash}); err != nil {
		return err
	}
	s.logger.Info("Password changed", zap.Uint("user_id", user.ID))
	return nil
}

// MakeAdmin promotes an existing account.
func (s *AuthService) MakeAdmin(ctx context.Context, email string) error {
	err := s.users.WithTx(s.usersDB(ctx)).SetRoleByEmail(email, models.RoleAdmin)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.New("no account with email " + email)
	}
	return err
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

func (s *AuthService) usersDB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}
