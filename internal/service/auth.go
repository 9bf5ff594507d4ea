package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest, client dto.ClientInfo) (*dto.UserResponse, error)
	Login(ctx context.Context, req dto.LoginRequest, client dto.ClientInfo) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string, client dto.ClientInfo) (*dto.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string, client dto.ClientInfo) error
	ValidateAccessToken(token string) (*dto.AccessClaims, error)
	Me(ctx context.Context, userID uint) (*dto.UserResponse, error)
	SetTelegramChat(ctx context.Context, userID uint, chatID *int64, client dto.ClientInfo) (*dto.UserResponse, error)
}

type authService struct {
	cfg              config.Auth
	log              *logger.Logger
	userRepo         repository.UserRepository
	loginAttemptRepo repository.LoginAttemptRepository
	refreshTokenRepo repository.RefreshTokenRepository
	unitOfWork       repository.UnitOfWork
	audit            AuditService
	now              func() time.Time
}

func NewAuthService(
	cfg *config.Config,
	log *logger.Logger,
	userRepo repository.UserRepository,
	loginAttemptRepo repository.LoginAttemptRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	unitOfWork repository.UnitOfWork,
	audit AuditService,
) AuthService {
	return &authService{
		cfg:              cfg.Auth,
		log:              log,
		userRepo:         userRepo,
		loginAttemptRepo: loginAttemptRepo,
		refreshTokenRepo: refreshTokenRepo,
		unitOfWork:       unitOfWork,
		audit:            audit,
		now:              utils.TimeNowUTC,
	}
}

// ValidatePasswordStrength requires 8+ characters with an upper-case letter and a digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return apperror.New(apperror.CodeWeakPassword, "Password must be at least 8 characters long")
	}
	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return apperror.New(apperror.CodeWeakPassword, "Password must contain at least one uppercase letter")
	}
	if !hasDigit {
		return apperror.New(apperror.CodeWeakPassword, "Password must contain at least one number")
	}
	return nil
}

// HashToken is the hex SHA-256 under which refresh tokens are stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:             user.ID,
		Email:          user.Email,
		TelegramChatID: user.TelegramChatID,
		CreatedAt:      user.CreatedAt,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest, client dto.ClientInfo) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, apperror.Validation("Email and password are required")
	}
	if err := ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	cost := s.cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: string(hash)}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperror.Conflict("Email already registered")
		}
		s.log.ErrorContext(ctx, "Failed to create user", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Log(ctx, AuditEvent{Type: model.AuditRegister, UserID: &user.ID, Email: email, Client: client, Message: "Account created"})
	return toUserResponse(user), nil
}

func (s *authService) recordAttempt(ctx context.Context, email string, client dto.ClientInfo, success bool) {
	err := s.loginAttemptRepo.Create(ctx, &model.LoginAttempt{
		Email:       email,
		IPAddress:   client.IPAddress,
		Success:     success,
		AttemptedAt: s.now(),
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to record login attempt", logger.ErrorField(err))
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, client dto.ClientInfo) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, apperror.Validation("Email and password are required")
	}

	attempts, err := s.loginAttemptRepo.Count(ctx, dto.GetLoginAttemptsParam{
		Email:   email,
		Since:   s.now().Add(-s.cfg.LockoutDuration),
		Success: utils.ToPointer(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count login attempts: %w", err)
	}
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		s.audit.Log(ctx, AuditEvent{Type: model.AuditAccountLocked, Email: email, Client: client,
			Message: fmt.Sprintf("%d failed attempts", attempts)})
		return nil, apperror.Newf(apperror.CodeAccountLocked,
			"Account temporarily locked due to %d failed attempts. Try again in %d minutes.",
			s.cfg.MaxLoginAttempts, int(s.cfg.LockoutDuration.Minutes()))
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		s.recordAttempt(ctx, email, client, false)
		s.audit.Log(ctx, AuditEvent{Type: model.AuditLoginFailure, Email: email, Client: client, Message: "Unknown email"})
		return nil, apperror.New(apperror.CodeInvalidCredentials, "Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordAttempt(ctx, email, client, false)
		s.audit.Log(ctx, AuditEvent{Type: model.AuditLoginFailure, UserID: &user.ID, Email: email, Client: client, Message: "Wrong password"})

		remaining := int64(s.cfg.MaxLoginAttempts) - (attempts + 1)
		if remaining <= 0 {
			return nil, apperror.New(apperror.CodeInvalidCredentials, "Account will be locked on next failure")
		}
		return nil, apperror.Newf(apperror.CodeInvalidCredentials, "Invalid credentials. %d attempts remaining before lockout.", remaining)
	}

	accessToken, err := s.issueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, expiresAt, err := s.issueRefreshToken(user)
	if err != nil {
		return nil, err
	}

	err = s.unitOfWork.Run(func(opts ...utils.DBOption) error {
		if err := s.loginAttemptRepo.DeleteFailed(ctx, email, opts...); err != nil {
			return fmt.Errorf("failed to clear login attempts: %w", err)
		}
		if err := s.loginAttemptRepo.Create(ctx, &model.LoginAttempt{Email: email, IPAddress: client.IPAddress, Success: true, AttemptedAt: s.now()}, opts...); err != nil {
			return fmt.Errorf("failed to record login attempt: %w", err)
		}
		return s.refreshTokenRepo.Create(ctx, &model.RefreshToken{
			UserID:    user.ID,
			TokenHash: HashToken(refreshToken),
			ExpiresAt: expiresAt,
		}, opts...)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to persist login", logger.UintField("user_id", user.ID), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to persist login: %w", err)
	}

	s.audit.Log(ctx, AuditEvent{Type: model.AuditLoginSuccess, UserID: &user.ID, Email: email, Client: client})
	return &dto.AuthResponse{
		User:         *toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *authService) issueAccessToken(user *model.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"email": user.Email,
		"type":  tokenTypeAccess,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.AccessTokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *authService) issueRefreshToken(user *model.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.RefreshTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"type": tokenTypeRefresh,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.JWTRefreshSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, expiresAt, nil
}

// parseToken verifies signature, expiry and token type and returns the subject user id.
func (s *authService) parseToken(raw, secret, tokenType string) (uint, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, nil, err
	}
	if typ, _ := claims["type"].(string); typ != tokenType {
		return 0, nil, errors.New("unexpected token type")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, nil, err
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, nil, errors.New("invalid subject")
	}
	return uint(id), claims, nil
}

func (s *authService) ValidateAccessToken(token string) (*dto.AccessClaims, error) {
	userID, claims, err := s.parseToken(token, s.cfg.JWTSecret, tokenTypeAccess)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInvalidToken, "Invalid or expired token", err)
	}
	email, _ := claims["email"].(string)
	return &dto.AccessClaims{UserID: userID, Email: email}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string, client dto.ClientInfo) (*dto.AuthResponse, error) {
	if refreshToken == "" {
		return nil, apperror.Validation("Refresh token required")
	}

	userID, _, err := s.parseToken(refreshToken, s.cfg.JWTRefreshSecret, tokenTypeRefresh)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInvalidToken, "Invalid refresh token", err)
	}

	if _, err := s.refreshTokenRepo.GetActiveByHash(ctx, HashToken(refreshToken), s.now()); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.New(apperror.CodeInvalidToken, "Invalid or expired refresh token")
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperror.New(apperror.CodeInvalidToken, "Invalid or expired refresh token")
	}

	accessToken, err := s.issueAccessToken(user)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEvent{Type: model.AuditTokenRefresh, UserID: &user.ID, Email: user.Email, Client: client})
	return &dto.AuthResponse{
		User:        *toUserResponse(user),
		AccessToken: accessToken,
		ExpiresIn:   int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string, client dto.ClientInfo) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.refreshTokenRepo.RevokeByHash(ctx, HashToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	s.audit.Log(ctx, AuditEvent{Type: model.AuditLogout, Client: client})
	return nil
}

func (s *authService) Me(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("User")
	}
	return toUserResponse(user), nil
}

func (s *authService) SetTelegramChat(ctx context.Context, userID uint, chatID *int64, client dto.ClientInfo) (*dto.UserResponse, error) {
	if chatID != nil && *chatID == 0 {
		chatID = nil
	}
	if err := s.userRepo.UpdateTelegramChatID(ctx, userID, chatID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("failed to update telegram chat: %w", err)
	}

	s.audit.Log(ctx, AuditEvent{Type: model.AuditProfileUpdate, UserID: &userID, Client: client, Message: "Telegram chat updated"})
	return s.Me(ctx, userID)
}
