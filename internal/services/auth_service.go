package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/config"
	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthService struct {
	store store.Store
	cfg   *config.Config
}

func NewAuthService(st store.Store, cfg *config.Config) *AuthService {
	return &AuthService{store: st, cfg: cfg}
}

// profileOf returns the role extension of u, or nil for admins.
func (s *AuthService) profileOf(ctx context.Context, u *models.User) (models.StaffProfile, error) {
	switch u.Role {
	case models.RoleTherapist:
		t, err := s.store.GetTherapistByUserID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		return t, nil
	case models.RoleReceptionist:
		r, err := s.store.GetReceptionistByUserID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, nil
}

func (s *AuthService) ensureActive(ctx context.Context, u *models.User) error {
	profile, err := s.profileOf(ctx, u)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInactiveAccount
		}
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if profile != nil && !profile.IsActive() {
		return ErrInactiveAccount
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.ensureActive(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user logged in", "action", "auth.login", "user_id", user.ID.String(), "role", string(user.Role))
	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	stored, err := s.store.GetRefreshTokenByHash(ctx, tokenHash)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := s.store.RevokeRefreshToken(ctx, stored.ID); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUser(ctx, stored.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if err := s.ensureActive(ctx, user); err != nil {
		return nil, err
	}

	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	stored, err := s.store.GetRefreshTokenByHash(ctx, hashToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.store.RevokeRefreshToken(ctx, stored.ID)
}

// Profile returns the account and its role extension.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	resp := &dto.ProfileResponse{User: dto.NewUserResponse(user)}
	profile, err := s.profileOf(ctx, user)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	switch p := profile.(type) {
	case *models.Therapist:
		resp.Therapist = p
	case *models.Receptionist:
		resp.Receptionist = p
	}
	return resp, nil
}

// ChangePassword replaces the password and revokes every open session.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req *dto.ChangePasswordRequest) error {
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(tx store.Store) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return ErrUserNotFound
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			return ErrInvalidCredentials
		}
		hash, err := hashPassword(req.NewPassword)
		if err != nil {
			return err
		}
		user.Password = hash
		if err := tx.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		return tx.RevokeUserRefreshTokens(ctx, user.ID)
	})
}

// SeedAdmin creates the initial administrator when no account uses email.
func (s *AuthService) SeedAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{Name: name, Email: email, Password: hash, Role: models.RoleAdmin}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	slog.Info("admin account seeded", "action", "auth.seed_admin", "user_id", admin.ID.String())
	return nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         dto.NewUserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.store.CreateRefreshToken(ctx, &record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return fmt.Sprintf("%x", h)
}
