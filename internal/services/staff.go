package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type staffAccount struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     models.Role
}

func (a staffAccount) validate() error {
	if err := validateName(a.Name); err != nil {
		return err
	}
	if err := validateEmail(a.Email); err != nil {
		return err
	}
	if err := validatePassword(a.Password); err != nil {
		return err
	}
	if a.Phone != "" {
		return validatePhone(a.Phone)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func ensureEmailFree(ctx context.Context, tx store.Store, email string) error {
	_, err := tx.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return conflict("email already registered")
	case errors.Is(err, store.ErrNotFound):
		return nil
	}
	return fromStore(err, "user")
}

// createAccount inserts the shared user row of a staff member.
func createAccount(ctx context.Context, tx store.Store, a staffAccount) (*models.User, error) {
	email := normalizeEmail(a.Email)
	if err := ensureEmailFree(ctx, tx, email); err != nil {
		return nil, err
	}
	hash, err := hashPassword(a.Password)
	if err != nil {
		return nil, &Error{Kind: KindStore, Message: "failed to create account", Err: err}
	}
	u := &models.User{
		Name:     strings.TrimSpace(a.Name),
		Email:    email,
		Password: hash,
		Phone:    a.Phone,
		Role:     a.Role,
	}
	if err := tx.CreateUser(ctx, u); err != nil {
		return nil, fromStore(err, "user")
	}
	return u, nil
}

// applyAccountChanges updates the editable fields of a staff account.
func applyAccountChanges(ctx context.Context, tx store.Store, u *models.User, name, email, phone *string) error {
	if name != nil {
		if err := validateName(*name); err != nil {
			return err
		}
		u.Name = strings.TrimSpace(*name)
	}
	if email != nil {
		if err := validateEmail(*email); err != nil {
			return err
		}
		normalized := normalizeEmail(*email)
		if normalized != u.Email {
			if err := ensureEmailFree(ctx, tx, normalized); err != nil {
				return err
			}
			u.Email = normalized
		}
	}
	if phone != nil {
		if err := validatePhone(*phone); err != nil {
			return err
		}
		u.Phone = *phone
	}
	return fromStore(tx.SaveUser(ctx, u), "user")
}
