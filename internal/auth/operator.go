// Package auth implements operator authentication: bcrypt-hashed passwords
// and short-lived JWT session tokens for the administrative surface.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/stakebank/stakebank/internal/models"
	"github.com/stakebank/stakebank/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid account or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrOperatorExists     = errors.New("operator already registered")
)

// OperatorStorage defines the interface for operator persistence. This
// allows the authenticator to be independent of the storage implementation.
type OperatorStorage interface {
	CreateOperator(ctx context.Context, op *models.Operator) error
	GetOperator(ctx context.Context, account string) (*models.Operator, error)
}

// OperatorAuthenticator implements password-based operator authentication
// using bcrypt.
type OperatorAuthenticator struct {
	storage OperatorStorage
	now     func() int64
}

// NewOperatorAuthenticator creates a password-based authenticator.
func NewOperatorAuthenticator(storage OperatorStorage, now func() int64) *OperatorAuthenticator {
	return &OperatorAuthenticator{storage: storage, now: now}
}

// ValidatePassword checks if the password meets minimum requirements.
func (a *OperatorAuthenticator) ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new operator account with a hashed password.
func (a *OperatorAuthenticator) Register(ctx context.Context, account, password string) (*models.Operator, error) {
	if err := a.ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := a.storage.GetOperator(ctx, account)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOperatorExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	op := &models.Operator{
		Account:      account,
		PasswordHash: string(hashed),
		CreatedAt:    a.now(),
	}
	if err := a.storage.CreateOperator(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to create operator: %w", err)
	}
	return op, nil
}

// Authenticate verifies the account and password, returning the operator if
// valid.
func (a *OperatorAuthenticator) Authenticate(ctx context.Context, account, password string) (*models.Operator, error) {
	op, err := a.storage.GetOperator(ctx, account)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return op, nil
}
