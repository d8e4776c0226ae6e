package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/clarity-api/internal/domain"
	"github.com/phrazzld/clarity-api/internal/store"
)

// Directory registers and authenticates accounts. Account documents live in
// the same key-value store as history records, under store.AccountKey.
type Directory struct {
	store  store.KVStore
	hasher PasswordHasher
	logger *slog.Logger
	now    func() time.Time
}

// NewDirectory creates a Directory over kv.
func NewDirectory(kv store.KVStore, hasher PasswordHasher, logger *slog.Logger) (*Directory, error) {
	if kv == nil {
		return nil, fmt.Errorf("%w: store cannot be nil", ErrInvalidConfig)
	}
	if hasher == nil {
		return nil, fmt.Errorf("%w: password hasher cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}
	return &Directory{
		store:  kv,
		hasher: hasher,
		logger: logger.With(slog.String("component", "account_directory")),
		now:    time.Now,
	}, nil
}

// Register creates an account. Invalid usernames or passwords are returned
// as domain validation errors; a taken username yields store.ErrUsernameExists.
func (d *Directory) Register(ctx context.Context, username, password string) (*domain.Account, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	hash, err := d.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Username:       username,
		HashedPassword: hash,
		CreatedAt:      d.now().UTC(),
	}
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	doc, err := json.Marshal(account)
	if err != nil {
		return nil, fmt.Errorf("failed to encode account: %w", err)
	}

	if err := d.store.Create(ctx, store.AccountKey(username), doc); err != nil {
		if store.IsDuplicateError(err) {
			d.logger.Debug("registration rejected: username taken", slog.String("username", username))
			return nil, store.ErrUsernameExists
		}
		d.logger.Error("failed to store account",
			slog.String("username", username),
			slog.Any("error", err))
		return nil, err
	}

	d.logger.Info("account registered", slog.String("username", username))
	return account, nil
}

// Authenticate checks username and password against the stored account.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	if domain.ValidateUsername(username) != nil || password == "" {
		return nil, ErrInvalidCredentials
	}

	doc, err := d.store.Get(ctx, store.AccountKey(username))
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	var account domain.Account
	if err := json.Unmarshal(doc, &account); err != nil {
		d.logger.Error("stored account is malformed",
			slog.String("username", username),
			slog.Any("error", err))
		return nil, store.NewStoreError("account", "get", "malformed account document", err)
	}

	if err := d.hasher.Compare(account.HashedPassword, password); err != nil {
		d.logger.Debug("authentication failed", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}
	return &account, nil
}

// IsCredentialError reports whether err is an authentication failure.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}
