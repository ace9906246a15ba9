package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/vovakirdan/inkwire-server/internal/store"
)

var (
	// ErrInvalidCredential is returned when the credential doesn't match the stored hash.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrWeakCredential is returned when the credential doesn't meet length constraints.
	ErrWeakCredential = errors.New("credential must be 6-50 characters")
	// ErrInvalidDisplayName is returned when a display name doesn't meet constraints.
	ErrInvalidDisplayName = errors.New("display name must be 2-20 characters")
	// ErrNameTaken is returned when a rename collides with another account.
	ErrNameTaken = errors.New("display name already taken")
	// ErrInvalidToken is returned when a presented token cannot be validated.
	ErrInvalidToken = errors.New("invalid token")
)

const (
	minCredentialLen = 6
	maxCredentialLen = 50
	minDisplayName   = 2
	maxDisplayName   = 20
)

// palette holds the colors assigned round-robin-randomly to new accounts.
var palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
}

// Service is the identity store: it maps account keys to credentials and
// display attributes, creating accounts on first successful authentication.
type Service struct {
	store     store.AccountStore
	jwtConfig *JWTConfig
}

// NewService creates a new identity service.
func NewService(accountStore store.AccountStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     accountStore,
		jwtConfig: jwtConfig,
	}
}

// NormalizeKey converts a display name to its account key form.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateDisplayName checks the syntactic display name constraints.
func ValidateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < minDisplayName || len(trimmed) > maxDisplayName {
		return ErrInvalidDisplayName
	}
	return nil
}

// ValidateCredential checks the credential length policy. It runs before
// any hashing so obviously-invalid input never reaches bcrypt.
func ValidateCredential(credential string) error {
	if len(credential) < minCredentialLen || len(credential) > maxCredentialLen {
		return ErrWeakCredential
	}
	return nil
}

// Authenticate verifies a credential against the account for the given key,
// creating the account on first sight. The returned bool reports whether the
// account was newly created.
func (s *Service) Authenticate(ctx context.Context, accountKey, displayName, credential string) (*store.Account, bool, error) {
	if err := ValidateCredential(credential); err != nil {
		return nil, false, err
	}
	if err := ValidateDisplayName(displayName); err != nil {
		return nil, false, err
	}

	key := NormalizeKey(accountKey)
	if key == "" {
		key = NormalizeKey(displayName)
	}

	existing, err := s.store.GetAccountByKey(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("get account: %w", err)
	}

	if existing == nil {
		hash, err := HashCredential(credential)
		if err != nil {
			return nil, false, fmt.Errorf("hash credential: %w", err)
		}
		now := time.Now()
		account := &store.Account{
			Key:            key,
			DisplayName:    strings.TrimSpace(displayName),
			CredentialHash: hash,
			Color:          palette[rand.Intn(len(palette))],
			CreatedAt:      now,
			LastLoginAt:    now,
		}
		if createErr := s.store.CreateAccount(ctx, account); createErr != nil {
			// Lost a create race: another connection registered this key
			// between our lookup and insert. Proceed as a login against
			// the winner's account; the racing connection then fails at
			// the registry, not with a storage error.
			winner, getErr := s.store.GetAccountByKey(ctx, key)
			if getErr != nil {
				return nil, false, fmt.Errorf("create account: %w", createErr)
			}
			return s.login(ctx, winner, credential)
		}
		return account, true, nil
	}

	return s.login(ctx, existing, credential)
}

func (s *Service) login(ctx context.Context, account *store.Account, credential string) (*store.Account, bool, error) {
	if err := CompareCredential(account.CredentialHash, credential); err != nil {
		return nil, false, ErrInvalidCredential
	}

	account.LastLoginAt = time.Now()
	if err := s.store.UpdateLastLogin(ctx, account.Key, account.LastLoginAt); err != nil {
		return nil, false, fmt.Errorf("update last login: %w", err)
	}

	return account, false, nil
}

// Rename changes an account's display name. It fails with ErrNameTaken when
// the normalized form of the new name collides with a different account.
func (s *Service) Rename(ctx context.Context, accountKey, newDisplayName string) (*store.Account, error) {
	if err := ValidateDisplayName(newDisplayName); err != nil {
		return nil, err
	}

	key := NormalizeKey(accountKey)
	account, err := s.store.GetAccountByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	trimmed := strings.TrimSpace(newDisplayName)
	normalized := NormalizeKey(trimmed)

	if other, err := s.store.GetAccountByKey(ctx, normalized); err == nil && other.Key != key {
		return nil, ErrNameTaken
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check key collision: %w", err)
	}

	if other, err := s.store.FindAccountByDisplayName(ctx, normalized); err == nil && other.Key != key {
		return nil, ErrNameTaken
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check name collision: %w", err)
	}

	if err := s.store.UpdateDisplayName(ctx, key, trimmed); err != nil {
		return nil, fmt.Errorf("update display name: %w", err)
	}

	account.DisplayName = trimmed
	return account, nil
}

// IssueToken creates a JWT for an authenticated account.
func (s *Service) IssueToken(account *store.Account) (string, error) {
	return GenerateToken(s.jwtConfig, account.Key, account.DisplayName)
}

// TokenLogin validates a JWT and loads the account it names.
func (s *Service) TokenLogin(ctx context.Context, token string) (*store.Account, error) {
	claims, err := ValidateToken(s.jwtConfig, token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.store.GetAccountByKey(ctx, claims.AccountKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	account.LastLoginAt = time.Now()
	if err := s.store.UpdateLastLogin(ctx, account.Key, account.LastLoginAt); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	return account, nil
}

// Account loads the account for a (possibly unnormalized) key.
func (s *Service) Account(ctx context.Context, accountKey string) (*store.Account, error) {
	return s.store.GetAccountByKey(ctx, NormalizeKey(accountKey))
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
