package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"

	"mercator-hq/dsm/pkg/config"
)

var (
	// ErrMissingKey is returned when a request carries no API key.
	ErrMissingKey = errors.New("missing API key")

	// ErrInvalidKey is returned for an unknown API key.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrKeyDisabled is returned for a configured but disabled API key.
	ErrKeyDisabled = errors.New("API key disabled")

	// ErrRoleDenied is returned when a request asks for a role its key
	// does not grant.
	ErrRoleDenied = errors.New("role not granted to API key")
)

// KeyInfo describes an authenticated API key.
type KeyInfo struct {
	Name     string
	Roles    []string
	Disabled bool
}

// Scope returns the roles a request may evaluate as. Empty requested roles
// select all of the key's roles. A key without roles allows any role.
func (k *KeyInfo) Scope(requested []string) ([]string, error) {
	if len(k.Roles) == 0 {
		return requested, nil
	}
	if len(requested) == 0 {
		return append([]string(nil), k.Roles...), nil
	}
	for _, role := range requested {
		if !slices.Contains(k.Roles, role) {
			return nil, fmt.Errorf("%w: %q", ErrRoleDenied, role)
		}
	}
	return requested, nil
}

type digest [sha256.Size]byte

// Validator validates API keys against a configured set of keys.
type Validator struct {
	mu   sync.RWMutex
	keys map[digest]*KeyInfo
}

// NewValidator creates a validator for the configured keys.
func NewValidator(keys []config.APIKeyConfig) *Validator {
	v := &Validator{keys: make(map[digest]*KeyInfo, len(keys))}
	for _, k := range keys {
		v.Add(k)
	}
	return v
}

// Add registers a key, replacing any key with the same value.
func (v *Validator) Add(k config.APIKeyConfig) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[sha256.Sum256([]byte(k.Key))] = &KeyInfo{
		Name:     k.Name,
		Roles:    append([]string(nil), k.Roles...),
		Disabled: k.Disabled,
	}
}

// Remove unregisters a key.
func (v *Validator) Remove(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, sha256.Sum256([]byte(key)))
}

// Validate checks key and returns its info.
func (v *Validator) Validate(key string) (*KeyInfo, error) {
	if key == "" {
		return nil, ErrMissingKey
	}

	v.mu.RLock()
	info, ok := v.keys[sha256.Sum256([]byte(key))]
	v.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidKey
	}
	if info.Disabled {
		return nil, ErrKeyDisabled
	}
	return info, nil
}

// Names returns the names of the registered keys, sorted.
func (v *Validator) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.keys))
	for _, info := range v.keys {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	return names
}

// FromRequest extracts the API key from header. When scheme is set, the
// value must start with the scheme and a space.
func FromRequest(r *http.Request, header, scheme string) (string, error) {
	value := r.Header.Get(header)
	if value == "" {
		return "", ErrMissingKey
	}
	if scheme == "" {
		return value, nil
	}

	prefix := scheme + " "
	if len(value) <= len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return "", fmt.Errorf("%w: expected %s scheme", ErrMissingKey, scheme)
	}
	return strings.TrimSpace(value[len(prefix):]), nil
}
