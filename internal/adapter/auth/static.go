// Package auth provides a bearer-token identity verifier. Token issuance
// lives in a separate service; this adapter only maps presented tokens to
// identities.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/tiendix/tiendix/internal/domain"
)

// ErrUnknownToken is returned when a presented token matches no identity.
var ErrUnknownToken = errors.New("unknown token")

// Compile-time check: StaticVerifier implements domain.IdentityVerifier.
var _ domain.IdentityVerifier = (*StaticVerifier)(nil)

// StaticVerifier resolves identities from a fixed token table, typically
// loaded from the environment at startup.
type StaticVerifier struct {
	tokens map[string]domain.Identity
}

// NewStaticVerifier creates a verifier over the given token table.
func NewStaticVerifier(tokens map[string]domain.Identity) *StaticVerifier {
	return &StaticVerifier{tokens: tokens}
}

// ParseTokenTable parses the AUTH_TOKENS format:
// "token:role:account_id:email" entries separated by commas. Malformed
// entries are skipped rather than failing startup.
func ParseTokenTable(raw string) map[string]domain.Identity {
	tokens := make(map[string]domain.Identity)
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 3 || parts[0] == "" {
			continue
		}
		id := domain.Identity{
			Role:      domain.Role(parts[1]),
			AccountID: parts[2],
		}
		if len(parts) > 3 {
			id.Email = parts[3]
		}
		tokens[parts[0]] = id
	}
	return tokens
}

// Verify returns the identity behind the token, or ErrUnknownToken.
func (v *StaticVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	id, ok := v.tokens[token]
	if !ok {
		return domain.Identity{}, ErrUnknownToken
	}
	return id, nil
}
