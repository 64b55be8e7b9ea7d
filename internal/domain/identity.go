package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIdentityDecode is returned when an external credential payload cannot be
// decoded into a usable identity. It is deliberately distinguishable from
// authentication failures so callers can report the cause.
var ErrIdentityDecode = errors.New("identity payload could not be decoded")

// Identity is the verified triple produced by the external identity provider
// after a successful sign-in challenge. The ledger core trusts it as-is.
type Identity struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// IdentityFromClaims performs the strict parse-and-validate step over a decoded
// token claim set. Missing or mistyped email/name claims fail with
// ErrIdentityDecode rather than silently proceeding with undefined fields.
func IdentityFromClaims(claims map[string]interface{}) (Identity, error) {
	email, ok := claims["email"].(string)
	if !ok || strings.TrimSpace(email) == "" {
		return Identity{}, fmt.Errorf("%w: missing email claim", ErrIdentityDecode)
	}
	name, ok := claims["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return Identity{}, fmt.Errorf("%w: missing name claim", ErrIdentityDecode)
	}

	identity := Identity{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  strings.TrimSpace(name),
	}
	// The picture claim is optional; a missing one falls back to the generated
	// placeholder during profile setup.
	if picture, ok := claims["picture"].(string); ok {
		identity.AvatarURL = strings.TrimSpace(picture)
	}
	return identity, nil
}
