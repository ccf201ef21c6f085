package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a signed compact JWT and returns the claims if it's
// legit. One verifier handles both EdDSA and RS256 tokens, the KeySet entry
// for the token's kid decides which.
type Verifier struct {
	keys   *KeySet
	issuer string
	aud    []string
}

// NewVerifier creates a Verifier over the given KeySet. Non-empty issuer and
// audience values are enforced on every token.
func NewVerifier(keys *KeySet, issuer string, aud []string) *Verifier {
	return &Verifier{keys: keys, issuer: issuer, aud: aud}
}

// Verify validates the JWT string and returns its parsed claims. Returned
// errors wrap the package sentinels (ErrMalformed, ErrInvalidSig, ErrExpired,
// ErrIssuer, ErrAudience) so callers can map them to their own taxonomy.
func (v *Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodEdDSA.Alg(),
		jwt.SigningMethodRS256.Alg(),
	}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("kid %q: %w", kid, err)
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.aud); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// mapParseError condenses golang-jwt's error tree onto our sentinels.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %w", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable), errors.Is(err, ErrUnknownKID):
		return fmt.Errorf("%w: %w", ErrUnknownKID, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
