package deep

import (
	"github.com/golang-jwt/jwt/v5"

	apperrors "linkrelay/backend/pkg/errors"
)

// ParseUserLink extracts the operator's user link id from a store access
// token. The claim is read without signature verification: the token is
// only decoded here, never trusted for authorization -- the store itself
// validates it on every call.
func ParseUserLink(token string) (int64, error) {
	if token == "" {
		return 0, apperrors.NewConfigMissingRequired("deepToken")
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return 0, apperrors.NewConfigInvalidToken("not a decodable JWT", err)
	}

	raw, ok := claims["userId"]
	if !ok {
		return 0, apperrors.NewConfigInvalidToken("no userId claim", nil)
	}

	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, apperrors.NewConfigInvalidToken("userId claim is not numeric", nil)
	}
}
