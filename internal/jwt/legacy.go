package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// VerifyLegacy validates a token minted by the predecessor system
// against the legacy secret. Claim names varied across that system's
// lifetime, so several historical spellings are accepted for each field
// and no issuer claim is checked.
//
// This is a deliberately lax, time-boxed migration shim. Remove it once
// the legacy system is decommissioned; do not extend its trust scope.
func (i *Issuer) VerifyLegacy(tokenString string) *Payload {
	if len(i.legacySecret) == 0 {
		return nil
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (interface{}, error) { return i.legacySecret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil
	}

	memberID := firstString(claims, "sub", "mb_id", "user_id", "id")
	if memberID == "" {
		return nil
	}

	return &Payload{
		MemberID: memberID,
		Nickname: firstString(claims, "nick", "nickname", "mb_nick", "name"),
		Level:    firstInt(claims, "level", "mb_level", "lv"),
		Email:    firstString(claims, "email", "mb_email"),
	}
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstInt(claims jwt.MapClaims, keys ...string) int {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
	}
	return 0
}
