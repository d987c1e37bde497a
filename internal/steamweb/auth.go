package steamweb

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leighmacdonald/steamid/v4/steamid"
)

// Mode is the authentication scheme a credential implies.
type Mode int

const (
	// ModeKey is a long-lived 32 character web api key, sent as `key=`.
	ModeKey Mode = iota
	// ModeToken is a short-lived JWT style access token, sent as `access_token=`.
	ModeToken
)

func (m Mode) String() string {
	if m == ModeToken {
		return "token"
	}

	return "key"
}

// authParam returns the query parameter name the credential is sent under.
func (m Mode) authParam() string {
	if m == ModeToken {
		return "access_token"
	}

	return "key"
}

var reToken = regexp.MustCompile(`^[\w-]+\.[\w-]+\.[\w-]+$`)

// Classify determines the auth mode purely from the shape of the credential.
func Classify(credential string) Mode {
	if reToken.MatchString(credential) {
		return ModeToken
	}

	return ModeKey
}

type tokenEnvelope struct {
	Data struct {
		WebAPIToken string `json:"webapi_token"`
	} `json:"data"`
}

// UnwrapEnvelope extracts the token from the JSON document served by the store's
// token endpoint. Anything that is not such a document is returned unchanged.
func UnwrapEnvelope(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return raw
	}

	var envelope tokenEnvelope
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return raw
	}

	if envelope.Data.WebAPIToken == "" {
		return raw
	}

	return envelope.Data.WebAPIToken
}

// TokenClaims holds the subset of the access token payload we care about.
type TokenClaims struct {
	SubjectID steamid.SteamID
	ExpiresAt int64
}

// DecodeTokenClaims reads the payload of an access token without verifying its signature. The
// boolean result is false when the token is structurally invalid.
func DecodeTokenClaims(token string) (TokenClaims, bool) {
	if len(strings.Split(token, ".")) != 3 {
		return TokenClaims{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		// Fall back to a plain decode, steam tokens are not always accepted by the jwt parser
		// due to their header.
		fallback, ok := decodePayload(token)
		if !ok {
			return TokenClaims{}, false
		}
		claims = fallback
	}

	result := TokenClaims{}
	if claims.Subject != "" {
		result.SubjectID = steamid.New(claims.Subject)
	}

	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Unix()
	}

	return result, true
}

func decodePayload(token string) (jwt.RegisteredClaims, bool) {
	var claims jwt.RegisteredClaims

	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return claims, false
	}

	payload, errDecode := base64.RawURLEncoding.DecodeString(strings.TrimRight(segments[1], "="))
	if errDecode != nil {
		return claims, false
	}

	if err := json.Unmarshal(payload, &claims); err != nil {
		return claims, false
	}

	return claims, true
}
