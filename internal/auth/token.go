package auth

import (
	"net/http"
	"strings"
)

const AccessTokenCookie = "access_token"

// TokenSource says where a request carried its access token.
type TokenSource string

const (
	SourceNone   TokenSource = ""
	SourceCookie TokenSource = "cookie"
	SourceHeader TokenSource = "header"
)

// RequestToken returns the access token of r. A non-empty access_token
// cookie wins over an Authorization header; the header scheme must be
// Bearer (any case).
func RequestToken(r *http.Request) (string, TokenSource) {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		if v := strings.TrimSpace(cookie.Value); v != "" {
			return v, SourceCookie
		}
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", SourceNone
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", SourceNone
	}
	return token, SourceHeader
}
