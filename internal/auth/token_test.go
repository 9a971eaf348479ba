package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestToken(t *testing.T) {
	tests := []struct {
		name       string
		cookie     *http.Cookie
		header     string
		wantToken  string
		wantSource TokenSource
	}{
		{
			name:       "cookie wins over header",
			cookie:     &http.Cookie{Name: AccessTokenCookie, Value: "cookie_token"},
			header:     "Bearer header_token",
			wantToken:  "cookie_token",
			wantSource: SourceCookie,
		},
		{
			name:       "bearer header",
			header:     "Bearer header_token",
			wantToken:  "header_token",
			wantSource: SourceHeader,
		},
		{
			name:       "scheme is case insensitive",
			header:     "bearer  header_token ",
			wantToken:  "header_token",
			wantSource: SourceHeader,
		},
		{
			name:       "blank cookie falls back to header",
			cookie:     &http.Cookie{Name: AccessTokenCookie, Value: " "},
			header:     "Bearer header_token",
			wantToken:  "header_token",
			wantSource: SourceHeader,
		},
		{
			name:       "basic auth is ignored",
			header:     "Basic user:pass",
			wantSource: SourceNone,
		},
		{
			name:       "bearer without token",
			header:     "Bearer ",
			wantSource: SourceNone,
		},
		{
			name:       "nothing sent",
			wantSource: SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			token, source := RequestToken(req)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}
