package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// TokenInfo is a canned identity-provider answer for one token.
type TokenInfo struct {
	Audience string `json:"aud"`
	Subject  string `json:"sub"`
	Email    string `json:"email"`
}

// TokenInfoServer stubs a Google-style tokeninfo endpoint. Unknown tokens get
// a 400, as the real endpoint does for invalid id_tokens.
type TokenInfoServer struct {
	*httptest.Server
	calls atomic.Int64
}

// NewTokenInfoServer starts a stub provider; it is closed on test cleanup.
func NewTokenInfoServer(t *testing.T, tokens map[string]TokenInfo) *TokenInfoServer {
	t.Helper()
	s := &TokenInfoServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		info, ok := tokens[r.URL.Query().Get("id_token")]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_token","error_description":"Invalid Value"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	}))
	t.Cleanup(s.Close)
	return s
}

// Calls returns how many verification requests the stub has served.
func (s *TokenInfoServer) Calls() int64 {
	return s.calls.Load()
}
