package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidToken(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   bool
	}{
		{name: "matching token", secret: "abc", header: "Bearer abc", want: true},
		{name: "wrong token", secret: "abc", header: "Bearer xyz", want: false},
		{name: "missing prefix", secret: "abc", header: "abc", want: false},
		{name: "empty header", secret: "abc", header: "", want: false},
		{name: "empty secret rejects everything", secret: "", header: "Bearer abc", want: false},
		{name: "token is prefix of secret", secret: "abcdef", header: "Bearer abc", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validToken(tt.secret, tt.header); got != tt.want {
				t.Errorf("validToken(%q, %q) = %v, want %v", tt.secret, tt.header, got, tt.want)
			}
		})
	}
}

func TestRequireToken_ErrorBodyIsJSONRPC(t *testing.T) {
	h := requireToken("s3cret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}
