package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "backoffice-test", time.Hour)

	token, err := issuer.Issue(42, "admin", "admin")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if claims.Username != "admin" {
		t.Errorf("Username = %q, want %q", claims.Username, "admin")
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want %q", claims.Role, "admin")
	}

	userID, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID() error = %v", err)
	}
	if userID != 42 {
		t.Errorf("UserID() = %d, want 42", userID)
	}
}

func TestTokenVerifyErrors(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "backoffice-test", time.Hour)

	tests := []struct {
		name    string
		token   func() string
		wantErr error
	}{
		{
			name: "garbage token",
			token: func() string {
				return "not-a-token"
			},
			wantErr: ErrTokenInvalid,
		},
		{
			name: "wrong secret",
			token: func() string {
				other := NewTokenIssuer("other-secret", "backoffice-test", time.Hour)
				tok, _ := other.Issue(1, "admin", "admin")
				return tok
			},
			wantErr: ErrTokenInvalid,
		},
		{
			name: "wrong issuer",
			token: func() string {
				other := NewTokenIssuer("test-secret", "someone-else", time.Hour)
				tok, _ := other.Issue(1, "admin", "admin")
				return tok
			},
			wantErr: ErrTokenInvalid,
		},
		{
			name: "expired",
			token: func() string {
				expired := NewTokenIssuer("test-secret", "backoffice-test", -time.Minute)
				tok, _ := expired.Issue(1, "admin", "admin")
				return tok
			},
			wantErr: ErrTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
