package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"budget-advisor/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenAcceptedUntilExpiry(t *testing.T) {
	issued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m := NewTokenManager([]byte("secret"))
	m.now = fixedClock(issued)

	token, expiresAt, err := m.Issue(models.Identity{UserID: 7, Username: "alice"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.Equal(issued.Add(24 * time.Hour)) {
		t.Fatalf("expected 24h expiry, got %v", expiresAt)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"immediately", issued, false},
		{"one hour later", issued.Add(time.Hour), false},
		{"just before expiry", issued.Add(24*time.Hour - time.Second), false},
		{"at expiry", issued.Add(24 * time.Hour), true},
		{"after expiry", issued.Add(25 * time.Hour), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m.now = fixedClock(tc.at)
			identity, err := m.Verify(token)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("expected ErrInvalidToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if identity.UserID != 7 || identity.Username != "alice" {
				t.Fatalf("unexpected identity: %+v", identity)
			}
		})
	}
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	other := NewTokenManager([]byte("other-secret"))
	token, _, err := other.Issue(models.Identity{UserID: 1, Username: "mallory"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenManager([]byte("secret")).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID:   1,
		Username: "mallory",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := NewTokenManager([]byte("secret")).Verify(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenWithoutExpiryRejected(t *testing.T) {
	claims := Claims{UserID: 1, Username: "alice"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenManager([]byte("secret")).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	m := NewTokenManager([]byte("secret"))
	token, _, err := m.Issue(models.Identity{UserID: 3, Username: "bob"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid", "Bearer " + token, nil},
		{"lowercase scheme", "bearer " + token, nil},
		{"missing header", "", ErrMissingToken},
		{"scheme only", "Bearer", ErrMissingToken},
		{"other scheme", "Basic " + token, ErrMissingToken},
		{"malformed token", "Bearer not-a-jwt", ErrInvalidToken},
		{"tampered claims", "Bearer " + tamperClaims(token), ErrInvalidToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := m.Authorize(tc.header)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("authorize: %v", err)
			}
			if identity.UserID != 3 {
				t.Fatalf("unexpected identity: %+v", identity)
			}
		})
	}
}

func tamperClaims(token string) string {
	parts := strings.Split(token, ".")
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"userId":99,"username":"mallory","exp":4102444800}`))
	return strings.Join(parts, ".")
}
