package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewTokenIssuerRejectsShortSecret(t *testing.T) {
	if _, err := NewTokenIssuer([]byte("short"), 0); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestIssueAndVerify(t *testing.T) {
	ti, err := NewTokenIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	tok, err := ti.IssueAnonymous()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.UID == "" || tok.Token == "" {
		t.Fatalf("token = %+v", tok)
	}
	if strings.Count(tok.Token, ".") != 2 {
		t.Errorf("token %q is not a JWT", tok.Token)
	}
	if until := time.Until(tok.ExpiresAt); until < 59*time.Minute || until > time.Hour {
		t.Errorf("expires in %v, want about an hour", until)
	}

	uid, err := ti.Verify(tok.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != tok.UID {
		t.Errorf("uid = %q, want %q", uid, tok.UID)
	}
}

func TestEachAnonymousTokenHasOwnUID(t *testing.T) {
	ti, _ := NewTokenIssuer(testSecret, 0)
	a, _ := ti.IssueAnonymous()
	b, _ := ti.IssueAnonymous()
	if a.UID == b.UID {
		t.Error("expected distinct uids")
	}
}

func TestVerifyRejects(t *testing.T) {
	ti, _ := NewTokenIssuer(testSecret, time.Hour)
	other, _ := NewTokenIssuer([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	good, _ := ti.IssueAnonymous()
	forged, _ := other.IssueAnonymous()

	expiring, _ := NewTokenIssuer(testSecret, time.Minute)
	expiring.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiring.IssueAnonymous()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong secret", forged.Token},
		{"expired", expired.Token},
		{"tampered", good.Token + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ti.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
