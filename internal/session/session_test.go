package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return raw
}

func TestSetPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("init on a missing file must succeed, got %v", err)
	}
	if err := store.Set("access-token", "refresh-token"); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}

	restored := NewStore(path)
	if err := restored.Init(); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	if restored.AccessToken() != "access-token" {
		t.Fatalf("expected the access token to survive a restart, got %q", restored.AccessToken())
	}
	if restored.RefreshToken() != "refresh-token" {
		t.Fatalf("expected the refresh token to survive a restart, got %q", restored.RefreshToken())
	}
}

func TestSetCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")

	store := NewStore(path)
	if err := store.Set("access-token", ""); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected the session file on disk: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path)
	if err := store.Set("access-token", ""); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("unexpected clear error: %v", err)
	}
	if store.AccessToken() != "" {
		t.Fatalf("expected the access token cleared")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected the session file removed, got %v", err)
	}

	// Clearing an already cleared session must be a no-op.
	if err := store.Clear(); err != nil {
		t.Fatalf("repeated clear must succeed, got %v", err)
	}
}

func TestCorruptFileMeansNoSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("failed to seed corrupt file: %v", err)
	}

	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("a corrupt file must not fail the boot, got %v", err)
	}
	if store.Valid() {
		t.Fatalf("a corrupt file must leave the store signed out")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{
			name:  "empty token is invalid",
			token: "",
			want:  false,
		},
		{
			name:  "opaque token is presumed valid",
			token: "opaque-session-token",
			want:  true,
		},
		{
			name:  "live jwt is valid",
			token: "", // filled in below
			want:  true,
		},
		{
			name:  "expired jwt is invalid",
			token: "", // filled in below
			want:  false,
		},
	}
	tests[2].token = signedToken(t, time.Now().Add(time.Hour))
	tests[3].token = signedToken(t, time.Now().Add(-time.Hour))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			store := NewStore(path)
			if tt.token != "" {
				if err := store.Set(tt.token, ""); err != nil {
					t.Fatalf("unexpected set error: %v", err)
				}
			}
			if got := store.Valid(); got != tt.want {
				t.Fatalf("expected valid=%t, got %t", tt.want, got)
			}
		})
	}
}
