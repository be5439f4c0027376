package keys

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestSelector_HasCredential(t *testing.T) {
	store := &Store{configDir: t.TempDir()}
	sel := NewSelector(store, "gemini", "", "LOGOFORGE_TEST_KEY", strings.NewReader(""), &bytes.Buffer{})
	t.Setenv("LOGOFORGE_TEST_KEY", "")

	has, err := sel.HasCredential(context.Background())
	if err != nil {
		t.Fatalf("HasCredential() error = %v", err)
	}
	if has {
		t.Error("HasCredential() = true for empty store")
	}

	if err := store.Set("gemini", "AIzaSyTest"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	has, err = sel.HasCredential(context.Background())
	if err != nil {
		t.Fatalf("HasCredential() error = %v", err)
	}
	if !has {
		t.Error("HasCredential() = false after Set")
	}
}

func TestSelector_HasCredential_EnvOnly(t *testing.T) {
	store := &Store{configDir: t.TempDir()}
	sel := NewSelector(store, "gemini", "", "LOGOFORGE_TEST_KEY", strings.NewReader(""), &bytes.Buffer{})
	t.Setenv("LOGOFORGE_TEST_KEY", "env-key")

	// Nothing stored, but the environment key counts.
	has, err := sel.HasCredential(context.Background())
	if err != nil {
		t.Fatalf("HasCredential() error = %v", err)
	}
	if !has {
		t.Error("HasCredential() = false with an environment key set")
	}
}

func TestSelector_HasCredential_ExplicitKey(t *testing.T) {
	store := &Store{configDir: t.TempDir()}
	sel := NewSelector(store, "gemini", "flag-key", "LOGOFORGE_TEST_KEY", strings.NewReader(""), &bytes.Buffer{})
	t.Setenv("LOGOFORGE_TEST_KEY", "")

	has, err := sel.HasCredential(context.Background())
	if err != nil {
		t.Fatalf("HasCredential() error = %v", err)
	}
	if !has {
		t.Error("HasCredential() = false with an explicit key")
	}
}

func TestSelector_OpenSelector_StoresKey(t *testing.T) {
	store := &Store{configDir: t.TempDir()}
	var out bytes.Buffer
	sel := NewSelector(store, "gemini", "", "", strings.NewReader("AIzaSyPasted\n"), &out)

	if err := sel.OpenSelector(context.Background()); err != nil {
		t.Fatalf("OpenSelector() error = %v", err)
	}

	key, err := store.Get("gemini")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if key != "AIzaSyPasted" {
		t.Errorf("stored key = %q, want AIzaSyPasted", key)
	}
	if strings.Contains(out.String(), "AIzaSyPasted") {
		t.Error("OpenSelector() echoed the raw key")
	}
}

func TestSelector_OpenSelector_EmptyLineKeepsKey(t *testing.T) {
	store := &Store{configDir: t.TempDir()}
	if err := store.Set("gemini", "existing"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	sel := NewSelector(store, "gemini", "", "", strings.NewReader("\n"), &bytes.Buffer{})

	if err := sel.OpenSelector(context.Background()); err != nil {
		t.Fatalf("OpenSelector() error = %v", err)
	}
	key, _ := store.Get("gemini")
	if key != "existing" {
		t.Errorf("stored key = %q, want existing", key)
	}
}
