package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpand_HomeShortcut(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("user home dir: %v", err)
	}

	got, err := Expand("~/.apprentice/rag")
	if err != nil {
		t.Fatalf("expand path: %v", err)
	}

	want := filepath.Join(home, ".apprentice", "rag")
	if got != want {
		t.Fatalf("path mismatch: got %q want %q", got, want)
	}
}

func TestExpand_EnvVar(t *testing.T) {
	t.Setenv("APPRENTICE_PATH_TEST", "/tmp/apprentice-path")

	got, err := Expand("$APPRENTICE_PATH_TEST/rag")
	if err != nil {
		t.Fatalf("expand path: %v", err)
	}

	want := filepath.Clean("/tmp/apprentice-path/rag")
	if got != want {
		t.Fatalf("path mismatch: got %q want %q", got, want)
	}
}

func TestExpand_HomeEnvTilde(t *testing.T) {
	t.Setenv("HOME", "~")

	got, err := Expand("~/.apprentice/rag")
	if err != nil {
		t.Fatalf("expand path with HOME=~: %v", err)
	}
	if got == "" {
		t.Fatal("expanded path is empty")
	}
	if got[0] == '~' {
		t.Fatalf("path not expanded: %q", got)
	}
}

func TestExpand_Empty(t *testing.T) {
	got, err := Expand("   ")
	if err != nil || got != "" {
		t.Fatalf("expected empty path, got %q (%v)", got, err)
	}
}

func TestInHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := InHome(".apprentice.yaml")
	if err != nil {
		t.Fatalf("in home: %v", err)
	}
	if want := filepath.Join(home, ".apprentice.yaml"); got != want {
		t.Fatalf("path mismatch: got %q want %q", got, want)
	}
}
