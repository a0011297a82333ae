package appmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hebbarp/c9ai/internal/platform"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "app_mappings.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Lookup("excel", platform.FamilyLinux); ok {
		t.Fatal("empty store must not resolve anything")
	}
}

func TestLearnedMappingWinsOverDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_mappings.json")
	seed := `{
  "applications": {
    "excel": {"linux": "libreoffice", "darwin": "Microsoft Excel"}
  },
  "learning": {"successful_mappings": {}, "failed_attempts": {}}
}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	exe, ok := s.Lookup("Excel", platform.FamilyLinux)
	if !ok || exe != "libreoffice" {
		t.Fatalf("default lookup: %q %v", exe, ok)
	}

	if err := s.Learn("excel", platform.FamilyLinux, "onlyoffice"); err != nil {
		t.Fatal(err)
	}
	exe, ok = s.Lookup("excel", platform.FamilyLinux)
	if !ok || exe != "onlyoffice" {
		t.Fatalf("learned lookup: %q %v", exe, ok)
	}

	// Families do not leak into each other.
	exe, ok = s.Lookup("excel", platform.FamilyDarwin)
	if !ok || exe != "Microsoft Excel" {
		t.Fatalf("darwin lookup: %q %v", exe, ok)
	}
}

func TestLearnPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_mappings.json")
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Learn("browser", platform.FamilyLinux, "firefox"); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordFailure("ghostapp", platform.FamilyLinux); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	exe, ok := reloaded.Lookup("browser", platform.FamilyLinux)
	if !ok || exe != "firefox" {
		t.Fatalf("after reload: %q %v", exe, ok)
	}
}

func TestRecordFailureIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_mappings.json")
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.RecordFailure("nosuch", platform.FamilyWindows); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(s.data.Learning.Failed["windows"]); got != 1 {
		t.Fatalf("failed entries=%d want 1", got)
	}
}
