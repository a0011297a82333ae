package appmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hebbarp/c9ai/internal/platform"
)

// Store maps lowercased application aliases to per-OS executables. Defaults
// ship in the file's "applications" section; aliases that only resolve via a
// fallback probe are persisted under "learning" so the probe is never
// repeated. It is a cache, not a ledger: a crash between mutation and
// persistence loses at most one learned entry.
type Store struct {
	path string
	data mappingFile
}

type mappingFile struct {
	// alias -> family -> executable
	Applications map[string]map[string]string `json:"applications"`
	Learning     learning                     `json:"learning"`
}

type learning struct {
	// alias -> family -> executable that actually worked
	Successful map[string]map[string]string `json:"successful_mappings"`
	// family -> aliases that exhausted every candidate
	Failed map[string][]string `json:"failed_attempts"`
}

// Load reads the mapping file; a missing file yields an empty store bound to
// the same path.
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.ensureMaps()
			return s, nil
		}
		return nil, fmt.Errorf("read app mappings %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.data); err != nil {
		return nil, fmt.Errorf("parse app mappings %q: %w", path, err)
	}
	s.ensureMaps()
	return s, nil
}

func (s *Store) ensureMaps() {
	if s.data.Applications == nil {
		s.data.Applications = map[string]map[string]string{}
	}
	if s.data.Learning.Successful == nil {
		s.data.Learning.Successful = map[string]map[string]string{}
	}
	if s.data.Learning.Failed == nil {
		s.data.Learning.Failed = map[string][]string{}
	}
}

// Lookup returns the executable for an alias on a family. Learned mappings
// take precedence over shipped defaults.
func (s *Store) Lookup(alias string, family platform.Family) (string, bool) {
	alias = normalize(alias)
	if byOS, ok := s.data.Learning.Successful[alias]; ok {
		if exe, ok := byOS[string(family)]; ok && exe != "" {
			return exe, true
		}
	}
	if byOS, ok := s.data.Applications[alias]; ok {
		if exe, ok := byOS[string(family)]; ok && exe != "" {
			return exe, true
		}
	}
	return "", false
}

// Learn records that alias resolved to exe on family and persists the store.
func (s *Store) Learn(alias string, family platform.Family, exe string) error {
	alias = normalize(alias)
	if alias == "" || strings.TrimSpace(exe) == "" {
		return errors.New("empty alias or executable")
	}
	byOS, ok := s.data.Learning.Successful[alias]
	if !ok {
		byOS = map[string]string{}
		s.data.Learning.Successful[alias] = byOS
	}
	byOS[string(family)] = exe
	return s.persist()
}

// RecordFailure notes that every candidate for alias failed on family.
func (s *Store) RecordFailure(alias string, family platform.Family) error {
	alias = normalize(alias)
	fam := string(family)
	for _, existing := range s.data.Learning.Failed[fam] {
		if existing == alias {
			return nil
		}
	}
	s.data.Learning.Failed[fam] = append(s.data.Learning.Failed[fam], alias)
	return s.persist()
}

func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create app mappings dir: %w", err)
	}
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal app mappings: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write app mappings %q: %w", s.path, err)
	}
	return nil
}

func normalize(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}
