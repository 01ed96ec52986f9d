package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thegrumpylion/google-mcp/internal/gmailerr"
	"github.com/thegrumpylion/google-mcp/internal/model"
)

// document is the on-disk shape of rules.json.
type document struct {
	Rules []model.Rule `json:"rules"`
}

// Store is the Rule Store: a single JSON document, loaded lazily,
// written via write-temp + fsync + rename for crash safety. Concurrent
// writers are serialised by mu; cross-process concurrency is unsupported.
type Store struct {
	mu   sync.Mutex
	path string
	doc  *document
}

// NewStore builds a Store backed by the JSON document at path. The
// document is not read until first use.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) ensureLoaded() error {
	if s.doc != nil {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.doc = &document{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading rule store: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing rule store: %w", err)
	}
	s.doc = &doc
	return nil
}

// save performs write-temp + fsync + rename into s.path.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating rule store directory: %w", err)
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rule store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".rules-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp rule store file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp rule store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsyncing temp rule store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp rule store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming rule store file into place: %w", err)
	}
	return nil
}

// List returns a snapshot of all rules, in store order.
func (s *Store) List() ([]model.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make([]model.Rule, len(s.doc.Rules))
	copy(out, s.doc.Rules)
	return out, nil
}

// Lookup finds a rule by id first, then by exact name.
func (s *Store) Lookup(idOrName string) (model.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return model.Rule{}, err
	}
	for _, r := range s.doc.Rules {
		if r.ID == idOrName {
			return r, nil
		}
	}
	var found *model.Rule
	for i := range s.doc.Rules {
		if s.doc.Rules[i].Name == idOrName {
			if found != nil {
				return model.Rule{}, gmailerr.New(gmailerr.Internal, "rule name %q is ambiguous in store", idOrName)
			}
			found = &s.doc.Rules[i]
		}
	}
	if found == nil {
		return model.Rule{}, gmailerr.New(gmailerr.NotFound, "rule %q not found", idOrName)
	}
	return *found, nil
}

// Add creates a new rule, server-assigning its id and timestamps. Rejects a
// duplicate (case-sensitive) name with RuleConflict.
func (s *Store) Add(r model.Rule) (model.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return model.Rule{}, err
	}
	if len(r.Conditions) == 0 {
		return model.Rule{}, gmailerr.New(gmailerr.InvalidInput, "rule must have at least one condition")
	}
	if len(r.Actions) == 0 {
		return model.Rule{}, gmailerr.New(gmailerr.InvalidInput, "rule must have at least one action")
	}
	for _, existing := range s.doc.Rules {
		if existing.Name == r.Name {
			return model.Rule{}, gmailerr.New(gmailerr.RuleConflict, "rule name %q already exists", r.Name)
		}
	}
	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.ConditionConjunction == "" {
		r.ConditionConjunction = model.ConjunctionAND
	}
	s.doc.Rules = append(s.doc.Rules, r)
	if err := s.save(); err != nil {
		return model.Rule{}, err
	}
	return r, nil
}

// Delete removes a rule by id or name.
func (s *Store) Delete(idOrName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	idx := -1
	for i, r := range s.doc.Rules {
		if r.ID == idOrName || r.Name == idOrName {
			if idx != -1 {
				return gmailerr.New(gmailerr.Internal, "rule identifier %q is ambiguous in store", idOrName)
			}
			idx = i
		}
	}
	if idx == -1 {
		return gmailerr.New(gmailerr.NotFound, "rule %q not found", idOrName)
	}
	s.doc.Rules = append(s.doc.Rules[:idx], s.doc.Rules[idx+1:]...)
	return s.save()
}
