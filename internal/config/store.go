package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
	"github.com/gyaneshwarpardhi/gridcmd/internal/metrics"
)

// systemDefaults is the bottom merge layer, used when neither the document
// default nor the per-type config supplies a value.
var systemDefaults = ResolvedConfig{
	EnabledCommandKeys: []string{"create", "open", "delete", "refresh"},
	ViewHint:           "grid",
	ToolbarDensity:     "comfortable",
}

// ResolvedConfig is the merged, immutable toolbar configuration for one
// record type. CustomCommands hold materialized descriptors ready for the
// dispatcher.
type ResolvedConfig struct {
	EnabledCommandKeys []string
	ViewHint           string
	ToolbarDensity     string
	CustomCommands     map[string]command.Descriptor
}

// Store parses, validates and caches the command document. Load never fails
// to the caller: a malformed or unsupported document logs a warning and is
// replaced by the empty default document.
type Store struct {
	mu    sync.RWMutex
	doc   *Document
	cache map[string]*ResolvedConfig // lower-cased record type → merged config
}

// NewStore creates a Store holding the empty default document.
func NewStore() *Store {
	return &Store{doc: emptyDocument(), cache: make(map[string]*ResolvedConfig)}
}

func emptyDocument() *Document {
	return &Document{SchemaVersion: SchemaVersion}
}

// Load parses raw as a command document and swaps it in, invalidating the
// per-type cache. It never fails to the caller: a nil/empty raw installs the
// empty default document, and a malformed or unsupported one logs a warning
// and does the same. Reload paths that must keep the current document on a
// bad read go through Replace instead.
func (s *Store) Load(raw []byte) {
	if len(raw) == 0 {
		// Host supplied no document; defaults only.
		s.install(emptyDocument())
		return
	}
	doc, err := parseDocument(raw)
	if err != nil {
		slog.Warn("command document rejected, using defaults", "err", err)
		metrics.ConfigErrors.Inc()
		doc = emptyDocument()
	}
	s.install(doc)
}

// Replace parses raw and swaps it in only if it is a valid document. On
// error the currently loaded document stays live.
func (s *Store) Replace(raw []byte) error {
	doc, err := parseDocument(raw)
	if err != nil {
		metrics.ConfigErrors.Inc()
		return err
	}
	s.install(doc)
	return nil
}

func parseDocument(raw []byte) (*Document, error) {
	var parsed Document
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse command document: %w", err)
	}
	if parsed.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %q, want %q", parsed.SchemaVersion, SchemaVersion)
	}
	// Record-type keys are matched case-insensitively.
	if len(parsed.TypeConfigs) > 0 {
		normalized := make(map[string]TypeConfig, len(parsed.TypeConfigs))
		for k, v := range parsed.TypeConfigs {
			normalized[strings.ToLower(k)] = v
		}
		parsed.TypeConfigs = normalized
	}
	return &parsed, nil
}

func (s *Store) install(doc *Document) {
	s.mu.Lock()
	s.doc = doc
	s.cache = make(map[string]*ResolvedConfig)
	s.mu.Unlock()
}

// Document returns the currently loaded document.
func (s *Store) Document() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Resolve returns the merged configuration for a record type. Results are
// cached until the next Load; repeated calls return the same value.
func (s *Store) Resolve(recordTypeName string) *ResolvedConfig {
	key := strings.ToLower(recordTypeName)

	s.mu.RLock()
	cached, ok := s.cache[key]
	doc := s.doc
	s.mu.RUnlock()
	if ok {
		return cached
	}

	rc := mergeLayers(doc, key)

	s.mu.Lock()
	// The document may have been swapped while merging; only cache against
	// the document we merged from.
	if s.doc == doc {
		s.cache[key] = rc
	}
	s.mu.Unlock()
	return rc
}

// mergeLayers performs the three-layer merge: system defaults, document
// default config, per-type config. Scalars take the most specific present
// value; customCommands union per key with field-by-field override.
func mergeLayers(doc *Document, key string) *ResolvedConfig {
	rc := &ResolvedConfig{
		EnabledCommandKeys: systemDefaults.EnabledCommandKeys,
		ViewHint:           systemDefaults.ViewHint,
		ToolbarDensity:     systemDefaults.ToolbarDensity,
	}

	typeConf, hasType := doc.TypeConfigs[key]
	layers := []TypeConfig{doc.DefaultConfig}
	if hasType {
		layers = append(layers, typeConf)
	}

	for _, layer := range layers {
		if layer.EnabledCommandKeys != nil {
			rc.EnabledCommandKeys = layer.EnabledCommandKeys
		}
		if layer.ViewHint != "" {
			rc.ViewHint = layer.ViewHint
		}
		if layer.ToolbarDensity != "" {
			rc.ToolbarDensity = layer.ToolbarDensity
		}
	}

	merged := make(map[string]DescriptorConf)
	for k, v := range doc.DefaultConfig.CustomCommands {
		merged[strings.ToLower(k)] = v
	}
	if hasType {
		for k, v := range typeConf.CustomCommands {
			lk := strings.ToLower(k)
			if base, ok := merged[lk]; ok {
				merged[lk] = base.merge(v)
			} else {
				merged[lk] = v
			}
		}
	}

	rc.CustomCommands = make(map[string]command.Descriptor, len(merged))
	for k, conf := range merged {
		desc, err := conf.materialize(k)
		if err != nil {
			// Invalid entries degrade to absence, never to a failure.
			slog.Warn("dropping invalid custom command", "recordType", key, "err", err)
			continue
		}
		rc.CustomCommands[k] = desc
	}
	return rc
}
