// Package store owns the durable data model of the application: the entry
// and project collections, the draft namespace, and the derived statistics
// the rest of the app reads. All access is read-modify-write over the
// key-value adapter with last-writer-wins semantics; nothing in this
// package coordinates concurrent instances sharing the same storage.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/daybook-labs/daybook/internal/kv"
	"github.com/daybook-labs/daybook/internal/markup"
	"go.uber.org/zap"
)

const (
	keyEntries     = "journalEntries"
	keyProjects    = "journalProjects"
	draftKeyPrefix = "draft_"
	legacyTodayKey = "todayEntry"

	mirrorPathEntries  = "journal/entries"
	mirrorPathProjects = "projects/projects"
)

var (
	errMissingAdapter = errors.New("key-value adapter is required")
	// ErrInvalidSnapshot indicates an import payload that could not be
	// decoded; no collection is touched when it is returned.
	ErrInvalidSnapshot = errors.New("store: invalid snapshot")
	noOpLogger         = zap.NewNop()
)

const (
	opStoreNew      = "store.new"
	opLoadEntries   = "store.load_entries"
	opSaveEntries   = "store.save_entries"
	opLoadProjects  = "store.load_projects"
	opSaveProjects  = "store.save_projects"
	opLoadDraft     = "store.load_draft"
	opSaveDraft     = "store.save_draft"
	opDeleteDraft   = "store.delete_draft"
	opListDrafts    = "store.list_drafts"
	opImportAll     = "store.import_all"
	opMigrateLegacy = "store.migrate_legacy"
)

// StoreError carries a stable operation.reason code alongside its cause.
type StoreError struct {
	code string
	err  error
}

func (e *StoreError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *StoreError) Unwrap() error {
	return e.err
}

func (e *StoreError) Code() string {
	return e.code
}

func newStoreError(operation, reason string, cause error) error {
	return &StoreError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// Mirror receives a copy of every collection write for opportunistic push
// to a remote account store. Implementations must not block and must
// swallow their own failures; the local write has already succeeded by the
// time the mirror sees the payload.
type Mirror interface {
	Push(path string, payload any)
}

type nopMirror struct{}

func (nopMirror) Push(string, any) {}

// StoreConfig describes the dependencies of the data store.
type StoreConfig struct {
	Adapter kv.Adapter
	Clock   func() time.Time
	Logger  *zap.Logger
	Mirror  Mirror
}

// Store provides typed accessors over the key-value adapter.
type Store struct {
	adapter kv.Adapter
	clock   func() time.Time
	logger  *zap.Logger
	mirror  Mirror
}

// NewStore validates the configuration and constructs a Store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Adapter == nil {
		return nil, newStoreError(opStoreNew, "missing_adapter", errMissingAdapter)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	mirror := cfg.Mirror
	if mirror == nil {
		mirror = nopMirror{}
	}
	return &Store{adapter: cfg.Adapter, clock: clock, logger: logger, mirror: mirror}, nil
}

// Now returns the store's current instant.
func (s *Store) Now() time.Time {
	return s.clock()
}

// Today returns the store's current local calendar-date key.
func (s *Store) Today() string {
	return DateKey(s.clock())
}

// Entries returns the full entries collection. An absent or malformed blob
// reads as an empty collection rather than an error, so one corrupt value
// cannot wedge the whole app.
func (s *Store) Entries() (map[string]Entry, error) {
	raw, ok, err := s.adapter.Get(keyEntries)
	if err != nil {
		return nil, newStoreError(opLoadEntries, "adapter_read_failed", err)
	}
	entries := map[string]Entry{}
	if !ok {
		return entries, nil
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Warn("malformed collection treated as empty",
			zap.String("collection", keyEntries), zap.Error(err))
		return map[string]Entry{}, nil
	}
	return entries, nil
}

// SaveEntries serializes and writes the entire entries collection, then
// hands the same payload to the mirror. Mirror failures never surface here.
func (s *Store) SaveEntries(entries map[string]Entry) error {
	if err := s.saveCollection(opSaveEntries, keyEntries, entries); err != nil {
		return err
	}
	s.mirror.Push(mirrorPathEntries, entries)
	return nil
}

// Entry returns the record for one date and whether it exists.
func (s *Store) Entry(date string) (Entry, bool, error) {
	entries, err := s.Entries()
	if err != nil {
		return Entry{}, false, err
	}
	entry, ok := entries[date]
	return entry, ok, nil
}

// SaveEntry stores one entry via a full-collection read-modify-write.
// Last writer wins; there is no optimistic concurrency check.
func (s *Store) SaveEntry(date string, entry Entry) error {
	entries, err := s.Entries()
	if err != nil {
		return err
	}
	entries[date] = entry
	return s.SaveEntries(entries)
}

// DeleteEntry removes the entry for one date.
func (s *Store) DeleteEntry(date string) error {
	entries, err := s.Entries()
	if err != nil {
		return err
	}
	delete(entries, date)
	return s.SaveEntries(entries)
}

// Projects returns the full projects collection with the same leniency
// policy as Entries.
func (s *Store) Projects() (map[string]Project, error) {
	raw, ok, err := s.adapter.Get(keyProjects)
	if err != nil {
		return nil, newStoreError(opLoadProjects, "adapter_read_failed", err)
	}
	projects := map[string]Project{}
	if !ok {
		return projects, nil
	}
	if err := json.Unmarshal([]byte(raw), &projects); err != nil {
		s.logger.Warn("malformed collection treated as empty",
			zap.String("collection", keyProjects), zap.Error(err))
		return map[string]Project{}, nil
	}
	return projects, nil
}

// SaveProjects serializes and writes the entire projects collection, then
// hands the same payload to the mirror.
func (s *Store) SaveProjects(projects map[string]Project) error {
	if err := s.saveCollection(opSaveProjects, keyProjects, projects); err != nil {
		return err
	}
	s.mirror.Push(mirrorPathProjects, projects)
	return nil
}

// Project returns the record for one project id and whether it exists.
func (s *Store) Project(id string) (Project, bool, error) {
	projects, err := s.Projects()
	if err != nil {
		return Project{}, false, err
	}
	project, ok := projects[id]
	return project, ok, nil
}

// SaveProject stores one project via a full-collection read-modify-write.
func (s *Store) SaveProject(id string, project Project) error {
	projects, err := s.Projects()
	if err != nil {
		return err
	}
	projects[id] = project
	return s.SaveProjects(projects)
}

// DeleteProject removes one project.
func (s *Store) DeleteProject(id string) error {
	projects, err := s.Projects()
	if err != nil {
		return err
	}
	delete(projects, id)
	return s.SaveProjects(projects)
}

// Draft returns the autosaved draft for one date. Drafts are individually
// keyed, bypassing the collection blobs.
func (s *Store) Draft(date string) (Draft, bool, error) {
	raw, ok, err := s.adapter.Get(draftKeyPrefix + date)
	if err != nil {
		return Draft{}, false, newStoreError(opLoadDraft, "adapter_read_failed", err)
	}
	if !ok {
		return Draft{}, false, nil
	}
	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		s.logger.Warn("malformed draft treated as absent",
			zap.String("date", date), zap.Error(err))
		return Draft{}, false, nil
	}
	return draft, true, nil
}

// SaveDraft overwrites the draft for one date. Drafts are never mirrored.
func (s *Store) SaveDraft(date string, draft Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return newStoreError(opSaveDraft, "encode_failed", err)
	}
	if err := s.adapter.Set(draftKeyPrefix+date, string(payload)); err != nil {
		return newStoreError(opSaveDraft, "adapter_write_failed", err)
	}
	return nil
}

// DeleteDraft removes the draft for one date.
func (s *Store) DeleteDraft(date string) error {
	if err := s.adapter.Remove(draftKeyPrefix + date); err != nil {
		return newStoreError(opDeleteDraft, "adapter_write_failed", err)
	}
	return nil
}

// Drafts enumerates every stored draft by key-prefix scan.
func (s *Store) Drafts() (map[string]Draft, error) {
	keys, err := s.adapter.Keys(draftKeyPrefix)
	if err != nil {
		return nil, newStoreError(opListDrafts, "adapter_scan_failed", err)
	}
	drafts := make(map[string]Draft, len(keys))
	for _, key := range keys {
		date := key[len(draftKeyPrefix):]
		draft, ok, err := s.Draft(date)
		if err != nil {
			return nil, err
		}
		if ok {
			drafts[date] = draft
		}
	}
	return drafts, nil
}

// CalculateStreak counts consecutive calendar days with a committed entry,
// walking backward from today. A day without an entry breaks the chain, so
// an entry-less today yields zero.
func (s *Store) CalculateStreak() (int, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}
	today := Midnight(s.clock())
	streak := 0
	for i := 0; i < len(entries); i++ {
		day := DateKey(today.AddDate(0, 0, -i))
		if _, ok := entries[day]; !ok {
			break
		}
		streak++
	}
	return streak, nil
}

// TotalWords sums the cached word counts across all entries.
func (s *Store) TotalWords() (int, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, entry := range entries {
		total += entry.WordCount
	}
	return total, nil
}

// GetProjectStats tallies project status counts and idea totals in one
// pass.
func (s *Store) GetProjectStats() (ProjectStats, error) {
	projects, err := s.Projects()
	if err != nil {
		return ProjectStats{}, err
	}
	var stats ProjectStats
	for _, project := range projects {
		switch project.Status {
		case ProjectStatusActive:
			stats.ActiveCount++
		case ProjectStatusSolved:
			stats.SolvedCount++
		}
		stats.TotalIdeas += len(project.Ideas)
	}
	return stats, nil
}

// ExportAll produces a full dump of both collections.
func (s *Store) ExportAll() (Snapshot, error) {
	entries, err := s.Entries()
	if err != nil {
		return Snapshot{}, err
	}
	projects, err := s.Projects()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Entries:    entries,
		Projects:   projects,
		ExportDate: s.clock().UTC().Format(time.RFC3339),
	}, nil
}

// EncodeSnapshot renders a snapshot as the human-readable export document.
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	return json.MarshalIndent(snapshot, "", "  ")
}

// DecodeSnapshot parses an import payload. A structurally invalid document
// fails with ErrInvalidSnapshot before any collection is touched.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return snapshot, nil
}

// ImportAll overwrites each collection the snapshot carries, wholesale.
// This is replace, not merge: a provided collection fully supersedes the
// stored one, while an absent collection is left untouched.
func (s *Store) ImportAll(snapshot Snapshot) error {
	if snapshot.Entries != nil {
		if err := s.SaveEntries(snapshot.Entries); err != nil {
			return newStoreError(opImportAll, "entries_write_failed", err)
		}
	}
	if snapshot.Projects != nil {
		if err := s.SaveProjects(snapshot.Projects); err != nil {
			return newStoreError(opImportAll, "projects_write_failed", err)
		}
	}
	return nil
}

// MigrateLegacy consumes the pre-collection single-entry key, wrapping its
// plain text into today's entry when today has none, then deletes the key.
// Idempotent: once the key is gone a second call does nothing.
func (s *Store) MigrateLegacy() error {
	raw, ok, err := s.adapter.Get(legacyTodayKey)
	if err != nil {
		return newStoreError(opMigrateLegacy, "adapter_read_failed", err)
	}
	if !ok {
		return nil
	}
	today := s.Today()
	entries, err := s.Entries()
	if err != nil {
		return err
	}
	if _, exists := entries[today]; !exists {
		entries[today] = Entry{
			Text:      raw,
			WordCount: markup.CountWords(raw),
			Timestamp: s.clock().UTC().Format(time.RFC3339),
		}
		if err := s.SaveEntries(entries); err != nil {
			return err
		}
	}
	if err := s.adapter.Remove(legacyTodayKey); err != nil {
		return newStoreError(opMigrateLegacy, "adapter_write_failed", err)
	}
	return nil
}

func (s *Store) saveCollection(operation, key string, collection any) error {
	payload, err := json.Marshal(collection)
	if err != nil {
		return newStoreError(operation, "encode_failed", err)
	}
	if err := s.adapter.Set(key, string(payload)); err != nil {
		return newStoreError(operation, "adapter_write_failed", err)
	}
	return nil
}
