// Package journal orchestrates the day's entry lifecycle against the data
// store: draft autosave, explicit save, load-by-date, history search, and
// the streak/word statistics the dashboard shows.
package journal

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/daybook-labs/daybook/internal/markup"
	"github.com/daybook-labs/daybook/internal/store"
	"go.uber.org/zap"
)

var (
	errMissingStore = errors.New("data store is required")
	// ErrEmptyEntry indicates a save attempt with no text content.
	ErrEmptyEntry = errors.New("journal: entry has no text content")
	// ErrInvalidDate indicates a date key that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("journal: invalid date")
	noOpLogger     = zap.NewNop()
)

const (
	opServiceNew = "journal.service.new"
	opSaveEntry  = "journal.save_entry"
)

// ServiceConfig describes the dependencies of the journal feature.
type ServiceConfig struct {
	Store   *store.Store
	Clock   func() time.Time
	Logger  *zap.Logger
	Prompts []string
	// PickIndex selects a prompt index in [0, n); defaults to math/rand.
	PickIndex func(n int) int
}

// Service implements the journal feature over the data store.
type Service struct {
	store     *store.Store
	clock     func() time.Time
	logger    *zap.Logger
	prompts   []string
	pickIndex func(n int) int
}

// NewService validates the configuration and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%s: %w", opServiceNew, errMissingStore)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	prompts := cfg.Prompts
	if len(prompts) == 0 {
		prompts = defaultPrompts
	}
	pickIndex := cfg.PickIndex
	if pickIndex == nil {
		pickIndex = rand.IntN
	}
	return &Service{
		store:     cfg.Store,
		clock:     clock,
		logger:    logger,
		prompts:   prompts,
		pickIndex: pickIndex,
	}, nil
}

// SaveEntry commits the entry for one date: sanitizes the markup, derives
// the plain text and word count, writes the record, and deletes any draft
// for the same date. The two writes are sequential, not transactional.
func (s *Service) SaveEntry(date, rawHTML, photo string) (store.Entry, error) {
	if err := ValidateDate(date); err != nil {
		return store.Entry{}, err
	}
	sanitized := markup.Sanitize(rawHTML)
	text := markup.PlainText(rawHTML)
	if text == "" {
		return store.Entry{}, ErrEmptyEntry
	}

	entry := store.Entry{
		HTML:      sanitized,
		Text:      text,
		WordCount: markup.CountWords(text),
		Photo:     photo,
		Timestamp: s.clock().UTC().Format(time.RFC3339),
	}
	if err := s.store.SaveEntry(date, entry); err != nil {
		return store.Entry{}, err
	}
	if err := s.store.DeleteDraft(date); err != nil {
		s.logger.Error("draft cleanup after save failed",
			zap.String("operation", opSaveEntry),
			zap.String("date", date), zap.Error(err))
		return store.Entry{}, err
	}
	s.logger.Info("entry saved",
		zap.String("date", date), zap.Int("word_count", entry.WordCount))
	return entry, nil
}

// DeleteEntry removes the committed entry for one date.
func (s *Service) DeleteEntry(date string) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	return s.store.DeleteEntry(date)
}

// EditorSource identifies where loaded editor content came from.
type EditorSource string

const (
	SourceEntry EditorSource = "entry"
	SourceDraft EditorSource = "draft"
	SourceEmpty EditorSource = "empty"
)

// EditorState is the content the editor should show for a date.
type EditorState struct {
	HTML      string       `json:"html"`
	Photo     string       `json:"photo,omitempty"`
	WordCount int          `json:"wordCount"`
	Source    EditorSource `json:"source"`
}

// LoadEntry resolves editor content for a date: the committed entry wins,
// then an autosaved draft, then empty.
func (s *Service) LoadEntry(date string) (EditorState, error) {
	if err := ValidateDate(date); err != nil {
		return EditorState{}, err
	}
	entry, ok, err := s.store.Entry(date)
	if err != nil {
		return EditorState{}, err
	}
	if ok {
		return EditorState{
			HTML:      entry.HTML,
			Photo:     entry.Photo,
			WordCount: entry.WordCount,
			Source:    SourceEntry,
		}, nil
	}
	draft, ok, err := s.store.Draft(date)
	if err != nil {
		return EditorState{}, err
	}
	if ok {
		return EditorState{
			HTML:      draft.HTML,
			Photo:     draft.Photo,
			WordCount: markup.CountWords(draft.Text),
			Source:    SourceDraft,
		}, nil
	}
	return EditorState{Source: SourceEmpty}, nil
}

// Autosave overwrites the draft for a date. Content with no text is a
// no-op so an emptied editor never clobbers a useful draft.
func (s *Service) Autosave(date, rawHTML, photo string) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	text := markup.PlainText(rawHTML)
	if text == "" {
		return nil
	}
	draft := store.Draft{
		HTML:      markup.Sanitize(rawHTML),
		Text:      text,
		Photo:     photo,
		Timestamp: s.clock().UTC().Format(time.RFC3339),
	}
	return s.store.SaveDraft(date, draft)
}

// Draft returns the stored draft for a date and whether one exists.
func (s *Service) Draft(date string) (store.Draft, bool, error) {
	if err := ValidateDate(date); err != nil {
		return store.Draft{}, false, err
	}
	return s.store.Draft(date)
}

// DiscardDraft deletes the draft for a date without committing anything.
func (s *Service) DiscardDraft(date string) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	return s.store.DeleteDraft(date)
}

// HistoryEntry pairs a date key with its committed entry.
type HistoryEntry struct {
	Date  string      `json:"date"`
	Entry store.Entry `json:"entry"`
}

// History returns committed entries newest-first, optionally filtered by a
// case-insensitive substring match over the plain text.
func (s *Service) History(search string) ([]HistoryEntry, error) {
	entries, err := s.store.Entries()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(search))
	history := make([]HistoryEntry, 0, len(entries))
	for date, entry := range entries {
		if needle != "" && !strings.Contains(strings.ToLower(entry.Text), needle) {
			continue
		}
		history = append(history, HistoryEntry{Date: date, Entry: entry})
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].Date > history[j].Date
	})
	return history, nil
}

// Stats summarizes journaling activity for the dashboard.
type Stats struct {
	Streak       int `json:"streak"`
	TotalEntries int `json:"totalEntries"`
	TotalWords   int `json:"totalWords"`
}

// Stats derives the streak and totals from the entries collection.
func (s *Service) Stats() (Stats, error) {
	entries, err := s.store.Entries()
	if err != nil {
		return Stats{}, err
	}
	streak, err := s.store.CalculateStreak()
	if err != nil {
		return Stats{}, err
	}
	words, err := s.store.TotalWords()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Streak: streak, TotalEntries: len(entries), TotalWords: words}, nil
}

// RandomPrompt returns one prompt from the rotation.
func (s *Service) RandomPrompt() string {
	return s.prompts[s.pickIndex(len(s.prompts))]
}

// CalendarDay is one cell of the recent-activity calendar strip.
type CalendarDay struct {
	Date      string `json:"date"`
	Written   bool   `json:"written"`
	Today     bool   `json:"today"`
	WordCount int    `json:"wordCount,omitempty"`
}

// CalendarDays returns the last days calendar cells, oldest first, marking
// days with a committed entry.
func (s *Service) CalendarDays(days int) ([]CalendarDay, error) {
	if days <= 0 {
		return []CalendarDay{}, nil
	}
	entries, err := s.store.Entries()
	if err != nil {
		return nil, err
	}
	today := store.Midnight(s.clock())
	cells := make([]CalendarDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := store.DateKey(today.AddDate(0, 0, -i))
		cell := CalendarDay{Date: date, Today: i == 0}
		if entry, ok := entries[date]; ok {
			cell.Written = true
			cell.WordCount = entry.WordCount
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// ValidateDate checks that the key is a real YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	if _, err := time.Parse(store.DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}
