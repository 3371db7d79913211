package journal

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/daybook-labs/daybook/internal/kv"
	"github.com/daybook-labs/daybook/internal/store"
)

func fixedClock(t *testing.T, value string) func() time.Time {
	t.Helper()
	instant, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local)
	if err != nil {
		t.Fatalf("unexpected clock parse error: %v", err)
	}
	return func() time.Time { return instant }
}

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	clock := fixedClock(t, "2026-08-31 15:04:05")
	dataStore, err := store.NewStore(store.StoreConfig{
		Adapter: kv.NewMemoryAdapter(0),
		Clock:   clock,
	})
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	service, err := NewService(ServiceConfig{Store: dataStore, Clock: clock})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service, dataStore
}

func TestNewServiceRequiresStore(t *testing.T) {
	if _, err := NewService(ServiceConfig{}); err == nil {
		t.Fatalf("expected missing store error")
	}
}

func TestSaveEntryComputesWordCountAndText(t *testing.T) {
	service, _ := newTestService(t)

	entry, err := service.SaveEntry("2026-08-31", "<p>one two <b>three</b></p>", "")
	if err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	if entry.WordCount != 3 {
		t.Fatalf("expected word count 3, got %d", entry.WordCount)
	}
	if strings.ContainsAny(entry.Text, "<>") {
		t.Fatalf("expected derived plain text, got %q", entry.Text)
	}
	if entry.Timestamp != "2026-08-31T15:04:05Z" && !strings.HasSuffix(entry.Timestamp, "Z") {
		t.Fatalf("expected RFC 3339 UTC timestamp, got %q", entry.Timestamp)
	}
}

func TestSaveEntrySanitizesMarkup(t *testing.T) {
	service, dataStore := newTestService(t)

	if _, err := service.SaveEntry("2026-08-31", `<p>safe</p><script>alert("x")</script>`, ""); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	entry, _, err := dataStore.Entry("2026-08-31")
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if strings.Contains(entry.HTML, "script") {
		t.Fatalf("expected stored markup sanitized, got %q", entry.HTML)
	}
}

func TestSaveEntryRejectsEmptyContent(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.SaveEntry("2026-08-31", "<p>   </p>", ""); !errors.Is(err, ErrEmptyEntry) {
		t.Fatalf("expected empty entry error, got %v", err)
	}
}

func TestSaveEntryRejectsInvalidDate(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.SaveEntry("31/08/2026", "<p>hi</p>", ""); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected invalid date error, got %v", err)
	}
}

func TestSaveEntryDeletesDraft(t *testing.T) {
	service, dataStore := newTestService(t)

	if err := service.Autosave("2026-08-31", "<p>work in progress</p>", ""); err != nil {
		t.Fatalf("unexpected autosave error: %v", err)
	}
	if _, ok, _ := dataStore.Draft("2026-08-31"); !ok {
		t.Fatalf("expected draft before save")
	}

	if _, err := service.SaveEntry("2026-08-31", "<p>final</p>", ""); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	if _, ok, _ := dataStore.Draft("2026-08-31"); ok {
		t.Fatalf("expected draft deleted after save")
	}
}

func TestAutosaveSkipsEmptyContent(t *testing.T) {
	service, dataStore := newTestService(t)

	if err := service.Autosave("2026-08-31", "<p>  </p>", ""); err != nil {
		t.Fatalf("unexpected autosave error: %v", err)
	}
	if _, ok, _ := dataStore.Draft("2026-08-31"); ok {
		t.Fatalf("expected no draft for empty content")
	}
}

func TestLoadEntryPrefersCommittedEntry(t *testing.T) {
	service, _ := newTestService(t)

	if err := service.Autosave("2026-08-31", "<p>draft text</p>", ""); err != nil {
		t.Fatalf("unexpected autosave error: %v", err)
	}
	if _, err := service.SaveEntry("2026-08-30", "<p>committed</p>", ""); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	state, err := service.LoadEntry("2026-08-30")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if state.Source != SourceEntry {
		t.Fatalf("expected committed entry source, got %q", state.Source)
	}

	state, err = service.LoadEntry("2026-08-31")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if state.Source != SourceDraft {
		t.Fatalf("expected draft source, got %q", state.Source)
	}

	state, err = service.LoadEntry("2026-08-29")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if state.Source != SourceEmpty || state.HTML != "" {
		t.Fatalf("expected empty state, got %#v", state)
	}
}

func TestHistorySortsAndFilters(t *testing.T) {
	service, _ := newTestService(t)

	seed := map[string]string{
		"2026-08-29": "<p>walked the dog</p>",
		"2026-08-30": "<p>long day at work</p>",
		"2026-08-31": "<p>walked to the lake</p>",
	}
	for date, html := range seed {
		if _, err := service.SaveEntry(date, html, ""); err != nil {
			t.Fatalf("unexpected save error for %s: %v", date, err)
		}
	}

	history, err := service.History("")
	if err != nil {
		t.Fatalf("unexpected history error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	if history[0].Date != "2026-08-31" || history[2].Date != "2026-08-29" {
		t.Fatalf("expected newest-first order, got %v", []string{history[0].Date, history[1].Date, history[2].Date})
	}

	filtered, err := service.History("WALKED")
	if err != nil {
		t.Fatalf("unexpected history error: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected case-insensitive match on 2 entries, got %d", len(filtered))
	}
}

func TestStats(t *testing.T) {
	service, _ := newTestService(t)

	for _, date := range []string{"2026-08-31", "2026-08-30"} {
		if _, err := service.SaveEntry(date, "<p>one two</p>", ""); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}
	}

	stats, err := service.Stats()
	if err != nil {
		t.Fatalf("unexpected stats error: %v", err)
	}
	if stats.Streak != 2 {
		t.Fatalf("expected streak 2, got %d", stats.Streak)
	}
	if stats.TotalEntries != 2 {
		t.Fatalf("expected 2 entries, got %d", stats.TotalEntries)
	}
	if stats.TotalWords != 4 {
		t.Fatalf("expected 4 words, got %d", stats.TotalWords)
	}
}

func TestRandomPromptUsesInjectedPicker(t *testing.T) {
	dataStore, err := store.NewStore(store.StoreConfig{Adapter: kv.NewMemoryAdapter(0)})
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Store:     dataStore,
		Prompts:   []string{"first", "second", "third"},
		PickIndex: func(n int) int { return 2 },
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	if prompt := service.RandomPrompt(); prompt != "third" {
		t.Fatalf("expected injected pick, got %q", prompt)
	}
}

func TestCalendarDays(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.SaveEntry("2026-08-30", "<p>one two three</p>", ""); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	cells, err := service.CalendarDays(3)
	if err != nil {
		t.Fatalf("unexpected calendar error: %v", err)
	}
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}
	if cells[0].Date != "2026-08-29" || cells[2].Date != "2026-08-31" {
		t.Fatalf("expected oldest-first order, got %v", cells)
	}
	if !cells[2].Today {
		t.Fatalf("expected last cell marked today")
	}
	if !cells[1].Written || cells[1].WordCount != 3 {
		t.Fatalf("expected written marker with word count, got %#v", cells[1])
	}
	if cells[0].Written {
		t.Fatalf("expected unwritten day unmarked")
	}
}
