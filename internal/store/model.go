package store

import "time"

// DateLayout is the calendar-date key format used for journal entries and
// drafts.
const DateLayout = "2006-01-02"

// Entry is a committed journal entry for one calendar date. One entry per
// date; re-saving a date overwrites the record wholesale.
type Entry struct {
	HTML      string `json:"html"`
	Text      string `json:"text"`
	WordCount int    `json:"wordCount"`
	Photo     string `json:"photo,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Draft is autosaved, uncommitted entry content for a prospective date.
type Draft struct {
	HTML      string `json:"html"`
	Text      string `json:"text"`
	Photo     string `json:"photo,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ProjectStatus enumerates the lifecycle states of a project.
type ProjectStatus string

const (
	ProjectStatusActive ProjectStatus = "active"
	ProjectStatusSolved ProjectStatus = "solved"
)

// ListItem is one element of a project's ideas, actions, or progress list.
// The id is generated at creation time and stable for the item's lifetime;
// storage order is insertion order. Done is meaningful only on action items.
type ListItem struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Done      bool   `json:"done,omitempty"`
}

// Project is a thinking canvas: goal, situation, three ordered item lists,
// and freeform notes.
type Project struct {
	Title     string        `json:"title"`
	Status    ProjectStatus `json:"status"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
	Goal      string        `json:"goal"`
	Situation string        `json:"situation"`
	Ideas     []ListItem    `json:"ideas"`
	Actions   []ListItem    `json:"actions"`
	Progress  []ListItem    `json:"progress"`
	Notes     string        `json:"notes"`
}

// ProjectStats summarizes all projects in a single pass.
type ProjectStats struct {
	ActiveCount int `json:"activeCount"`
	SolvedCount int `json:"solvedCount"`
	TotalIdeas  int `json:"totalIdeas"`
}

// Snapshot is a full, self-contained dump of both collections, suitable for
// download/upload round-trips. A nil collection means the snapshot does not
// carry that collection; import leaves the stored one untouched.
type Snapshot struct {
	Entries    map[string]Entry   `json:"entries,omitempty"`
	Projects   map[string]Project `json:"projects,omitempty"`
	ExportDate string             `json:"exportDate,omitempty"`
}

// Midnight normalizes an instant to its local calendar date.
func Midnight(instant time.Time) time.Time {
	year, month, day := instant.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, instant.Location())
}

// DateKey formats an instant as its local calendar-date key.
func DateKey(instant time.Time) string {
	return instant.Format(DateLayout)
}
