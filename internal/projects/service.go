// Package projects orchestrates the thinking canvases: title and status
// management, the goal/situation/notes fields, and the three ordered item
// lists. Every mutation is a full read-modify-write of one project record
// and bumps its last-updated timestamp.
package projects

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/daybook-labs/daybook/internal/markup"
	"github.com/daybook-labs/daybook/internal/store"
	"go.uber.org/zap"
)

var (
	errMissingStore      = errors.New("data store is required")
	errMissingIDProvider = errors.New("id provider is required")
	// ErrProjectNotFound indicates an unknown project id.
	ErrProjectNotFound = errors.New("projects: project not found")
	// ErrItemNotFound indicates an unknown list item id.
	ErrItemNotFound = errors.New("projects: list item not found")
	// ErrEmptyTitle indicates a rename to an all-whitespace title; the
	// prior title is retained.
	ErrEmptyTitle = errors.New("projects: title must not be empty")
	// ErrUnknownList indicates a list name other than ideas, actions, or
	// progress.
	ErrUnknownList = errors.New("projects: unknown list")
	// ErrUnknownField indicates a field name other than goal, situation,
	// or notes.
	ErrUnknownField = errors.New("projects: unknown field")
	noOpLogger = zap.NewNop()
)

const (
	opServiceNew    = "projects.service.new"
	opCreateProject = "projects.create_project"

	defaultTitle = "Untitled Project"
)

// ListName identifies one of the three ordered item lists.
type ListName string

const (
	ListIdeas    ListName = "ideas"
	ListActions  ListName = "actions"
	ListProgress ListName = "progress"
)

// ParseListName validates a raw list name.
func ParseListName(raw string) (ListName, error) {
	switch ListName(raw) {
	case ListIdeas, ListActions, ListProgress:
		return ListName(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownList, raw)
	}
}

// FieldName identifies one of the freeform canvas fields.
type FieldName string

const (
	FieldGoal      FieldName = "goal"
	FieldSituation FieldName = "situation"
	FieldNotes     FieldName = "notes"
)

// ParseFieldName validates a raw field name.
func ParseFieldName(raw string) (FieldName, error) {
	switch FieldName(raw) {
	case FieldGoal, FieldSituation, FieldNotes:
		return FieldName(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, raw)
	}
}

// IDProvider issues opaque unique identifiers for projects and list items.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the projects feature.
type ServiceConfig struct {
	Store      *store.Store
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service implements the projects feature over the data store.
type Service struct {
	store      *store.Store
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates the configuration and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%s: %w", opServiceNew, errMissingStore)
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("%s: %w", opServiceNew, errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		store:      cfg.Store,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// CreateProject stores a fresh active project with empty canvas defaults
// and returns its generated id.
func (s *Service) CreateProject(title string) (string, store.Project, error) {
	id, err := s.idProvider.NewID()
	if err != nil {
		return "", store.Project{}, fmt.Errorf("%s: %w", opCreateProject, err)
	}
	trimmed := markup.PlainText(title)
	if trimmed == "" {
		trimmed = defaultTitle
	}
	now := s.clock().UTC().Format(time.RFC3339)
	project := store.Project{
		Title:     trimmed,
		Status:    store.ProjectStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		Ideas:     []store.ListItem{},
		Actions:   []store.ListItem{},
		Progress:  []store.ListItem{},
	}
	if err := s.store.SaveProject(id, project); err != nil {
		return "", store.Project{}, err
	}
	s.logger.Info("project created", zap.String("project_id", id))
	return id, project, nil
}

// Project returns one project record.
func (s *Service) Project(id string) (store.Project, error) {
	project, ok, err := s.store.Project(id)
	if err != nil {
		return store.Project{}, err
	}
	if !ok {
		return store.Project{}, fmt.Errorf("%w: %q", ErrProjectNotFound, id)
	}
	return project, nil
}

// DeleteProject destroys one project.
func (s *Service) DeleteProject(id string) error {
	if _, err := s.Project(id); err != nil {
		return err
	}
	return s.store.DeleteProject(id)
}

// RenameProject sets a trim-normalized title. An all-whitespace title is
// rejected and the stored title retained; renaming to the current title is
// a no-op that does not bump the updated stamp.
func (s *Service) RenameProject(id, title string) (store.Project, error) {
	trimmed := markup.PlainText(title)
	if trimmed == "" {
		return store.Project{}, ErrEmptyTitle
	}
	return s.mutate(id, func(project *store.Project) (bool, error) {
		if project.Title == trimmed {
			return false, nil
		}
		project.Title = trimmed
		return true, nil
	})
}

// ToggleStatus flips a project between active and solved.
func (s *Service) ToggleStatus(id string) (store.Project, error) {
	return s.mutate(id, func(project *store.Project) (bool, error) {
		if project.Status == store.ProjectStatusSolved {
			project.Status = store.ProjectStatusActive
		} else {
			project.Status = store.ProjectStatusSolved
		}
		return true, nil
	})
}

// SetField writes one freeform canvas field. Goal and situation are
// trim-normalized; notes are stored as given so trailing whitespace in
// freeform writing survives.
func (s *Service) SetField(id string, field FieldName, content string) (store.Project, error) {
	sanitized := markup.Sanitize(content)
	return s.mutate(id, func(project *store.Project) (bool, error) {
		switch field {
		case FieldGoal:
			project.Goal = sanitized
		case FieldSituation:
			project.Situation = sanitized
		case FieldNotes:
			project.Notes = markup.SanitizeKeepSpace(content)
		default:
			return false, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		return true, nil
	})
}

// AddItem appends a list item with a generated stable id. Action items
// start not done.
func (s *Service) AddItem(id string, list ListName, content string) (store.Project, error) {
	itemID, err := s.idProvider.NewID()
	if err != nil {
		return store.Project{}, err
	}
	item := store.ListItem{
		ID:        itemID,
		Content:   markup.PlainText(content),
		Timestamp: s.clock().UTC().Format(time.RFC3339),
	}
	return s.mutate(id, func(project *store.Project) (bool, error) {
		items, err := projectList(project, list)
		if err != nil {
			return false, err
		}
		*items = append(*items, item)
		return true, nil
	})
}

// UpdateItem rewrites one item's content, addressed by its stable id.
func (s *Service) UpdateItem(id string, list ListName, itemID, content string) (store.Project, error) {
	trimmed := markup.PlainText(content)
	return s.mutate(id, func(project *store.Project) (bool, error) {
		items, err := projectList(project, list)
		if err != nil {
			return false, err
		}
		index, err := itemIndex(*items, itemID)
		if err != nil {
			return false, err
		}
		(*items)[index].Content = trimmed
		return true, nil
	})
}

// DeleteItem removes one item; later items shift down one position.
func (s *Service) DeleteItem(id string, list ListName, itemID string) (store.Project, error) {
	return s.mutate(id, func(project *store.Project) (bool, error) {
		items, err := projectList(project, list)
		if err != nil {
			return false, err
		}
		index, err := itemIndex(*items, itemID)
		if err != nil {
			return false, err
		}
		*items = append((*items)[:index], (*items)[index+1:]...)
		return true, nil
	})
}

// ToggleAction flips the completion flag of one action item.
func (s *Service) ToggleAction(id, itemID string) (store.Project, error) {
	return s.mutate(id, func(project *store.Project) (bool, error) {
		index, err := itemIndex(project.Actions, itemID)
		if err != nil {
			return false, err
		}
		project.Actions[index].Done = !project.Actions[index].Done
		return true, nil
	})
}

// ListFilter narrows ListProjects output.
type ListFilter string

const (
	FilterAll    ListFilter = "all"
	FilterActive ListFilter = "active"
	FilterSolved ListFilter = "solved"
)

// ProjectSummary pairs a project id with its record for listings.
type ProjectSummary struct {
	ID      string        `json:"id"`
	Project store.Project `json:"project"`
}

// ListProjects returns projects matching the filter, newest-created first.
func (s *Service) ListProjects(filter ListFilter) ([]ProjectSummary, error) {
	projects, err := s.store.Projects()
	if err != nil {
		return nil, err
	}
	summaries := make([]ProjectSummary, 0, len(projects))
	for id, project := range projects {
		switch filter {
		case FilterActive:
			if project.Status != store.ProjectStatusActive {
				continue
			}
		case FilterSolved:
			if project.Status != store.ProjectStatusSolved {
				continue
			}
		}
		summaries = append(summaries, ProjectSummary{ID: id, Project: project})
	}
	sortSummariesByCreation(summaries)
	return summaries, nil
}

// Stats delegates to the store's single-pass project tally.
func (s *Service) Stats() (store.ProjectStats, error) {
	return s.store.GetProjectStats()
}

// mutate runs a read-modify-write cycle on one project. The mutation
// reports whether anything changed; only changes bump the updated stamp
// and hit storage.
func (s *Service) mutate(id string, apply func(*store.Project) (bool, error)) (store.Project, error) {
	project, ok, err := s.store.Project(id)
	if err != nil {
		return store.Project{}, err
	}
	if !ok {
		return store.Project{}, fmt.Errorf("%w: %q", ErrProjectNotFound, id)
	}
	changed, err := apply(&project)
	if err != nil {
		return store.Project{}, err
	}
	if !changed {
		return project, nil
	}
	project.UpdatedAt = s.clock().UTC().Format(time.RFC3339)
	if err := s.store.SaveProject(id, project); err != nil {
		return store.Project{}, err
	}
	return project, nil
}

func projectList(project *store.Project, list ListName) (*[]store.ListItem, error) {
	switch list {
	case ListIdeas:
		return &project.Ideas, nil
	case ListActions:
		return &project.Actions, nil
	case ListProgress:
		return &project.Progress, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
}

func itemIndex(items []store.ListItem, itemID string) (int, error) {
	for index, item := range items {
		if item.ID == itemID {
			return index, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrItemNotFound, itemID)
}

func sortSummariesByCreation(summaries []ProjectSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		left, right := summaries[i].Project, summaries[j].Project
		if left.CreatedAt != right.CreatedAt {
			return left.CreatedAt > right.CreatedAt
		}
		return summaries[i].ID < summaries[j].ID
	})
}
