package server

import (
	"net/http"
	"testing"

	"github.com/daybook-labs/daybook/internal/projects"
	"github.com/daybook-labs/daybook/internal/store"
)

func createProjectOverHTTP(t *testing.T, env *testEnv, title string) string {
	t.Helper()
	recorder := env.do(t, http.MethodPost, "/projects", `{"title":"`+title+`"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var summary projects.ProjectSummary
	decodeJSON(t, recorder, &summary)
	if summary.ID == "" {
		t.Fatalf("expected generated project id")
	}
	return summary.ID
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	id := createProjectOverHTTP(t, env, "Launch plan")

	recorder := env.do(t, http.MethodGet, "/projects/"+id, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var project store.Project
	decodeJSON(t, recorder, &project)
	if project.Title != "Launch plan" {
		t.Fatalf("unexpected title %q", project.Title)
	}

	recorder = env.do(t, http.MethodPut, "/projects/"+id+"/title", `{"title":"Launch plan v2"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	decodeJSON(t, recorder, &project)
	if project.Title != "Launch plan v2" {
		t.Fatalf("unexpected renamed title %q", project.Title)
	}

	recorder = env.do(t, http.MethodPut, "/projects/"+id+"/fields/goal", `{"content":"ship it"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	decodeJSON(t, recorder, &project)
	if project.Goal != "ship it" {
		t.Fatalf("unexpected goal %q", project.Goal)
	}

	recorder = env.do(t, http.MethodPost, "/projects/"+id+"/status", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	decodeJSON(t, recorder, &project)
	if project.Status != store.ProjectStatusSolved {
		t.Fatalf("expected solved, got %q", project.Status)
	}

	recorder = env.do(t, http.MethodDelete, "/projects/"+id, "")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	recorder = env.do(t, http.MethodGet, "/projects/"+id, "")
	if recorder.Code != http.StatusNotFound || errorCode(t, recorder) != "project_not_found" {
		t.Fatalf("expected project_not_found 404, got %d %s", recorder.Code, recorder.Body.String())
	}
}

func TestProjectListItemsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	id := createProjectOverHTTP(t, env, "Lists")

	recorder := env.do(t, http.MethodPost, "/projects/"+id+"/lists/actions/items",
		`{"content":"call the vendor"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var project store.Project
	decodeJSON(t, recorder, &project)
	if len(project.Actions) != 1 || project.Actions[0].ID == "" {
		t.Fatalf("expected one action with stable id, got %#v", project.Actions)
	}
	itemID := project.Actions[0].ID

	recorder = env.do(t, http.MethodPatch, "/projects/"+id+"/lists/actions/items/"+itemID,
		`{"content":"call the new vendor"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	decodeJSON(t, recorder, &project)
	if project.Actions[0].Content != "call the new vendor" || project.Actions[0].ID != itemID {
		t.Fatalf("unexpected updated item %#v", project.Actions[0])
	}

	recorder = env.do(t, http.MethodPost, "/projects/"+id+"/actions/"+itemID+"/toggle", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	decodeJSON(t, recorder, &project)
	if !project.Actions[0].Done {
		t.Fatalf("expected action done after toggle")
	}

	recorder = env.do(t, http.MethodDelete, "/projects/"+id+"/lists/actions/items/"+itemID, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	decodeJSON(t, recorder, &project)
	if len(project.Actions) != 0 {
		t.Fatalf("expected empty actions, got %#v", project.Actions)
	}

	recorder = env.do(t, http.MethodPost, "/projects/"+id+"/lists/someday/items", `{"content":"x"}`)
	if recorder.Code != http.StatusBadRequest || errorCode(t, recorder) != "unknown_list" {
		t.Fatalf("expected unknown_list 400, got %d %s", recorder.Code, recorder.Body.String())
	}
	recorder = env.do(t, http.MethodPut, "/projects/"+id+"/fields/mood", `{"content":"x"}`)
	if recorder.Code != http.StatusBadRequest || errorCode(t, recorder) != "unknown_field" {
		t.Fatalf("expected unknown_field 400, got %d %s", recorder.Code, recorder.Body.String())
	}
}

func TestProjectListingAndStatsRoutes(t *testing.T) {
	env := newTestEnv(t)
	first := createProjectOverHTTP(t, env, "First")
	createProjectOverHTTP(t, env, "Second")
	if recorder := env.do(t, http.MethodPost, "/projects/"+first+"/status", ""); recorder.Code != http.StatusOK {
		t.Fatalf("unexpected toggle status %d", recorder.Code)
	}

	recorder := env.do(t, http.MethodGet, "/projects?filter=active", "")
	var summaries []projects.ProjectSummary
	decodeJSON(t, recorder, &summaries)
	if len(summaries) != 1 || summaries[0].Project.Title != "Second" {
		t.Fatalf("unexpected active listing %#v", summaries)
	}

	recorder = env.do(t, http.MethodGet, "/projects?filter=everything", "")
	if recorder.Code != http.StatusBadRequest || errorCode(t, recorder) != "unknown_filter" {
		t.Fatalf("expected unknown_filter 400, got %d %s", recorder.Code, recorder.Body.String())
	}

	recorder = env.do(t, http.MethodGet, "/projects/stats", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var stats store.ProjectStats
	decodeJSON(t, recorder, &stats)
	if stats.ActiveCount != 1 || stats.SolvedCount != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestExportImportRoundTripOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	if recorder := env.do(t, http.MethodPut, "/entries/2026-08-31", `{"html":"<p>keep me</p>"}`); recorder.Code != http.StatusOK {
		t.Fatalf("unexpected save status %d", recorder.Code)
	}
	createProjectOverHTTP(t, env, "Exported")

	recorder := env.do(t, http.MethodGet, "/export", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	exported := recorder.Body.String()

	fresh := newTestEnv(t)
	recorder = fresh.do(t, http.MethodPost, "/import", exported)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var result map[string]bool
	decodeJSON(t, recorder, &result)
	if !result["entries_replaced"] || !result["projects_replaced"] {
		t.Fatalf("unexpected import result %v", result)
	}

	entries, err := fresh.store.Entries()
	if err != nil {
		t.Fatalf("unexpected entries error: %v", err)
	}
	if _, ok := entries["2026-08-31"]; !ok {
		t.Fatalf("expected imported entry present")
	}

	recorder = fresh.do(t, http.MethodPost, "/import", `{"entries":"nope"}`)
	if recorder.Code != http.StatusBadRequest || errorCode(t, recorder) != "invalid_snapshot" {
		t.Fatalf("expected invalid_snapshot 400, got %d %s", recorder.Code, recorder.Body.String())
	}
}

func TestMirrorSessionRoutes(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodPut, "/mirror/session", `{"token":"account-token"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if !env.mirror.SessionActive() {
		t.Fatalf("expected active mirror session")
	}

	recorder = env.do(t, http.MethodPut, "/mirror/session", `{"token":"  "}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank token, got %d", recorder.Code)
	}

	recorder = env.do(t, http.MethodDelete, "/mirror/session", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if env.mirror.SessionActive() {
		t.Fatalf("expected released mirror session")
	}
}
