package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storyforge/storyforge/pkg/session"
)

func deletePath(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestProjectsHandler_CreateAndRead(t *testing.T) {
	env := newTestEnv(t)
	h := NewProjectsHandler(env.store, env.log)

	w := postJSON(t, h, "/v1/projects", createProjectRequest{Title: "  The Drowned Court  "})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created session.Project
	decodeData(t, w, &created)
	if created.ID == "" {
		t.Fatal("Expected generated project id")
	}
	if created.Title != "The Drowned Court" {
		t.Errorf("Expected trimmed title, got %q", created.Title)
	}

	w = getPath(t, h, "/v1/projects/"+created.ID)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var read session.Project
	decodeData(t, w, &read)
	if read.ID != created.ID {
		t.Errorf("Expected project %s, got %s", created.ID, read.ID)
	}
}

func TestProjectsHandler_CreateRequiresTitle(t *testing.T) {
	env := newTestEnv(t)
	h := NewProjectsHandler(env.store, env.log)

	w := postJSON(t, h, "/v1/projects", createProjectRequest{Title: "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank title, got %d", w.Code)
	}
}

func TestProjectsHandler_List(t *testing.T) {
	env := newTestEnv(t)
	h := NewProjectsHandler(env.store, env.log)

	for _, title := range []string{"First", "Second"} {
		w := postJSON(t, h, "/v1/projects", createProjectRequest{Title: title})
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", w.Code)
		}
	}

	w := getPath(t, h, "/v1/projects")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var projects []session.Project
	decodeData(t, w, &projects)
	if len(projects) != 2 {
		t.Errorf("Expected 2 projects, got %d", len(projects))
	}
}

func TestProjectsHandler_ReadMissing(t *testing.T) {
	env := newTestEnv(t)
	h := NewProjectsHandler(env.store, env.log)

	w := getPath(t, h, "/v1/projects/nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestProjectsHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	h := NewProjectsHandler(env.store, env.log)

	w := postJSON(t, h, "/v1/projects", createProjectRequest{Title: "Short-lived"})
	var created session.Project
	decodeData(t, w, &created)

	w = deletePath(t, h, "/v1/projects/"+created.ID)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on delete, got %d: %s", w.Code, w.Body.String())
	}

	w = deletePath(t, h, "/v1/projects/"+created.ID)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on repeat delete, got %d", w.Code)
	}
}
