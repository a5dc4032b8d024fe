package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"todoapp/internal/handlers"
	"todoapp/internal/models"
	"todoapp/internal/store"
)

func setupTestServer(t *testing.T) *Client {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	srv := httptest.NewServer(handlers.NewRouter(handlers.New(s, nil), handlers.RouterOptions{}))
	t.Cleanup(srv.Close)

	return New(srv.URL + "/")
}

func TestClient_RoundTrip(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	todos, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if todos == nil || len(todos) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", todos)
	}

	created, err := c.Create(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" || created.Title != "Buy milk" {
		t.Fatalf("unexpected todo %+v", created)
	}

	updated, err := c.Update(ctx, created.ID, models.CompletedPatch(true))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.Completed {
		t.Error("expected completed todo")
	}

	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	todos, _ = c.List(ctx)
	if len(todos) != 0 {
		t.Errorf("expected no todos after delete, got %d", len(todos))
	}
}

func TestClient_Errors(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	_, err := c.Create(ctx, "  ")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Title required" {
		t.Errorf("unexpected error %+v", apiErr)
	}

	_, err = c.Update(ctx, "missing", models.TitlePatch("x"))
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	if err := c.Delete(ctx, "missing"); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestClient_EscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := New(srv.URL).Delete(context.Background(), "a/b c"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if gotPath != "/api/todos/a%2Fb%20c" {
		t.Errorf("expected escaped path, got %q", gotPath)
	}
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 APIError, got %v", err)
	}
	if apiErr.Message != "" {
		t.Errorf("expected empty message for non-json body, got %q", apiErr.Message)
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).List(context.Background())
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("expected transport error, got APIError %v", apiErr)
	}
}
