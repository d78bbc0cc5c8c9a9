package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ratthapon/talad/internal/catalog"
)

func TestFetchAllDecodesCollection(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/jobs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[{"id": 1, "title": "Chef", "job_location": "Bangkok"}, {"id": 2, "title": "Driver"}]`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, Options{Tokens: StaticToken("tok-1")})
	if err != nil {
		t.Fatal(err)
	}

	jobs, err := FetchAll[catalog.Job](context.Background(), c, catalog.KindJob)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != "1" || jobs[0].Title != "Chef" {
		t.Errorf("jobs[0] = %+v", jobs[0])
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want Bearer tok-1", gotAuth)
	}
}

func TestFetchOneUsesItemPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/condos/7" {
			t.Errorf("path = %s, want /condos/7", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id": 7, "name": "Loft", "rent_fee": 12000}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	condo, err := FetchOne[catalog.Condo](context.Background(), c, catalog.KindCondo, "7")
	if err != nil {
		t.Fatal(err)
	}
	if condo.RentFee != 12000 {
		t.Errorf("RentFee = %v, want 12000", condo.RentFee)
	}
}

func TestCreateSendsJSONForTextPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		if payload["title"] != "Chef" {
			t.Errorf("payload = %v", payload)
		}
		_, _ = w.Write([]byte(`{"id": 9, "title": "Chef", "job_location": "Bangkok"}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	job, err := Create[catalog.Job](context.Background(), c, catalog.KindJob, map[string]any{
		"title":        "Chef",
		"job_location": "Bangkok",
	})
	if err != nil {
		t.Fatal(err)
	}
	if job.ID != "9" {
		t.Errorf("server-assigned id = %q, want 9", job.ID)
	}
}

func TestCreateSendsMultipartForMediaPayload(t *testing.T) {
	// "hi" base64 is aGk=
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected multipart body: %v", err)
		}
		if got := r.FormValue("text"); got != "lecture notes" {
			t.Errorf("text = %q", got)
		}
		file, header, err := r.FormFile("media_url")
		if err != nil {
			t.Fatalf("missing media part: %v", err)
		}
		defer func() { _ = file.Close() }()
		buf := make([]byte, 8)
		n, _ := file.Read(buf)
		if string(buf[:n]) != "hi" {
			t.Errorf("media bytes = %q, want decoded binary", buf[:n])
		}
		if header.Filename == "" {
			t.Error("media part has no filename")
		}
		_, _ = w.Write([]byte(`{"id": "doc-1", "text": "lecture notes"}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	_, err := Create[catalog.DocPost](context.Background(), c, catalog.KindDocPost, map[string]any{
		"text":      "lecture notes",
		"media_url": "data:text/plain;base64,aGk=",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestNon2xxBecomesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	_, err := FetchAll[catalog.Job](context.Background(), c, catalog.KindJob)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if se.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", se.Code)
	}
}

func TestRemoveIssuesDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	if err := c.Remove(context.Background(), catalog.KindHotel, "3"); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/hotels/3" {
		t.Errorf("request = %s %s, want DELETE /hotels/3", gotMethod, gotPath)
	}
}

func TestFetchAuthUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/user" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer candidate-tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id": "u-1", "email": "nok@example.com"}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	user, err := c.FetchAuthUser(context.Background(), "candidate-tok")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != "u-1" || user.Email != "nok@example.com" {
		t.Errorf("user = %+v", user)
	}

	_, err = c.FetchAuthUser(context.Background(), "wrong")
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("error = %v, want 401 StatusError", err)
	}
}
