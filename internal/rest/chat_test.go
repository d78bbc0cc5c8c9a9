package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListMessagesPreservesServerOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages/chat-5" {
			t.Errorf("path = %s", r.URL.Path)
		}
		// Deliberately not timestamp-ordered; the client must not resort.
		_, _ = w.Write([]byte(`[
			{"id": 2, "chat_id": "chat-5", "sender_id": "u-2", "body": "second"},
			{"id": 1, "chat_id": "chat-5", "sender_id": "u-1", "body": "first"}
		]`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	msgs, err := c.ListMessages(context.Background(), "chat-5")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Body != "second" || msgs[1].Body != "first" {
		t.Errorf("messages = %+v, want server order preserved", msgs)
	}
}

func TestSendTextPostsJSON(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages/chat-5" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	if err := c.SendText(context.Background(), "chat-5", "u-1", "sawasdee"); err != nil {
		t.Fatal(err)
	}
	if got["chat_id"] != "chat-5" || got["sender_id"] != "u-1" || got["body"] != "sawasdee" {
		t.Errorf("payload = %v", got)
	}
}

func TestSendMediaPostsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected multipart: %v", err)
		}
		if r.FormValue("chat_id") != "chat-5" || r.FormValue("sender_id") != "u-1" || r.FormValue("media_kind") != "photo" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}
		file, _, err := r.FormFile("media")
		if err != nil {
			t.Fatalf("missing media part: %v", err)
		}
		defer func() { _ = file.Close() }()
		buf := make([]byte, 16)
		n, _ := file.Read(buf)
		if string(buf[:n]) != "jpegbytes" {
			t.Errorf("media = %q", buf[:n])
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	err := c.SendMedia(context.Background(), "chat-5", "u-1", "photo", "pic.jpg", []byte("jpegbytes"))
	if err != nil {
		t.Fatal(err)
	}
}

func TestBlobUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/talad-media/listings/pic.jpg" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"url": "https://cdn.example.com/listings/pic.jpg"}`))
	}))
	defer srv.Close()

	store, err := NewHTTPBlobStore(srv.URL, "talad-media", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	url, err := store.Upload(context.Background(), "listings/pic.jpg", []byte("jpegbytes"), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://cdn.example.com/listings/pic.jpg" {
		t.Errorf("url = %q", url)
	}
}
