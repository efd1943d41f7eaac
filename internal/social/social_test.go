package social

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/postpilot-cms/postpilot/internal/models"
)

func TestFacebookPostToPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page-123/feed" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("message"); got != "hello world" {
			t.Errorf("message: got %q", got)
		}
		if got := r.PostFormValue("access_token"); got != "fb-token" {
			t.Errorf("access_token: got %q", got)
		}
		fmt.Fprint(w, `{"id": "page-123_456"}`)
	}))
	defer server.Close()

	client := NewFacebookClient("fb-token", "page-123", server.URL)
	result, err := client.PostToPage(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if result.ID != "page-123_456" {
		t.Errorf("post id: got %q", result.ID)
	}
}

func TestFacebookUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "Invalid OAuth access token"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewFacebookClient("bad-token", "page-123", server.URL)
	_, err := client.PostToPage(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error on non-2xx response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry upstream status, got %v", err)
	}
}

func TestInstagramTwoStepPublish(t *testing.T) {
	var mediaCreated bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig-1/media":
			mediaCreated = true
			if got := r.PostFormValue("image_url"); got != "https://cdn.example.com/img.jpg" {
				t.Errorf("image_url: got %q", got)
			}
			fmt.Fprint(w, `{"id": "container-9"}`)
		case "/ig-1/media_publish":
			if !mediaCreated {
				t.Error("publish called before media creation")
			}
			if got := r.PostFormValue("creation_id"); got != "container-9" {
				t.Errorf("creation_id: got %q", got)
			}
			fmt.Fprint(w, `{"id": "ig-post-7"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewInstagramClient("ig-token", "ig-1", server.URL)
	result, err := client.PostToAccount(context.Background(), "https://cdn.example.com/img.jpg", "caption")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if result.ID != "ig-post-7" {
		t.Errorf("post id: got %q", result.ID)
	}
}

func TestInstagramPublishStepFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ig-1/media" {
			fmt.Fprint(w, `{"id": "container-9"}`)
			return
		}
		http.Error(w, `{"error": "media not ready"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewInstagramClient("ig-token", "ig-1", server.URL)
	_, err := client.PostToAccount(context.Background(), "https://cdn.example.com/img.jpg", "caption")
	if err == nil {
		t.Fatal("expected publish step failure")
	}
	if !strings.Contains(err.Error(), "publish media") {
		t.Errorf("error should name the failing step, got %v", err)
	}
}

func TestTikTokPostToAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.PostFormValue("open_id"); got != "tt-user" {
			t.Errorf("open_id: got %q", got)
		}
		if got := r.PostFormValue("video_url"); got != "https://cdn.example.com/v.mp4" {
			t.Errorf("video_url: got %q", got)
		}
		fmt.Fprint(w, `{"id": "tt-share-3"}`)
	}))
	defer server.Close()

	client := NewTikTokClient("tt-token", "tt-user", server.URL)
	result, err := client.PostToAccount(context.Background(), "https://cdn.example.com/v.mp4", "desc")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if result.ID != "tt-share-3" {
		t.Errorf("post id: got %q", result.ID)
	}
}

func TestPublisherFanOut(t *testing.T) {
	fbServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "fb-1"}`)
	}))
	defer fbServer.Close()

	publisher := NewPublisher()
	publisher.FacebookBaseURL = fbServer.URL

	post := &models.Post{
		Text:        "launch day",
		MediaURL:    "https://cdn.example.com/img.jpg",
		ToFacebook:  true,
		ToInstagram: true,
		ToTikTok:    false,
	}
	accounts := []models.SocialAccount{
		{Platform: models.PlatformFacebook, AccessToken: "t", AccountID: "page-1"},
		// No instagram account connected.
	}

	results := publisher.Publish(context.Background(), post, accounts)
	if len(results) != 2 {
		t.Fatalf("results: got %d, want 2", len(results))
	}

	byPlatform := make(map[string]PlatformResult)
	for _, res := range results {
		byPlatform[res.Platform] = res
	}
	if fb := byPlatform[models.PlatformFacebook]; fb.Err != nil || fb.PostID != "fb-1" {
		t.Errorf("facebook result: %+v", fb)
	}
	if ig := byPlatform[models.PlatformInstagram]; ig.Err == nil {
		t.Error("instagram should fail without a connected account")
	}
	if _, ok := byPlatform[models.PlatformTikTok]; ok {
		t.Error("tiktok was not flagged and should not appear")
	}
}
