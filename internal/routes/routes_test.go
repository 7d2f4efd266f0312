package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/affeed/affeed/internal/app"
	"github.com/affeed/affeed/internal/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	cfg := &config.Config{
		AppName:        "Affeed",
		AppEnv:         "development",
		AppURL:         "http://affeed.test",
		DBDriver:       "sqlite",
		DBConnection:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()),
		JWTSecret:      "test-secret",
		SessionExpiry:  time.Hour,
		GeminiModel:    "gemini-2.5-flash",
		MaxUploadSize:  5 << 20,
		StorageBackend: "memory",
	}

	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("app init: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return srv, &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &decoded)
	}

	return resp, decoded
}

func uploadMedia(t *testing.T, client *http.Client, url, filename, contentType string, content []byte) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &decoded)
	}

	return resp, decoded
}

func TestFeedRequiresSession(t *testing.T) {
	srv, client := testServer(t)

	resp, _ := doJSON(t, client, http.MethodGet, srv.URL+"/api/feed", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("feed without session = %d, want 401", resp.StatusCode)
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	srv, client := testServer(t)

	resp, _ := doJSON(t, client, http.MethodPost, srv.URL+"/api/session", map[string]string{"userId": "stranger"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("login unknown user = %d, want 422", resp.StatusCode)
	}
}

func TestPublishFlow(t *testing.T) {
	srv, client := testServer(t)

	// Roster
	resp, body := doJSON(t, client, http.MethodGet, srv.URL+"/api/users", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("users = %d", resp.StatusCode)
	}
	if users, ok := body["users"].([]any); !ok || len(users) != 4 {
		t.Fatalf("roster = %v", body["users"])
	}

	// Pick an identity
	resp, body = doJSON(t, client, http.MethodPost, srv.URL+"/api/session", map[string]string{"userId": "user1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("login = %d", resp.StatusCode)
	}
	if body["screen"] != "feed" {
		t.Errorf("initial screen = %v, want feed", body["screen"])
	}

	// Publish with no file is blocked
	resp, _ = doJSON(t, client, http.MethodPost, srv.URL+"/api/draft/publish", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("empty publish = %d, want 409", resp.StatusCode)
	}

	// Open the composer and upload an image
	resp, _ = doJSON(t, client, http.MethodPost, srv.URL+"/api/session/screen", map[string]string{"screen": "composer"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("navigate = %d", resp.StatusCode)
	}

	resp, draft := uploadMedia(t, client, srv.URL+"/api/draft/media", "photo.png", "image/png", pngHeader)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload = %d: %v", resp.StatusCode, draft)
	}
	if draft["type"] != "image" {
		t.Errorf("draft type = %v, want image", draft["type"])
	}
	previewURL, _ := draft["previewUrl"].(string)
	if previewURL == "" {
		t.Fatal("no preview URL on draft")
	}

	// The preview reference resolves locally
	preview, err := client.Get(srv.URL + previewURL)
	if err != nil {
		t.Fatalf("preview fetch: %v", err)
	}
	defer func() { _ = preview.Body.Close() }()
	if preview.StatusCode != http.StatusOK {
		t.Fatalf("preview = %d", preview.StatusCode)
	}
	if ct := preview.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("preview content type = %q", ct)
	}

	// Unsupported uploads are rejected and leave the draft alone
	resp, _ = uploadMedia(t, client, srv.URL+"/api/draft/media", "n.txt", "text/plain", []byte("no"))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad upload = %d, want 422", resp.StatusCode)
	}

	// Edit fields, generate a caption (dev mode), then overwrite it
	resp, _ = doJSON(t, client, http.MethodPatch, srv.URL+"/api/draft", map[string]string{"productLink": "https://example.com/item"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch draft = %d", resp.StatusCode)
	}

	resp, draft = doJSON(t, client, http.MethodPost, srv.URL+"/api/draft/caption", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("caption = %d", resp.StatusCode)
	}
	if caption, _ := draft["caption"].(string); caption == "" {
		t.Error("generated caption empty")
	}

	resp, _ = doJSON(t, client, http.MethodPatch, srv.URL+"/api/draft", map[string]string{"caption": "Summer sale"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch caption = %d", resp.StatusCode)
	}

	// Publish
	resp, post := doJSON(t, client, http.MethodPost, srv.URL+"/api/draft/publish", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("publish = %d: %v", resp.StatusCode, post)
	}
	postID, _ := post["id"].(string)
	if postID == "" {
		t.Fatal("published post has no id")
	}
	if post["liked"] != false {
		t.Errorf("published post liked = %v, want false", post["liked"])
	}
	if author, ok := post["author"].(map[string]any); !ok || author["name"] != "Yuki" {
		t.Errorf("author = %v, want Yuki", post["author"])
	}

	// Feed projection
	resp, feed := doJSON(t, client, http.MethodGet, srv.URL+"/api/feed", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feed = %d", resp.StatusCode)
	}
	if feed["total"] != float64(1) || feed["matched"] != float64(1) {
		t.Errorf("feed counts = %v/%v, want 1/1", feed["total"], feed["matched"])
	}

	resp, feed = doJSON(t, client, http.MethodGet, srv.URL+"/api/feed?filter=video", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feed filter = %d", resp.StatusCode)
	}
	if feed["matched"] != float64(0) || feed["total"] != float64(1) {
		t.Errorf("video filter counts = %v/%v, want 0/1", feed["matched"], feed["total"])
	}

	resp, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/feed?filter=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus filter = %d, want 400", resp.StatusCode)
	}

	// Like toggle, then the liked filter picks it up
	resp, _ = doJSON(t, client, http.MethodPost, srv.URL+"/api/posts/"+postID+"/like", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("like = %d", resp.StatusCode)
	}
	resp, feed = doJSON(t, client, http.MethodGet, srv.URL+"/api/feed?filter=liked", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("liked feed = %d", resp.StatusCode)
	}
	if feed["matched"] != float64(1) {
		t.Errorf("liked filter matched = %v, want 1", feed["matched"])
	}

	// Search matches the author name case-insensitively
	resp, feed = doJSON(t, client, http.MethodGet, srv.URL+"/api/feed?q=YUKI", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search = %d", resp.StatusCode)
	}
	if feed["matched"] != float64(1) {
		t.Errorf("author search matched = %v, want 1", feed["matched"])
	}

	// Share reference
	resp, share := doJSON(t, client, http.MethodGet, srv.URL+"/api/posts/"+postID+"/share", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("share = %d", resp.StatusCode)
	}
	if url, _ := share["url"].(string); !strings.HasSuffix(url, "/p/"+postID) {
		t.Errorf("share url = %v", share["url"])
	}

	// Share by email runs in dev log mode
	resp, _ = doJSON(t, client, http.MethodPost, srv.URL+"/api/posts/"+postID+"/share/email", map[string]string{"to": "friend@example.com"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("share email = %d", resp.StatusCode)
	}

	// Second publish is blocked again: the draft was consumed
	resp, _ = doJSON(t, client, http.MethodPost, srv.URL+"/api/draft/publish", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("re-publish = %d, want 409", resp.StatusCode)
	}

	// Logout ends the session
	resp, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/api/session", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/feed", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("feed after logout = %d, want 401", resp.StatusCode)
	}
}
