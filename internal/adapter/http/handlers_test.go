package adapthttp_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	adapthttp "microblog/internal/adapter/http"
	"microblog/internal/adapter/memory"
	"microblog/internal/app"
	"microblog/internal/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()
	auth := app.NewAuthService(store)
	sessions := app.NewSessionService([]byte("test-secret"), time.Hour)
	content := app.NewContentService(store, store, store)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := httptest.NewServer(adapthttp.New(auth, sessions, content, nil, log).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// newClient returns an http.Client with a cookie jar so session cookies
// survive across requests, like a browser.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, buf)
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
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func register(t *testing.T, client *http.Client, base, username, password string) {
	t.Helper()
	resp, _ := doJSON(t, client, http.MethodPost, base+"/auth/register",
		map[string]string{"username": username, "password": password})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", username, resp.StatusCode)
	}
}

func login(t *testing.T, client *http.Client, base, username, password string) {
	t.Helper()
	resp, _ := doJSON(t, client, http.MethodPost, base+"/auth/login",
		map[string]string{"username": username, "password": password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", username, resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["ok"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestFullFlow(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	register(t, client, srv.URL, "alice", "secret1")
	login(t, client, srv.URL, "alice", "secret1")

	resp, body := doJSON(t, client, http.MethodPost, srv.URL+"/posts",
		map[string]string{"content": "hello world"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d", resp.StatusCode)
	}
	postID := int64(body["id"].(float64))

	// Timeline is public.
	anon := srv.Client()
	resp, err := anon.Get(srv.URL + "/posts")
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list posts: expected 200, got %d", resp.StatusCode)
	}
	var views []domain.PostView
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode views: %v", err)
	}
	resp.Body.Close()
	if len(views) != 1 || views[0].ID != postID || views[0].Username != "alice" {
		t.Fatalf("unexpected timeline: %+v", views)
	}

	likeURL := fmt.Sprintf("%s/posts/%d/like", srv.URL, postID)
	resp, body = doJSON(t, client, http.MethodPost, likeURL, nil)
	if resp.StatusCode != http.StatusOK || body["liked"] != true {
		t.Fatalf("first like: status %d, body %v", resp.StatusCode, body)
	}
	resp, body = doJSON(t, client, http.MethodPost, likeURL, nil)
	if resp.StatusCode != http.StatusOK || body["liked"] != false {
		t.Fatalf("second like: status %d, body %v", resp.StatusCode, body)
	}

	replyURL := fmt.Sprintf("%s/posts/%d/replies", srv.URL, postID)
	resp, _ = doJSON(t, client, http.MethodPost, replyURL, map[string]string{"content": "nice"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create reply: expected 201, got %d", resp.StatusCode)
	}
	resp, err = anon.Get(replyURL)
	if err != nil {
		t.Fatalf("list replies: %v", err)
	}
	var replies []domain.ReplyView
	if err := json.NewDecoder(resp.Body).Decode(&replies); err != nil {
		t.Fatalf("decode replies: %v", err)
	}
	resp.Body.Close()
	if len(replies) != 1 || replies[0].Content != "nice" {
		t.Fatalf("unexpected replies: %+v", replies)
	}

	resp, _ = doJSON(t, client, http.MethodDelete, fmt.Sprintf("%s/posts/%d", srv.URL, postID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete post: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, client, http.MethodDelete, fmt.Sprintf("%s/posts/%d", srv.URL, postID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete missing post: expected 404, got %d", resp.StatusCode)
	}
}

func TestRegister_Errors(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	register(t, client, srv.URL, "alice", "secret1")

	resp, _ := doJSON(t, client, http.MethodPost, srv.URL+"/auth/register",
		map[string]string{"username": "alice", "password": "secret2"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate username: expected 409, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, client, http.MethodPost, srv.URL+"/auth/register",
		map[string]string{"username": "bob", "password": "short"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/auth/register", strings.NewReader("not json"))
	resp2, err := client.Do(req)
	if err != nil {
		t.Fatalf("malformed body: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body: expected 400, got %d", resp2.StatusCode)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	register(t, client, srv.URL, "alice", "secret1")

	resp, _ := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login",
		map[string]string{"username": "alice", "password": "wrongpass"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, client, http.MethodPost, srv.URL+"/auth/login",
		map[string]string{"username": "nobody", "password": "whatever"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", resp.StatusCode)
	}
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	srv := newTestServer(t)

	// No cookie at all.
	resp, _ := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/posts",
		map[string]string{"content": "hello"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no cookie: expected 401, got %d", resp.StatusCode)
	}

	// Forged cookie.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/posts",
		strings.NewReader(`{"content":"hello"}`))
	req.AddCookie(&http.Cookie{Name: "session", Value: "bm90LWEtcmVhbC10b2tlbg"})
	resp2, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("forged cookie: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("forged cookie: expected 401, got %d", resp2.StatusCode)
	}
}

func TestDeletePost_Forbidden(t *testing.T) {
	srv := newTestServer(t)

	alice := newClient(t)
	register(t, alice, srv.URL, "alice", "secret1")
	login(t, alice, srv.URL, "alice", "secret1")

	resp, body := doJSON(t, alice, http.MethodPost, srv.URL+"/posts",
		map[string]string{"content": "mine"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d", resp.StatusCode)
	}
	postID := int64(body["id"].(float64))

	bob := newClient(t)
	register(t, bob, srv.URL, "bob", "secret2")
	login(t, bob, srv.URL, "bob", "secret2")

	resp, _ = doJSON(t, bob, http.MethodDelete, fmt.Sprintf("%s/posts/%d", srv.URL, postID), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-user delete: expected 403, got %d", resp.StatusCode)
	}

	// The post must survive.
	resp, err := srv.Client().Get(srv.URL + "/posts")
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	var views []domain.PostView
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode views: %v", err)
	}
	resp.Body.Close()
	if len(views) != 1 {
		t.Fatalf("expected surviving post, got %+v", views)
	}
}

func TestContentValidation(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	register(t, client, srv.URL, "alice", "secret1")
	login(t, client, srv.URL, "alice", "secret1")

	for _, content := range []string{"", "   ", strings.Repeat("a", 281)} {
		resp, _ := doJSON(t, client, http.MethodPost, srv.URL+"/posts",
			map[string]string{"content": content})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("content %q: expected 400, got %d", content, resp.StatusCode)
		}
	}
}

func TestReplyToMissingPost(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	register(t, client, srv.URL, "alice", "secret1")
	login(t, client, srv.URL, "alice", "secret1")

	resp, _ := doJSON(t, client, http.MethodPost, srv.URL+"/posts/999/replies",
		map[string]string{"content": "hello?"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListReplies_BadID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/posts/abc/replies")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var replies []domain.ReplyView
	if err := json.NewDecoder(resp.Body).Decode(&replies); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(replies) != 0 {
		t.Fatalf("expected empty list, got %+v", replies)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	register(t, client, srv.URL, "alice", "secret1")
	login(t, client, srv.URL, "alice", "secret1")

	resp, _ := doJSON(t, client, http.MethodPost, srv.URL+"/auth/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	// The jar drops the expired cookie, so protected routes fail again.
	resp, _ = doJSON(t, client, http.MethodPost, srv.URL+"/posts",
		map[string]string{"content": "hello"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("post after logout: expected 401, got %d", resp.StatusCode)
	}
}
