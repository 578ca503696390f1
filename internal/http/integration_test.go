package httpapp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Faiz-Ahmad-Khan/social-media/internal/auth"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/client"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/config"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/rate"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/store/memory"
)

type testClient struct {
	server *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	cfg := config.Config{
		RateLimits: config.RateLimits{RegisterPerMinute: 1000, PostPerMinute: 1000, CommentPerMinute: 1000},
		TokenTTL:   time.Hour,
		Version:    "test",
	}
	return newTestClientWithConfig(t, cfg)
}

func newTestClientWithConfig(t *testing.T, cfg config.Config) *testClient {
	t.Helper()
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	st := memory.New()
	limiter := rate.NewMemory()
	authSvc := auth.NewService(st, []byte("test-secret"), cfg.TokenTTL)
	server := NewServer(st, authSvc, limiter, cfg)
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return &testClient{server: ts, client: ts.Client()}
}

func (c *testClient) postJSON(t *testing.T, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, c.server.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp
}

func (c *testClient) get(t *testing.T, path string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.server.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response, out *T) {
	t.Helper()
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("json decode: %v (body %s)", err, string(body))
	}
}

// createTestAccount registers a user and returns an authenticated client.
func createTestAccount(t *testing.T, tc *testClient, name, email string) *client.Client {
	t.Helper()
	helper := client.NewTestHelper(tc.server.URL)
	c, _, err := helper.CreateAuthenticatedClient(name, email, "p4ssword")
	if err != nil {
		t.Fatalf("create test account: %v", err)
	}
	return c
}

func TestPostLikeCommentFlow(t *testing.T) {
	tc := newTestClient(t)

	alice := createTestAccount(t, tc, "Alice", "alice@example.com")
	bob := createTestAccount(t, tc, "Bob", "bob@example.com")
	carol := createTestAccount(t, tc, "Carol", "carol@example.com")

	post, err := alice.CreatePost("Hello", "first post")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ID == "" {
		t.Fatal("expected post id")
	}

	summary, err := alice.GetPost(post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if summary.Likes != 0 || summary.Comments != 0 {
		t.Fatalf("expected fresh post with 0 likes and 0 comments, got %d/%d", summary.Likes, summary.Comments)
	}

	if _, err := bob.Like(post.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := bob.Like(post.ID); err == nil {
		t.Fatal("expected second like by same user to fail")
	}

	if _, err := carol.CommentOn(post.ID, "nice one"); err != nil {
		t.Fatalf("comment: %v", err)
	}

	summary, err = alice.GetPost(post.ID)
	if err != nil {
		t.Fatalf("get post after activity: %v", err)
	}
	if summary.Likes != 1 {
		t.Errorf("expected 1 like after duplicate attempt, got %d", summary.Likes)
	}
	if summary.Comments != 1 {
		t.Errorf("expected 1 comment, got %d", summary.Comments)
	}

	// Only the author may delete.
	if err := bob.DeletePost(post.ID); err == nil {
		t.Fatal("expected cross-user delete to fail")
	}
	if _, err := alice.GetPost(post.ID); err != nil {
		t.Fatalf("post should survive rejected delete: %v", err)
	}
	if err := alice.DeletePost(post.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if _, err := alice.GetPost(post.ID); err == nil {
		t.Fatal("expected deleted post to be gone")
	}
}

func TestFollowUnfollowIdempotent(t *testing.T) {
	tc := newTestClient(t)

	alice := createTestAccount(t, tc, "Alice", "alice@example.com")
	bob := createTestAccount(t, tc, "Bob", "bob@example.com")

	aliceUser, err := alice.GetProfile()
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if aliceUser.Followers != 0 {
		t.Fatalf("expected 0 followers, got %d", aliceUser.Followers)
	}

	// Bob needs Alice's id; register returns it.
	aliceRecord, err := client.New(tc.server.URL).Register("Alice2", "alice2@example.com", "p4ssword")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	target, err := bob.Follow(aliceRecord.ID)
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	if len(target.Followers) != 1 {
		t.Fatalf("expected 1 follower, got %d", len(target.Followers))
	}

	// A repeat follow does not duplicate the entry.
	target, err = bob.Follow(aliceRecord.ID)
	if err != nil {
		t.Fatalf("repeat follow: %v", err)
	}
	if len(target.Followers) != 1 {
		t.Fatalf("expected follow to be idempotent, got %d followers", len(target.Followers))
	}

	target, err = bob.Unfollow(aliceRecord.ID)
	if err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if len(target.Followers) != 0 {
		t.Fatalf("expected 0 followers after unfollow, got %d", len(target.Followers))
	}

	// Unfollowing someone you never followed is a no-op, not an error.
	if _, err := bob.Unfollow(aliceRecord.ID); err != nil {
		t.Fatalf("unfollow non-follower: %v", err)
	}
}

func TestUnlikeBeforeLike(t *testing.T) {
	tc := newTestClient(t)

	alice := createTestAccount(t, tc, "Alice", "alice@example.com")
	bob := createTestAccount(t, tc, "Bob", "bob@example.com")

	post, err := alice.CreatePost("Hello", "first post")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := bob.Unlike(post.ID); err == nil {
		t.Fatal("expected unlike without prior like to fail")
	}
}

func TestAllPostsCarriesComments(t *testing.T) {
	tc := newTestClient(t)

	alice := createTestAccount(t, tc, "Alice", "alice@example.com")
	bob := createTestAccount(t, tc, "Bob", "bob@example.com")

	post, err := alice.CreatePost("Hello", "first post")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := bob.CommentOn(post.ID, "hi from bob"); err != nil {
		t.Fatalf("comment: %v", err)
	}

	posts, err := alice.GetPosts()
	if err != nil {
		t.Fatalf("get posts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if len(posts[0].Comments) != 1 {
		t.Fatalf("expected 1 comment on post, got %d", len(posts[0].Comments))
	}
	if posts[0].Comments[0].AuthorName != "Bob" {
		t.Errorf("expected comment author name 'Bob', got %q", posts[0].Comments[0].AuthorName)
	}
}

func TestMyPostsNewestFirst(t *testing.T) {
	tc := newTestClient(t)

	alice := createTestAccount(t, tc, "Alice", "alice@example.com")
	if _, err := alice.CreatePost("first", "a"); err != nil {
		t.Fatalf("create post: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := alice.CreatePost("second", "b"); err != nil {
		t.Fatalf("create post: %v", err)
	}

	posts, err := alice.GetMyPosts()
	if err != nil {
		t.Fatalf("my posts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0]["title"] != "second" {
		t.Errorf("expected newest post first, got %v", posts[0]["title"])
	}
}

func TestCommentOnMissingPost(t *testing.T) {
	tc := newTestClient(t)
	alice := createTestAccount(t, tc, "Alice", "alice@example.com")

	if _, err := alice.CommentOn("64b0c8f0a1b2c3d4e5f60718", "hello?"); err == nil {
		t.Fatal("expected comment on missing post to fail")
	}
}

func TestRegisterRateLimit(t *testing.T) {
	cfg := config.Config{
		RateLimits: config.RateLimits{RegisterPerMinute: 2, PostPerMinute: 1000, CommentPerMinute: 1000},
	}
	tc := newTestClientWithConfig(t, cfg)

	for i, email := range []string{"a@example.com", "b@example.com"} {
		resp := tc.postJSON(t, "/api/register", map[string]string{
			"name": "User", "email": email, "password": "p4ssword",
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			t.Fatalf("register %d status %d: %s", i, resp.StatusCode, string(b))
		}
		resp.Body.Close()
	}

	resp := tc.postJSON(t, "/api/register", map[string]string{
		"name": "User", "email": "c@example.com", "password": "p4ssword",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestStatsEndpoint(t *testing.T) {
	tc := newTestClient(t)

	alice := createTestAccount(t, tc, "Alice", "alice@example.com")
	post, err := alice.CreatePost("Hello", "first post")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := alice.CommentOn(post.ID, "self reply"); err != nil {
		t.Fatalf("comment: %v", err)
	}

	resp := tc.get(t, "/api/stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status %d", resp.StatusCode)
	}
	var stats struct {
		Users    int64 `json:"users"`
		Posts    int64 `json:"posts"`
		Comments int64 `json:"comments"`
	}
	decodeJSON(t, resp, &stats)
	if stats.Users != 1 || stats.Posts != 1 || stats.Comments != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
