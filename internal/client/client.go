// Package client provides a Go client for the social-media API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a social-media API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// User represents a user record from the API.
type User struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

// Profile is the caller's own profile summary.
type Profile struct {
	Name      string `json:"name"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
}

// Post represents a post from the API.
type Post struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	Likes       []string  `json:"likes"`
	Comments    []Comment `json:"comments"`
}

// PostSummary is a post with computed like and comment counts.
type PostSummary struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	Likes       int       `json:"likes"`
	Comments    int64     `json:"comments"`
}

// Comment represents a comment from the API.
type Comment struct {
	ID         string    `json:"_id"`
	PostID     string    `json:"post"`
	Text       string    `json:"text"`
	Author     string    `json:"author"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}

var ErrAlreadyRegistered = errors.New("already registered")

// Register creates a new user account.
func (c *Client) Register(name, email, password string) (*User, error) {
	reqBody := map[string]string{"name": name, "email": email, "password": password}
	body, _ := json.Marshal(reqBody)

	resp, err := c.HTTPClient.Post(c.BaseURL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusConflict {
		return nil, ErrAlreadyRegistered
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("register failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var user User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate exchanges credentials for a bearer token and stores it on
// the client.
func (c *Client) Authenticate(email, password string) error {
	reqBody := map[string]string{"email": email, "password": password}
	body, _ := json.Marshal(reqBody)

	resp, err := c.HTTPClient.Post(c.BaseURL+"/api/authenticate", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	c.Token = result.Token
	return nil
}

// IsAuthenticated returns true if the client holds a token.
func (c *Client) IsAuthenticated() bool {
	return c.Token != ""
}

// doRequest performs an authenticated HTTP request.
func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.HTTPClient.Do(req)
}

func decodeOrError[T any](resp *http.Response, action string, out *T) error {
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s failed (%d): %s", action, resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}

// CreatePost creates a new post.
func (c *Client) CreatePost(title, description string) (*Post, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/posts", map[string]string{
		"title":       title,
		"description": description,
	})
	if err != nil {
		return nil, err
	}
	var post Post
	if err := decodeOrError(resp, "create post", &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost deletes a post you authored.
func (c *Client) DeletePost(id string) error {
	resp, err := c.doRequest(http.MethodDelete, "/api/posts/"+id, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete post failed (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// Follow adds the caller to the target user's follower set.
func (c *Client) Follow(userID string) (*User, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/follow/"+userID, nil)
	if err != nil {
		return nil, err
	}
	var user User
	if err := decodeOrError(resp, "follow", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Unfollow removes the caller from the target user's follower set.
func (c *Client) Unfollow(userID string) (*User, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/unfollow/"+userID, nil)
	if err != nil {
		return nil, err
	}
	var user User
	if err := decodeOrError(resp, "unfollow", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProfile fetches the caller's own profile summary.
func (c *Client) GetProfile() (*Profile, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/user", nil)
	if err != nil {
		return nil, err
	}
	var profile Profile
	if err := decodeOrError(resp, "get profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Like adds the caller to a post's like set.
func (c *Client) Like(postID string) (*Post, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/like/"+postID, nil)
	if err != nil {
		return nil, err
	}
	var post Post
	if err := decodeOrError(resp, "like", &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Unlike removes the caller from a post's like set.
func (c *Client) Unlike(postID string) (*Post, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/unlike/"+postID, nil)
	if err != nil {
		return nil, err
	}
	var post Post
	if err := decodeOrError(resp, "unlike", &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CommentOn adds a comment to a post and returns the new comment's id.
func (c *Client) CommentOn(postID, text string) (string, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/comment/"+postID, map[string]string{"text": text})
	if err != nil {
		return "", err
	}
	var result struct {
		CommentID string `json:"commentId"`
	}
	if err := decodeOrError(resp, "comment", &result); err != nil {
		return "", err
	}
	return result.CommentID, nil
}

// GetPost fetches a post summary with like and comment counts.
func (c *Client) GetPost(id string) (*PostSummary, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/posts/"+id, nil)
	if err != nil {
		return nil, err
	}
	var summary PostSummary
	if err := decodeOrError(resp, "get post", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetPosts fetches every post with its comments attached.
func (c *Client) GetPosts() ([]Post, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/posts", nil)
	if err != nil {
		return nil, err
	}
	var posts []Post
	if err := decodeOrError(resp, "get posts", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetMyPosts fetches the caller's posts, newest first.
func (c *Client) GetMyPosts() ([]map[string]any, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/all_posts", nil)
	if err != nil {
		return nil, err
	}
	var posts []map[string]any
	if err := decodeOrError(resp, "get my posts", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// TestHelper provides utilities for creating authenticated clients in tests.
type TestHelper struct {
	BaseURL string
}

// NewTestHelper creates a new test helper for the given base URL.
func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// CreateAuthenticatedClient registers a user (if needed) and returns an
// authenticated client plus the created user record.
func (h *TestHelper) CreateAuthenticatedClient(name, email, password string) (*Client, *User, error) {
	c := New(h.BaseURL)
	user, err := c.Register(name, email, password)
	if err != nil && !errors.Is(err, ErrAlreadyRegistered) {
		return nil, nil, fmt.Errorf("register: %w", err)
	}
	if err := c.Authenticate(email, password); err != nil {
		return nil, nil, err
	}
	return c, user, nil
}

// GetToken registers a user (if needed) and returns just the token string.
func (h *TestHelper) GetToken(name, email, password string) (string, error) {
	c, _, err := h.CreateAuthenticatedClient(name, email, password)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}
