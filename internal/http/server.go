package httpapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Faiz-Ahmad-Khan/social-media/internal/auth"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/config"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/model"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/rate"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/store"
)

type Server struct {
	store   store.Store
	auth    *auth.Service
	limiter rate.Limiter
	cfg     config.Config
}

func NewServer(store store.Store, authSvc *auth.Service, limiter rate.Limiter, cfg config.Config) *Server {
	return &Server{store: store, auth: authSvc, limiter: limiter, cfg: cfg}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.handleAPI(w, r)
		return
	}
	notFound(w)
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	segments := splitPath(path)

	switch {
	case len(segments) == 1 && segments[0] == "authenticate":
		if r.Method == http.MethodPost {
			s.handleAuthenticate(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "register":
		if r.Method == http.MethodPost {
			s.handleRegister(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "follow":
		if r.Method == http.MethodPost {
			s.handleFollow(w, r, segments[1])
			return
		}
	case len(segments) == 2 && segments[0] == "unfollow":
		if r.Method == http.MethodPost {
			s.handleUnfollow(w, r, segments[1])
			return
		}
	case len(segments) == 1 && segments[0] == "user":
		if r.Method == http.MethodGet {
			s.handleProfile(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "posts":
		if r.Method == http.MethodPost {
			s.handleCreatePost(w, r)
			return
		}
		if r.Method == http.MethodGet {
			s.handleListPosts(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "posts":
		if r.Method == http.MethodGet {
			s.handleGetPost(w, r, segments[1])
			return
		}
		if r.Method == http.MethodDelete {
			s.handleDeletePost(w, r, segments[1])
			return
		}
	case len(segments) == 2 && segments[0] == "like":
		if r.Method == http.MethodPost {
			s.handleLike(w, r, segments[1])
			return
		}
	case len(segments) == 2 && segments[0] == "unlike":
		if r.Method == http.MethodPost {
			s.handleUnlike(w, r, segments[1])
			return
		}
	case len(segments) == 2 && segments[0] == "comment":
		if r.Method == http.MethodPost {
			s.handleCreateComment(w, r, segments[1])
			return
		}
	case len(segments) == 1 && segments[0] == "all_posts":
		if r.Method == http.MethodGet {
			s.handleMyPosts(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "stats":
		if r.Method == http.MethodGet {
			s.handleStats(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "version":
		if r.Method == http.MethodGet {
			s.handleVersion(w, r)
			return
		}
	}

	notFound(w)
}

// handleAuthenticate exchanges email/password credentials for a bearer token.
func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	token, err := s.auth.Issue(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.allowRateLimit(w, r, "register", s.cfg.RateLimits.RegisterPerMinute) {
		return
	}
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, errors.New("name, email and password required"))
		return
	}
	if !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, errors.New("invalid email"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	user := model.User{
		Name:      name,
		Email:     email,
		Password:  hash,
		Followers: []string{},
		Following: []string{},
	}
	id, err := s.store.CreateUser(r.Context(), &user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, errors.New("email already registered"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	user.ID = id
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request, idStr string) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid user id"))
		return
	}
	user, err := s.store.AddFollower(r.Context(), id, claims.Email)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request, idStr string) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid user id"))
		return
	}
	user, err := s.store.RemoveFollower(r.Context(), id, claims.Email)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleProfile returns the caller's own name and follower/following counts.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	user, err := s.store.GetUserByEmail(r.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, errors.New("could not get user profile"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      user.Name,
		"followers": len(user.Followers),
		"following": len(user.Following),
	})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	if !s.allowRateLimit(w, r, "post", s.cfg.RateLimits.PostPerMinute) {
		return
	}
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, errors.New("title required"))
		return
	}

	post := model.Post{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Author:      claims.Email,
		CreatedAt:   time.Now(),
		Likes:       []string{},
	}
	id, err := s.store.CreatePost(r.Context(), &post)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	post.ID = id
	writeJSON(w, http.StatusOK, post)
}

// handleDeletePost removes a post. Only the author may delete it.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, idStr string) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid post id"))
		return
	}
	post, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if post.Author != claims.Email {
		writeError(w, http.StatusUnauthorized, errors.New("you can only delete your own posts"))
		return
	}
	if err := s.store.DeletePost(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request, idStr string) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid post id"))
		return
	}
	post, err := s.store.LikePost(r.Context(), id, claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyLiked) {
			writeError(w, http.StatusBadRequest, errors.New("already liked this post"))
			return
		}
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleUnlike(w http.ResponseWriter, r *http.Request, idStr string) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid post id"))
		return
	}
	post, err := s.store.UnlikePost(r.Context(), id, claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotLiked) {
			writeError(w, http.StatusBadRequest, errors.New("post not liked yet"))
			return
		}
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleCreateComment attaches a comment to an existing post. The post
// lookup happens first; a comment is never created for a missing post.
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request, idStr string) {
	if !s.allowRateLimit(w, r, "comment", s.cfg.RateLimits.CommentPerMinute) {
		return
	}
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid post id"))
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, errors.New("text required"))
		return
	}

	if _, err := s.store.GetPost(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, errors.New("post does not exist"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	comment := model.Comment{
		PostID:    id,
		Text:      strings.TrimSpace(req.Text),
		Author:    claims.Email,
		CreatedAt: time.Now(),
	}
	commentID, err := s.store.CreateComment(r.Context(), &comment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"commentId": commentID.Hex()})
}

// handleGetPost returns a post summary with computed like and comment counts.
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request, idStr string) {
	if _, ok := s.requireAuth(w, r); !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid post id"))
		return
	}
	post, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	numComments, err := s.store.CountCommentsByPost(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"_id":         post.ID,
		"title":       post.Title,
		"description": post.Description,
		"author":      post.Author,
		"createdAt":   post.CreatedAt,
		"likes":       len(post.Likes),
		"comments":    numComments,
	})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAuth(w, r); !ok {
		return
	}
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	names := map[string]string{}
	for i := range posts {
		s.resolveCommentAuthors(r, posts[i].Comments, names)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// handleMyPosts returns the caller's posts, newest first, as summaries.
func (s *Server) handleMyPosts(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	posts, err := s.store.ListPostsByAuthor(r.Context(), claims.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	summaries := make([]map[string]any, 0, len(posts))
	for _, post := range posts {
		numComments, err := s.store.CountCommentsByPost(r.Context(), post.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		summaries = append(summaries, map[string]any{
			"id":         post.ID,
			"title":      post.Title,
			"desc":       post.Description,
			"created_at": post.CreatedAt,
			"comments":   numComments,
			"likes":      len(post.Likes),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetSiteStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.cfg.Version})
}

// resolveCommentAuthors fills in display names for comment authors, caching
// lookups across posts in the same request.
func (s *Server) resolveCommentAuthors(r *http.Request, comments []model.Comment, names map[string]string) {
	for i := range comments {
		email := comments[i].Author
		name, ok := names[email]
		if !ok {
			if user, err := s.store.GetUserByEmail(r.Context(), email); err == nil {
				name = user.Name
			}
			names[email] = name
		}
		comments[i].AuthorName = name
	}
}

func (s *Server) allowRateLimit(w http.ResponseWriter, r *http.Request, action string, limit int) bool {
	if s.limiter == nil || limit <= 0 {
		return true
	}
	key := fmt.Sprintf("%s:ip:%s", action, clientIP(r))
	if ok, retry := s.limiter.Allow(key, limit, time.Minute); !ok {
		writeRateLimit(w, retry)
		return false
	}
	return true
}

func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
		return auth.Claims{}, false
	}
	bearer := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	claims, err := s.auth.Verify(bearer)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return auth.Claims{}, false
	}
	return claims, true
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeError(w, status, err)
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeRateLimit(w http.ResponseWriter, retry time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate limit exceeded",
		"retry_after": int(retry.Seconds()),
	})
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, errors.New("not found"))
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
