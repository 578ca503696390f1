package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Faiz-Ahmad-Khan/social-media/internal/auth"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/client"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/config"
	httpapp "github.com/Faiz-Ahmad-Khan/social-media/internal/http"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/rate"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/store"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/store/memory"
	mongostore "github.com/Faiz-Ahmad-Khan/social-media/internal/store/mongo"
)

// CLIConfig holds the CLI client configuration persisted to disk.
type CLIConfig struct {
	BaseURL string `json:"base_url"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

func main() {
	if len(os.Args) < 2 {
		runServer(nil)
		return
	}

	cmd := os.Args[1]

	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Println("socialmedia v0.1.0")
		return
	}

	if strings.HasPrefix(cmd, "-") {
		runServer(os.Args[1:])
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "server", "serve":
		runServer(args)
	case "register":
		cmdRegister(args)
	case "auth", "login":
		cmdAuth(args)
	case "post":
		cmdPost(args)
	case "comment":
		cmdComment(args)
	case "like":
		cmdLike(args)
	case "unlike":
		cmdUnlike(args)
	case "follow":
		cmdFollow(args)
	case "unfollow":
		cmdUnfollow(args)
	case "delete", "rm":
		cmdDelete(args)
	case "read", "list":
		cmdRead(args)
	case "status", "whoami":
		cmdStatus(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`socialmedia - A small social media backend

Usage: socialmedia <command> [options]

Quick Start:
  socialmedia register --name "Jerry" --email jerry@example.com --password secret
  socialmedia post --title "Hello" --desc "My first post"

Client Commands:
  register            Create an account and authenticate
  auth                Re-authenticate (when token expires)
  post                Create a post
  comment             Comment on a post
  like                Like a post
  unlike              Remove a like from a post
  follow              Follow a user
  unfollow            Unfollow a user
  delete              Delete your own post
  read                List posts
  status              Show current config and token status

Server:
  server              Run the API server (default when no command given)
    --memory          Use the in-memory store instead of MongoDB

Run 'socialmedia <command> -h' for command-specific options.`)
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	memoryStore := fs.Bool("memory", false, "use the in-memory store instead of MongoDB")
	fs.Parse(args)

	cfg := config.Load()

	var st store.Store
	if *memoryStore {
		log.Println("using in-memory store, data will not survive restarts")
		st = memory.New()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s, err := mongostore.Open(ctx, cfg.MongoURI, cfg.DBName)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to mongodb: %v", err)
		}
		st = s
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(ctx)
	}()

	limiter := rate.NewMemory()
	authSvc := auth.NewService(st, []byte(cfg.JWTSecret), cfg.TokenTTL)
	server := httpapp.NewServer(st, authSvc, limiter, cfg)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("socialmedia listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Display name (required)")
	email := fs.String("email", "", "Email address (required)")
	password := fs.String("password", "", "Password (required)")
	url := fs.String("url", "http://localhost:3000", "Server URL")
	fs.Parse(args)

	if *name == "" || *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --name, --email and --password are required")
		os.Exit(1)
	}

	c := client.New(*url)
	user, err := c.Register(*name, *email, *password)
	if err != nil && !errors.Is(err, client.ErrAlreadyRegistered) {
		fmt.Fprintf(os.Stderr, "Error registering: %v\n", err)
		os.Exit(1)
	}
	if err := c.Authenticate(*email, *password); err != nil {
		fmt.Fprintf(os.Stderr, "Error authenticating: %v\n", err)
		os.Exit(1)
	}

	cliCfg := CLIConfig{BaseURL: *url, Email: *email, Token: c.Token}
	if err := saveCLIConfig(cliCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	if user != nil {
		fmt.Printf("Registered %s (%s)\n", user.Name, user.ID)
	} else {
		fmt.Printf("Already registered, authenticated as %s\n", *email)
	}
}

func cmdAuth(args []string) {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	password := fs.String("password", "", "Password (required)")
	fs.Parse(args)

	cliCfg, err := loadCLIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (run 'socialmedia register' first)\n", err)
		os.Exit(1)
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --password is required")
		os.Exit(1)
	}

	c := client.New(cliCfg.BaseURL)
	if err := c.Authenticate(cliCfg.Email, *password); err != nil {
		fmt.Fprintf(os.Stderr, "Error authenticating: %v\n", err)
		os.Exit(1)
	}
	cliCfg.Token = c.Token
	if err := saveCLIConfig(cliCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Authenticated as %s\n", cliCfg.Email)
}

func cmdPost(args []string) {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	title := fs.String("title", "", "Post title (required)")
	desc := fs.String("desc", "", "Post description")
	fs.Parse(args)

	if *title == "" {
		fmt.Fprintln(os.Stderr, "Error: --title is required")
		os.Exit(1)
	}

	c := authedClient()
	post, err := c.CreatePost(*title, *desc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating post: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created post %s: %s\n", post.ID, post.Title)
}

func cmdComment(args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	postID := fs.String("post", "", "Post id (required)")
	text := fs.String("text", "", "Comment text (required)")
	fs.Parse(args)

	if *postID == "" || *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --post and --text are required")
		os.Exit(1)
	}

	c := authedClient()
	id, err := c.CommentOn(*postID, *text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error commenting: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created comment %s\n", id)
}

func cmdLike(args []string) {
	postID := singleIDArg("like", "post", args)
	c := authedClient()
	post, err := c.Like(postID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error liking: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Liked %s (%d likes)\n", post.ID, len(post.Likes))
}

func cmdUnlike(args []string) {
	postID := singleIDArg("unlike", "post", args)
	c := authedClient()
	post, err := c.Unlike(postID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error unliking: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Unliked %s (%d likes)\n", post.ID, len(post.Likes))
}

func cmdFollow(args []string) {
	userID := singleIDArg("follow", "user", args)
	c := authedClient()
	user, err := c.Follow(userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error following: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Following %s (%d followers)\n", user.Name, len(user.Followers))
}

func cmdUnfollow(args []string) {
	userID := singleIDArg("unfollow", "user", args)
	c := authedClient()
	user, err := c.Unfollow(userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error unfollowing: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Unfollowed %s (%d followers)\n", user.Name, len(user.Followers))
}

func cmdDelete(args []string) {
	postID := singleIDArg("delete", "post", args)
	c := authedClient()
	if err := c.DeletePost(postID); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted post %s\n", postID)
}

func cmdRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	mine := fs.Bool("mine", false, "only my own posts")
	fs.Parse(args)

	c := authedClient()
	if *mine {
		posts, err := c.GetMyPosts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading posts: %v\n", err)
			os.Exit(1)
		}
		for _, p := range posts {
			fmt.Printf("%v  %v (%v likes, %v comments)\n", p["id"], p["title"], p["likes"], p["comments"])
		}
		return
	}

	posts, err := c.GetPosts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading posts: %v\n", err)
		os.Exit(1)
	}
	for _, p := range posts {
		fmt.Printf("%s  %s (by %s, %d likes)\n", p.ID, p.Title, p.Author, len(p.Likes))
		for _, cm := range p.Comments {
			name := cm.AuthorName
			if name == "" {
				name = cm.Author
			}
			fmt.Printf("    %s: %s\n", name, cm.Text)
		}
	}
}

func cmdStatus(args []string) {
	cliCfg, err := loadCLIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (run 'socialmedia register' first)\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server:  %s\n", cliCfg.BaseURL)
	fmt.Printf("Account: %s\n", cliCfg.Email)
	if cliCfg.Token == "" {
		fmt.Println("Token:   none (run 'socialmedia auth')")
		return
	}

	c := client.New(cliCfg.BaseURL)
	c.Token = cliCfg.Token
	profile, err := c.GetProfile()
	if err != nil {
		fmt.Printf("Token:   invalid or expired (%v)\n", err)
		return
	}
	fmt.Printf("Token:   valid\n")
	fmt.Printf("Profile: %s, %d followers, %d following\n", profile.Name, profile.Followers, profile.Following)
}

func singleIDArg(cmd, what string, args []string) string {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: socialmedia %s <%s-id>\n", cmd, what)
		os.Exit(1)
	}
	return fs.Arg(0)
}

func authedClient() *client.Client {
	cliCfg, err := loadCLIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (run 'socialmedia register' first)\n", err)
		os.Exit(1)
	}
	if cliCfg.Token == "" {
		fmt.Fprintln(os.Stderr, "Error: not authenticated (run 'socialmedia auth')")
		os.Exit(1)
	}
	c := client.New(cliCfg.BaseURL)
	c.Token = cliCfg.Token
	return c
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".socialmedia", "config.json"), nil
}

func loadCLIConfig() (CLIConfig, error) {
	var cfg CLIConfig
	path, err := configPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("no config found at %s", path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("corrupt config at %s: %w", path, err)
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
