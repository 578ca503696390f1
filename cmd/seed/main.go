// Seeds a running server with demo users, posts, likes and comments.
package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/Faiz-Ahmad-Khan/social-media/internal/client"
)

var users = []struct {
	name  string
	email string
}{
	{"Alice Nguyen", "alice@example.com"},
	{"Bob Patel", "bob@example.com"},
	{"Carol Okafor", "carol@example.com"},
	{"Dan Kowalski", "dan@example.com"},
	{"Eve Martins", "eve@example.com"},
}

var posts = []struct {
	title string
	desc  string
}{
	{"Hello world", "First post on the new platform. Say hi!"},
	{"Weekend hiking photos", "Went up the ridge trail on Saturday, views were unreal."},
	{"Sourdough attempt #4", "Finally got a decent crumb. Recipe in the comments."},
	{"Looking for book recs", "Just finished a big sci-fi kick, what should I read next?"},
	{"New coffee place downtown", "The flat white is worth the queue."},
	{"Garden update", "The tomatoes survived the heat wave somehow."},
	{"Marathon training week 6", "Long run done. Legs are filing a complaint."},
	{"Show and tell: my desk setup", "Finally cable-managed everything."},
}

var comments = []string{
	"Love this!",
	"Great post, thanks for sharing.",
	"Where was this taken?",
	"I needed to see this today.",
	"Following for more updates.",
	"Can you share more details?",
	"This made my morning.",
	"Totally agree with this.",
	"Adding this to my list.",
	"Congrats, that's awesome!",
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "Server URL")
	password := flag.String("password", "p4ssword", "Password for the demo accounts")
	flag.Parse()

	log.Printf("Seeding server at %s...", *baseURL)

	var clients []*client.Client
	var ids []string
	for _, u := range users {
		c := client.New(*baseURL)
		created, err := c.Register(u.name, u.email, *password)
		if err != nil && err != client.ErrAlreadyRegistered {
			log.Fatalf("register %s: %v", u.email, err)
		}
		if err := c.Authenticate(u.email, *password); err != nil {
			log.Fatalf("authenticate %s: %v", u.email, err)
		}
		id := ""
		if created != nil {
			id = created.ID
		}
		clients = append(clients, c)
		ids = append(ids, id)
		log.Printf("✓ Registered %s", u.name)
	}

	// Everyone follows a couple of other users.
	for i, c := range clients {
		for j, id := range ids {
			if i == j || id == "" || rand.Float32() > 0.5 {
				continue
			}
			if _, err := c.Follow(id); err != nil {
				log.Printf("✗ Failed to follow: %v", err)
			}
		}
	}

	// Posts from random users.
	var postIDs []string
	for _, p := range posts {
		c := clients[rand.Intn(len(clients))]
		post, err := c.CreatePost(p.title, p.desc)
		if err != nil {
			log.Printf("✗ Failed to post: %v", err)
			continue
		}
		postIDs = append(postIDs, post.ID)
		log.Printf("✓ Posted %s: %s", post.ID, p.title)

		// Small delay to spread out createdAt times
		time.Sleep(50 * time.Millisecond)
	}

	// Likes and comments from random users.
	for _, postID := range postIDs {
		for _, c := range clients {
			if rand.Float32() < 0.4 {
				if _, err := c.Like(postID); err != nil {
					log.Printf("✗ Failed to like: %v", err)
				}
			}
		}

		numComments := rand.Intn(3) + 1
		for i := 0; i < numComments; i++ {
			c := clients[rand.Intn(len(clients))]
			text := comments[rand.Intn(len(comments))]
			if _, err := c.CommentOn(postID, text); err != nil {
				log.Printf("✗ Failed to comment: %v", err)
			}
		}
	}

	log.Printf("Done: %d users, %d posts", len(clients), len(postIDs))
}
