// Command main runs the demo data seeder for Huddle.
package main

import (
	"context"
	"flag"
	"log"

	"huddle/internal/config"
	"huddle/internal/database"
	"huddle/internal/repository"
	"huddle/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	maxLikes := flag.Int("likes", defaults.MaxLikes, "Maximum likes per post")
	maxComments := flag.Int("comments", defaults.MaxComments, "Maximum comments per post")
	numFlags := flag.Int("flags", defaults.NumFlags, "Number of flagged posts to create")
	numAdmins := flag.Int("admins", defaults.NumAdmins, "Number of users promoted to admin")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store plain passwords (dev only)")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	opts := defaults
	opts.NumUsers = *numUsers
	opts.NumPosts = *numPosts
	opts.MaxLikes = *maxLikes
	opts.MaxComments = *maxComments
	opts.NumFlags = *numFlags
	opts.NumAdmins = *numAdmins
	opts.SkipBcrypt = *skipBcrypt
	opts.DryRun = *dryRun
	opts.RandomSeed = *randomSeed

	ctx := context.Background()

	var store *repository.Store
	if !opts.DryRun {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		store, err = database.OpenStore(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer func() { _ = store.Close(ctx) }()
	}

	res, err := seed.Seed(ctx, store, opts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Done: %d users, %d posts, %d flags", len(res.Users), len(res.Posts), len(res.Flags))
	if !opts.SkipBcrypt || opts.DryRun {
		log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
	}
}
