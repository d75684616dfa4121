package main

import (
	"context"
	"flag"
	"log"
	"os"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/models"
)

// Seeds the order number counters and a first user so a fresh deployment
// can sign in. Run once per environment:
//
//	go run ./cmd/seed-admin -username admin -name Administrator
func main() {
	username := flag.String("username", "admin", "username for the seeded user")
	name := flag.String("name", "Administrator", "display name for the seeded user")
	flag.Parse()

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is required")
	}

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	user, err := models.CreateUser(ctx, &models.NewUser{
		Username: *username,
		Name:     *name,
		Password: password,
	})
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}

	log.Printf("seeded user %q (id=%d) and order number counters", user.Username, user.ID)
}
