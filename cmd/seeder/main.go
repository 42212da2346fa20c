package main

import (
	"fmt"
	"log"
	"os"

	"github.com/glowdesk/outreach/internal/config"
	"github.com/glowdesk/outreach/internal/db"
)

func main() {
	cfg := config.Load()

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	defer conn.Close()

	files := []string{
		"migrations/schema.sql",
		"seed/locations.sql",
		"seed/users.sql",
		"seed/services.sql",
		"seed/automation_rules.sql",
		"seed/campaigns.sql",
	}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}
		if _, err := conn.Exec(string(content)); err != nil {
			log.Fatalf("failed to execute %s: %v", file, err)
		}
		fmt.Printf("applied: %s\n", file)
	}

	fmt.Println("database seeding completed")
}
