// Package main provides admin management utilities for Yatube.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"yatube/internal/bootstrap"
	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/server"
	"yatube/internal/service"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <username>                 - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <username>                  - Demote user from admin")
	fmt.Println("  go run ./cmd/admin list-admins                        - List all admins")
	fmt.Println("  go run ./cmd/admin list-users [limit] [offset]        - List users")
	fmt.Println("  go run ./cmd/admin create-group <slug> <title> [desc] - Create a group")
	fmt.Println("  go run ./cmd/admin clear-cache                        - Drop cached index pages")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	ctx := context.Background()
	users := service.NewUserService(repository.NewUserRepository(db))

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <username>\n", command)
			os.Exit(1)
		}
		setAdmin(ctx, users, os.Args[2], command == "promote")

	case "list-admins":
		listAdmins(db)

	case "list-users":
		limit, offset := 50, 0
		if len(os.Args) > 2 {
			if limit, err = strconv.Atoi(os.Args[2]); err != nil {
				log.Fatalf("Invalid limit %q", os.Args[2])
			}
		}
		if len(os.Args) > 3 {
			if offset, err = strconv.Atoi(os.Args[3]); err != nil {
				log.Fatalf("Invalid offset %q", os.Args[3])
			}
		}
		list, err := users.ListUsers(ctx, limit, offset)
		if err != nil {
			log.Fatalf("Failed to list users: %v", err)
		}
		for _, u := range list {
			fmt.Printf("ID: %d | Username: %s | Admin: %v\n", u.ID, u.Username, u.IsAdmin)
		}

	case "create-group":
		if len(os.Args) < 4 {
			fmt.Println("Usage: go run ./cmd/admin create-group <slug> <title> [description]")
			os.Exit(1)
		}
		groups := service.NewGroupService(repository.NewGroupRepository(db))
		group, err := groups.CreateGroup(ctx, service.CreateGroupInput{
			Slug:        os.Args[2],
			Title:       os.Args[3],
			Description: strings.Join(os.Args[4:], " "),
		})
		if err != nil {
			log.Fatalf("Failed to create group: %v", err)
		}
		fmt.Printf("✅ Created group %q (/%s)\n", group.Title, group.Slug)

	case "clear-cache":
		srv, err := server.NewServerWithDeps(cfg, db, rdb)
		if err != nil {
			log.Fatalf("Failed to build server: %v", err)
		}
		if err := srv.FeedService().ClearCache(ctx); err != nil {
			log.Fatalf("Failed to clear cache: %v", err)
		}
		fmt.Println("✅ Index page cache cleared")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users *service.UserService, username string, isAdmin bool) {
	user, err := users.SetAdmin(ctx, username, isAdmin)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			fmt.Printf("User %s not found\n", username)
			os.Exit(1)
		}
		log.Fatalf("Failed to update user: %v", err)
	}
	verb := "promoted"
	if !isAdmin {
		verb = "demoted"
	}
	fmt.Printf("✅ Successfully %s %s (ID: %d)\n", verb, user.Username, user.ID)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("is_admin = ?", true).Order("username").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", admin.ID, admin.Username, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}
