package main

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/eventreg/backend/internal/config"
	"github.com/eventreg/backend/internal/database"
	"github.com/eventreg/backend/internal/database/migrations"
	"github.com/eventreg/backend/internal/utils"
)

// Creates the initial admin account from ADMIN_EMAIL, ADMIN_PASSWORD and
// ADMIN_NAME. Safe to run repeatedly: an existing admin is left untouched.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}
	if name == "" {
		name = "Administrator"
	}

	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	var existing database.Admin
	err = db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Printf("Admin %s already exists, nothing to do", email)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to look up admin: %v", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := database.Admin{
		Email:    email,
		Password: hash,
		Name:     name,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	log.Printf("Admin %s created", email)
}
