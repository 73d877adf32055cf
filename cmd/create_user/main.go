package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"wealthify/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("usage: go run ./cmd/create_user <username> <email> <password>")
		os.Exit(2)
	}
	username := os.Args[1]
	email := os.Args[2]
	password := os.Args[3]
	if len(password) < 6 {
		log.Fatal("password too short (min 6)")
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	var existing models.User
	if err := db.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == nil {
		log.Fatalf("user %s already exists", existing.Username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	user := models.User{Username: username, Email: email, PasswordHash: hash}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("create failed: %v", err)
	}
	fmt.Printf("created user %s (id=%d)\n", user.Username, user.ID)
}
