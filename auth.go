package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"wealthify/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL = 30 * time.Minute
	resetTokenTTL  = 15 * time.Minute
)

// ErrUserExists marks a username/email conflict, as opposed to rejected input.
var ErrUserExists = errors.New("already exists")

// RegisterUser creates a user with a bcrypt-hashed password.
func RegisterUser(username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return models.User{}, fmt.Errorf("username required")
	}
	if email == "" {
		return models.User{}, fmt.Errorf("email required")
	}
	if len(password) < 6 { // basic password policy
		return models.User{}, fmt.Errorf("password too short (min 6)")
	}
	// pre-check existing (optimistic)
	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		return models.User{}, fmt.Errorf("username %w", ErrUserExists)
	}
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return models.User{}, fmt.Errorf("email %w", ErrUserExists)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{Username: username, Email: email, PasswordHash: hashedPassword}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // race condition after initial check
			return models.User{}, fmt.Errorf("user %w", ErrUserExists)
		}
		return models.User{}, err
	}
	return user, nil
}

// Authenticate verifies a username/password pair without revealing which part failed.
func Authenticate(username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	return user, nil
}

// issueAccessToken signs a short-lived bearer token whose subject is the user id.
func issueAccessToken(user models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": fmt.Sprintf("%d", user.ID),
		"exp": time.Now().Add(accessTokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// issueResetToken signs a single-purpose token for password reset emails. The
// purpose claim keeps it from doubling as an access token.
func issueResetToken(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"purpose": "password-reset",
		"email":   email,
		"exp":     time.Now().Add(resetTokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// verifyResetToken returns the email a valid reset token was issued for.
func verifyResetToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid or expired reset token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}
	if purpose, _ := claims["purpose"].(string); purpose != "password-reset" {
		return "", fmt.Errorf("not a reset token")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", fmt.Errorf("reset token missing email")
	}
	return email, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
