package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/model"
	"github.com/securebridge/securebridge/internal/repository"
)

type output struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	KeyID    int64  `json:"key_id,omitempty"`
	Key      string `json:"key,omitempty"`
}

func main() {
	var (
		databaseURL   = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email         = flag.String("email", "admin@securebridge.local", "Admin email")
		name          = flag.String("name", "bootstrap admin", "Admin display name")
		password      = flag.String("password", "", "Admin password (generated when empty)")
		withKey       = flag.Bool("with-key", false, "Also issue an admin service key")
		encryptionKey = flag.String("encryption-key", os.Getenv("API_KEY_ENCRYPTION_KEY"), "Key encryption secret (required with -with-key)")
		prefix        = flag.String("prefix", "sbk_", "Service key prefix")
		format        = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *withKey && *encryptionKey == "" {
		fmt.Fprintln(os.Stderr, "API_KEY_ENCRYPTION_KEY is required with -with-key")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	out := output{Email: *email}

	plainPassword := *password
	if plainPassword == "" {
		plainPassword, err = randomPassword()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate password:", err)
			os.Exit(1)
		}
		out.Password = plainPassword
	}

	user, err := ensureAdmin(ctx, repo, *email, *name, plainPassword)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	out.UserID = user.ID

	if *withKey {
		cipher, err := auth.NewKeyCipher(*encryptionKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, "init cipher:", err)
			os.Exit(1)
		}

		plaintext, err := auth.GenerateServiceKey(*prefix)
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate service key:", err)
			os.Exit(1)
		}
		envelope, err := cipher.Encrypt(plaintext)
		if err != nil {
			fmt.Fprintln(os.Stderr, "encrypt service key:", err)
			os.Exit(1)
		}

		now := time.Now().UTC()
		apiKey := &model.APIKey{
			OwnerID:      user.ID,
			EncryptedKey: envelope,
			ServiceName:  "bootstrap",
			Description:  "issued by bootstrap-admin",
			Permissions:  []string{model.PermAdmin},
			IsActive:     true,
			ExpiresAt:    now.Add(365 * 24 * time.Hour),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repo.CreateAPIKey(ctx, apiKey); err != nil {
			fmt.Fprintln(os.Stderr, "create api key:", err)
			os.Exit(1)
		}
		out.KeyID = apiKey.ID
		out.Key = plaintext
	}

	switch strings.ToLower(*format) {
	case "plain":
		if out.Password != "" {
			fmt.Println("password:", out.Password)
		}
		if out.Key != "" {
			fmt.Println("key:", out.Key)
		}
		fmt.Println("user_id:", out.UserID)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func ensureAdmin(ctx context.Context, repo *repository.Repository, email, name, password string) (*model.User, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			return nil, fmt.Errorf("user %s exists without the admin role", email)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
