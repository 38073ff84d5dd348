package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coinmews/coinmews/internal/config"
	"github.com/coinmews/coinmews/internal/domain/enums"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	redrepo "github.com/coinmews/coinmews/internal/repo/redis"
	authsvc "github.com/coinmews/coinmews/internal/services/auth"
)

func main() {
	email := flag.String("email", "", "staff email")
	password := flag.String("password", "", "plain password")
	name := flag.String("name", "", "display name")
	role := flag.String("role", string(enums.RoleModerator), "moderator or admin")
	flag.Parse()

	staffRole := enums.Role(strings.ToLower(strings.TrimSpace(*role)))
	if strings.TrimSpace(*email) == "" || strings.TrimSpace(*password) == "" {
		log.Fatal("use -email and -password to create a staff account")
	}
	if !staffRole.IsStaff() {
		log.Fatalf("role %q is not a staff role", *role)
	}

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := pgrepo.Migrate(ctx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	hash, err := authsvc.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	displayName := strings.TrimSpace(*name)
	if displayName == "" {
		displayName = strings.SplitN(*email, "@", 2)[0]
	}

	users := pgrepo.NewUserRepo(pool)
	normalized := strings.ToLower(strings.TrimSpace(*email))
	user, err := users.Create(ctx, normalized, displayName, hash, staffRole)
	if err == nil {
		fmt.Printf("created %s %s (id=%d)\n", user.Role, user.Email, user.ID)
		return
	}
	if !errors.Is(err, pgrepo.ErrEmailTaken) {
		log.Fatalf("create staff user: %v", err)
	}

	// Existing account: promote it and revoke its sessions. The password is left as is.
	existing, err := users.FindByEmail(ctx, normalized)
	if err != nil {
		log.Fatalf("load existing user: %v", err)
	}

	redisClient, err := redrepo.NewClient(ctx, redrepo.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer redisClient.Close()

	auth := authsvc.NewService(
		authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL),
		redrepo.NewSessionRepo(redisClient),
		users,
		authsvc.Config{RefreshTTL: cfg.Auth.RefreshTTL, TOTPIssuer: cfg.Auth.TOTPIssuer},
		nil,
	)
	if err := auth.ChangeRole(ctx, existing.ID, staffRole); err != nil {
		log.Fatalf("promote user: %v", err)
	}
	fmt.Printf("promoted %s to %s (id=%d), password unchanged\n", existing.Email, staffRole, existing.ID)
}
