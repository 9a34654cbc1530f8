package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/container"
	"github.com/oksasatya/go-user-registry/internal/domain/credential"
	"github.com/oksasatya/go-user-registry/internal/registry"
	"github.com/oksasatya/go-user-registry/pkg/apperror"
	"github.com/oksasatya/go-user-registry/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	container.SetLogger(logger)

	ctx := context.Background()
	store, err := container.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if rdb := container.GetRedis(); rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	reg, err := registry.Load(ctx, store, registry.WithLogger(logger), registry.WithWriteTimeout(cfg.StoreWriteTimeout))
	if err != nil {
		log.Fatalf("failed to load users: %v", err)
	}
	svc := application.NewService(reg, credential.NewHasher(cfg.PasswordHashCost), nil, logger)

	id := "demo_user"
	password := "Password123"
	u, err := svc.CreateUser(ctx, application.CreateUserInput{
		ID:        id,
		Name:      "Demo User",
		Email:     "demo@example.com",
		Phone:     "+10000000000",
		CreatedBy: "seed",
	})
	switch {
	case errors.Is(err, apperror.ErrAlreadyExists):
		fmt.Printf("user %s already exists, resetting password\n", id)
	case err != nil:
		log.Fatalf("failed to seed user: %v", err)
	default:
		fmt.Printf("seeded user: id=%s email=%s name=%s\n", u.ID(), u.Email(), u.Name())
	}

	if err := svc.SetPassword(ctx, id, password); err != nil {
		log.Fatalf("failed to set password: %v", err)
	}
	fmt.Printf("password for %s set to %s\n", id, password)
}
