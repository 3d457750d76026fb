// Package main provides a CLI tool for seeding the database with a demo business.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/core/types"
	"invoicer/internal/domain/auth"
	"invoicer/internal/domain/catalogs/item"
	"invoicer/internal/infrastructure/storage/postgres"
	"invoicer/internal/infrastructure/storage/postgres/auth_repo"
	"invoicer/internal/infrastructure/storage/postgres/catalog_repo"
	"invoicer/pkg/logger"
	"invoicer/pkg/numerator"
)

type demoItem struct {
	name     string
	price    string
	quantity int64
	design   string
}

var demoItems = []demoItem{
	{"Tumbler 300ml", "120.00", 500, "Plain"},
	{"Water Jug 1.5L", "850.00", 120, "Fluted"},
	{"Dinner Plate 10in", "340.50", 300, item.DefaultDesign},
	{"Tea Cup Set (6)", "1450.00", 60, "Gold Rim"},
	{"Serving Bowl", "615.75", 80, item.DefaultDesign},
}

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
		Service:     "invoicer-seed",
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)
	ctx := logger.WithLogger(context.Background(), log)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seed(ctx, pool, log); err != nil {
		log.Fatalw("seeding failed", "error", err)
	}
	log.Info("seeding completed successfully")
}

func seed(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	txManager := postgres.NewTxManager(pool)
	numbers := numerator.New(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})

	users := auth_repo.NewUserRepo(txManager)
	authService := auth.NewService(auth.Deps{
		Users:     users,
		Addresses: auth_repo.NewAddressRepo(txManager),
		Tokens:    auth_repo.NewTokenRepo(txManager),
		Counters:  numbers,
		TxManager: txManager,
		JWT:       auth.NewJWTService(auth.DefaultJWTConfig("seed")),
	}, auth.DefaultServiceConfig())

	password := getEnv("DEMO_PASSWORD", "Demo@1234")
	user, err := authService.Register(ctx, auth.RegisterRequest{
		UserName:     getEnv("DEMO_USER_NAME", "demo"),
		BusinessName: "Demo Glassworks",
		Slogan:       "Clear quality since 1998",
		Email:        getEnv("DEMO_EMAIL", "demo@invoicer.local"),
		PhoneNo:      getEnv("DEMO_PHONE", "+923001234567"),
		Password:     password,
		GSTNo:        "17-00-1234-567-89",
		NTNNo:        "1234567-8",
		Street:       "Industrial Estate Road",
		Area:         "Kot Lakhpat",
		City:         "Lahore",
		Country:      "Pakistan",
	})
	switch {
	case err == nil:
		log.Infow("demo user created", "user_id", user.ID, "user_name", user.UserName)
	case hasCode(err, apperror.CodeConflict):
		user, err = users.GetByLogin(ctx, strings.ToLower(getEnv("DEMO_USER_NAME", "demo")))
		if err != nil {
			return fmt.Errorf("load existing demo user: %w", err)
		}
		log.Infow("demo user already exists", "user_id", user.ID)
	default:
		return fmt.Errorf("register demo user: %w", err)
	}

	ownerCtx := appctx.WithUser(ctx, &appctx.UserContext{
		UserID:   user.ID.String(),
		UserName: user.UserName,
		Email:    user.Email,
	})

	// One transaction for the whole catalog; each item gets a savepoint so an
	// item left by an earlier run is skipped without aborting the rest.
	opts := postgres.DefaultTxOptions()
	opts.UseSavepoint = true
	items := item.NewService(catalog_repo.NewItemRepo(txManager), txManager.WithOptions(opts), nil)

	created := 0
	err = txManager.RunInTransaction(ownerCtx, func(ctx context.Context) error {
		for _, d := range demoItems {
			price, err := types.NewMoneyFromString(d.price)
			if err != nil {
				return fmt.Errorf("parse price of %s: %w", d.name, err)
			}
			it := item.NewItem(user.ID, d.name, price, d.quantity)
			it.Design = d.design
			if err := items.Create(ctx, it, nil); err != nil {
				if hasCode(err, apperror.CodeDuplicate) {
					log.Infow("demo item already exists", "name", d.name)
					continue
				}
				return fmt.Errorf("create item %s: %w", d.name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Infow("demo items seeded", "created", created, "total", len(demoItems))
	return nil
}

func hasCode(err error, code string) bool {
	appErr, ok := apperror.AsAppError(err)
	return ok && appErr.Code == code
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
