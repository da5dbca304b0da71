package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"voice-analytics/internal/config"
	"voice-analytics/internal/domain"
	pg "voice-analytics/internal/infra/db/postgres"
	"voice-analytics/internal/infra/logging"
	"voice-analytics/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	email := flag.String("email", "owner@demo.local", "owner account email")
	password := flag.String("password", "demo-password", "owner account password")
	orgName := flag.String("org", "Demo Sales", "organization name")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	authUC := usecase.NewAuthUseCase(pg.NewPostgresUserRepo(pool), pg.NewOrganizationRepo(pool), pg.NewTxManager(pool), logger)

	u, err := authUC.Signup(ctx, usecase.SignupInput{
		Name:             "Demo Owner",
		Email:            *email,
		Password:         *password,
		OrganizationName: *orgName,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		fmt.Printf("%s already present. No changes.\n", *email)
		return
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("seed owner")
	}
	fmt.Printf("seeded: %s (id=%s) owning %q (org=%s)\n", u.Email, u.ID, *orgName, u.OrganizationID)
}
