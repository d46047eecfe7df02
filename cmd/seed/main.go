package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/job-tracker/config"
	"github.com/oksasatya/job-tracker/internal/domain/entity"
	"github.com/oksasatya/job-tracker/internal/domain/repository"
	pginfra "github.com/oksasatya/job-tracker/internal/infrastructure/postgres"
	"github.com/oksasatya/job-tracker/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	jobs := pginfra.NewJobRepository(pool)

	email := "demo@jobtrackr.dev"
	password := "password123"
	name := "Demo User"

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		hash, hErr := helpers.HashPassword(password)
		if hErr != nil {
			log.Fatalf("failed to hash password: %v", hErr)
		}
		u = &entity.User{Email: email, Password: hash, Name: name}
		err = users.Create(ctx, u)
	}
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s name=%s password=%s\n", u.ID, u.Email, u.Name, password)

	existing, err := jobs.ListByUser(ctx, u.ID)
	if err != nil {
		log.Fatalf("failed to list jobs: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("user already has %d jobs, skipping\n", len(existing))
		return
	}

	deadline := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)
	demo := []entity.Job{
		{Company: "Acme Corp", Position: "Backend Engineer", Status: entity.JobStatusApplied, Source: entity.DefaultJobSource, Deadline: &deadline},
		{Company: "Globex", Position: "Platform Engineer", Status: entity.JobStatusInterview, Source: "Referral", Notes: "Second round on Friday"},
		{Company: "Initech", Position: "SRE", Status: entity.JobStatusRejected, Source: "Company site"},
		{Company: "Umbrella", Position: "Go Developer", Status: entity.JobStatusOffer, Source: entity.DefaultJobSource},
	}
	for i := range demo {
		demo[i].UserID = u.ID
		if err := jobs.Create(ctx, &demo[i]); err != nil {
			log.Fatalf("failed to seed job %s: %v", demo[i].Company, err)
		}
	}
	fmt.Printf("seeded %d jobs\n", len(demo))
}
