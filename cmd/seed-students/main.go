package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/database"
	"github.com/examguard/examguard-backend/internal/logger"
	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	fmt.Println("=== Seeding 30 Students ===")

	names := []string{
		"Alice Chen", "Brian Torres", "Cara Whitfield", "Daniel Okafor", "Elena Vasquez",
		"Felix Nguyen", "Grace Kim", "Hassan Ali", "Isla Morgan", "Jonas Weber",
		"Keira O'Brien", "Liam Park", "Mina Petrov", "Noah Fischer", "Olivia Santos",
		"Priya Sharma", "Quentin Ross", "Rosa Delgado", "Sam Whitaker", "Tessa Lindqvist",
		"Umar Farouk", "Vera Kovacs", "Wesley Grant", "Ximena Ruiz", "Yusuf Demir",
		"Zoe Caldwell", "Adrian Moss", "Bella Hartley", "Caleb Stone", "Dina Rahman",
	}

	// One shared hash: the seed password is identical, no point paying
	// bcrypt per row.
	hash, err := bcrypt.GenerateFromPassword([]byte("examguard123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	successCount := 0
	for i, name := range names {
		student := &model.User{
			Email:        fmt.Sprintf("student%d@examguard.test", i+1),
			FullName:     name,
			PasswordHash: string(hash),
			Role:         model.RoleStudent,
			IsApproved:   true,
		}

		if err := userRepo.Create(ctx, student); err != nil {
			fmt.Printf("Error creating student %s (%s): %v\n", student.FullName, student.Email, err)
		} else {
			successCount++
			if (i+1)%10 == 0 {
				fmt.Printf("Created %d students...\n", i+1)
			}
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, len(names))
}
