// Command createsuperadmin provisions a superadmin account directly in the
// database. Superadmins review onboarding requests; the first one cannot be
// created through the API, so it is bootstrapped here.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"familytree/internal/config"
	"familytree/internal/database"
	"familytree/internal/models"
	"familytree/internal/repository"
	"familytree/internal/security"
	"familytree/internal/validation"
)

func main() {
	email := flag.String("email", "", "superadmin email address")
	fullName := flag.String("name", "", "superadmin full name")
	password := flag.String("password", "", "superadmin password")
	flag.Parse()

	if err := validation.ValidateEmail(*email); err != nil {
		fail(err)
	}
	if err := validation.ValidateFullName(*fullName); err != nil {
		fail(err)
	}
	if err := validation.ValidatePassword(*password); err != nil {
		fail(err)
	}

	godotenv.Load()
	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)

	existing, err := userRepo.GetByEmail(*email)
	if err != nil {
		log.Fatalf("Failed to check existing user: %v", err)
	}
	if existing != nil {
		log.Fatalf("A user with email %s already exists", *email)
	}

	cipher := security.New(security.Params{Iterations: cfg.KDFIterations})
	passwordHash, err := cipher.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		ID:             uuid.New().String(),
		Email:          *email,
		FullName:       *fullName,
		Role:           models.RoleSuperAdmin,
		ApprovalStatus: models.ApprovalApproved,
		PasswordHash:   passwordHash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := userRepo.Insert(user); err != nil {
		log.Fatalf("Failed to create superadmin: %v", err)
	}

	fmt.Printf("Superadmin created: %s (%s)\n", user.Email, user.ID)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	flag.Usage()
	os.Exit(1)
}
