// Command seed provisions a school and its first admin account. Intended
// for local development and fresh deployments.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidyalay/school-saas-api/internal/models"
	"github.com/vidyalay/school-saas-api/internal/repository"
	"github.com/vidyalay/school-saas-api/pkg/config"
	"github.com/vidyalay/school-saas-api/pkg/database"
)

func main() {
	var (
		schoolName string
		address    string
		contact    string
		adminEmail string
		adminName  string
		password   string
	)

	flag.StringVar(&schoolName, "school", "Demo School", "school name")
	flag.StringVar(&address, "address", "1 Main St", "school address")
	flag.StringVar(&contact, "contact", "admin@demo.school", "school contact info")
	flag.StringVar(&adminEmail, "email", "admin@demo.school", "admin email")
	flag.StringVar(&adminName, "name", "Demo Admin", "admin display name")
	flag.StringVar(&password, "password", "", "admin password (required)")
	flag.Parse()

	if len(password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	schools := repository.NewSchoolRepository(db)
	users := repository.NewUserRepository(db)

	school := &models.School{
		Name:        schoolName,
		Address:     address,
		ContactInfo: contact,
	}
	if err := schools.Create(ctx, school); err != nil {
		log.Fatalf("failed to create school: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: string(hash),
		Name:         adminName,
		Role:         models.RoleAdmin,
		SchoolID:     &school.ID,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}

	log.Printf("seeded school %s with admin %s", school.ID, admin.Email)
}
