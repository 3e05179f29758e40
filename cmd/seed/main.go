package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/society-sync-api/internal/models"
	"github.com/noah-isme/society-sync-api/internal/repository"
	"github.com/noah-isme/society-sync-api/pkg/config"
	"github.com/noah-isme/society-sync-api/pkg/database"
	"github.com/noah-isme/society-sync-api/pkg/logger"
)

type societySeed struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Logo              string   `json:"logo"`
	Email             string   `json:"email"`
	Instagram         string   `json:"instagram"`
	IsRecruitmentOpen bool     `json:"isRecruitmentOpen"`
	RecurringEvents   []string `json:"recurringEvents"`
}

func main() {
	email := flag.String("email", os.Getenv("SUPERADMIN_EMAIL"), "superadmin email")
	password := flag.String("password", os.Getenv("SUPERADMIN_PASSWORD"), "superadmin password")
	name := flag.String("name", "Super Admin", "superadmin display name")
	societiesFile := flag.String("societies", "", "optional JSON file with an array of societies")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(context.Background(), cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(db); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users := repository.NewUserRepository(db)
	if *email != "" && *password != "" {
		if err := seedSuperAdmin(ctx, users, *name, *email, *password); err != nil {
			logr.Fatal("failed to seed superadmin", zap.Error(err))
		}
		logr.Info("superadmin ready", zap.String("email", strings.ToLower(*email)))
	} else {
		logr.Info("superadmin skipped: email and password not provided")
	}

	if *societiesFile != "" {
		seeds, err := readSocieties(*societiesFile)
		if err != nil {
			logr.Fatal("failed to read societies", zap.Error(err))
		}
		societies := repository.NewSocietyRepository(db)
		for _, seed := range seeds {
			society := &models.Society{
				Name:              strings.TrimSpace(seed.Name),
				Description:       seed.Description,
				Logo:              seed.Logo,
				Email:             seed.Email,
				Instagram:         seed.Instagram,
				IsRecruitmentOpen: seed.IsRecruitmentOpen,
				RecurringEvents:   seed.RecurringEvents,
			}
			if err := societies.Create(ctx, society); err != nil {
				logr.Fatal("failed to seed society", zap.String("name", society.Name), zap.Error(err))
			}
		}
		logr.Info("societies seeded", zap.Int("count", len(seeds)))
	}
}

func seedSuperAdmin(ctx context.Context, users *repository.UserRepository, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := users.FindByEmail(ctx, email); err == nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	err = users.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleSuperAdmin,
		Verified:     true,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	return err
}

func readSocieties(path string) ([]societySeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seeds []societySeed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, err
	}
	return seeds, nil
}
