// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
	"obraplan/internal/infrastructure/storage/postgres"
	"obraplan/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@obraplan.io"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, name, is_active, is_admin, roles,
			failed_login_attempts, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, 'Administrator', true, true, '{admin}', 0, now(), now(), 1)
	`, userID, adminEmail, string(passwordHash))
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", userID)
	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	materials := []struct {
		code, name, unit string
		price            string
		stock, minimum   string
	}{
		{"MAT-00001", "Cimento CP-II 50kg", "SC", "32.90", "100", "20"},
		{"MAT-00002", "Areia média lavada", "M3", "120.00", "10", "5"},
		{"MAT-00003", "Brita 1", "M3", "135.00", "8", "4"},
		{"MAT-00004", "Tijolo cerâmico 9x19x19", "UN", "1.15", "5000", "1000"},
		{"MAT-00005", "Vergalhão CA-50 10mm", "KG", "7.80", "500", "100"},
	}

	for _, m := range materials {
		price, err := types.NewMoneyFromString(m.price)
		if err != nil {
			return fmt.Errorf("parse price for %s: %w", m.code, err)
		}
		stock, err := types.NewQuantityFromString(m.stock)
		if err != nil {
			return fmt.Errorf("parse stock for %s: %w", m.code, err)
		}
		minimum, err := types.NewQuantityFromString(m.minimum)
		if err != nil {
			return fmt.Errorf("parse minimum for %s: %w", m.code, err)
		}

		_, err = pool.Pool.Exec(ctx, `
			INSERT INTO cat_materials (
				id, deletion_mark, version, code, name, unit, unit_price,
				current_stock, minimum_stock, stock_updated_at
			)
			VALUES ($1, false, 1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (code) DO NOTHING
		`, id.New(), m.code, m.name, m.unit, price, stock, minimum)
		if err != nil {
			return fmt.Errorf("insert material %s: %w", m.code, err)
		}
	}
	log.Infow("demo materials seeded", "count", len(materials))

	services := []struct {
		code, name, unit          string
		labor, material, equipment string
	}{
		{"SRV-00001", "Alvenaria de vedação", "M2", "28.00", "35.00", "2.00"},
		{"SRV-00002", "Concreto estrutural FCK 25", "M3", "95.00", "380.00", "45.00"},
		{"SRV-00003", "Reboco interno", "M2", "18.00", "9.50", "1.00"},
		{"SRV-00004", "Pintura látex 2 demãos", "M2", "12.00", "6.80", "0.50"},
	}

	for _, s := range services {
		labor, err := types.NewMoneyFromString(s.labor)
		if err != nil {
			return fmt.Errorf("parse labor cost for %s: %w", s.code, err)
		}
		material, err := types.NewMoneyFromString(s.material)
		if err != nil {
			return fmt.Errorf("parse material cost for %s: %w", s.code, err)
		}
		equipment, err := types.NewMoneyFromString(s.equipment)
		if err != nil {
			return fmt.Errorf("parse equipment cost for %s: %w", s.code, err)
		}

		_, err = pool.Pool.Exec(ctx, `
			INSERT INTO cat_services (
				id, deletion_mark, version, code, name, unit,
				labor_unit_cost, material_unit_cost, equipment_unit_cost
			)
			VALUES ($1, false, 1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (code) DO NOTHING
		`, id.New(), s.code, s.name, s.unit, labor, material, equipment)
		if err != nil {
			return fmt.Errorf("insert service %s: %w", s.code, err)
		}
	}
	log.Infow("demo services seeded", "count", len(services))

	return nil
}
