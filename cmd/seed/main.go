package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinicbook-service/internal/db"
)

var specialties = map[string]string{
	"Cardiologia":      "Heart and circulatory system",
	"Pediatria":        "Care for infants, children and adolescents",
	"Dermatologia":     "Skin, hair and nail conditions",
	"Neurologia":       "Nervous system disorders",
	"Traumatologia":    "Musculoskeletal injuries",
	"Medicina General": "Primary and preventive care",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	slotCount := flag.Int("slots", 500, "number of open slots to create")
	flag.Parse()

	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 4)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedSpecialties(context.Background(), pool); err != nil {
		log.Fatalf("seed specialties: %v", err)
	}
	if err := seedSlots(context.Background(), pool, *slotCount); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedSpecialties(ctx context.Context, pool *pgxpool.Pool) error {
	log.Printf("seeding %d specialties", len(specialties))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for name, description := range specialties {
		_, err := tx.Exec(ctx, `
			INSERT INTO specialties (name, description, created_at)
			VALUES ($1, $2, now())
			ON CONFLICT (name) DO NOTHING
		`, name, description)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("specialties seeded")
	return nil
}

func seedSlots(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d slots", count)

	names := make([]string, 0, len(specialties))
	for name := range specialties {
		names = append(names, name)
	}

	const batchSize = 200

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			startsAt := time.Now().Add(time.Duration(gofakeit.Number(1, 60*24)) * time.Hour).Truncate(time.Minute)
			physician := "Dr. " + gofakeit.Name()
			specialty := names[gofakeit.Number(0, len(names)-1)]
			description := gofakeit.Sentence(6)

			_, err := tx.Exec(ctx, `
				INSERT INTO slots (id, starts_at, physician, specialty, description, available, holder, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, TRUE, NULL, now(), now())
			`, id, startsAt, physician, specialty, description)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("slots seeded: %d/%d", end, count)
	}

	log.Println("slots seeded")
	return nil
}
