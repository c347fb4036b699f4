package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/availability-scheduling/internal/availability"
	"github.com/hackgods/availability-scheduling/internal/config"
	"github.com/hackgods/availability-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	openings := flag.Int("openings", 20, "weekly recurring openings to create")
	appointments := flag.Int("appointments", 500, "one-time appointments to create")
	weeks := flag.Int("weeks", 8, "how many weeks ahead appointments are spread over")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		log.Fatalf("seed needs STORE_DRIVER=%s, got %s", config.StoreDriverPostgres, cfg.StoreDriver)
	}
	loc := cfg.Location()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	faker := gofakeit.New(0)

	// Anchor everything on last Monday so recurring references sit in the past.
	monday := lastMonday(availability.DayOf(time.Now(), loc))
	log.Printf("seeding in %s from week of %s", loc, monday)

	if err := seedOpenings(context.Background(), pool, faker, monday, loc, *openings); err != nil {
		log.Fatalf("seed openings: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, faker, monday, loc, *appointments, *weeks); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func lastMonday(today availability.CalendarDay) availability.CalendarDay {
	return today.AddDays(-((int(today.Weekday()) + 6) % 7))
}

// openingTimes picks a weekday of the week before monday and a span between
// 08:00 and 19:00 local time in loc.
func openingTimes(faker *gofakeit.Faker, monday availability.CalendarDay, loc *time.Location) (time.Time, time.Time) {
	day := monday.AddDays(faker.Number(-7, -3))
	startHalfHour := faker.Number(16, 30)
	length := faker.Number(2, 8)

	start := day.At(startHalfHour/2, (startHalfHour%2)*30, loc)
	return start, start.Add(time.Duration(length) * availability.SlotDuration)
}

// appointmentTimes picks a day in the weeks following monday and a span of
// up to 90 minutes starting between 08:00 and 17:30 local time in loc.
func appointmentTimes(faker *gofakeit.Faker, monday availability.CalendarDay, loc *time.Location, weeks int) (time.Time, time.Time) {
	day := monday.AddDays(faker.Number(0, weeks*7-1))
	startHalfHour := faker.Number(16, 35)

	start := day.At(startHalfHour/2, (startHalfHour%2)*30, loc)
	return start, start.Add(time.Duration(faker.Number(1, 3)) * availability.SlotDuration)
}

// seedOpenings creates weekly openings on weekdays between 08:00 and 19:00.
func seedOpenings(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, monday availability.CalendarDay, loc *time.Location, count int) error {
	log.Printf("seeding %d weekly openings", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		start, end := openingTimes(faker, monday, loc)

		_, err := tx.Exec(ctx, `
			INSERT INTO events (id, kind, starts_at, ends_at, weekly_recurring, created_at)
			VALUES ($1, 'opening', $2, $3, true, clock_timestamp())
		`, uuid.New(), start, end)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("openings seeded")
	return nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, monday availability.CalendarDay, loc *time.Location, count, weeks int) error {
	log.Printf("seeding %d appointments", count)

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
			start, finish := appointmentTimes(faker, monday, loc, weeks)

			_, err := tx.Exec(ctx, `
				INSERT INTO events (id, kind, starts_at, ends_at, weekly_recurring, created_at)
				VALUES ($1, 'appointment', $2, $3, false, clock_timestamp())
			`, uuid.New(), start, finish)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("appointments seeded: %d/%d", end, count)
	}

	log.Println("appointments seeded")
	return nil
}
