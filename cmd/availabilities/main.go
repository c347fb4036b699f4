package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/availability-scheduling/internal/app"
	"github.com/hackgods/availability-scheduling/internal/availability"
	"github.com/hackgods/availability-scheduling/internal/config"
	"github.com/hackgods/availability-scheduling/internal/logging"
)

func main() {
	date := flag.String("date", "", "first day of the window, YYYY-MM-DD (default today)")
	days := flag.Int("days", 0, "number of days (default DEFAULT_DAYS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.NewZapLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	start := availability.DayOf(time.Now(), cfg.Location())
	if *date != "" {
		start, err = availability.ParseCalendarDay(*date)
		if err != nil {
			logger.Fatal("invalid -date", zap.Error(err))
		}
	}
	if *days == 0 {
		*days = cfg.DefaultDays
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deps, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer deps.Close(logger)

	buckets, err := deps.Service.GetAvailabilities(ctx, start, *days)
	if err != nil {
		logger.Fatal("compute availabilities", zap.Error(err))
	}

	for _, b := range buckets {
		fmt.Fprintf(os.Stdout, "%s  %s\n", b.Date.Format("Mon 2006-01-02"), strings.Join(b.Slots, " "))
	}
}
