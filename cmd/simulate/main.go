package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/hackgods/availability-scheduling/internal/availability"
)

type SimConfig struct {
	APIBaseURL       string
	Duration         time.Duration
	Workers          int
	ReadRatio        float64
	AppointmentRatio float64
	CancelRatio      float64
	HorizonDays      int
	MaxWindowDays    int
}

// DataPool remembers the appointments created during the run so they can be
// cancelled again.
type DataPool struct {
	mu           sync.Mutex
	appointments []uuid.UUID
}

func (dp *DataPool) Add(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) TakeRandom(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	idx := rng.Intn(len(dp.appointments))
	id := dp.appointments[idx]
	dp.appointments[idx] = dp.appointments[len(dp.appointments)-1]
	dp.appointments = dp.appointments[:len(dp.appointments)-1]
	return id, true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	max = latencies[len(latencies)-1]
	return avg, p50, p95, max
}

type Metrics struct {
	Read        OperationMetrics
	Appointment OperationMetrics
	Cancel      OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	today   availability.CalendarDay
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d read=%.2f appointment=%.2f cancel=%.2f",
		cfg.Duration, cfg.Workers, cfg.ReadRatio, cfg.AppointmentRatio, cfg.CancelRatio)

	sim := &Simulator{
		config: cfg,
		pool:   &DataPool{},
		client: &http.Client{Timeout: 10 * time.Second},
		today:  availability.DayOf(time.Now(), time.UTC),
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:       getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:         getDuration("SIM_DURATION", 30*time.Second),
		Workers:          getInt("SIM_WORKERS", 10),
		ReadRatio:        getFloat("SIM_READ_RATIO", 0.8),
		AppointmentRatio: getFloat("SIM_APPOINTMENT_RATIO", 0.15),
		CancelRatio:      getFloat("SIM_CANCEL_RATIO", 0.05),
		HorizonDays:      getInt("SIM_HORIZON_DAYS", 28),
		MaxWindowDays:    getInt("SIM_MAX_WINDOW_DAYS", 14),
	}

	// Normalize ratios
	total := cfg.ReadRatio + cfg.AppointmentRatio + cfg.CancelRatio
	if total > 0 {
		cfg.ReadRatio /= total
		cfg.AppointmentRatio /= total
		cfg.CancelRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.HorizonDays <= 0 || cfg.MaxWindowDays <= 0 {
		return fmt.Errorf("SIM_HORIZON_DAYS and SIM_MAX_WINDOW_DAYS must be > 0")
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.ReadRatio:
				s.doRead(ctx, rng)
			case r < s.config.ReadRatio+s.config.AppointmentRatio:
				s.doAppointment(ctx, rng)
			default:
				s.doCancel(ctx, rng)
			}
		}
	}
}

func (s *Simulator) doRead(ctx context.Context, rng *rand.Rand) {
	start := s.today.AddDays(rng.Intn(s.config.HorizonDays))
	days := 1 + rng.Intn(s.config.MaxWindowDays)

	url := fmt.Sprintf("%s/availabilities?date=%s&days=%d", s.config.APIBaseURL, start, days)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	began := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(began)

	success := false
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Read.Record(latency, success)
}

func (s *Simulator) doAppointment(ctx context.Context, rng *rand.Rand) {
	day := s.today.AddDays(rng.Intn(s.config.HorizonDays))
	startsAt := day.Midnight(time.UTC).Add(time.Duration(16+rng.Intn(20)) * availability.SlotDuration)
	endsAt := startsAt.Add(time.Duration(1+rng.Intn(2)) * availability.SlotDuration)

	body, _ := json.Marshal(map[string]any{
		"kind":      availability.KindAppointment,
		"starts_at": startsAt,
		"ends_at":   endsAt,
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	began := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(began)

	success := false
	if err == nil {
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			success = true
			var created struct {
				ID uuid.UUID `json:"id"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&created); err == nil && created.ID != uuid.Nil {
				s.pool.Add(created.ID)
			}
		}
	}

	s.metrics.Appointment.Record(latency, success)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.TakeRandom(rng)
	if !ok {
		return
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodDelete, s.config.APIBaseURL+"/events/"+id.String(), nil)

	began := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(began)

	success := false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusNoContent
	}

	s.metrics.Cancel.Record(latency, success)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Availability reads", &s.metrics.Read)
	printOperationReport("Appointments created", &s.metrics.Appointment)
	printOperationReport("Appointments cancelled", &s.metrics.Cancel)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	failed := atomic.LoadInt64(&om.Error)
	avg, p50, p95, max := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s max=%s\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), max.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
