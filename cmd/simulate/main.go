// simulate hammers the reserve endpoint with concurrent users and checks
// the exclusivity guarantee end to end: for every slot, at most one caller
// may ever see a successful reservation, and the stored holder must be that
// caller.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinicbook-service/internal/db"
	"clinicbook-service/internal/identity"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	Users       int
	SlotLimit   int
	PostgresDSN string
	JWTSecret   string
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[len(latencies)*50/100]
	idx := len(latencies) * 95 / 100
	if idx >= len(latencies) {
		idx = len(latencies) - 1
	}
	p95 = latencies[idx]

	return avg, min, max, p50, p95
}

// winners tracks, per slot, which user ids observed HTTP success.
type winners struct {
	mu   sync.Mutex
	byID map[uuid.UUID][]string
}

func (w *winners) record(slotID uuid.UUID, userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.byID[slotID] = append(w.byID[slotID], userID)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := SimConfig{
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}
	flag.StringVar(&cfg.APIBaseURL, "api", "http://127.0.0.1:8080", "API base URL")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "simulation duration")
	flag.IntVar(&cfg.Workers, "workers", 50, "concurrent workers")
	flag.IntVar(&cfg.Users, "users", 200, "distinct simulated users")
	flag.IntVar(&cfg.SlotLimit, "slots", 200, "available slots to contend over")
	flag.Parse()

	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, 10)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	slots, err := loadAvailableSlots(context.Background(), pool, cfg.SlotLimit)
	if err != nil {
		log.Fatalf("load slots: %v", err)
	}
	if len(slots) == 0 {
		log.Fatal("no available slots, run cmd/seed first")
	}
	log.Printf("contending over %d slots with %d workers for %s", len(slots), cfg.Workers, cfg.Duration)

	tokens := mintTokens(cfg.JWTSecret, cfg.Users)

	var metrics OperationMetrics
	won := &winners{byID: make(map[uuid.UUID][]string)}
	client := &http.Client{Timeout: 10 * time.Second}

	runCtx, stopRun := context.WithTimeout(context.Background(), cfg.Duration)
	defer stopRun()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for runCtx.Err() == nil {
				slotID := slots[rng.Intn(len(slots))]
				pick := tokens[rng.Intn(len(tokens))]
				userID, token := pick.id, pick.token

				start := time.Now()
				status := reserve(runCtx, client, cfg.APIBaseURL, slotID, token)
				latency := time.Since(start)

				success := status == http.StatusOK
				conflict := status == http.StatusConflict
				metrics.Record(latency, success, conflict)
				if success {
					won.record(slotID, userID)
				}
			}
		}(int64(w) + time.Now().UnixNano())
	}
	wg.Wait()

	report(&metrics)
	verify(context.Background(), pool, won)
}

type userToken struct {
	id    string
	token string
}

func mintTokens(secret string, n int) []userToken {
	p := identity.NewJWTProvider(secret)
	tokens := make([]userToken, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("sim-user-%03d", i)
		token, err := p.Sign(id, "", time.Hour)
		if err != nil {
			log.Fatalf("sign token: %v", err)
		}
		tokens = append(tokens, userToken{id: id, token: token})
	}
	return tokens
}

func loadAvailableSlots(ctx context.Context, pool *pgxpool.Pool, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `
		SELECT id FROM slots WHERE available ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func reserve(ctx context.Context, client *http.Client, baseURL string, slotID uuid.UUID, token string) int {
	url := fmt.Sprintf("%s/slots/%s/reserve", baseURL, slotID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode
}

func report(m *OperationMetrics) {
	avg, min, max, p50, p95 := m.Stats()
	log.Printf("reserve calls: total=%d success=%d conflict=%d error=%d",
		atomic.LoadInt64(&m.Total),
		atomic.LoadInt64(&m.Success),
		atomic.LoadInt64(&m.Conflict),
		atomic.LoadInt64(&m.Error),
	)
	log.Printf("latency: avg=%s min=%s max=%s p50=%s p95=%s", avg, min, max, p50, p95)
}

// verify cross-checks the HTTP-observed winners against stored state.
func verify(ctx context.Context, pool *pgxpool.Pool, won *winners) {
	won.mu.Lock()
	defer won.mu.Unlock()

	violations := 0
	for slotID, users := range won.byID {
		if len(users) > 1 {
			log.Printf("VIOLATION: slot %s reported success to %d users: %v", slotID, len(users), users)
			violations++
			continue
		}

		var available bool
		var holder *string
		err := pool.QueryRow(ctx, `SELECT available, holder FROM slots WHERE id = $1`, slotID).Scan(&available, &holder)
		if err != nil {
			log.Printf("verify read slot %s: %v", slotID, err)
			violations++
			continue
		}

		switch {
		case available || holder == nil:
			log.Printf("VIOLATION: slot %s had a winner but is stored available", slotID)
			violations++
		case *holder != users[0]:
			log.Printf("VIOLATION: slot %s stored holder %s but winner was %s", slotID, *holder, users[0])
			violations++
		}
	}

	if violations == 0 {
		log.Printf("verification passed: %d reserved slots, one winner each", len(won.byID))
		return
	}
	log.Fatalf("verification failed with %d violations", violations)
}
