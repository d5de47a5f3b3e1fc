// simulate drives concurrent conversations through the chat server's
// booking funnel and reports success rates and latency percentiles.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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

	"github.com/google/uuid"

	"github.com/consultorios/booking-chat/internal/funnel"
)

type SimConfig struct {
	ChatBaseURL string
	Duration    time.Duration
	Workers     int
	MaxTurns    int
}

type chatRequest struct {
	Mensaje  string          `json:"mensaje"`
	Contexto *funnel.Context `json:"contexto,omitempty"`
}

type chatResponse struct {
	Respuesta           string         `json:"respuesta"`
	Sugerencias         []string       `json:"sugerencias,omitempty"`
	ContextoActualizado funnel.Context `json:"contexto_actualizado"`
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

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
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
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Turns         OperationMetrics
	Conversations OperationMetrics
	bookings      int64
}

type Simulator struct {
	config  SimConfig
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	log.Printf("config: chat=%s duration=%s workers=%d max_turns=%d",
		cfg.ChatBaseURL, cfg.Duration, cfg.Workers, cfg.MaxTurns)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		ChatBaseURL: getEnv("SIM_CHAT_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 5),
		MaxTurns:    getInt("SIM_MAX_TURNS", 8),
	}
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

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
			s.runConversation(ctx, rng)
		}
	}
}

// runConversation walks one session through the funnel by always picking
// a suggestion chip from the previous bot turn, the way a user clicking
// through the widget would.
func (s *Simulator) runConversation(ctx context.Context, rng *rand.Rand) {
	sessionID := uuid.New().String()
	conv := funnel.Context{}
	message := "Ver especialidades"

	start := time.Now()
	booked := false

	for turn := 0; turn < s.config.MaxTurns; turn++ {
		resp, err := s.sendTurn(ctx, sessionID, message, conv)
		if err != nil {
			s.metrics.Conversations.Record(time.Since(start), false)
			return
		}

		conv = resp.ContextoActualizado
		if conv.ReservaConfirmada {
			booked = true
			break
		}

		next := pickSuggestion(resp.Sugerencias, rng)
		if next == "" {
			break
		}
		message = next
	}

	if booked {
		atomic.AddInt64(&s.metrics.bookings, 1)
	}
	s.metrics.Conversations.Record(time.Since(start), booked)
}

func (s *Simulator) sendTurn(ctx context.Context, sessionID, message string, conv funnel.Context) (*chatResponse, error) {
	body, err := json.Marshal(chatRequest{Mensaje: message, Contexto: &conv})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.ChatBaseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", sessionID+"-"+uuid.NewString())

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		s.metrics.Turns.Record(latency, false)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.metrics.Turns.Record(latency, false)
		return nil, fmt.Errorf("chat returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		s.metrics.Turns.Record(latency, false)
		return nil, err
	}

	s.metrics.Turns.Record(latency, true)
	return &out, nil
}

// pickSuggestion prefers chips that advance the funnel over pivots like
// "Ver especialidades" or "Ver otro doctor".
func pickSuggestion(suggestions []string, rng *rand.Rand) string {
	if len(suggestions) == 0 {
		return ""
	}

	var advancing []string
	for _, sg := range suggestions {
		lower := strings.ToLower(sg)
		if strings.HasPrefix(lower, "doctores en") ||
			strings.HasPrefix(lower, "horarios para") ||
			strings.HasPrefix(lower, "cita el") ||
			strings.HasPrefix(lower, "cita a las") {
			advancing = append(advancing, sg)
		}
	}

	if len(advancing) == 0 {
		return ""
	}
	return advancing[rng.Intn(len(advancing))]
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Bookings completed: %d\n", atomic.LoadInt64(&s.metrics.bookings))
	fmt.Println()

	printOperationReport("Chat turns", &s.metrics.Turns)
	printOperationReport("Conversations", &s.metrics.Conversations)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
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
