package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var (
	targetURL   string
	token       string
	concurrency int
	duration    time.Duration
	workload    string
)

// Counters
var (
	totalRequests uint64
	completed     uint64
	rejected400   uint64
	rejected422   uint64
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.StringVar(&token, "token", "", "Bearer token for the protected routes")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
}

func main() {
	flag.Parse()
	if token == "" {
		log.Fatal("a -token is required (run cmd/seeder to mint one)")
	}
	log.Printf("Starting load test: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		sender, receiver := pickAccounts()

		payload := map[string]interface{}{
			"senderIban":   sender,
			"receiverIban": receiver,
			"amount":       "1.00",
			"currency":     "EUR",
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", targetURL+"/api/v1/payments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case 200:
			atomic.AddUint64(&completed, 1)
		case 400, 404:
			atomic.AddUint64(&rejected400, 1)
		case 422:
			atomic.AddUint64(&rejected422, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

// pickAccounts draws a sender/receiver pair from the seeded IBAN range. The
// hotspot workload drives most traffic through the two scenario accounts to
// stress per-account serialization.
func pickAccounts() (string, string) {
	totalAccounts := 100

	if workload == "hotspot" && rand.Float32() < 0.90 {
		if rand.Float32() < 0.5 {
			return "DE123456", "DE654321"
		}
		return "DE654321", "DE123456"
	}

	a := rand.Intn(totalAccounts) + 1
	b := rand.Intn(totalAccounts) + 1
	for a == b {
		b = rand.Intn(totalAccounts) + 1
	}
	return fmt.Sprintf("DE%08d", a), fmt.Sprintf("DE%08d", b)
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)

	results := map[string]interface{}{
		"workload":            workload,
		"duration_sec":        d.Seconds(),
		"total_requests":      total,
		"throughput_tps":      float64(total) / d.Seconds(),
		"completed":           atomic.LoadUint64(&completed),
		"rejected_validation": atomic.LoadUint64(&rejected400),
		"rejected_balance":    atomic.LoadUint64(&rejected422),
		"errors":              atomic.LoadUint64(&failOther),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)
}
