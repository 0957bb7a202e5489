//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const baseURL = "http://localhost:8080"

type Stats struct {
	TotalRequests   int64
	SuccessRequests int64
	Rejected        int64
	FailedRequests  int64
	TotalLatency    int64
	MinLatency      int64
	MaxLatency      int64
}

func newStats() *Stats {
	return &Stats{MinLatency: int64(^uint64(0) >> 1)}
}

// record counts 2xx as success, 409 as an expected rejection and anything
// else as a failure.
func (s *Stats) record(status int, err error, latency int64) {
	atomic.AddInt64(&s.TotalRequests, 1)
	atomic.AddInt64(&s.TotalLatency, latency)
	switch {
	case err != nil:
		atomic.AddInt64(&s.FailedRequests, 1)
		return
	case status >= 200 && status < 300:
		atomic.AddInt64(&s.SuccessRequests, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&s.Rejected, 1)
	default:
		atomic.AddInt64(&s.FailedRequests, 1)
	}
	for {
		old := atomic.LoadInt64(&s.MinLatency)
		if latency >= old || atomic.CompareAndSwapInt64(&s.MinLatency, old, latency) {
			break
		}
	}
	for {
		old := atomic.LoadInt64(&s.MaxLatency)
		if latency <= old || atomic.CompareAndSwapInt64(&s.MaxLatency, old, latency) {
			break
		}
	}
}

func main() {
	fmt.Println("EcoRide Load Test")
	fmt.Println("=================")

	fmt.Println("\n1. Registering test users...")
	tokens := registerUsers(60)
	if len(tokens) < 10 {
		log.Fatal("Failed to create test data")
	}
	fmt.Printf("Registered %d users\n", len(tokens))

	fmt.Println("\n2. Seat contention (20 rides x 3 seats, every rider races for each)...")
	stats, oversold := testSeatContention(tokens[0], tokens[1:], 20, 3)
	printStats("Seat Contention", stats)
	if oversold > 0 {
		fmt.Printf("  OVERSOLD RIDES:   %d\n", oversold)
	}

	fmt.Println("\n3. Match queries (500 requests, 25 concurrent)...")
	stats = testMatching(tokens, 500, 25)
	printStats("Match Queries", stats)

	fmt.Println("\nLoad test completed!")
}

func registerUsers(n int) []string {
	tokens := make([]string, 0, n)
	run := time.Now().UnixNano()
	for i := 0; i < n; i++ {
		body, _ := json.Marshal(map[string]string{
			"name":     fmt.Sprintf("LoadTest User %d", i),
			"email":    fmt.Sprintf("load%d.%d@campus.edu", run, i),
			"password": "load-test-password",
		})
		resp, err := http.Post(baseURL+"/auth/register", "application/json", bytes.NewBuffer(body))
		if err != nil {
			continue
		}
		var result struct {
			Data struct {
				Token string `json:"token"`
			} `json:"data"`
		}
		if resp.StatusCode == http.StatusCreated {
			json.NewDecoder(resp.Body).Decode(&result)
		}
		resp.Body.Close()
		if result.Data.Token != "" {
			tokens = append(tokens, result.Data.Token)
		}
	}
	return tokens
}

func do(method, path, token string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewBuffer(b)
	}
	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return http.DefaultClient.Do(req)
}

func testSeatContention(driverToken string, riderTokens []string, rides, seats int) (*Stats, int) {
	stats := newStats()
	oversold := 0

	for i := 0; i < rides; i++ {
		resp, err := do(http.MethodPost, "/rides", driverToken, map[string]interface{}{
			"pickupZone":     "North Campus",
			"destination":    "Main Gate",
			"departureTime":  time.Now().Add(time.Duration(1+i) * time.Hour).UTC().Format(time.RFC3339),
			"availableSeats": seats,
		})
		if err != nil {
			continue
		}
		var created struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()
		if created.Data.ID == "" {
			continue
		}

		var joined int64
		var wg sync.WaitGroup
		for _, token := range riderTokens {
			wg.Add(1)
			go func(token string) {
				defer wg.Done()
				start := time.Now()
				resp, err := do(http.MethodPost, "/rides/"+created.Data.ID+"/join", token, nil)
				latency := time.Since(start).Milliseconds()
				status := 0
				if resp != nil {
					status = resp.StatusCode
					io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
				if err == nil && status == http.StatusOK {
					atomic.AddInt64(&joined, 1)
				}
				stats.record(status, err, latency)
			}(token)
		}
		wg.Wait()

		if joined > int64(seats) {
			oversold++
		}
	}
	return stats, oversold
}

func testMatching(tokens []string, numRequests, concurrency int) *Stats {
	stats := newStats()
	zones := []string{"North Campus", "north", "Main Gate", "Hostel"}
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(token, zone string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			at := time.Now().Add(time.Duration(rand.Intn(20)) * time.Hour).UTC().Format(time.RFC3339)
			req, _ := http.NewRequest(http.MethodGet, baseURL+"/rides/match", nil)
			q := req.URL.Query()
			q.Set("zone", zone)
			q.Set("time", at)
			req.URL.RawQuery = q.Encode()
			req.Header.Set("Authorization", "Bearer "+token)

			start := time.Now()
			resp, err := http.DefaultClient.Do(req)
			latency := time.Since(start).Milliseconds()
			status := 0
			if resp != nil {
				status = resp.StatusCode
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
			stats.record(status, err, latency)
		}(tokens[rand.Intn(len(tokens))], zones[rand.Intn(len(zones))])
	}

	wg.Wait()
	return stats
}

func printStats(name string, stats *Stats) {
	avgLatency := float64(0)
	if stats.TotalRequests > 0 {
		avgLatency = float64(stats.TotalLatency) / float64(stats.TotalRequests)
	}

	fmt.Printf("\n%s Results:\n", name)
	fmt.Printf("  Total Requests:   %d\n", stats.TotalRequests)
	fmt.Printf("  Successful:       %d\n", stats.SuccessRequests)
	fmt.Printf("  Rejected (409):   %d\n", stats.Rejected)
	fmt.Printf("  Failed:           %d\n", stats.FailedRequests)
	fmt.Printf("  Avg Latency:      %.2f ms\n", avgLatency)
	if stats.MinLatency != int64(^uint64(0)>>1) {
		fmt.Printf("  Min Latency:      %d ms\n", stats.MinLatency)
	}
	fmt.Printf("  Max Latency:      %d ms\n", stats.MaxLatency)
}
