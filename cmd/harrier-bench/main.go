// Benchmark tool for exercising Harrier's insight endpoints.
//
// Usage:
//   go run cmd/harrier-bench/main.go -csv /path/to/transactions.csv -url http://localhost:8080
//
// This tool:
//   1. Uploads a transaction CSV for analysis (or loads the sample case)
//   2. Hammers the read-side insight endpoints with concurrent workers
//   3. Reports per-endpoint latency statistics
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// insightEndpoints are the read paths exercised after a case is loaded.
var insightEndpoints = []string{
	"/cases/current",
	"/accounts",
	"/rings",
	"/insights",
	"/insights/patterns",
	"/insights/recommendations",
	"/insights/summary",
	"/report/compliance",
}

type sample struct {
	endpoint string
	latency  time.Duration
	status   int
}

func main() {
	csvPath := flag.String("csv", "", "Path to transaction CSV (empty = load sample case)")
	baseURL := flag.String("url", "http://localhost:8080", "Harrier base URL")
	sessionID := flag.String("session", "bench", "Session ID for requests")
	iterations := flag.Int("iterations", 200, "Requests per endpoint")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║           HARRIER BENCHMARK - Insight Endpoints               ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nHarrier URL: %s\n", *baseURL)
	fmt.Printf("Session ID:  %s\n", *sessionID)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Iterations:  %d per endpoint\n", *iterations)
	fmt.Println()

	client := &http.Client{Timeout: 30 * time.Second}

	if err := checkHealth(client, *baseURL); err != nil {
		fmt.Printf("ERROR: Harrier not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Harrier is running:")
		fmt.Println("  go run cmd/harrier/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Harrier is healthy")

	// Load a case so the insight endpoints have something to serve.
	if *csvPath != "" {
		fmt.Printf("\nUploading %s...\n", *csvPath)
		caseID, elapsed, err := uploadCase(client, *baseURL, *sessionID, *csvPath)
		if err != nil {
			fmt.Printf("ERROR: analysis failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Case %s loaded in %v\n", caseID, elapsed.Round(time.Millisecond))
	} else {
		fmt.Println("\nLoading sample case...")
		if err := loadSample(client, *baseURL, *sessionID); err != nil {
			fmt.Printf("ERROR: sample load failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Sample case loaded")
	}

	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	start := time.Now()
	samples := run(client, *baseURL, *sessionID, *iterations, *workers)
	duration := time.Since(start)

	printResults(samples, duration)
}

func checkHealth(client *http.Client, baseURL string) error {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func uploadCase(client *http.Client, baseURL, sessionID, csvPath string) (string, time.Duration, error) {
	data, err := os.ReadFile(csvPath)
	if err != nil {
		return "", 0, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(csvPath))
	if err != nil {
		return "", 0, err
	}
	if _, err := fw.Write(data); err != nil {
		return "", 0, err
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, baseURL+"/cases/analyze", &body)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Session-ID", sessionID)

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return "", elapsed, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", elapsed, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}

	var result struct {
		Case struct {
			ID string `json:"id"`
		} `json:"case"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", elapsed, err
	}
	return result.Case.ID, elapsed, nil
}

func loadSample(client *http.Client, baseURL, sessionID string) error {
	req, err := http.NewRequest(http.MethodPost, baseURL+"/cases/sample", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func run(client *http.Client, baseURL, sessionID string, iterations, numWorkers int) []sample {
	work := make(chan string, 100)
	results := make(chan sample, 100)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for endpoint := range work {
				req, err := http.NewRequest(http.MethodGet, baseURL+endpoint, nil)
				if err != nil {
					continue
				}
				req.Header.Set("X-Session-ID", sessionID)

				start := time.Now()
				resp, err := client.Do(req)
				latency := time.Since(start)
				if err != nil {
					results <- sample{endpoint: endpoint, latency: latency, status: 0}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				results <- sample{endpoint: endpoint, latency: latency, status: resp.StatusCode}
			}
		}()
	}

	var collected []sample
	done := make(chan struct{})
	go func() {
		for s := range results {
			collected = append(collected, s)
		}
		close(done)
	}()

	for i := 0; i < iterations; i++ {
		for _, endpoint := range insightEndpoints {
			work <- endpoint
		}
	}
	close(work)
	wg.Wait()
	close(results)
	<-done

	return collected
}

func printResults(samples []sample, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	byEndpoint := make(map[string][]time.Duration)
	errors := make(map[string]int)
	for _, s := range samples {
		if s.status != http.StatusOK {
			errors[s.endpoint]++
			continue
		}
		byEndpoint[s.endpoint] = append(byEndpoint[s.endpoint], s.latency)
	}

	fmt.Printf("\n📊 PER-ENDPOINT LATENCY\n")
	fmt.Printf("   %-28s %8s %8s %8s %8s %6s\n", "Endpoint", "p50", "p95", "p99", "max", "errs")
	for _, endpoint := range insightEndpoints {
		latencies := byEndpoint[endpoint]
		if len(latencies) == 0 {
			fmt.Printf("   %-28s %8s %8s %8s %8s %6d\n", endpoint, "-", "-", "-", "-", errors[endpoint])
			continue
		}
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		fmt.Printf("   %-28s %8s %8s %8s %8s %6d\n",
			endpoint,
			percentile(latencies, 0.50).Round(time.Microsecond),
			percentile(latencies, 0.95).Round(time.Microsecond),
			percentile(latencies, 0.99).Round(time.Microsecond),
			latencies[len(latencies)-1].Round(time.Microsecond),
			errors[endpoint],
		)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Requests:   %d\n", len(samples))
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if duration > 0 {
		fmt.Printf("   Throughput:       %.2f req/sec\n", float64(len(samples))/duration.Seconds())
	}
	fmt.Println()
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
