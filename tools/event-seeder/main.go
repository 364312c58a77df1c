package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	serverURL  = flag.String("server-url", "http://localhost:3000", "Relay server URL")
	count      = flag.Int("count", 100, "Number of events to generate")
	interval   = flag.Duration("interval", 100*time.Millisecond, "Interval between events")
	users      = flag.Int("users", 5, "Number of distinct users to simulate")
	statusRate = flag.Float64("status-rate", 0.3, "Fraction of events that are test status reports")
	timeSpread = flag.Duration("time-spread", 24*time.Hour, "Spread events over this time period (0 for real-time)")
)

type fileEvent struct {
	FileName  string `json:"fileName"`
	Timestamp string `json:"timestamp"`
}

type testStatusReport struct {
	User           string         `json:"user"`
	Timestamp      string         `json:"timestamp"`
	TestStatus     map[string]any `json:"testStatus"`
	ProjectInfo    map[string]any `json:"projectInfo"`
	GitInfo        map[string]any `json:"gitInfo"`
	TestRunnerInfo map[string]any `json:"testRunnerInfo"`
	Environment    map[string]any `json:"environment"`
	Execution      map[string]any `json:"execution"`
}

func main() {
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	log.Printf("Starting event seeder:")
	log.Printf("  Server URL: %s", *serverURL)
	log.Printf("  Event count: %d", *count)
	log.Printf("  Interval: %v", *interval)
	log.Printf("  Users: %d", *users)
	log.Printf("  Status rate: %.2f", *statusRate)
	log.Printf("  Time spread: %v", *timeSpread)

	usernames := make([]string, *users)
	for i := range usernames {
		usernames[i] = gofakeit.Username()
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	successCount := 0
	failCount := 0

	for i := 0; i < *count; i++ {
		var err error
		if rand.Float64() < *statusRate {
			report := generateTestStatus(usernames[rand.Intn(len(usernames))])
			err = sendJSON(client, *serverURL+"/test-status", report)
		} else {
			event := generateFileEvent()
			err = sendJSON(client, *serverURL+"/update", event)
		}

		if err != nil {
			log.Printf("Failed to send event: %v", err)
			failCount++
		} else {
			successCount++
			if successCount%50 == 0 {
				log.Printf("Progress: %d/%d events sent", successCount, *count)
			}
		}

		if *interval > 0 && i < *count-1 {
			time.Sleep(*interval)
		}
	}

	log.Printf("\nSeeding complete:")
	log.Printf("  Success: %d events", successCount)
	log.Printf("  Failed: %d events", failCount)
}

func eventTime() time.Time {
	now := time.Now()
	if *timeSpread > 0 {
		offset := time.Duration(rand.Int63n(int64(*timeSpread)))
		return now.Add(-offset)
	}
	return now
}

func generateFileEvent() fileEvent {
	extensions := []string{".ts", ".tsx", ".go", ".py", ".js", ".css", ".json"}
	dirs := []string{"src", "src/components", "src/utils", "internal/server", "lib", "test"}

	name := fmt.Sprintf("%s/%s%s",
		dirs[rand.Intn(len(dirs))],
		gofakeit.Word(),
		extensions[rand.Intn(len(extensions))],
	)

	return fileEvent{
		FileName:  name,
		Timestamp: eventTime().Format(time.RFC3339),
	}
}

func generateTestStatus(user string) testStatusReport {
	total := rand.Intn(80) + 1
	failed := rand.Intn(total + 1)
	passed := total - failed

	runners := []string{"jest", "vitest", "mocha", "pytest"}
	branches := []string{"main", "develop", "feature/" + gofakeit.Word(), "fix/" + gofakeit.Word()}

	return testStatusReport{
		User:      user,
		Timestamp: eventTime().Format(time.RFC3339),
		TestStatus: map[string]any{
			"total":  total,
			"failed": failed,
			"passed": passed,
		},
		ProjectInfo: map[string]any{
			"name":    gofakeit.AppName(),
			"version": gofakeit.AppVersion(),
		},
		GitInfo: map[string]any{
			"branch": branches[rand.Intn(len(branches))],
			"commit": gofakeit.UUID()[:8],
		},
		TestRunnerInfo: map[string]any{
			"name":    runners[rand.Intn(len(runners))],
			"version": gofakeit.AppVersion(),
		},
		Environment: map[string]any{
			"os":          gofakeit.RandomString([]string{"darwin", "linux", "win32"}),
			"nodeVersion": fmt.Sprintf("v%d.%d.0", rand.Intn(6)+18, rand.Intn(12)),
		},
		Execution: map[string]any{
			"durationMs": rand.Intn(60000),
			"exitCode":   map[bool]int{true: 0, false: 1}[failed == 0],
		},
	}
}

func sendJSON(client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return nil
}
