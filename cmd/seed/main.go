// Command seed posts sample hazard reports against a running server so a
// fresh deployment has data to look at.
//
// Usage:
//
//	go run ./cmd/seed -addr http://localhost:8080 -secret $JWT_SECRET -count 10
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/oceanwatch/hazard-report-service/internal/adapter/httpapi"
)

type coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type reportPayload struct {
	HazardType  string      `json:"hazardType"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Severity    string      `json:"severity"`
	Coordinates coordinates `json:"coordinates"`
}

// Sample sightings along the Chennai coastline. Coordinates are spread far
// enough apart that the duplicate guard does not reject the batch.
var samples = []reportPayload{
	{"high-tide", "Marina Beach", "Waves crossing the usual high-water line near the lighthouse", "high", coordinates{13.0499, 80.2824}},
	{"jellyfish", "Elliot's Beach", "Bluebottle swarm washed up along the southern stretch", "medium", coordinates{12.9986, 80.2718}},
	{"oil-spill", "Ennore Port", "Dark slick drifting south from the harbour mouth", "high", coordinates{13.2146, 80.3222}},
	{"storm", "Kovalam", "Sudden squall, fishing boats returning early", "medium", coordinates{12.7896, 80.2531}},
	{"pollution", "Adyar Estuary", "Foam and debris discharge at the river mouth", "medium", coordinates{13.0114, 80.2707}},
	{"unusual-activity", "Besant Nagar", "Large fish die-off along the waterline", "low", coordinates{13.0003, 80.2665}},
	{"high-tide", "Thiruvanmiyur", "Water reaching the promenade steps", "medium", coordinates{12.9830, 80.2594}},
	{"jellyfish", "Neelankarai", "Scattered jellyfish near the shore, swimmers warned", "low", coordinates{12.9499, 80.2565}},
	{"storm", "Pulicat", "Wind picking up fast over the lagoon", "high", coordinates{13.4160, 80.3168}},
	{"pollution", "Royapuram", "Plastic waste accumulating after last night's tide", "low", coordinates{13.1147, 80.2953}},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	addr := flag.String("addr", "http://localhost:8080", "base URL of the report service")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "JWT secret used to mint the seed token")
	count := flag.Int("count", len(samples), "number of reports to post")
	flag.Parse()

	if *secret == "" {
		flag.Usage()
		return fmt.Errorf("missing -secret (or JWT_SECRET)")
	}

	token, err := httpapi.SignToken(*secret, httpapi.Principal{
		UserID: "seed-bot",
		Name:   "Seed Bot",
		Role:   "citizen",
	}, time.Hour)
	if err != nil {
		return fmt.Errorf("minting token: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	posted := 0
	for i := 0; i < *count; i++ {
		p := samples[i%len(samples)]
		if i >= len(samples) {
			// Repeats get jittered away from the original spot so the
			// duplicate guard treats them as distinct sightings.
			p.Coordinates.Lat += (rand.Float64() - 0.5) * 0.1 //nolint:gosec // seed data, not crypto
			p.Coordinates.Lon += (rand.Float64() - 0.5) * 0.1 //nolint:gosec // seed data, not crypto
		}
		if err := post(client, *addr, token, p); err != nil {
			return fmt.Errorf("posting %s at %s: %w", p.HazardType, p.Location, err)
		}
		posted++
	}

	log.Printf("posted %d reports to %s", posted, *addr)
	return nil
}

func post(client *http.Client, addr, token string, p reportPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, addr+"/api/reports", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
