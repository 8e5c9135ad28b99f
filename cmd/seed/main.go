// Command seed analyses a fixed set of sample product URLs and writes the
// results to data/seed.json as a history export the server can import.
//
// Usage:
//
//	go run ./cmd/seed
//
// The dataset is deterministic apart from the record dates: every sample is
// dated one hour before the previous one, counting back from now, so the
// file imports in newest-first order.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"trustlens/review-api/internal/catalog"
	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/history"
	"trustlens/review-api/internal/scoring"
)

// sampleURLs covers both marketplaces, every catalog entry, each URL shape
// the parser understands and all three recommendation levels.
var sampleURLs = []string{
	"https://www.amazon.com/dp/B08N5WRWNW",
	"https://www.amazon.in/dp/B07FZ8S74R",
	"https://www.amazon.in/gp/product/B09DZH4C71",
	"https://www.amazon.in/Maxoshine-Dashboard-Polish/dp/B0FKTDXKXV",
	"https://www.amazon.co.uk/dp/B0DZX4PYLV",
	"https://www.amazon.de/dp/B0DM5RD6M6",
	"https://www.amazon.com/B085NNH52P",
	"https://www.amazon.com/dp/B08HEADSET",
	"https://www.flipkart.com/phone/p/MOBFKD123456",
	"https://www.flipkart.com/product/p/itmabc123",
	"https://www.amazon.com/dp/B000000007",
	"https://www.amazon.com/dp/B000007244",
}

const outFile = "data/seed.json"

func main() {
	now := time.Now().UTC()
	analyzer := scoring.NewAnalyzer(catalog.Default(), scoring.WithClock(func() time.Time { return now }))

	items := analyzer.AnalyzeBatch(context.Background(), sampleURLs)

	records := make([]domain.HistoryRecord, 0, len(items))
	for i, item := range items {
		if item.Error != "" {
			fmt.Fprintf(os.Stderr, "skip %s: %s\n", item.URL, item.Error)
			continue
		}
		records = append(records, history.NewRecord(item.Result, now.Add(-time.Duration(i)*time.Hour)))
	}

	if err := os.MkdirAll("data", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir error: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(outFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
		os.Exit(1)
	}

	counts := make(map[domain.Level]int)
	for _, item := range items {
		if item.Result != nil {
			counts[item.Result.Recommendation.Level]++
		}
	}
	fmt.Printf("Analysed %d products (%d safe, %d warning, %d danger) → %s\n",
		len(records), counts[domain.LevelSafe], counts[domain.LevelWarning], counts[domain.LevelDanger], outFile)
}
