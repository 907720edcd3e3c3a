// Command sample-data writes a small survey CSV for local development so the
// engine can be exercised without the full published dataset.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
)

var header = []string{
	"Country",
	"State",
	"District",
	"Year",
	"Class",
	"Total Number Of Schools Surveyed",
	"Total Number Of Students Surveyed",
	"Average Performance Of Students In M601 Learning Outcome (UOM:%(Percentage)), Scaling Factor:1",
	"Average Performance Of Students In M606 Learning Outcome (UOM:%(Percentage)), Scaling Factor:1",
	"Average Performance Of Students In Sci604 Learning Outcome (UOM:%(Percentage)), Scaling Factor:1",
	"Average Performance Of Students In Sst605 Learning Outcome (UOM:%(Percentage)), Scaling Factor:1",
	"Average Performance Of Students In L607 Learning Outcome (UOM:%(Percentage)), Scaling Factor:1",
}

var districts = map[string][]string{
	"Kerala":         {"Ernakulam", "Kozhikode", "Thrissur"},
	"Punjab":         {"Amritsar", "Ludhiana", "Patiala"},
	"Maharashtra":    {"Pune", "Nagpur", "Nashik"},
	"West Bengal":    {"Kolkata", "Howrah", "Darjeeling"},
	"Madhya Pradesh": {"Bhopal", "Indore", "Gwalior"},
}

func main() {
	var out string
	var seed int64
	flag.StringVar(&out, "out", "data/nas_class8_data.csv", "Output CSV path")
	flag.Int64Var(&seed, "seed", 42, "Random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(seed))

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		log.Fatalf("create output directory: %v", err)
	}
	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("create %s: %v", out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		log.Fatalf("write header: %v", err)
	}

	rows := 0
	for _, year := range []string{"Calendar Year (Jan - Dec) 2017", "Calendar Year (Jan - Dec) 2021"} {
		for state, ds := range districts {
			for _, district := range ds {
				base := 40 + rng.Float64()*40
				row := []string{
					"India", state, district, year, "Class 8",
					fmt.Sprintf("%d", 50+rng.Intn(400)),
					fmt.Sprintf("%d", 1000+rng.Intn(9000)),
				}
				for i := 0; i < 5; i++ {
					row = append(row, fmt.Sprintf("%.2f", clampScore(base+rng.NormFloat64()*8)))
				}
				if err := w.Write(row); err != nil {
					log.Fatalf("write row: %v", err)
				}
				rows++
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	log.Printf("wrote %d rows to %s", rows, out)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
