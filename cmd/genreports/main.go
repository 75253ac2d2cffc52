// Command genreports writes synthetic daily report files for local runs and
// tests. The generated counts are cumulative but deliberately imperfect:
// subdivision rows that must be summed, downward corrections, and the
// occasional malformed row, so the reconciler has something to repair.
//
// Usage:
//
//	go run ./cmd/genreports -out testdata/daily_reports -days 45 -today 2020-04-01
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/outbreak-trends/internal/domain"
	"github.com/jonboulle/clockwork"
)

var header = []string{"Province/State", "Country/Region", "Last Update", "Confirmed", "Deaths", "Recovered"}

// regionDef describes one synthetic region. Subdivisions, when present, each
// receive a share of the region's counts on their own row.
type regionDef struct {
	name         string
	subdivisions []string
	base         int64
	growth       float64
}

var defaultRegions = []regionDef{
	{name: "US", subdivisions: []string{"New York", "Washington", "California"}, base: 1200, growth: 0.18},
	{name: "Italy", base: 3000, growth: 0.12},
	{name: "Korea, South", base: 5000, growth: 0.03},
	{name: "Spain", base: 800, growth: 0.20},
	{name: "Germany", base: 900, growth: 0.15},
}

type options struct {
	days     int
	seed     uint64
	glitches bool
	regions  []regionDef
}

// genStats holds counts for the closing summary.
type genStats struct {
	files       int
	rows        int
	corrections int
	malformed   int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for MM-DD-YYYY.csv files")
	days := flag.Int("days", 40, "number of daily reports ending today")
	today := flag.String("today", "", "fixed end date (YYYY-MM-DD); defaults to the current date")
	seed := flag.Uint64("seed", 1, "random seed")
	glitches := flag.Bool("glitches", true, "inject corrections and malformed rows")
	regions := flag.String("regions", "", "semicolon-separated region names (default: built-in set)")
	flag.Parse()

	if *outDir == "" || *days <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -days > 0")
	}

	if *today != "" {
		t, err := time.Parse(time.DateOnly, *today)
		if err != nil {
			return fmt.Errorf("parse -today: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(t))
		defer domain.SetClock(nil)
	}

	opts := options{days: *days, seed: *seed, glitches: *glitches, regions: defaultRegions}
	if *regions != "" {
		opts.regions = customRegions(*regions)
	}

	files, stats := generate(domain.Today(), opts)
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	for name, rows := range files {
		if err := writeCSV(filepath.Join(*outDir, name), rows); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	log.Printf("wrote %d reports to %s", stats.files, *outDir)
	printStats(stats)
	return nil
}

func customRegions(list string) []regionDef {
	var defs []regionDef
	for i, name := range strings.Split(list, ";") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		defs = append(defs, regionDef{name: name, base: int64(500 * (i + 1)), growth: 0.1})
	}
	return defs
}

// generate builds one report per day from today-days+1 through today, keyed
// by file name. The same seed always yields the same files.
func generate(today time.Time, opts options) (map[string][][]string, genStats) {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	first := today.AddDate(0, 0, -(opts.days - 1))

	confirmed := make([]int64, len(opts.regions))
	for i, r := range opts.regions {
		confirmed[i] = r.base
	}

	files := make(map[string][][]string, opts.days)
	var stats genStats
	for d := 0; d < opts.days; d++ {
		day := first.AddDate(0, 0, d)
		updated := day.Add(23*time.Hour + 59*time.Minute).Format("2006-01-02T15:04:05")
		rows := [][]string{header}

		for i, r := range opts.regions {
			growth := 1 + r.growth*(0.5+rng.Float64())
			confirmed[i] = int64(float64(confirmed[i]) * growth)

			reported := confirmed[i]
			if opts.glitches && d > 0 && rng.IntN(8) == 0 {
				// A later correction lowers the cumulative count for one day.
				reported -= reported / 20
				stats.corrections++
			}

			deaths := reported * 2 / 100
			recovered := reported * 3 / 10
			rows = append(rows, regionRows(r, updated, reported, deaths, recovered)...)
		}

		if opts.glitches && d%10 == 9 {
			rows = append(rows, []string{"", opts.regions[0].name, updated, "n/a", "0", "0"})
			stats.malformed++
		}

		files[day.Format("01-02-2006")+".csv"] = rows
		stats.files++
		stats.rows += len(rows) - 1
	}
	return files, stats
}

// regionRows splits the counts evenly across the region's subdivisions, with
// the remainder on the first row.
func regionRows(r regionDef, updated string, confirmed, deaths, recovered int64) [][]string {
	if len(r.subdivisions) == 0 {
		return [][]string{countRow("", r.name, updated, confirmed, deaths, recovered)}
	}
	n := int64(len(r.subdivisions))
	rows := make([][]string, 0, n)
	for i, sub := range r.subdivisions {
		c, dth, rec := confirmed/n, deaths/n, recovered/n
		if i == 0 {
			c += confirmed % n
			dth += deaths % n
			rec += recovered % n
		}
		rows = append(rows, countRow(sub, r.name, updated, c, dth, rec))
	}
	return rows
}

func countRow(sub, region, updated string, confirmed, deaths, recovered int64) []string {
	return []string{
		sub,
		region,
		updated,
		strconv.FormatInt(confirmed, 10),
		strconv.FormatInt(deaths, 10),
		strconv.FormatInt(recovered, 10),
	}
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printStats(s genStats) {
	fmt.Println("\n=== Generated reports ===")
	fmt.Printf("Files: %d\n", s.files)
	fmt.Printf("Rows: %d\n", s.rows)
	fmt.Printf("Downward corrections: %d\n", s.corrections)
	fmt.Printf("Malformed rows: %d\n", s.malformed)
}
