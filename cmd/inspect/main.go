package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"iris-ml/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataPath = flag.String("data", "./data", "Data directory path")
		days     = flag.Int("days", 30, "Show runs from the last N days")
		drop     = flag.String("drop", "", "Drop this table before inspecting")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	fmt.Printf("Inspecting data in: %s\n", *dataPath)

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	if *drop != "" {
		if err := store.DropTable(*drop); err != nil {
			log.Fatal().Err(err).Str("table", *drop).Msg("Failed to drop table")
		}
		fmt.Printf("Dropped table %s\n", *drop)
	}

	tables, err := store.Tables()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list tables")
	}

	fmt.Println("\nTables")
	fmt.Println(strings.Repeat("=", 60))
	if len(tables) == 0 {
		fmt.Println("No tables found")
	}
	for _, table := range tables {
		n, err := store.CountRows(table)
		if err != nil {
			fmt.Printf("Error counting %s: %v\n", table, err)
			continue
		}
		columns, _, err := store.ReadTable(table)
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", table, err)
			continue
		}
		fmt.Printf("%s: %d rows [%s]\n", table, n, strings.Join(columns, ", "))
	}

	end := time.Now()
	start := end.AddDate(0, 0, -*days)
	runs, err := store.GetRuns(start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}

	fmt.Printf("\nRuns between %s and %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Println(strings.Repeat("=", 60))
	if len(runs) == 0 {
		fmt.Println("No runs found")
	}
	for _, r := range runs {
		fmt.Printf("%s  %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"), r.RunID)
		fmt.Printf("   %s + %s, rows %d -> %d, features: %s\n",
			r.BalancingMethod, r.SelectionMethod, r.OriginalRowCount, r.BalancedRowCount,
			strings.Join(r.FeatureNames, ", "))
		if r.SinkError != "" {
			fmt.Printf("   sink error: %s\n", r.SinkError)
		}
	}
}
