package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"
	"iris-ml/internal/sqldb"
	"iris-ml/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var columns = []string{"sepal_length", "sepal_width", "petal_length", "petal_width", "is_virginica"}

func main() {
	var (
		dataPath = flag.String("data", "data", "Data directory path (bolt store)")
		table    = flag.String("table", "iris", "Table name for bolt and SQL output")
		csvPath  = flag.String("csv", "", "Also write the rows to this CSV file")
		driver   = flag.String("driver", "", "Also write to a SQL database: sqlite, postgres or pgx")
		dsn      = flag.String("dsn", "", "Data source name for --driver")
		rows     = flag.Int("rows", 150, "Number of rows to generate")
		minority = flag.Float64("minority", 0.2, "Fraction of rows labeled 1")
		seed     = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *rows <= 0 || *minority <= 0 || *minority >= 1 {
		log.Fatal().Int("rows", *rows).Float64("minority", *minority).Msg("rows must be positive and minority in (0,1)")
	}

	fmt.Printf("Generating sample data...\n")
	fmt.Printf("  Rows: %d\n", *rows)
	fmt.Printf("  Minority fraction: %.2f\n", *minority)
	fmt.Printf("  Data Path: %s\n", *dataPath)

	data := generate(rand.New(rand.NewSource(*seed)), *rows, *minority)

	if err := os.MkdirAll(*dataPath, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create data directory")
	}
	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage")
	}
	defer store.Close()

	if err := store.PutTable(*table, columns, data); err != nil {
		log.Fatal().Err(err).Msg("Failed to store table")
	}
	log.Info().Str("table", *table).Str("path", store.Path()).Msg("Stored sample table")

	if *csvPath != "" {
		if err := writeCSV(*csvPath, data); err != nil {
			log.Fatal().Err(err).Msg("Failed to write CSV")
		}
		log.Info().Str("file", *csvPath).Msg("Wrote sample CSV")
	}

	if *driver != "" {
		if err := writeSQL(*driver, *dsn, *table, data); err != nil {
			log.Fatal().Err(err).Msg("Failed to write SQL table")
		}
		log.Info().Str("driver", *driver).Str("table", *table).Msg("Wrote sample SQL table")
	}

	fmt.Printf("Generated %d rows\n", len(data))
}

// generate draws two Gaussian clusters loosely shaped like iris species.
// Label 1 rows have longer petals; petal width follows petal length.
func generate(r *rand.Rand, n int, minority float64) []dataset.Row {
	positives := int(math.Round(float64(n) * minority))
	out := make([]dataset.Row, 0, n)

	for i := 0; i < n; i++ {
		label := int64(0)
		if i < positives {
			label = 1
		}

		sepalLength := 5.9 + 0.5*r.NormFloat64()
		sepalWidth := 2.8 + 0.3*r.NormFloat64()
		petalLength := 4.2 + 0.4*r.NormFloat64()
		if label == 1 {
			sepalLength += 0.7
			petalLength += 1.3
		}
		petalWidth := 0.35*petalLength - 0.2 + 0.1*r.NormFloat64()

		out = append(out, dataset.Row{
			"sepal_length": round(sepalLength),
			"sepal_width":  round(sepalWidth),
			"petal_length": round(petalLength),
			"petal_width":  round(math.Max(petalWidth, 0.1)),
			"is_virginica": label,
		})
	}

	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func round(v float64) float64 {
	return math.Round(v*10) / 10
}

func writeCSV(path string, data []dataset.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range data {
		for i, c := range columns {
			switch v := row[c].(type) {
			case int64:
				record[i] = strconv.FormatInt(v, 10)
			case float64:
				record[i] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeSQL(driver, dsn, table string, data []dataset.Row) error {
	db, err := sqldb.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	features := columns[:len(columns)-1]
	target := columns[len(columns)-1]
	return sqldb.NewWriter(db).Write(context.Background(), table, dataset.New(columns, data), features, target, cfg.BinaryClassification)
}
