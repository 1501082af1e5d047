package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"iris-ml/internal/common"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Sink kinds
const (
	SinkNone = "none"
	SinkSQL  = "sql"
	SinkBolt = "bolt"
	SinkHTTP = "http"
)

// Input drivers. The SQL drivers name registered database/sql drivers;
// bolt reads a table from the embedded store under DataPath.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverBolt     = "bolt"
)

// IsSQLDriver reports whether driver names a database/sql driver.
func IsSQLDriver(driver string) bool {
	return driver == DriverSQLite || driver == DriverPostgres || driver == DriverPgx
}

type Settings struct {
	Database      DatabaseConfig
	ModelKind     ModelKind
	TargetField   string
	FeatureFields []string
	Balancing     BalancingConfig
	Selection     SelectionConfig
	Sink          SinkConfig
	DataPath      string
	OutputPath    string
	MetricsPort   int
	RunTimeout    time.Duration
}

type DatabaseConfig struct {
	Driver          string `yaml:"driver"`
	DSN             string `yaml:"dsn"`
	TableName       string `yaml:"tableName"`
	OutputTableName string `yaml:"outputTableName"`
	Where           string `yaml:"where"`
}

type SinkConfig struct {
	Kind    string
	URL     string
	Timeout time.Duration
}

type FieldConfig struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled"`
}

type ConfigFile struct {
	Database DatabaseConfig `yaml:"database"`

	Model struct {
		Kind        string        `yaml:"kind"`
		TargetField string        `yaml:"targetField"`
		Fields      []FieldConfig `yaml:"fields"`
	} `yaml:"model"`

	DataBalancing      BalancingFile `yaml:"dataBalancing"`
	FeatureEngineering SelectionFile `yaml:"featureEngineering"`

	Output struct {
		Sink    string `yaml:"sink"`
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
		Path    string `yaml:"path"`
	} `yaml:"output"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		MetricsPort *int   `yaml:"metricsPort"`
		RunTimeout  string `yaml:"runTimeout"`
	} `yaml:"system"`
}

// BalancingFile is the dataBalancing section. Numeric fields are pointers
// so an explicit zero reaches validation instead of becoming the default.
type BalancingFile struct {
	Method                  BalanceMethod        `yaml:"method"`
	UndersamplingRatio      *float64             `yaml:"undersamplingRatio"`
	MinorityToMajorityRatio *float64             `yaml:"minorityToMajorityRatio"`
	KNeighbors              *int                 `yaml:"kNeighbors"`
	ExecutionOrder          *int                 `yaml:"executionOrder"`
	Seed                    *int                 `yaml:"seed"`
	SyntheticLabel          SyntheticLabelPolicy `yaml:"syntheticLabel"`
}

// SelectionFile is the featureEngineering section.
type SelectionFile struct {
	Method                     SelectionMethod `yaml:"method"`
	MaxFeatures                *int            `yaml:"maxFeatures"`
	MulticollinearityThreshold *float64        `yaml:"multicollinearityThreshold"`
	NumberOfComponents         *int            `yaml:"numberOfComponents"`
	ExecutionOrder             *int            `yaml:"executionOrder"`
}

// Load reads an optional .env file, then the YAML file named by CONFIG_FILE,
// falling back to environment variables alone.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return LoadFile(configPath)
	}

	return loadFromEnv()
}

// LoadFile loads settings from a YAML file; environment variables override
// file values.
func LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	sinkTimeout, err := time.ParseDuration(config.Output.Timeout)
	if err != nil {
		sinkTimeout = common.DefaultSinkTimeoutSeconds * time.Second
	}

	runTimeout, err := time.ParseDuration(config.System.RunTimeout)
	if err != nil {
		runTimeout = 0
	}

	b := config.DataBalancing
	s := config.FeatureEngineering

	settings := Settings{
		Database: DatabaseConfig{
			Driver:          getEnvOrDefault(common.EnvDatabaseDriver, config.Database.Driver),
			DSN:             getEnvOrDefault(common.EnvDatabaseDSN, config.Database.DSN),
			TableName:       getEnvOrDefault(common.EnvTableName, config.Database.TableName),
			OutputTableName: getEnvOrDefault(common.EnvOutputTableName, config.Database.OutputTableName),
			Where:           getEnvOrDefault(common.EnvWhereClause, config.Database.Where),
		},
		ModelKind:     ModelKind(getEnvOrDefault(common.EnvModelKind, orDefault(config.Model.Kind, string(BinaryClassification)))),
		TargetField:   getEnvOrDefault(common.EnvTargetField, config.Model.TargetField),
		FeatureFields: getFieldsFromEnvOrConfig(config.Model.Fields),
		Balancing: BalancingConfig{
			Method:                  BalanceMethod(getEnvOrDefault(common.EnvBalancingMethod, orDefault(string(b.Method), string(BalanceNone)))),
			UndersamplingRatio:      getFloatFromEnvOrConfig(common.EnvUndersampling, b.UndersamplingRatio, common.DefaultUndersamplingRatio),
			MinorityToMajorityRatio: getFloatFromEnvOrConfig(common.EnvMinorityRatio, b.MinorityToMajorityRatio, common.DefaultMinorityToMajorityRatio),
			KNeighbors:              getIntFromEnvOrConfig(common.EnvKNeighbors, b.KNeighbors, common.DefaultKNeighbors),
			ExecutionOrder:          getIntFromEnvOrConfig(common.EnvBalancingOrder, b.ExecutionOrder, 0),
			Seed:                    int64(getIntFromEnvOrConfig(common.EnvBalancingSeed, b.Seed, common.DefaultSeed)),
			SyntheticLabel:          SyntheticLabelPolicy(getEnvOrDefault(common.EnvSyntheticLabel, orDefault(string(b.SyntheticLabel), string(SyntheticLabelPositive)))),
		},
		Selection: SelectionConfig{
			Method:                     SelectionMethod(getEnvOrDefault(common.EnvSelectionMethod, orDefault(string(s.Method), string(SelectionNone)))),
			MaxFeatures:                getIntFromEnvOrConfig(common.EnvMaxFeatures, s.MaxFeatures, common.DefaultMaxFeatures),
			MulticollinearityThreshold: getFloatFromEnvOrConfig(common.EnvMulticollinearity, s.MulticollinearityThreshold, common.DefaultMulticollinearityThreshold),
			NumberOfComponents:         getIntFromEnvOrConfig(common.EnvComponents, s.NumberOfComponents, common.DefaultNumberOfComponents),
			ExecutionOrder:             getIntFromEnvOrConfig(common.EnvSelectionOrder, s.ExecutionOrder, 0),
		},
		Sink: SinkConfig{
			Kind:    getEnvOrDefault(common.EnvSinkKind, orDefault(config.Output.Sink, SinkNone)),
			URL:     getEnvOrDefault(common.EnvSinkURL, config.Output.URL),
			Timeout: getDurationOrDefault(common.EnvSinkTimeout, sinkTimeout),
		},
		DataPath:    getEnvOrDefault(common.EnvDataPath, orDefault(config.System.DataPath, common.DefaultDataPath)),
		OutputPath:  getEnvOrDefault(common.EnvOutputPath, orDefault(config.Output.Path, common.DefaultOutputPath)),
		MetricsPort: getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort, 0),
		RunTimeout:  getDurationOrDefault(common.EnvRunTimeout, runTimeout),
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	target, err := getEnvRequired(common.EnvTargetField)
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		Database: DatabaseConfig{
			Driver:          os.Getenv(common.EnvDatabaseDriver),
			DSN:             os.Getenv(common.EnvDatabaseDSN),
			TableName:       os.Getenv(common.EnvTableName),
			OutputTableName: os.Getenv(common.EnvOutputTableName),
			Where:           os.Getenv(common.EnvWhereClause),
		},
		ModelKind:     ModelKind(getEnvOrDefault(common.EnvModelKind, string(BinaryClassification))),
		TargetField:   target,
		FeatureFields: splitOrDefault(os.Getenv(common.EnvFeatureFields), nil),
		Balancing: BalancingConfig{
			Method:                  BalanceMethod(getEnvOrDefault(common.EnvBalancingMethod, string(BalanceNone))),
			UndersamplingRatio:      getFloatOrDefault(common.EnvUndersampling, common.DefaultUndersamplingRatio),
			MinorityToMajorityRatio: getFloatOrDefault(common.EnvMinorityRatio, common.DefaultMinorityToMajorityRatio),
			KNeighbors:              getIntOrDefault(common.EnvKNeighbors, common.DefaultKNeighbors),
			ExecutionOrder:          getIntOrDefault(common.EnvBalancingOrder, 0),
			Seed:                    int64(getIntOrDefault(common.EnvBalancingSeed, common.DefaultSeed)),
			SyntheticLabel:          SyntheticLabelPolicy(getEnvOrDefault(common.EnvSyntheticLabel, string(SyntheticLabelPositive))),
		},
		Selection: SelectionConfig{
			Method:                     SelectionMethod(getEnvOrDefault(common.EnvSelectionMethod, string(SelectionNone))),
			MaxFeatures:                getIntOrDefault(common.EnvMaxFeatures, common.DefaultMaxFeatures),
			MulticollinearityThreshold: getFloatOrDefault(common.EnvMulticollinearity, common.DefaultMulticollinearityThreshold),
			NumberOfComponents:         getIntOrDefault(common.EnvComponents, common.DefaultNumberOfComponents),
			ExecutionOrder:             getIntOrDefault(common.EnvSelectionOrder, 0),
		},
		Sink: SinkConfig{
			Kind:    getEnvOrDefault(common.EnvSinkKind, SinkNone),
			URL:     os.Getenv(common.EnvSinkURL),
			Timeout: getDurationOrDefault(common.EnvSinkTimeout, common.DefaultSinkTimeoutSeconds*time.Second),
		},
		DataPath:    getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		OutputPath:  getEnvOrDefault(common.EnvOutputPath, common.DefaultOutputPath),
		MetricsPort: getIntOrDefault(common.EnvMetricsPort, 0),
		RunTimeout:  getDurationOrDefault(common.EnvRunTimeout, 0),
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// CandidateFeatures returns the enabled fields without the target field.
func (s *Settings) CandidateFeatures() []string {
	out := make([]string, 0, len(s.FeatureFields))
	for _, f := range s.FeatureFields {
		if f != s.TargetField {
			out = append(out, f)
		}
	}
	return out
}

// Validate reports every problem with the settings at once.
func (s *Settings) Validate() error {
	var v Violations

	if s.TargetField == "" {
		v.add("target field is required")
	}
	if len(s.CandidateFeatures()) == 0 {
		v.add("at least one feature field other than the target is required")
	}
	seen := make(map[string]bool, len(s.FeatureFields))
	for _, f := range s.FeatureFields {
		if seen[f] {
			v.add("duplicate feature field %q", f)
		}
		seen[f] = true
	}

	switch s.ModelKind {
	case BinaryClassification, MultiClassClassification, Regression:
	default:
		v.add("unknown model kind %q", s.ModelKind)
	}

	switch d := s.Database.Driver; {
	case d == "", d == DriverBolt:
	case IsSQLDriver(d):
		if s.Database.DSN == "" {
			v.add("database driver %q requires a dsn", d)
		}
	default:
		v.add("unknown database driver %q", d)
	}

	switch s.Sink.Kind {
	case SinkNone, SinkBolt:
	case SinkSQL:
		if !IsSQLDriver(s.Database.Driver) || s.Database.DSN == "" {
			v.add("sql sink requires a sql database driver and dsn")
		}
	case SinkHTTP:
		if s.Sink.URL == "" {
			v.add("http sink requires a url")
		}
	default:
		v.add("unknown sink kind %q", s.Sink.Kind)
	}
	if s.Sink.Kind != SinkNone && s.Database.OutputTableName == "" {
		v.add("sink %q requires an output table name", s.Sink.Kind)
	}

	if s.MetricsPort != 0 && (s.MetricsPort < common.MinMetricsPort || s.MetricsPort > common.MaxMetricsPort) {
		v.add("metrics port must be between %d and %d, got %d", common.MinMetricsPort, common.MaxMetricsPort, s.MetricsPort)
	}
	if s.RunTimeout < 0 {
		v.add("run timeout cannot be negative, got %v", s.RunTimeout)
	}

	v = append(v, s.Balancing.Validate()...)
	v = append(v, s.Selection.Validate()...)

	return v.Err("settings")
}

func getEnvRequired(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s is missing", key)
	}
	return v, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getFieldsFromEnvOrConfig(fields []FieldConfig) []string {
	if env := os.Getenv(common.EnvFeatureFields); env != "" {
		return splitOrDefault(env, nil)
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Enabled != nil && !*f.Enabled {
			continue
		}
		out = append(out, f.Name)
	}
	return out
}

// getIntFromEnvOrConfig prefers the environment, then a value present in
// the file (zero included), then defaultValue.
func getIntFromEnvOrConfig(key string, configValue *int, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != nil {
		return *configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue *float64, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != nil {
		return *configValue
	}
	return defaultValue
}
