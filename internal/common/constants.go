package common

// Dataset column names
const (
	FeaturesColumn    = "Features"
	ProcessedAtColumn = "processed_at"
)

// Environment variable keys
const (
	EnvConfigFile        = "CONFIG_FILE"
	EnvDatabaseDriver    = "DB_DRIVER"
	EnvDatabaseDSN       = "DB_DSN"
	EnvTableName         = "TABLE_NAME"
	EnvOutputTableName   = "OUTPUT_TABLE_NAME"
	EnvWhereClause       = "WHERE_CLAUSE"
	EnvModelKind         = "MODEL_KIND"
	EnvTargetField       = "TARGET_FIELD"
	EnvFeatureFields     = "FEATURE_FIELDS"
	EnvBalancingMethod   = "BALANCING_METHOD"
	EnvUndersampling     = "UNDERSAMPLING_RATIO"
	EnvMinorityRatio     = "MINORITY_TO_MAJORITY_RATIO"
	EnvKNeighbors        = "K_NEIGHBORS"
	EnvBalancingOrder    = "BALANCING_EXECUTION_ORDER"
	EnvBalancingSeed     = "BALANCING_SEED"
	EnvSyntheticLabel    = "SYNTHETIC_LABEL"
	EnvSelectionMethod   = "SELECTION_METHOD"
	EnvMaxFeatures       = "MAX_FEATURES"
	EnvMulticollinearity = "MULTICOLLINEARITY_THRESHOLD"
	EnvComponents        = "NUMBER_OF_COMPONENTS"
	EnvSelectionOrder    = "SELECTION_EXECUTION_ORDER"
	EnvSinkKind          = "SINK_KIND"
	EnvSinkURL           = "SINK_URL"
	EnvSinkTimeout       = "SINK_TIMEOUT"
	EnvDataPath          = "DATA_PATH"
	EnvOutputPath        = "OUTPUT_PATH"
	EnvMetricsPort       = "METRICS_PORT"
	EnvRunTimeout        = "RUN_TIMEOUT"
)

// Configuration defaults
const (
	DefaultSeed                       = 42
	DefaultUndersamplingRatio         = 1.0
	DefaultMinorityToMajorityRatio    = 1.0
	DefaultKNeighbors                 = 5
	DefaultMaxFeatures                = 10
	DefaultMulticollinearityThreshold = 0.9
	DefaultNumberOfComponents         = 3
	DefaultDataPath                   = "data"
	DefaultOutputPath                 = "output"
	DefaultBatchSize                  = 1000
	DefaultSinkTimeoutSeconds         = 30
)

// Validation constants
const (
	MaxDefaultComponents = 3
	MinMetricsPort       = 1024
	MaxMetricsPort       = 65535
)
