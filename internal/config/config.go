package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Port string `envconfig:"PORT" default:"8080" validate:"required,numeric"`

	// Training data and ensemble settings.
	DatasetPath           string `envconfig:"DATASET_PATH" default:"data/seattle-weather.csv" validate:"required"`
	ForestTrees           int    `envconfig:"FOREST_TREES" default:"100" validate:"min=1"`
	ForestSeed            int64  `envconfig:"FOREST_SEED" default:"42"`
	ForestMaxDepth        int    `envconfig:"FOREST_MAX_DEPTH" default:"0" validate:"min=0"`
	ForestMinSamplesSplit int    `envconfig:"FOREST_MIN_SAMPLES_SPLIT" default:"2" validate:"min=2"`

	// Serial sensor.
	SensorDevice      string        `envconfig:"SENSOR_DEVICE" default:"/dev/ttyUSB0"`
	SensorBaudRate    int           `envconfig:"SENSOR_BAUD_RATE" default:"9600" validate:"min=1"`
	SensorBackoff     time.Duration `envconfig:"SENSOR_BACKOFF" default:"5s" validate:"gt=0"`
	SensorReadTimeout time.Duration `envconfig:"SENSOR_READ_TIMEOUT" default:"200ms" validate:"gt=0"`
	SensorDefaultTemp float64       `envconfig:"SENSOR_DEFAULT_TEMP" default:"80"`
	SensorDisabled    bool          `envconfig:"SENSOR_DISABLED" default:"false"`

	// History sampling and in-memory retention.
	SampleInterval  time.Duration `envconfig:"SAMPLE_INTERVAL" default:"1m" validate:"gt=0"`
	StoreMaxHistory int           `envconfig:"STORE_MAX_HISTORY" default:"1440" validate:"min=0"` // roughly 24h at 1-minute samples
	StoreMaxAge     time.Duration `envconfig:"STORE_MAX_AGE" default:"24h" validate:"min=0"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.SensorDevice == "" && !cfg.SensorDisabled {
		return nil, fmt.Errorf("SENSOR_DEVICE must be set unless SENSOR_DISABLED is true")
	}

	return cfg, nil
}
