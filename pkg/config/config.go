// Package config loads process configuration from environment variables,
// following the teacher's getEnv/getInt/getDuration accessor pattern rather
// than a flags/viper setup, since this service has no config file.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full set of knobs read once at process start.
type Config struct {
	UseDiskBuffer bool
	CopyInMemory  bool
	DiskLocation  string
	NumGroups     int
	Seed          uint64
	FailureFactor uint32
	HTTPAddress   string
}

// Load reads Config from the environment, applying the documented defaults
// for any variable that is unset or unparsable.
func Load() (*Config, error) {
	cfg := &Config{
		UseDiskBuffer: getBool("STREAMCC_USE_DISK_BUFFER", false),
		CopyInMemory:  getBool("STREAMCC_COPY_IN_MEMORY", true),
		DiskLocation:  getEnv("STREAMCC_DISK_LOCATION", "./data"),
		NumGroups:     getInt("STREAMCC_NUM_GROUPS", 4),
		Seed:          getUint64("STREAMCC_SEED", 0),
		FailureFactor: uint32(getInt("STREAMCC_FAILURE_FACTOR", 1)),
		HTTPAddress:   getEnv("STREAMCC_HTTP_ADDR", ":8085"),
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseUint(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
