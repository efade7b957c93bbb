package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const minHashRound = 5

// Config holds every process-wide setting, read once at startup from the
// environment. There is no file-based or flag-based configuration surface.
type Config struct {
	Port      string
	Prod      bool
	MongoURI  string
	DBName    string
	HashRound int
	Salt      string

	PoolCollection     string
	TransferCollection string
	BucketName         string

	DictionaryPath string
	TempDir        string
}

// Load reads and validates configuration from the environment. It fails
// fast: a missing or malformed required variable aborts startup rather than
// falling back to a guessed default.
func Load() (*Config, error) {
	cfg := &Config{
		DBName:             getEnvDefault("ILIX_DB_NAME", "ilix"),
		PoolCollection:     getEnvDefault("ILIX_POOL_COLLECTION", "devices_pools"),
		TransferCollection: getEnvDefault("ILIX_TRANSFER_COLLECTION", "files_transfers"),
		BucketName:         getEnvDefault("ILIX_BUCKET_NAME", "ilix_fs"),
		DictionaryPath:     getEnvDefault("ILIX_DICTIONARY_PATH", "./Assets/english_dictionary_words.txt"),
		TempDir:            getEnvDefault("ILIX_TEMP_DIR", "./tmp"),
	}

	port, err := requireEnv("PORT")
	if err != nil {
		return nil, err
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return nil, fmt.Errorf("CRITICAL: PORT must be a valid u16, got %q: %w", port, err)
	}
	cfg.Port = port

	mongoURI, err := requireEnv("MONGODB_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoURI = mongoURI

	hashRoundRaw, err := requireEnv("HASH_ROUND")
	if err != nil {
		return nil, err
	}
	hashRound, err := strconv.Atoi(hashRoundRaw)
	if err != nil {
		return nil, fmt.Errorf("CRITICAL: HASH_ROUND must be an integer, got %q: %w", hashRoundRaw, err)
	}
	if hashRound < minHashRound {
		return nil, fmt.Errorf("CRITICAL: HASH_ROUND must be >= %d, got %d", minHashRound, hashRound)
	}
	cfg.HashRound = hashRound

	salt, err := requireEnv("SALT")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(salt) == "" {
		return nil, fmt.Errorf("CRITICAL: SALT must be non-empty")
	}
	cfg.Salt = salt

	cfg.Prod = parseBool(os.Getenv("APP_MODE"))

	return cfg, nil
}

// BindAddr returns the address the HTTP server should listen on. Production
// mode binds every interface; anything else binds loopback only.
func (c *Config) BindAddr() string {
	host := "127.0.0.1"
	if c.Prod {
		host = "0.0.0.0"
	}
	return host + ":" + c.Port
}

func requireEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("CRITICAL: %s is required", key)
	}
	return v, nil
}

func getEnvDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// parseBool mirrors the original service's liberal APP_MODE parsing: any
// unparsable value is treated as production, which is the fail-safe
// direction (bind everything rather than silently falling back to
// loopback-only in what might be a container deployment).
func parseBool(v string) bool {
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}
