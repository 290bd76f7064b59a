package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pitchsider/match-context/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	AdminToken         string
	LogLevel           logging.Level

	MaxParallelCalls int
	CollectorDelay   time.Duration
	CollectionBudget time.Duration

	FootballAPIKey                string
	FootballAPIBaseURL            string
	FootballAPITimeout            time.Duration
	FootballAPIMaxRetries         int
	FootballAPICacheTTL           time.Duration
	FootballCircuitEnabled        bool
	FootballCircuitFailureCount   int
	FootballCircuitOpenTimeout    time.Duration
	FootballCircuitHalfOpenMaxReq int

	LockTTL           time.Duration
	LockRetries       int
	LockRetryBackoff  time.Duration
	RefreshNotStarted bool

	UseDBMatchStore bool
	DBURL           string
	MatchStoreDir   string

	RedisEnabled   bool
	RedisURL       string
	EntityCacheTTL time.Duration

	UptraceEnabled bool
	UptraceDSN     string

	PprofEnabled bool
	PprofAddr    string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        strings.TrimSpace(getEnv("SERVICE_NAME", "match-context")),
		ServiceVersion:     strings.TrimSpace(getEnv("SERVICE_VERSION", "dev")),
		HTTPAddr:           strings.TrimSpace(getEnv("APP_HTTP_ADDR", ":8080")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		AdminToken:         strings.TrimSpace(getEnv("ADMIN_TOKEN", "")),
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "200s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout

	cfg.FootballAPIKey = strings.TrimSpace(getEnv("FOOTBALL_API_KEY", ""))
	if cfg.FootballAPIKey == "" {
		return Config{}, fmt.Errorf("FOOTBALL_API_KEY is required")
	}
	cfg.FootballAPIBaseURL = strings.TrimSpace(getEnv("FOOTBALL_API_BASE_URL", ""))

	footballTimeout, err := time.ParseDuration(getEnv("FOOTBALL_API_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_API_TIMEOUT: %w", err)
	}
	if footballTimeout <= 0 {
		return Config{}, fmt.Errorf("FOOTBALL_API_TIMEOUT must be > 0")
	}
	cfg.FootballAPITimeout = footballTimeout

	footballMaxRetries, err := getEnvAsInt("FOOTBALL_API_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_API_MAX_RETRIES: %w", err)
	}
	if footballMaxRetries < 0 {
		return Config{}, fmt.Errorf("FOOTBALL_API_MAX_RETRIES must be >= 0")
	}
	cfg.FootballAPIMaxRetries = footballMaxRetries

	footballCacheTTL, err := time.ParseDuration(getEnv("FOOTBALL_API_CACHE_TTL", "15m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_API_CACHE_TTL: %w", err)
	}
	if footballCacheTTL <= 0 {
		return Config{}, fmt.Errorf("FOOTBALL_API_CACHE_TTL must be > 0")
	}
	cfg.FootballAPICacheTTL = footballCacheTTL

	footballCircuitEnabled, err := strconv.ParseBool(getEnv("FOOTBALL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_CIRCUIT_ENABLED: %w", err)
	}
	cfg.FootballCircuitEnabled = footballCircuitEnabled

	footballCircuitFailureCount, err := getEnvAsInt("FOOTBALL_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if footballCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("FOOTBALL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cfg.FootballCircuitFailureCount = footballCircuitFailureCount

	footballCircuitOpenTimeout, err := time.ParseDuration(getEnv("FOOTBALL_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if footballCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("FOOTBALL_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	cfg.FootballCircuitOpenTimeout = footballCircuitOpenTimeout

	footballCircuitHalfOpenMaxReq, err := getEnvAsInt("FOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if footballCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("FOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	cfg.FootballCircuitHalfOpenMaxReq = footballCircuitHalfOpenMaxReq

	maxParallelCalls, err := getEnvAsInt("MAX_PARALLEL_TOOL_CALLS", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_PARALLEL_TOOL_CALLS: %w", err)
	}
	if maxParallelCalls < 1 {
		return Config{}, fmt.Errorf("MAX_PARALLEL_TOOL_CALLS must be >= 1")
	}
	cfg.MaxParallelCalls = maxParallelCalls

	collectorDelay, err := time.ParseDuration(getEnv("COLLECTOR_CALL_DELAY", "50ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse COLLECTOR_CALL_DELAY: %w", err)
	}
	if collectorDelay < 0 {
		return Config{}, fmt.Errorf("COLLECTOR_CALL_DELAY must be >= 0")
	}
	cfg.CollectorDelay = collectorDelay

	collectionBudget, err := time.ParseDuration(getEnv("COLLECTION_BUDGET", "180s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse COLLECTION_BUDGET: %w", err)
	}
	if collectionBudget <= 0 {
		return Config{}, fmt.Errorf("COLLECTION_BUDGET must be > 0")
	}
	cfg.CollectionBudget = collectionBudget

	lockTTL, err := time.ParseDuration(getEnv("LOCK_TTL", "200s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOCK_TTL: %w", err)
	}
	if lockTTL <= collectionBudget {
		return Config{}, fmt.Errorf("LOCK_TTL must be greater than COLLECTION_BUDGET")
	}
	cfg.LockTTL = lockTTL

	lockRetries, err := getEnvAsInt("LOCK_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse LOCK_RETRIES: %w", err)
	}
	if lockRetries < 1 {
		return Config{}, fmt.Errorf("LOCK_RETRIES must be >= 1")
	}
	cfg.LockRetries = lockRetries

	lockRetryBackoff, err := time.ParseDuration(getEnv("LOCK_RETRY_BACKOFF", "200ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOCK_RETRY_BACKOFF: %w", err)
	}
	if lockRetryBackoff < 0 {
		return Config{}, fmt.Errorf("LOCK_RETRY_BACKOFF must be >= 0")
	}
	cfg.LockRetryBackoff = lockRetryBackoff

	refreshNotStarted, err := strconv.ParseBool(getEnv("MATCH_STATUS_CHECK_FOR_NS", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_STATUS_CHECK_FOR_NS: %w", err)
	}
	cfg.RefreshNotStarted = refreshNotStarted

	useDBMatchStore, err := strconv.ParseBool(getEnv("USE_DB_MATCH_STORE", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse USE_DB_MATCH_STORE: %w", err)
	}
	cfg.UseDBMatchStore = useDBMatchStore
	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if cfg.UseDBMatchStore && cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when USE_DB_MATCH_STORE=true")
	}
	cfg.MatchStoreDir = strings.TrimSpace(getEnv("MATCH_STORE_DIR", "data/match_contexts"))
	if !cfg.UseDBMatchStore && cfg.MatchStoreDir == "" {
		return Config{}, fmt.Errorf("MATCH_STORE_DIR is required when USE_DB_MATCH_STORE=false")
	}

	redisEnabled, err := strconv.ParseBool(getEnv("ENABLE_REDIS_CACHE", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ENABLE_REDIS_CACHE: %w", err)
	}
	cfg.RedisEnabled = redisEnabled
	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))
	if cfg.RedisEnabled && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL is required when ENABLE_REDIS_CACHE=true")
	}

	entityCacheTTL, err := time.ParseDuration(getEnv("ENTITY_CACHE_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ENTITY_CACHE_TTL: %w", err)
	}
	if entityCacheTTL <= 0 {
		return Config{}, fmt.Errorf("ENTITY_CACHE_TTL must be > 0")
	}
	cfg.EntityCacheTTL = entityCacheTTL

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceEnabled = uptraceEnabled
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofEnabled = pprofEnabled
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeEnabled = pyroscopeEnabled
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))

	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}
	cfg.PyroscopeUploadRate = pyroscopeUploadRate

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
