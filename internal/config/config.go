package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/logging"
	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/resilience"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool
	CacheEnabled            bool
	CacheTTL                time.Duration
	CORSAllowedOrigins      []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	PprofEnabled            bool
	PprofAddr               string

	AccountBaseURL        string
	AccountIntrospectPath string
	AccountAdminKey       string
	AccountTimeout        time.Duration
	AccountCircuit        resilience.CircuitBreakerConfig

	// Lifecycle controls the contest window engine: when the weekly boundary
	// falls, how far ahead windows are generated, and who may trigger a run.
	LifecycleAnchorWeekday time.Weekday
	LifecycleAnchorHour    int
	LifecycleTimezone      string
	LifecycleHorizon       int
	LifecycleWinnerCount   int
	LifecycleMaxWorkers    int
	LifecycleNotifyTimeout time.Duration
	LifecycleTriggerToken  string

	WinnerWebhookEnabled bool
	WinnerWebhookURL     string
	WinnerWebhookToken   string
	WinnerWebhookTimeout time.Duration
	WinnerWebhookCircuit resilience.CircuitBreakerConfig

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	anchorWeekday, err := parseWeekday(getEnv("LIFECYCLE_ANCHOR_WEEKDAY", "monday"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LIFECYCLE_ANCHOR_WEEKDAY: %w", err)
	}
	anchorHour, err := getEnvAsInt("LIFECYCLE_ANCHOR_HOUR", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse LIFECYCLE_ANCHOR_HOUR: %w", err)
	}
	if anchorHour < 0 || anchorHour > 23 {
		return Config{}, fmt.Errorf("LIFECYCLE_ANCHOR_HOUR must be in [0,23]")
	}
	lifecycleTimezone := strings.TrimSpace(getEnv("LIFECYCLE_TIMEZONE", "UTC"))
	if _, err := time.LoadLocation(lifecycleTimezone); err != nil {
		return Config{}, fmt.Errorf("parse LIFECYCLE_TIMEZONE: %w", err)
	}
	lifecycleHorizon, err := getEnvAsInt("LIFECYCLE_HORIZON", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse LIFECYCLE_HORIZON: %w", err)
	}
	if lifecycleHorizon < 1 {
		return Config{}, fmt.Errorf("LIFECYCLE_HORIZON must be >= 1")
	}
	lifecycleWinnerCount, err := getEnvAsInt("LIFECYCLE_WINNER_COUNT", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse LIFECYCLE_WINNER_COUNT: %w", err)
	}
	if lifecycleWinnerCount < 1 {
		return Config{}, fmt.Errorf("LIFECYCLE_WINNER_COUNT must be >= 1")
	}
	lifecycleMaxWorkers, err := getEnvAsInt("LIFECYCLE_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse LIFECYCLE_MAX_WORKERS: %w", err)
	}
	if lifecycleMaxWorkers < 1 {
		return Config{}, fmt.Errorf("LIFECYCLE_MAX_WORKERS must be >= 1")
	}
	lifecycleNotifyTimeout, err := time.ParseDuration(getEnv("LIFECYCLE_NOTIFY_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LIFECYCLE_NOTIFY_TIMEOUT: %w", err)
	}
	if lifecycleNotifyTimeout <= 0 {
		return Config{}, fmt.Errorf("LIFECYCLE_NOTIFY_TIMEOUT must be > 0")
	}
	lifecycleTriggerToken := strings.TrimSpace(getEnv("LIFECYCLE_TRIGGER_TOKEN", ""))
	if appEnv == EnvProd && lifecycleTriggerToken == "" {
		return Config{}, fmt.Errorf("LIFECYCLE_TRIGGER_TOKEN is required when APP_ENV=prod")
	}

	webhookEnabled, err := strconv.ParseBool(getEnv("WINNER_WEBHOOK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WINNER_WEBHOOK_ENABLED: %w", err)
	}
	webhookURL := strings.TrimSpace(getEnv("WINNER_WEBHOOK_URL", ""))
	if webhookEnabled && webhookURL == "" {
		return Config{}, fmt.Errorf("WINNER_WEBHOOK_URL is required when WINNER_WEBHOOK_ENABLED=true")
	}
	webhookTimeout, err := time.ParseDuration(getEnv("WINNER_WEBHOOK_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WINNER_WEBHOOK_TIMEOUT: %w", err)
	}
	if webhookTimeout <= 0 {
		return Config{}, fmt.Errorf("WINNER_WEBHOOK_TIMEOUT must be > 0")
	}
	webhookCircuit, err := loadCircuitConfig("WINNER_WEBHOOK")
	if err != nil {
		return Config{}, err
	}

	accountTimeout, err := time.ParseDuration(getEnv("ACCOUNT_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ACCOUNT_TIMEOUT: %w", err)
	}
	accountCircuit, err := loadCircuitConfig("ACCOUNT")
	if err != nil {
		return Config{}, err
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "directoryhunt-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                      getEnv("DB_URL", ""),
		DBDisablePreparedBinary:    dbDisablePreparedBinary,
		CacheEnabled:               cacheEnabled,
		CacheTTL:                   cacheTTL,
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		AccountBaseURL:             getEnv("ACCOUNT_BASE_URL", "http://localhost:8081"),
		AccountIntrospectPath:      getEnv("ACCOUNT_INTROSPECT_PATH", "/v1/auth/introspect"),
		AccountAdminKey:            strings.TrimSpace(getEnv("ACCOUNT_ADMIN_KEY", "")),
		AccountTimeout:             accountTimeout,
		AccountCircuit:             accountCircuit,
		LifecycleAnchorWeekday:     anchorWeekday,
		LifecycleAnchorHour:        anchorHour,
		LifecycleTimezone:          lifecycleTimezone,
		LifecycleHorizon:           lifecycleHorizon,
		LifecycleWinnerCount:       lifecycleWinnerCount,
		LifecycleMaxWorkers:        lifecycleMaxWorkers,
		LifecycleNotifyTimeout:     lifecycleNotifyTimeout,
		LifecycleTriggerToken:      lifecycleTriggerToken,
		WinnerWebhookEnabled:       webhookEnabled,
		WinnerWebhookURL:           webhookURL,
		WinnerWebhookToken:         strings.TrimSpace(getEnv("WINNER_WEBHOOK_TOKEN", "")),
		WinnerWebhookTimeout:       webhookTimeout,
		WinnerWebhookCircuit:       webhookCircuit,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		LogLevel:                   parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

// Schedule builds the window schedule from the lifecycle anchor settings.
func (c Config) Schedule() (weekday time.Weekday, hour int, loc *time.Location, err error) {
	loc, err = time.LoadLocation(c.LifecycleTimezone)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("load lifecycle timezone %q: %w", c.LifecycleTimezone, err)
	}
	return c.LifecycleAnchorWeekday, c.LifecycleAnchorHour, loc, nil
}

func loadCircuitConfig(prefix string) (resilience.CircuitBreakerConfig, error) {
	enabled, err := strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}
	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := time.ParseDuration(getEnv(prefix+"_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_OPEN_TIMEOUT: %w", prefix, err)
	}
	if openTimeout <= 0 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_OPEN_TIMEOUT must be > 0", prefix)
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func parseWeekday(v string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("invalid weekday %q", v)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
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

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
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
