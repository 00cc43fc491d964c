package constants

// Application identity
const (
	APP_NAME        = "smanager"
	APP_DESCRIPTION = "SManager host telemetry - live system metrics over HTTP and WebSocket"
)

// Default monitoring configuration
const (
	DEFAULT_INTERVAL_MILLIS  = 1000 // sampling period
	DEFAULT_BROADCAST_MILLIS = 1000 // push cadence, independent of sampling
	MAX_SAMPLE_TIMEOUT_MS    = 5000 // upper bound for one tick of adapter reads
)

// Default web configuration
const (
	DEFAULT_PORT     = 25566
	DEFAULT_BIND     = ""
	MIN_PORT         = 1
	MAX_PORT         = 65535
	SHUTDOWN_TIMEOUT = 5 // seconds
)

// HTTP routes
const (
	ROUTE_METRICS     = "/api/metrics"
	ROUTE_HEALTH      = "/api/health"
	ROUTE_SELFMETRICS = "/api/selfmetrics"
	ROUTE_FILES       = "/api/files/"
	ROUTE_PUSH        = "/ws"

	CONTENT_TYPE_JSON = "application/json;charset=utf-8"
	CONTENT_TYPE_TEXT = "text/plain;charset=utf-8"
)

// File facility limits
const (
	MAX_READ_BYTES = 10 * 1024 * 1024
)

// Logging
const (
	DEFAULT_LOG_LEVEL = "info"
	LOG_FILE          = "/tmp/smanager.log"
)

// File paths
const (
	CONFIG_DIR_NAME  = "/.smanager"
	CONFIG_FILE_NAME = "config"
	CONFIG_FILE_TYPE = "yaml"
	PID_FILE_NAME    = "smanager.pid"
	ENV_PREFIX       = "SMANAGER"
)
