package models

// LogLevel classifies a migration_logs row. Per-row failures log as error
// with the legacy source id attached; stage notes log as info.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
