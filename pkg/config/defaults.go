package config

// Logging defaults.
const (
	DefaultLogLevel = "info"
)

// LSP log rotation defaults.
const (
	DefaultLSPLogMaxSizeMB  = 10
	DefaultLSPLogMaxBackups = 3
)

// Bench workload defaults.
const (
	DefaultBenchOps     = 100_000
	DefaultBenchDocSize = 1 << 20 // 1 MiB.
	DefaultBenchSeed    = 42
)
