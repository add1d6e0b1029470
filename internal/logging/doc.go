// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"signal": "debug",  // Per-module overrides
//			"gpio":   "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("mymodule")
//	logger.Info("Starting up", "port", 8080)
//	logger.Debug("Details", "config", cfg)
//	logger.Warn("Something unusual", "error", err)
//	logger.Error("Failed", "error", err)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("gpio").With("backend", "cdev")
//	logger.Info("Line requested", "pin", 17)  // Includes backend in all logs
//
// # Log Levels
//
//	debug - Verbose debugging information
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Output Destinations
//
// The system automatically detects available outputs:
//
//	Journal available + stdout available → MultiHandler (both)
//	Journal available only              → JournalHandler
//	Stdout available only               → TextHandler or JSONHandler
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t gridlight              # All gridlight logs
//	journalctl -t gridlight -f           # Follow live
//	journalctl -t gridlight --since "5m" # Last 5 minutes
//	journalctl -t gridlight -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t gridlight MODULE=indicator
//	journalctl -t gridlight PIN=17
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only. Calling Initialize again
// (for example after the config file changes) updates levels in place.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	signal = "debug"
//	indicator = "info"
//	api = "warn"
package logging
