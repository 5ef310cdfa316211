// Package config provides user configuration management for couponwiz.
//
// Configuration is resolved in three layers, later layers winning:
//
//  1. Defaults (SQLite store and draft file next to the config file, 2s
//     autosave, "$" currency)
//  2. The YAML configuration file
//  3. COUPONWIZ_* environment variables
//
// Command line flags are applied on top by the CLI.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/couponwiz/config.yaml or $HOME/.config/couponwiz/config.yaml
//   - macOS: $HOME/.config/couponwiz/config.yaml
//   - Windows: %LOCALAPPDATA%\couponwiz\config.yaml
//
// Set COUPONWIZ_CONFIG_DIR to use another directory.
//
// # File Format
//
//	version: 1
//	storage:
//	    backend: sqlite
//	    database_path: /home/me/.config/couponwiz/coupons.db
//	    draft_path: /home/me/.config/couponwiz/draft.yaml
//	wizard:
//	    autosave_delay: 2s
//	    currency: $
//
// # Environment Variables
//
//	COUPONWIZ_STORE           storage.backend
//	COUPONWIZ_DB_PATH         storage.database_path
//	COUPONWIZ_DRAFT_PATH      storage.draft_path
//	COUPONWIZ_AUTOSAVE_DELAY  wizard.autosave_delay (Go duration)
//	COUPONWIZ_CURRENCY        wizard.currency
//	COUPONWIZ_LOG_LEVEL       logging.level
//	COUPONWIZ_LOG_FILE        logging.file
//
// # Usage Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, err := sqlite.Open(ctx, cfg.Storage.DatabasePath)
//
// # Thread Safety
//
// File operations are protected by a mutex to ensure atomic writes.
package config
