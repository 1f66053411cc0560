// Package config provides configuration management for dsm.
//
// Configuration is read from a YAML file, decoded over the defaults and then
// overridden from the environment:
//
//	cfg, err := config.LoadConfig("dsm.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("dsm.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention DSM_SECTION_FIELD:
//
//   - DSM_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - DSM_MODELS_PATH overrides models.path
//   - DSM_ENGINE_DEFAULT_ROLES overrides engine.default_roles (comma separated)
//   - DSM_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Unknown keys in the file are rejected so that typos do not silently fall
// back to defaults.
package config
