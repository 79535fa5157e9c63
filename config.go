// Package bookstore provides the application core shared by every feature
// package: global configuration, the plugin registry, and the glue used by
// cmd/bookstored to wire storage, eventing, and the authorization engine
// together.
package bookstore

import (
	"net"
	"time"

	"github.com/dpup/bookstore/internal/config"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Filename of the standard configuration file.
const ConfigFile = "bookstore.yaml"

// ConfigKeyInfo contains metadata about a known configuration key.
// This is re-exported from internal/config for public API use.
type ConfigKeyInfo = config.ConfigKeyInfo

// Config is a global koanf instance used to access application level
// configuration options.
//
// Config is loaded in the following order (later sources override earlier):
// 1. Built-in defaults (registered lazily, applied by EnsureConfigDefaults)
// 2. Auto-discovered bookstore.yaml (in init())
// 3. Environment variables with BOOK__ prefix (in init())
// 4. Additional sources loaded via LoadConfigFile() or LoadConfigDefaults()
//
// Environment variable transformation:
//   - BOOK__SERVER__PORT → server.port
//   - BOOK__SERVER__INCOMING_HEADERS → server.incomingHeaders
//   - BOOK__FOO_BAR__BAZ → fooBar.baz
var Config = koanf.New(".")

const (
	defaultPort = "8000"
	defaultHost = "localhost"
)

func init() {
	registerCoreConfigKeys()

	// Look for a bookstore.yaml file in the current directory or any parent.
	if cfg := config.SearchForConfig(ConfigFile, "."); cfg != "" {
		if err := Config.Load(file.Provider(cfg), yaml.Parser()); err != nil {
			panic("error loading config: " + err.Error())
		}
	}

	// Load environment variables with the prefix BOOK__.
	if err := Config.Load(env.Provider("BOOK__", ".", config.TransformEnv), nil); err != nil {
		panic("error loading env config: " + err.Error())
	}
}

// RegisterConfigKey registers a known configuration key with metadata.
// This should be called by core code and feature packages to document
// expected config keys.
//
// Example:
//
//	bookstore.RegisterConfigKey(bookstore.ConfigKeyInfo{
//	    Key:         "auth.signingKey",
//	    Description: "JWT signing key for identity tokens",
//	    Type:        "string",
//	})
func RegisterConfigKey(info ConfigKeyInfo) {
	config.RegisterConfigKey(info)
}

// RegisterConfigKeys registers multiple configuration keys at once.
func RegisterConfigKeys(infos ...ConfigKeyInfo) {
	config.RegisterConfigKeys(infos...)
}

// RegisterDeprecatedKey registers a deprecated configuration key and its
// replacement.
func RegisterDeprecatedKey(oldKey, newKey string) {
	config.RegisterDeprecatedKey(oldKey, newKey)
}

// EnsureConfigDefaults applies registered default values for keys which have
// not been set by a file or the environment. Call once at startup, after all
// init() functions have run.
func EnsureConfigDefaults() {
	config.EnsureDefaultsLoaded(Config)
}

// ValidateConfig checks loaded configuration keys against the registry and
// returns a human readable warning message, or the empty string when all keys
// are known.
func ValidateConfig() string {
	return config.FormatValidationWarnings(config.ValidateConfigKeys(Config))
}

// LoadConfigFile loads additional configuration from a YAML file into the
// global Config instance. Call this before wiring the application to load
// deployment-specific configuration.
func LoadConfigFile(path string) {
	if err := Config.Load(file.Provider(path), yaml.Parser()); err != nil {
		panic("error loading config file '" + path + "': " + err.Error())
	}
}

// LoadConfigDefaults loads default configuration values into the global
// Config instance. Call this before wiring the application to provide
// defaults that can be overridden by files or env vars.
func LoadConfigDefaults(defaults map[string]interface{}) {
	if err := Config.Load(confmap.Provider(defaults, "."), nil); err != nil {
		panic("error loading config defaults: " + err.Error())
	}
}

// Configuration Access Functions
//
// These functions provide a clean API for accessing configuration values.
// They delegate to the underlying Config instance.

// ConfigString returns the string value for the given key.
func ConfigString(key string) string {
	return Config.String(key)
}

// ConfigInt returns the int value for the given key.
func ConfigInt(key string) int {
	return Config.Int(key)
}

// ConfigBool returns the bool value for the given key.
func ConfigBool(key string) bool {
	return Config.Bool(key)
}

// ConfigDuration returns the duration value for the given key. Duration
// strings like "5m", "1h", "30s" are parsed automatically.
func ConfigDuration(key string) time.Duration {
	return Config.Duration(key)
}

// ConfigStrings returns the string slice value for the given key.
func ConfigStrings(key string) []string {
	return Config.Strings(key)
}

// ConfigExists checks if the given key exists in the configuration.
func ConfigExists(key string) bool {
	return Config.Exists(key)
}

// ConfigAll returns all configuration as a map.
func ConfigAll() map[string]interface{} {
	return Config.All()
}

// registerCoreConfigKeys registers core configuration keys with their
// defaults. Feature packages register their own keys in init().
func registerCoreConfigKeys() {
	config.RegisterConfigKeys(
		ConfigKeyInfo{
			Key:         "name",
			Description: "User-facing name that identifies the service",
			Type:        "string",
			Default:     "Bookstore",
		},
		ConfigKeyInfo{
			Key:         "address",
			Description: "External address for the service (used in URL construction)",
			Type:        "string",
			Default:     "http://" + net.JoinHostPort(defaultHost, defaultPort),
		},

		// Server configuration
		ConfigKeyInfo{
			Key:         "server.host",
			Description: "Host to bind the server to",
			Type:        "string",
			Default:     defaultHost,
		},
		ConfigKeyInfo{
			Key:         "server.port",
			Description: "Port to bind the server to",
			Type:        "int",
			Default:     defaultPort,
		},

		// CORS configuration
		ConfigKeyInfo{
			Key:         "server.security.corsOrigins",
			Description: "Allowed CORS origins",
			Type:        "[]string",
		},
		ConfigKeyInfo{
			Key:         "server.security.corsAllowMethods",
			Description: "Allowed CORS methods",
			Type:        "[]string",
		},
		ConfigKeyInfo{
			Key:         "server.security.corsAllowHeaders",
			Description: "Allowed CORS headers",
			Type:        "[]string",
		},
		ConfigKeyInfo{
			Key:         "server.security.corsAllowCredentials",
			Description: "Allow credentials in CORS requests",
			Type:        "bool",
		},
		ConfigKeyInfo{
			Key:         "server.security.corsMaxAge",
			Description: "CORS preflight cache duration",
			Type:        "duration",
		},

		// Storage configuration
		ConfigKeyInfo{
			Key:         "storage.driver",
			Description: "Storage backend, one of: memory, sqlite, postgres",
			Type:        "string",
			Default:     "memory",
		},
		ConfigKeyInfo{
			Key:         "storage.dsn",
			Description: "Connection string for the configured storage backend",
			Type:        "string",
		},
	)
}
