// Package config loads and validates the application configuration from
// environment variables, optionally seeded from a .env file.
package config
