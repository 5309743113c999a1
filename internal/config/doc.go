// Package config loads datafog settings from local and global YAML files and
// from the environment (optionally a .env file), and resolves them into an
// explicit Settings value that the CLI passes to constructors.
package config
