// Package config provides configuration loading, merging, and validation
// facilities for the credvault command.
//
// Configuration is assembled from multiple sources in the following priority
// order (earlier sources win for every field they set):
//  1. Command-line flags
//  2. CREDVAULT_* environment variables
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry point is [GetStructuredConfig]; [StructuredConfig.VaultOptions]
// turns the result into vault options. The master passphrase is never part
// of the configuration.
package config
