// Package commands defines the energyshare CLI.
//
// Commands
//
//   - serve    Run the web API in front of the Power Loans backend
//   - config   Print the effective configuration
//   - version  Print the build version
//
// The root command loads the configuration once so every subcommand sees
// the same file, defaults and environment overrides.
package commands
