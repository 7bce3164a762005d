package main

import (
	"os"

	"energyshare/cmd/energyshare/commands"
)

// @title        EnergyShare API
// @version      1.0
// @description  Web API for the Power Loans energy lending platform.
// @BasePath     /api
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
