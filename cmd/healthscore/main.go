// Command healthscore scores product files, checks ingredients against dietary
// restrictions and builds product catalogs from Open Food Facts exports.
package main

import (
	"os"

	"github.com/food-health-score-server/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
