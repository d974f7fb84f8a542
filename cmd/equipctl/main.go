// Command equipctl administers the equipment registry directly against its
// configured database: minting bearer tokens and running registry operations.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
