// cookplan runs dependency-ordered cook plans stage by stage.
//
// Usage:
//
//	cookplan cook <plan-file | catalog-id> [--resume id]
//	cookplan validate <plan-file>
//	cookplan generate <request> [-o plan.yaml]
//	cookplan plans | sessions | history
package main

import (
	"os"

	"github.com/hammamikhairi/cookplan/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
