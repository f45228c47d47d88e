// Command upgradecheck-vet runs the Go upgrade check as a standalone
// analyzer or as a go vet tool:
//
//	go vet -vettool=$(which upgradecheck-vet) -change_file=changes.csv ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/emenda-labs/upgradecheck/drivers/golang"
)

func main() {
	singlechecker.Main(golang.Analyzer)
}
