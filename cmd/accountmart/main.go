// Command accountmart はSNSアカウント売買マーケットプレイスのサーバーを起動する。
//
//	accountmart [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/accountmart/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "accountmart: %v\n", err)
		os.Exit(1)
	}
}
