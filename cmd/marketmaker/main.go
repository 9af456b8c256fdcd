// Command marketmaker runs the limit-order-book market maker, either as a
// deterministic backtest over a recorded event log or as a live loop
// against a real exchange gateway.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
