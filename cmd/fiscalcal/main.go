package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/warp/fiscal-calendar/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, cli.ErrReported) {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
