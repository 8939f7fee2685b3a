package main

import (
	"fmt"
	"os"

	"github.com/sahilchouksey/educonnect-api/app"
)

func main() {
	// setup and run app
	if err := app.SetupAndRunServer(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
