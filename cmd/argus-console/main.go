package main

import (
	"flag"
	"fmt"
	"os"

	"argus-console/core/appbootstrap"
)

func main() {
	cfgPath := flag.String("config", "argus.yml", "path to the configuration file")
	flag.Parse()

	if err := appbootstrap.Run(*cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "argus-console: %v\n", err)
		os.Exit(1)
	}
}
