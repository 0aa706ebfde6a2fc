// Command boon drives the reactive engine from the command line: evaluate
// inline programs, run a program to quiescence against persisted state,
// check a program parses, and run test fixtures.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	logLevel     string
	backend      string
	passCap      int
	metricsAddr  string
	otlpEndpoint string
	logFile      string
)

func main() {
	root := &cobra.Command{
		Use:           "boon",
		Short:         "Reactive dataflow engine",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML), merged with BOON_* env vars")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override configured log level")
	root.PersistentFlags().StringVar(&backend, "backend", "", "execution backend: arena | differential")
	root.PersistentFlags().IntVar(&passCap, "pass-cap", 0, "override both stabilization pass caps")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address")
	root.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "export traces to this OTLP/gRPC collector endpoint")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "additionally rotate logs through lumberjack at this path")

	root.AddCommand(evalCmd())
	root.AddCommand(runCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(testCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "boon: %v\n", err)
		os.Exit(1)
	}
}
