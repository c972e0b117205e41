package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot assembles the root command with all subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	startFlags := &StartFlags{}
	stopFlags := &StopFlags{}
	statusFlags := &StatusFlags{}
	serveFlags := &ServeFlags{}
	parseFlags := &ParseFlags{}

	docserveCommand := command{global: globalFlags}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createStartCommand(docserveCommand, startFlags),
		createStopCommand(docserveCommand, stopFlags),
		createStatusCommand(docserveCommand, statusFlags),
		createServeCommand(docserveCommand, serveFlags),
		createParseCommand(docserveCommand, parseFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "docserve",
		Short: "Document parsing service and lifecycle controller",
		Long: `Docserve exposes a document-parsing backend (PDF/image to markdown)
through an HTTP API and controls it as a detached background process.

Examples:
  docserve start                    # Launch the service in the background
  docserve status --detailed        # Port check plus CPU/RSS of the process
  docserve parse report.pdf         # Upload to a running service
  docserve serve                    # Run the service in the foreground`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	return root
}

func createStartCommand(docserveCommand command, startFlags *StartFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the service in the background",
		Long: `Start the parsing service as a detached background process and wait
for it to bind its port. Any already-running instance is stopped first.

Examples:
  docserve start
  docserve start --command="mineru-api --port 8000" --port=8000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return docserveCommand.Start(*startFlags)
		},
	}
	cmd.Flags().StringVar(&startFlags.Command, "command", "", "service command line (default: this binary's serve)")
	cmd.Flags().IntVar(&startFlags.Port, "port", 0, "TCP port the service binds")
	cmd.Flags().StringVar(&startFlags.OutputDir, "output-dir", "", "parse output directory")
	cmd.Flags().DurationVar(&startFlags.StartWait, "start-wait", 0, "how long to wait for the port to be bound")
	return cmd
}

func createStopCommand(docserveCommand command, stopFlags *StopFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running service",
		Long: `Stop whatever process holds the service port, gracefully first and
forcefully after the wait window. A service that is not running is
reported and treated as success.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return docserveCommand.Stop(*stopFlags)
		},
	}
	cmd.Flags().IntVar(&stopFlags.Port, "port", 0, "TCP port the service binds")
	cmd.Flags().DurationVar(&stopFlags.StopWait, "stop-wait", 0, "graceful window before forced termination")
	return cmd
}

func createStatusCommand(docserveCommand command, statusFlags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the service is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return docserveCommand.Status(*statusFlags)
		},
	}
	cmd.Flags().IntVar(&statusFlags.Port, "port", 0, "TCP port the service binds")
	cmd.Flags().BoolVar(&statusFlags.Detailed, "detailed", false, "include CPU and memory usage")
	return cmd
}

func createServeCommand(docserveCommand command, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the parsing service in the foreground",
		Long: `Run the HTTP parsing service in the foreground until interrupted.
This is what 'docserve start' launches in the background when no external
service command is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return docserveCommand.Serve(*serveFlags)
		},
	}
	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "listen address (default from config, :9200)")
	cmd.Flags().IntVar(&serveFlags.Workers, "workers", 0, "parse worker pool size (default: number of CPUs)")
	return cmd
}

func createParseCommand(docserveCommand command, parseFlags *ParseFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Upload a document to a running service and print the markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return docserveCommand.Parse(args[0], *parseFlags)
		},
	}
	cmd.Flags().StringVar(&parseFlags.APIUrl, "api-url", "", "service URL (e.g. http://host:9200)")
	cmd.Flags().DurationVar(&parseFlags.APITimeout, "api-timeout", 5*time.Minute, "request timeout")
	cmd.Flags().BoolVar(&parseFlags.UseCache, "cached", false, "use the cached v2 endpoint")
	cmd.Flags().StringVar(&parseFlags.Format, "format", "", "output format: markdown (default) or html")
	cmd.Flags().StringVar(&parseFlags.Output, "output", "", "write result to file instead of stdout")
	return cmd
}
