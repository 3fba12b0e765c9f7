package cmd

import "github.com/urfave/cli/v2"

// Shared flags across the mode commands.
var (
	// ConfigFlag names the YAML config file with project defaults.
	ConfigFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to YAML config file (project-level defaults)",
	}

	// VerboseFlag enables debug-level logging.
	VerboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Enable debug logging",
	}

	// AppendFlag merges into an existing compilation database.
	AppendFlag = &cli.BoolFlag{
		Name:    "append",
		Aliases: []string{"a"},
		Usage:   "Merge with an existing compilation database at the output path",
	}

	// QuietFlag suppresses the pipeline summary.
	QuietFlag = &cli.BoolFlag{
		Name:  "quiet",
		Usage: "Suppress the output pipeline summary",
	}
)

// CommonFlags returns the flags every mode command accepts.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		VerboseFlag,
	}
}
