// Package cmd provides CLI commands for the chisel binary.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/chisel-build/chisel/cli/config"
	"github.com/chisel-build/chisel/log"
	"github.com/chisel-build/chisel/output"
	"github.com/chisel-build/chisel/semantic"
	"github.com/chisel-build/chisel/types"
)

// pipeline bundles the semantic stages shared by the semantic and
// combined modes: recognition, transformation, and the output writer
// with its statistics.
type pipeline struct {
	interpreter semantic.Interpreter
	transform   *semantic.Transform
	writer      *output.Writer
	stats       *output.Statistics
	logger      *log.Logger
}

// newPipeline builds the semantic pipeline from the configuration and
// the command flags. Contradictory output options fail here, before any
// event is consumed.
func newPipeline(cfg *config.Config, outputPath string, appendMode bool, logger *log.Logger) (*pipeline, error) {
	interpreter := semantic.CreateInterpreter(semantic.InterpreterConfig{
		CompilersToRecognize: cfg.CompilersToRecognize(),
		CompilersToExclude:   cfg.CompilersToExclude(),
		Lookup:               os.Getenv,
	})

	pathFormat, err := parsePathFormat(cfg.Output.Format.Paths)
	if err != nil {
		return nil, err
	}
	transform := semantic.NewTransform(semantic.TransformConfig{
		OnlyExistingSources: cfg.Output.Sources.OnlyExistingFiles,
		ExcludeCompilers:    cfg.CompilersToExclude(),
		IncludeRoots:        cfg.Output.Sources.IncludeRoots,
		ExcludeRoots:        cfg.Output.Sources.ExcludeRoots,
		Format:              pathFormat,
		FormatRoot:          cfg.Output.Format.RelativeRoot,
	}, logger)

	fields, err := output.ParseFields(cfg.Output.Duplicates.ByFields)
	if err != nil {
		return nil, err
	}
	commandAsArray := true
	if cfg.Output.Format.CommandAsArray != nil {
		commandAsArray = *cfg.Output.Format.CommandAsArray
	}
	stats := &output.Statistics{}
	writer, err := output.NewWriter(outputPath, output.Config{
		Append:          appendMode,
		CommandAsArray:  commandAsArray,
		DropOutputField: cfg.Output.Format.DropOutputField,
		DuplicateFields: fields,
	}, stats, logger)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		interpreter: interpreter,
		transform:   transform,
		writer:      writer,
		stats:       stats,
		logger:      logger,
	}, nil
}

// analyze recognizes and transforms one execution. The second return
// value is false when the execution produced no compiler call.
func (p *pipeline) analyze(execution *types.Execution) (semantic.CompilerCall, bool) {
	recognition := p.interpreter.Recognize(execution)
	switch recognition.Kind {
	case semantic.Success:
		p.logger.Debug("execution recognized as compiler call", map[string]any{
			"execution": execution.String(),
		})
	case semantic.Ignored:
		p.logger.Debug("execution recognized, but ignored", map[string]any{
			"execution": execution.String(),
			"reason":    recognition.Reason,
		})
		return semantic.CompilerCall{}, false
	case semantic.Error:
		p.logger.Info("execution recognized with failure", map[string]any{
			"execution": execution.String(),
			"reason":    recognition.Reason,
		})
		return semantic.CompilerCall{}, false
	default:
		p.logger.Debug("execution not recognized", map[string]any{
			"execution": execution.String(),
		})
		return semantic.CompilerCall{}, false
	}

	call, kept := p.transform.Apply(*recognition.Call)
	if !kept {
		p.stats.SourceFiltered.Add(1)
		return semantic.CompilerCall{}, false
	}
	return call, true
}

// parsePathFormat maps the config string onto the transform's format.
func parsePathFormat(paths string) (semantic.PathFormat, error) {
	switch paths {
	case "", "as_captured":
		return semantic.PathsAsCaptured, nil
	case "absolute":
		return semantic.PathsAbsolute, nil
	case "relative":
		return semantic.PathsRelative, nil
	default:
		return 0, fmt.Errorf("invalid output path format: %q", paths)
	}
}

// loadConfig reads the config file named by the flag, or the defaults
// when no file is given.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// resolveInterceptArtifacts fills the wrapper and preload library paths
// from the installation layout next to the running binary when the
// configuration leaves them empty.
func resolveInterceptArtifacts(cfg *config.Intercept) {
	executable, err := os.Executable()
	if err != nil {
		return
	}
	dir := filepath.Dir(executable)
	if cfg.Wrapper == "" {
		cfg.Wrapper = filepath.Join(dir, "chisel-wrapper")
	}
	if cfg.PreloadLibrary == "" {
		cfg.PreloadLibrary = filepath.Join(dir, "libchisel-preload.so")
	}
}
