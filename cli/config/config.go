package config

// Config represents a chisel.yaml configuration file. All values are
// optional and act as defaults; CLI flags always override config values.
type Config struct {
	Intercept Intercept `yaml:"intercept"`
	Output    Output    `yaml:"output"`
}

// InterceptMode selects the interception mechanism.
type InterceptMode string

// Interception mechanisms.
const (
	// InterceptPreload injects a shared object ahead of libc in every
	// process of the build via the dynamic linker.
	InterceptPreload InterceptMode = "preload"
	// InterceptWrapper shadows compiler names on PATH with links to the
	// wrapper executable.
	InterceptWrapper InterceptMode = "wrapper"
)

// Intercept holds the interception defaults.
type Intercept struct {
	Mode InterceptMode `yaml:"mode"`
	// PreloadLibrary is the path of the preload hook shared object.
	PreloadLibrary string `yaml:"preload_library"`
	// Wrapper is the path of the wrapper executable.
	Wrapper string `yaml:"wrapper"`
	// Executables lists the tool names to shadow in wrapper mode.
	Executables []string `yaml:"executables"`
}

// Output holds the output pipeline defaults.
type Output struct {
	Compilers  []Compiler   `yaml:"compilers"`
	Sources    SourceFilter `yaml:"sources"`
	Duplicates Duplicates   `yaml:"duplicates"`
	Format     Format       `yaml:"format"`
}

// Compiler is a per-compiler policy entry.
type Compiler struct {
	Path string `yaml:"path"`
	// Ignore is "always" to exclude the compiler's calls from the
	// output, or "never" (the default) to recognize it.
	Ignore string `yaml:"ignore"`
}

// SourceFilter scopes which sources produce entries.
type SourceFilter struct {
	// OnlyExistingFiles drops calls whose source does not exist.
	OnlyExistingFiles bool `yaml:"only_existing_files"`
	// IncludeRoots keeps only sources under these directories.
	IncludeRoots []string `yaml:"include_roots"`
	// ExcludeRoots drops sources under these directories.
	ExcludeRoots []string `yaml:"exclude_roots"`
}

// Duplicates configures the duplicate filter key.
type Duplicates struct {
	ByFields []string `yaml:"by_fields"`
}

// Format configures entry serialization.
type Format struct {
	// CommandAsArray selects the arguments array form over the shell
	// quoted command string form.
	CommandAsArray *bool `yaml:"command_as_array"`
	// DropOutputField omits the output field from entries.
	DropOutputField bool `yaml:"drop_output_field"`
	// Paths is "as_captured" (default), "absolute" or "relative".
	Paths string `yaml:"paths"`
	// RelativeRoot is the base directory for relative paths; empty
	// means the entry's own directory.
	RelativeRoot string `yaml:"relative_root"`
}

// Default returns the built-in configuration: wrapper interception of
// the common compiler names, array-form entries deduplicated by file
// and directory.
func Default() *Config {
	return &Config{
		Intercept: Intercept{
			Mode:        InterceptWrapper,
			Executables: []string{"cc", "c++", "gcc", "g++"},
		},
		Output: Output{
			Duplicates: Duplicates{
				ByFields: []string{"file", "directory"},
			},
		},
	}
}

// Normalize fills empty fields from the defaults.
func (c *Config) Normalize() {
	defaults := Default()
	if c.Intercept.Mode == "" {
		c.Intercept.Mode = defaults.Intercept.Mode
	}
	if len(c.Intercept.Executables) == 0 {
		c.Intercept.Executables = defaults.Intercept.Executables
	}
	if len(c.Output.Duplicates.ByFields) == 0 {
		c.Output.Duplicates.ByFields = defaults.Output.Duplicates.ByFields
	}
}

// CompilersToExclude returns the compiler paths marked to always ignore.
func (c *Config) CompilersToExclude() []string {
	var result []string
	for _, compiler := range c.Output.Compilers {
		if compiler.Ignore == "always" {
			result = append(result, compiler.Path)
		}
	}
	return result
}

// CompilersToRecognize returns the compiler paths not marked to ignore.
func (c *Config) CompilersToRecognize() []string {
	var result []string
	for _, compiler := range c.Output.Compilers {
		if compiler.Ignore != "always" {
			result = append(result, compiler.Path)
		}
	}
	return result
}
