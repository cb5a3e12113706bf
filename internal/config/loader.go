package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	embeddedRootConfigurationReference = "embedded default configuration"
	// EmbeddedRootConfigurationReference identifies the embedded fallback configuration source.
	EmbeddedRootConfigurationReference = embeddedRootConfigurationReference
	// ConfigurationPathEnvironmentVariable names a configuration file when no path is given explicitly.
	ConfigurationPathEnvironmentVariable        = "LLM_INTERPRETER_CONFIG"
	namedConfigurationReadErrorFormat           = "read %s configuration %s: %w"
	loaderInitializationWorkingDirectoryError   = "determine working directory: %w"
	loaderHomeEnvironmentVariableName           = "HOME"
	workingDirectoryConfigurationFileName       = "config.yaml"
	homeDirectoryConfigurationRelativeDirectory = ".llm-interpreter"
	homeDirectoryConfigurationFileName          = "config.yaml"
)

// SourceTier says where in the search order a configuration was found.
type SourceTier string

const (
	SourceTierExplicit         SourceTier = "flag"
	SourceTierEnvironment      SourceTier = "environment"
	SourceTierWorkingDirectory SourceTier = "working directory"
	SourceTierHomeDirectory    SourceTier = "home directory"
	SourceTierEmbedded         SourceTier = "embedded"
)

var (
	//go:embed default_root_configuration.yaml
	embeddedRootConfigurationBytes []byte
)

// RootConfigurationSource holds the raw configuration data and its origin.
type RootConfigurationSource struct {
	Reference string
	Tier      SourceTier
	Content   []byte
}

// SearchPaths are the locations the loader consults besides an explicit path.
// Empty entries are skipped.
type SearchPaths struct {
	EnvironmentPath  string
	WorkingDirectory string
	HomeDirectory    string
}

// RootConfigurationLoader resolves the configuration in the order:
// explicit path, LLM_INTERPRETER_CONFIG, ./config.yaml,
// ~/.llm-interpreter/config.yaml, embedded default.
type RootConfigurationLoader struct {
	paths      SearchPaths
	filesystem afero.Fs
}

// NewRootConfigurationLoader reads candidates from filesystem; nil selects the OS filesystem.
func NewRootConfigurationLoader(paths SearchPaths, filesystem afero.Fs) RootConfigurationLoader {
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	return RootConfigurationLoader{paths: paths, filesystem: filesystem}
}

// NewDefaultRootConfigurationLoader builds a loader from the process working directory, HOME and LLM_INTERPRETER_CONFIG.
func NewDefaultRootConfigurationLoader() (RootConfigurationLoader, error) {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return RootConfigurationLoader{}, fmt.Errorf(loaderInitializationWorkingDirectoryError, workingDirectoryError)
	}
	return NewRootConfigurationLoader(SearchPaths{
		EnvironmentPath:  os.Getenv(ConfigurationPathEnvironmentVariable),
		WorkingDirectory: workingDirectory,
		HomeDirectory:    os.Getenv(loaderHomeEnvironmentVariableName),
	}, nil), nil
}

type configurationCandidate struct {
	path string
	tier SourceTier
	// named candidates were chosen by the user, so unreadable files are errors.
	named bool
}

// Load returns the first readable candidate. Missing files fall through to the
// next tier; a named file that exists but cannot be read is an error.
func (loader RootConfigurationLoader) Load(explicitPath string) (RootConfigurationSource, error) {
	for _, candidate := range loader.candidates(explicitPath) {
		if candidate.path == "" {
			continue
		}
		content, readError := afero.ReadFile(loader.filesystem, candidate.path)
		if readError != nil {
			if candidate.named && !errors.Is(readError, fs.ErrNotExist) && !errors.Is(readError, fs.ErrPermission) {
				return RootConfigurationSource{}, fmt.Errorf(namedConfigurationReadErrorFormat, candidate.tier, candidate.path, readError)
			}
			continue
		}
		return RootConfigurationSource{Reference: candidate.path, Tier: candidate.tier, Content: content}, nil
	}
	return RootConfigurationSource{
		Reference: embeddedRootConfigurationReference,
		Tier:      SourceTierEmbedded,
		Content:   embeddedRootConfigurationBytes,
	}, nil
}

func (loader RootConfigurationLoader) candidates(explicitPath string) []configurationCandidate {
	candidates := []configurationCandidate{
		{path: strings.TrimSpace(explicitPath), tier: SourceTierExplicit, named: true},
		{path: strings.TrimSpace(loader.paths.EnvironmentPath), tier: SourceTierEnvironment, named: true},
	}
	if loader.paths.WorkingDirectory != "" {
		candidates = append(candidates, configurationCandidate{
			path: filepath.Join(loader.paths.WorkingDirectory, workingDirectoryConfigurationFileName),
			tier: SourceTierWorkingDirectory,
		})
	}
	if loader.paths.HomeDirectory != "" {
		candidates = append(candidates, configurationCandidate{
			path: filepath.Join(loader.paths.HomeDirectory, homeDirectoryConfigurationRelativeDirectory, homeDirectoryConfigurationFileName),
			tier: SourceTierHomeDirectory,
		})
	}
	return candidates
}
