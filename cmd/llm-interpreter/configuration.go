package llminterpreter

import (
	"fmt"

	"github.com/temirov/llm-interpreter/internal/config"
)

func loadRootConfiguration(configurationPath string) (config.Root, config.RootConfigurationSource, error) {
	configurationLoader, loaderErr := config.NewDefaultRootConfigurationLoader()
	if loaderErr != nil {
		return config.Root{}, config.RootConfigurationSource{}, fmt.Errorf(configurationLoaderErrorFormat, loaderErr)
	}
	configurationSource, sourceErr := configurationLoader.Load(configurationPath)
	if sourceErr != nil {
		return config.Root{}, config.RootConfigurationSource{}, fmt.Errorf(configurationSourceErrorFormat, sourceErr)
	}
	rootConfiguration, loadErr := config.LoadRoot(configurationSource)
	if loadErr != nil {
		return config.Root{}, configurationSource, fmt.Errorf(rootConfigurationErrorFormat, configurationSource.Reference, loadErr)
	}
	return rootConfiguration, configurationSource, nil
}
