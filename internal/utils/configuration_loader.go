package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const environmentKeySeparatorConstant = "_"

// LoadedConfiguration reports where the effective configuration came from.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationLoader layers configuration sources through viper: embedded
// defaults, caller defaults, an optional configuration file (explicit path or
// the first hit along the search paths), and environment variables, in
// ascending precedence.
type ConfigurationLoader struct {
	configurationName     string
	configurationType     string
	environmentPrefix     string
	searchPaths           []string
	embeddedConfiguration []byte
	embeddedType          string
}

// NewConfigurationLoader constructs a ConfigurationLoader for the named
// configuration file type, environment prefix, and ordered search paths.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       searchPaths,
	}
}

// SetEmbeddedConfiguration registers configuration content compiled into the
// binary. It overrides caller defaults but loses to files and environment.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(content []byte, contentType string) {
	loader.embeddedConfiguration = content
	loader.embeddedType = contentType
}

// LoadConfiguration resolves the layered configuration into target, which
// must be a pointer to a mapstructure-tagged struct. An explicit file path
// beats the search paths; a missing file along the search paths is not an
// error.
func (loader *ConfigurationLoader) LoadConfiguration(explicitFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedConfiguration) > 0 {
		viperInstance.SetConfigType(loader.embeddedType)
		if readError := viperInstance.ReadConfig(bytes.NewReader(loader.embeddedConfiguration)); readError != nil {
			return LoadedConfiguration{}, fmt.Errorf("utils.configuration_loader: read embedded configuration: %w", readError)
		}
		viperInstance.SetConfigType(loader.configurationType)
	}

	if len(explicitFilePath) > 0 {
		viperInstance.SetConfigFile(explicitFilePath)
		if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf("utils.configuration_loader: merge configuration file: %w", mergeError)
		}
	} else {
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
		if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
			var fileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(mergeError, &fileNotFoundError) {
				return LoadedConfiguration{}, fmt.Errorf("utils.configuration_loader: merge configuration file: %w", mergeError)
			}
		}
	}

	if len(loader.environmentPrefix) > 0 {
		viperInstance.SetEnvPrefix(loader.environmentPrefix)
		viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", environmentKeySeparatorConstant))
		viperInstance.AutomaticEnv()
	}

	if unmarshalError := viperInstance.Unmarshal(target); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf("utils.configuration_loader: unmarshal configuration: %w", unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
