// Package configmanager loads the kubestrap project configuration from a
// kubestrap.yaml file, environment variables, and defaults.
package configmanager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"
)

const (
	configName = "kubestrap"
	envPrefix  = "KUBESTRAP"
)

// ErrConfigExists is returned when scaffolding would overwrite an existing
// config file.
var ErrConfigExists = errors.New("config file already exists")

// Config is the project configuration driving bootstrap, apply and synth.
type Config struct {
	// ClusterName names the local management cluster.
	ClusterName string `json:"clusterName"      mapstructure:"clusterName"`
	// Project is the cloud project identifier.
	Project string `json:"project"          mapstructure:"project"`
	// Credentials is an explicit cloud credentials file path.
	Credentials string `json:"credentials"      mapstructure:"credentials"`
	// ManagementSource is the kustomize directory for the management plane.
	ManagementSource string `json:"managementSource" mapstructure:"managementSource"`
	// WorkloadSource is the kustomize directory for the workload plane.
	WorkloadSource string `json:"workloadSource"   mapstructure:"workloadSource"`
	// OutputDir receives rendered manifests.
	OutputDir string `json:"outputDir"        mapstructure:"outputDir"`
	// AppName names the GitOps application.
	AppName string `json:"appName"          mapstructure:"appName"`
}

// DefaultConfig returns the configuration used when no kubestrap.yaml exists.
func DefaultConfig() *Config {
	return &Config{
		ClusterName:      "kubestrap",
		ManagementSource: "platform",
		WorkloadSource:   "workloads",
		OutputDir:        "dist",
		AppName:          "platform",
	}
}

// Scaffold writes a kubestrap.yaml with default values into dir. Returns
// ErrConfigExists if the file is already present. The written path is
// returned on success.
func Scaffold(dir string) (string, error) {
	path := filepath.Join(dir, configName+".yaml")

	_, err := os.Stat(path)
	if err == nil {
		return "", fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}

	return path, nil
}

// ConfigManager loads Config through Viper. Configuration priority:
// defaults < config file < environment variables.
type ConfigManager struct {
	Viper  *viper.Viper
	Config *Config
	loaded bool
}

// NewConfigManager creates a manager searching the given paths for a
// kubestrap.yaml file. With no paths, the current directory is searched.
func NewConfigManager(searchPaths ...string) *ConfigManager {
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}

	viperInstance := viper.New()
	viperInstance.SetConfigName(configName)
	viperInstance.SetConfigType("yaml")

	for _, path := range searchPaths {
		viperInstance.AddConfigPath(path)
	}

	viperInstance.SetEnvPrefix(envPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viperInstance.AutomaticEnv()

	defaults := DefaultConfig()
	viperInstance.SetDefault("clusterName", defaults.ClusterName)
	viperInstance.SetDefault("managementSource", defaults.ManagementSource)
	viperInstance.SetDefault("workloadSource", defaults.WorkloadSource)
	viperInstance.SetDefault("outputDir", defaults.OutputDir)
	viperInstance.SetDefault("appName", defaults.AppName)

	return &ConfigManager{Viper: viperInstance, Config: &Config{}}
}

// LoadConfig reads the config file (if one exists) and unmarshals the merged
// configuration. Repeated calls return the cached config.
func (m *ConfigManager) LoadConfig() (*Config, error) {
	if m.loaded {
		return m.Config, nil
	}

	err := m.Viper.ReadInConfig()
	if err != nil {
		// A missing config file is fine: defaults and environment apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	err = m.Viper.Unmarshal(m.Config)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	m.loaded = true

	return m.Config, nil
}
