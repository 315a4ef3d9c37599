package config

import (
	stderrors "errors"
	"sync"

	"github.com/spf13/afero"

	"github.com/netxfw/netxlog/pkg/errors"
)

// ConfigManager loads and holds the configuration for one run.
// ConfigManager 加载并持有一次运行的配置。
type ConfigManager struct {
	fs         afero.Fs
	configPath string
	mutex      sync.RWMutex
	config     *GlobalConfig
	fromFile   bool
}

// NewConfigManager creates a manager reading configPath from fs.
// NewConfigManager 创建从 fs 读取 configPath 的配置管理器。
func NewConfigManager(fs afero.Fs, configPath string) *ConfigManager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return &ConfigManager{
		fs:         fs,
		configPath: configPath,
	}
}

// LoadConfig loads and validates the file. A missing file leaves the defaults in place.
// LoadConfig 加载并校验配置文件；文件不存在时使用默认配置。
func (cm *ConfigManager) LoadConfig() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cfg, err := LoadGlobalConfig(cm.fs, cm.configPath)
	fromFile := true
	if err != nil {
		if !stderrors.Is(err, errors.ErrConfigNotFound) {
			return err
		}
		fromFile = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cm.config = cfg
	cm.fromFile = fromFile
	return nil
}

// SaveConfig writes the current configuration back to the config path.
// SaveConfig 将当前配置写回配置路径。
func (cm *ConfigManager) SaveConfig() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	return SaveGlobalConfig(cm.fs, cm.configPath, cm.config)
}

// GetConfig returns a copy of the current configuration.
// GetConfig 返回当前配置的副本。
func (cm *ConfigManager) GetConfig() *GlobalConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	cfgCopy := *cm.config
	return &cfgCopy
}

// UpdateConfig replaces the current configuration.
func (cm *ConfigManager) UpdateConfig(newConfig *GlobalConfig) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.config = newConfig
}

// FromFile reports whether the last load read an actual file.
func (cm *ConfigManager) FromFile() bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.fromFile
}

// GetConfigPath returns the configuration file path.
// GetConfigPath 返回配置文件路径。
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}
