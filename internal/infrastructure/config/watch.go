package config

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch re-reads the config file whenever it changes and passes the new,
// validated configuration to onChange. Invalid edits are logged and ignored.
// It is a no-op when no config file is in use.
func Watch(configPath string, logger *zap.Logger, onChange func(*Config)) {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		logger.Debug("Config watch disabled, no config file", zap.Error(err))
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			logger.Warn("Ignoring invalid config change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		logger.Info("Configuration reloaded", zap.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
}
