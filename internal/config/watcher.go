package config

import (
	"sync"
	"time"

	"polyquant/internal/logger"
	"polyquant/internal/risk"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RiskChangeListener receives the new risk limits after a reload.
type RiskChangeListener func(risk.Config)

// WatchRisk re-reads the config file whenever it changes and pushes the new
// risk section to the listener. Only risk limits are hot-reloadable; every
// other section requires a restart. Editor save storms are debounced.
func WatchRisk(path string, listener RiskChangeListener) error {
	if listener == nil {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	var mu sync.Mutex
	var last risk.Config
	if cfg, err := decode(v); err == nil {
		last = cfg.Risk
	}
	var pending *time.Timer

	v.OnConfigChange(func(evt fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()
		if pending != nil {
			pending.Stop()
		}
		pending = time.AfterFunc(200*time.Millisecond, func() {
			if err := v.ReadInConfig(); err != nil {
				logger.Errorf("risk config reload failed (%s): %v", evt.Name, err)
				return
			}
			cfg, err := decode(v)
			if err != nil {
				logger.Errorf("risk config reload failed (%s): %v", evt.Name, err)
				return
			}
			mu.Lock()
			changed := cfg.Risk != last
			if changed {
				last = cfg.Risk
			}
			mu.Unlock()
			if changed {
				listener(cfg.Risk)
			}
		})
	})
	v.WatchConfig()
	return nil
}
