package config

import (
	"fmt"

	"github.com/spf13/viper"

	"billboard-poi-scraper/models"
)

// LoadTrigger reads a run-configuration payload (JSON, YAML or TOML, chosen by
// file extension) holding the keys lat, long and billboard_id.
func LoadTrigger(path string) (models.Trigger, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return models.Trigger{}, fmt.Errorf("config: read run conf %q: %w", path, err)
	}

	var missing []string
	for _, key := range []string{"lat", "long", "billboard_id"} {
		if !v.IsSet(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return models.Trigger{}, fmt.Errorf("config: run conf %q is missing %v", path, missing)
	}

	var t models.Trigger
	if err := v.Unmarshal(&t); err != nil {
		return models.Trigger{}, fmt.Errorf("config: decode run conf: %w", err)
	}
	return t, nil
}
