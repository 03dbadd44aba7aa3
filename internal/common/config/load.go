package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// KeyDelimiter replaces viper's default "." so that keys such as "nvidia.com/gpu" survive intact.
const KeyDelimiter = "::"

// LoadFile reads the yaml (or json) file at filePath into config using the custom decode hooks.
func LoadFile(filePath string, config interface{}) error {
	v := viper.NewWithOptions(viper.KeyDelimiter(KeyDelimiter))
	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		err = errors.WithMessagef(err, "failed to read in %s", filePath)
		return errors.WithStack(err)
	}
	if err := v.Unmarshal(config, CustomHooks...); err != nil {
		err = errors.WithMessagef(err, "failed to unmarshal %s", filePath)
		return errors.WithStack(err)
	}
	return nil
}
