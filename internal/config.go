package internal

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/AeonDave/svxor/obf"
)

// LoadConfig resolves the configuration for dir. Precedence, lowest first:
// defaults, .svxor.yaml in dir, SVXOR_* environment variables, overrides
// (the flags the user set explicitly).
func LoadConfig(dir string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	v.SetDefault("verbose", false)
	v.SetDefault("mode", obf.Light.String())
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("reproducible", false)

	v.SetEnvPrefix("SVXOR")
	v.AutomaticEnv()

	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config in %s: %w", dir, err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	mode, err := obf.ParseMode(v.GetString("mode"))
	if err != nil {
		return nil, fmt.Errorf("invalid mode: %w", err)
	}
	output := v.GetString("output")
	if err := validateOutput(output); err != nil {
		return nil, err
	}

	return &Config{
		Dir:          dir,
		Verbose:      v.GetBool("verbose"),
		Mode:         mode,
		Output:       output,
		Reproducible: v.GetBool("reproducible"),
	}, nil
}

func validateOutput(name string) error {
	switch {
	case name == "":
		return errors.New("output file name is empty")
	case filepath.Base(name) != name:
		return fmt.Errorf("output %q must be a file name, not a path", name)
	case !strings.HasSuffix(name, ".go"):
		return fmt.Errorf("output %q must end in .go", name)
	case strings.HasSuffix(name, "_test.go"):
		return fmt.Errorf("output %q must not be a test file", name)
	}
	return nil
}
