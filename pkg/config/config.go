package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable read by Load, for example
// NOSHOW_LOGGING_LEVEL.
const EnvPrefix = "NOSHOW"

var ErrConfig = errors.New("loading config")

type Config struct {
	Logging   Logging    `yaml:"logging" envconfig:"LOGGING"`
	Output    Output     `yaml:"output" envconfig:"OUTPUT"`
	Groupings [][]string `yaml:"groupings" ignored:"true" validate:"min=1,dive,min=1,dive,required"`
}

type Logging struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

type Output struct {
	Dir string `yaml:"dir" envconfig:"DIR" validate:"required"`

	// Workbook also writes the proportions as an XLSX workbook.
	Workbook bool `yaml:"workbook" envconfig:"WORKBOOK"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Logging: Logging{Level: "info", Format: "text"},
		Output:  Output{Dir: "out"},
		Groupings: [][]string{
			{"gender"},
			{"sick"},
			{"sms_received"},
			{"days_to_appointment_bins"},
		},
	}
}

// Load starts from Default, applies the YAML file at path if path is not
// empty, then applies environment variables and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		err = yaml.UnmarshalStrict(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %q: %w", ErrConfig, path, err)
		}
	}

	err := envconfig.Process(EnvPrefix, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: reading environment: %w", ErrConfig, err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}
