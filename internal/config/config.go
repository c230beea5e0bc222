// Package config reads the optional YAML file, the .env file and the
// environment. Values set in the environment win over the file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/edward-yakop/go-tidemodel/api/auth"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultFile    = "tidemodel.yml"
	DefaultEnvFile = ".env"

	envPrefix            = "tidemodel"
	credentialsEnvPrefix = "aviso"
)

type Config struct {
	Dir         string        `yaml:"dir"`
	Source      string        `yaml:"source"`
	Layout      string        `yaml:"layout"`
	RemotePath  string        `yaml:"remote_path" split_words:"true"`
	RegionsFile string        `yaml:"regions_file" split_words:"true"`
	Parallel    int           `yaml:"parallel"`
	Retries     int           `yaml:"retries"`
	RetryWait   time.Duration `yaml:"retry_wait" split_words:"true"`
	LogFile     string        `yaml:"log_file" split_words:"true"`
	MetricsFile string        `yaml:"metrics_file" split_words:"true"`
}

type credentials struct {
	Username string
	Password string
}

// LoadEnv adds the variables of the given .env files to the environment,
// without replacing variables already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "Load env file ["+f+"] failed")
		}
	}
	return nil
}

// Load reads path and applies the TIDEMODEL_* environment variables. A blank
// path reads DefaultFile when it exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	required := path != ""
	if !required {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, errors.Wrap(err, "Parse config ["+path+"] failed")
		}
	case required || !os.IsNotExist(err):
		return nil, errors.Wrap(err, "Read config ["+path+"] failed")
	}

	if err = envconfig.Process(envPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "Read TIDEMODEL_* environment failed")
	}
	return cfg, nil
}

// Credentials from AVISO_USERNAME and AVISO_PASSWORD.
func Credentials() (auth.Credentials, error) {
	var c credentials
	if err := envconfig.Process(credentialsEnvPrefix, &c); err != nil {
		return auth.Credentials{}, errors.Wrap(err, "Read AVISO_* environment failed")
	}
	return auth.NewCredentials(strings.TrimSpace(c.Username), c.Password), nil
}
