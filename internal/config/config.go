package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database  *dbConfig
	Service   *svcConfig
	Runner    *runnerConfig
	Artifacts *artifactsConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"reliability"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string        `envconfig:"BBN_API_ADDRESS" default:":3443"`
	MetricsAddress string        `envconfig:"BBN_API_METRICS_ADDRESS" default:":8080"`
	BaseUrl        string        `envconfig:"BBN_API_BASE_URL" default:"https://localhost:3443"`
	LogLevel       string        `envconfig:"BBN_API_LOG_LEVEL" default:"info"`
	APIKey         string        `envconfig:"BBN_API_KEY" default:""`
	StartDeadline  time.Duration `envconfig:"BBN_API_START_DEADLINE" default:"15m"`
	SweepInterval  time.Duration `envconfig:"BBN_API_SWEEP_INTERVAL" default:"1m"`
}

type runnerConfig struct {
	Image         string `envconfig:"BBN_RUNNER_IMAGE" default:""`
	ContainerName string `envconfig:"BBN_RUNNER_CONTAINER_NAME" default:"bbn-compute"`
	Network       string `envconfig:"BBN_RUNNER_NETWORK" default:""`
}

type artifactsConfig struct {
	Endpoint  string        `envconfig:"BBN_RESULTS_ENDPOINT" default:""`
	Bucket    string        `envconfig:"BBN_RESULTS_BUCKET" default:""`
	AccessKey string        `envconfig:"BBN_RESULTS_ACCESS_KEY" default:""`
	SecretKey string        `envconfig:"BBN_RESULTS_SECRET_KEY" default:""`
	UseSSL    bool          `envconfig:"BBN_RESULTS_USE_SSL" default:"false"`
	URLExpiry time.Duration `envconfig:"BBN_RESULTS_URL_EXPIRY" default:"1h"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// MissingJobResources lists the external resource identifiers that must be
// configured before a job may be accepted. The submission path fails fast on a
// non-empty result, before any status-store write.
func (c *Config) MissingJobResources() []string {
	var missing []string
	if c.Runner == nil || c.Runner.Image == "" {
		missing = append(missing, "BBN_RUNNER_IMAGE")
	}
	if c.Runner == nil || c.Runner.ContainerName == "" {
		missing = append(missing, "BBN_RUNNER_CONTAINER_NAME")
	}
	if c.Artifacts == nil || c.Artifacts.Endpoint == "" {
		missing = append(missing, "BBN_RESULTS_ENDPOINT")
	}
	if c.Artifacts == nil || c.Artifacts.Bucket == "" {
		missing = append(missing, "BBN_RESULTS_BUCKET")
	}
	return missing
}
