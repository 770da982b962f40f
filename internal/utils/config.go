package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"msescraper/internal/fetch"

	"gopkg.in/yaml.v2"
)

const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

type Config struct {
	Scraper struct {
		// ListURL is the page carrying the issuer dropdown.
		ListURL string `yaml:"listUrl"`
		// HistoryURL is joined with "/<IssuerCode>" for history requests.
		HistoryURL string            `yaml:"historyUrl"`
		Action     string            `yaml:"action"`
		UserAgent  string            `yaml:"userAgent"`
		Headers    map[string]string `yaml:"headers"`
		Timeout    int               `yaml:"timeout"`
		Workers    int               `yaml:"workers"`
		Years      int               `yaml:"years"`
		WindowDays int               `yaml:"windowDays"`
		Fetcher    string            `yaml:"fetcher"`
		Browser    struct {
			Headless bool `yaml:"headless"`
			Debug    bool `yaml:"debug"`
		} `yaml:"browser"`
	} `yaml:"scraper"`
	Output struct {
		IssuersFile string `yaml:"issuersFile"`
		DataFile    string `yaml:"dataFile"`
	} `yaml:"output"`
	Log struct {
		Dir   string `yaml:"dir"`
		Debug bool   `yaml:"debug"`
	} `yaml:"log"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() *Config {
	config := &Config{}
	config.Scraper.ListURL = "https://www.mse.mk/mk/stats/symbolhistory/KMB"
	config.Scraper.HistoryURL = "https://www.mse.mk/mk/stats/symbolhistory"
	config.Scraper.Action = "Прикажи"
	config.Scraper.UserAgent = fetch.DefaultUserAgent
	config.Scraper.Timeout = 30
	config.Scraper.Workers = 10
	config.Scraper.Years = 10
	config.Scraper.WindowDays = 365
	config.Scraper.Fetcher = FetcherHTTP
	config.Scraper.Browser.Headless = true
	config.Output.IssuersFile = "issuers.csv"
	config.Output.DataFile = "all_issuers_data_last_10_years.csv"
	config.Log.Dir = "logs"
	return config
}

// LoadConfig overlays the YAML file at path on top of DefaultConfig.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is nil")
	}
	if c.Scraper.ListURL == "" || c.Scraper.HistoryURL == "" {
		return fmt.Errorf("listUrl and historyUrl are required")
	}
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("invalid timeout value")
	}
	if c.Scraper.Workers <= 0 {
		return fmt.Errorf("invalid workers value")
	}
	if c.Scraper.Years <= 0 {
		return fmt.Errorf("invalid years value")
	}
	if c.Scraper.WindowDays <= 0 {
		return fmt.Errorf("invalid windowDays value")
	}
	switch c.Scraper.Fetcher {
	case FetcherHTTP, FetcherBrowser:
	default:
		return fmt.Errorf("unknown fetcher %q", c.Scraper.Fetcher)
	}
	if c.Output.IssuersFile == "" || c.Output.DataFile == "" {
		return fmt.Errorf("output files are required")
	}
	return nil
}

// FetchOptions returns the client settings shared by every fetcher.
func (c *Config) FetchOptions() fetch.Options {
	return fetch.Options{
		UserAgent: c.Scraper.UserAgent,
		Headers:   c.Scraper.Headers,
		Timeout:   c.Scraper.Timeout,
	}
}
