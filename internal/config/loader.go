package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".visaingest"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML shape of the .visaingest configuration file. Every
// field is optional; zero values leave the corresponding Config field
// untouched so the file only needs to name what it overrides.
//
// Delays and the fetch timeout are expressed in milliseconds to match
// how operators think about politeness tuning.
type File struct {
	BaseURL        string   `yaml:"baseURL,omitempty"`
	Seeds          []string `yaml:"seeds,omitempty"`
	MaxDepth       *int     `yaml:"maxDepth,omitempty"`
	MaxPages       *int     `yaml:"maxPages,omitempty"`
	MinDelayMS     *int     `yaml:"minDelayMs,omitempty"`
	MaxDelayMS     *int     `yaml:"maxDelayMs,omitempty"`
	UserAgent      string   `yaml:"userAgent,omitempty"`
	HonorRobots    *bool    `yaml:"honorRobots,omitempty"`
	MaxRetries     *int     `yaml:"maxRetries,omitempty"`
	FetchTimeoutMS *int     `yaml:"fetchTimeoutMs,omitempty"`
	Workers        *int     `yaml:"workers,omitempty"`
	Threshold      *int     `yaml:"threshold,omitempty"`
	URLStageWeight *int     `yaml:"urlStageWeight,omitempty"`

	AllowKeywords     []string `yaml:"allowKeywords,omitempty"`
	ExcludePatterns   []string `yaml:"excludePatterns,omitempty"`
	TitleKeywords     []string `yaml:"titleKeywords,omitempty"`
	SectionIndicators []string `yaml:"sectionIndicators,omitempty"`
	TourismKeywords   []string `yaml:"tourismKeywords,omitempty"`
	OfficialDomains   []string `yaml:"officialDomains,omitempty"`

	EligibilityKeywords []string `yaml:"eligibilityKeywords,omitempty"`
	DocumentKeywords    []string `yaml:"documentKeywords,omitempty"`
	FeeKeywords         []string `yaml:"feeKeywords,omitempty"`
	ProcessingKeywords  []string `yaml:"processingKeywords,omitempty"`
	StepKeywords        []string `yaml:"stepKeywords,omitempty"`

	DBDir string `yaml:"dbDir,omitempty"`
}

// LoadConfigFile loads a configuration file from path. If the file
// does not exist it returns ErrConfigNotFound; callers decide whether
// that is an error based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply overlays the file's settings onto cfg. Only fields the file
// actually sets are applied; everything else keeps its current value.
func (cf *File) Apply(cfg *Config) {
	if cf.BaseURL != "" {
		cfg.BaseURL = cf.BaseURL
	}
	if len(cf.Seeds) > 0 {
		cfg.Seeds = cf.Seeds
	}
	if cf.MaxDepth != nil {
		cfg.MaxDepth = *cf.MaxDepth
	}
	if cf.MaxPages != nil {
		cfg.MaxPages = *cf.MaxPages
	}
	if cf.MinDelayMS != nil {
		cfg.MinDelay = time.Duration(*cf.MinDelayMS) * time.Millisecond
	}
	if cf.MaxDelayMS != nil {
		cfg.MaxDelay = time.Duration(*cf.MaxDelayMS) * time.Millisecond
	}
	if cf.UserAgent != "" {
		cfg.UserAgent = cf.UserAgent
	}
	if cf.HonorRobots != nil {
		cfg.HonorRobots = *cf.HonorRobots
	}
	if cf.MaxRetries != nil {
		cfg.MaxRetries = *cf.MaxRetries
	}
	if cf.FetchTimeoutMS != nil {
		cfg.FetchTimeout = time.Duration(*cf.FetchTimeoutMS) * time.Millisecond
	}
	if cf.Workers != nil {
		cfg.Workers = *cf.Workers
	}
	if cf.Threshold != nil {
		cfg.Threshold = *cf.Threshold
	}
	if cf.URLStageWeight != nil {
		cfg.URLStageWeight = *cf.URLStageWeight
	}

	if len(cf.AllowKeywords) > 0 {
		cfg.AllowKeywords = cf.AllowKeywords
	}
	if len(cf.ExcludePatterns) > 0 {
		cfg.ExcludePatterns = cf.ExcludePatterns
	}
	if len(cf.TitleKeywords) > 0 {
		cfg.TitleKeywords = cf.TitleKeywords
	}
	if len(cf.SectionIndicators) > 0 {
		cfg.SectionIndicators = cf.SectionIndicators
	}
	if len(cf.TourismKeywords) > 0 {
		cfg.TourismKeywords = cf.TourismKeywords
	}
	if len(cf.OfficialDomains) > 0 {
		cfg.OfficialDomains = cf.OfficialDomains
	}
	if len(cf.EligibilityKeywords) > 0 {
		cfg.EligibilityKeywords = cf.EligibilityKeywords
	}
	if len(cf.DocumentKeywords) > 0 {
		cfg.DocumentKeywords = cf.DocumentKeywords
	}
	if len(cf.FeeKeywords) > 0 {
		cfg.FeeKeywords = cf.FeeKeywords
	}
	if len(cf.ProcessingKeywords) > 0 {
		cfg.ProcessingKeywords = cf.ProcessingKeywords
	}
	if len(cf.StepKeywords) > 0 {
		cfg.StepKeywords = cf.StepKeywords
	}
	if cf.DBDir != "" {
		cfg.DBDir = cf.DBDir
	}
}

// FindConfigFile searches for the configuration file:
//  1. the explicit path when given
//  2. .visaingest in the current directory
//  3. .visaingest in the user's home directory
//
// Returns the path found, or empty string when none exists.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
