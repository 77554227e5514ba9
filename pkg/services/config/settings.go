package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvPrefix          = "AWSDIAGRAM"
	DefaultConfigName  = ".awsdiagram"
	DefaultRegion      = "ap-northeast-1"
	DefaultOutputDir   = "aws-outputs"
	DefaultOutputName  = "aws-architecture"
	DefaultMergeLimit  = 5
	DefaultConcurrency = 5
)

// Settings hold the options of a generate run after flags, environment and
// config file have been merged.
type Settings struct {
	Region          string   `mapstructure:"region"`
	Profile         string   `mapstructure:"profile"`
	OutputDir       string   `mapstructure:"output_dir"`
	OutputName      string   `mapstructure:"output_name"`
	Formats         []string `mapstructure:"formats"`
	MergeThreshold  int      `mapstructure:"merge_threshold"`
	Services        []string `mapstructure:"services"`
	ShowAttachments bool     `mapstructure:"show_attachments"`
	Concurrency     int      `mapstructure:"concurrency"`
	Verbose         bool     `mapstructure:"verbose"`
	NoDiagram       bool     `mapstructure:"no_diagram"`
	ExportCF        bool     `mapstructure:"export_cf"`
	ExportDB        string   `mapstructure:"export_db"`
	FromCF          string   `mapstructure:"from_cf"`
	FromDB          string   `mapstructure:"from_db"`
	Run             string   `mapstructure:"run"`
	PerTemplate     bool     `mapstructure:"per_template"`
}

// NewViper returns a viper instance with defaults and AWSDIAGRAM_* environment
// lookups, so AWSDIAGRAM_OUTPUT_DIR sets output_dir.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("region", DefaultRegion)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("output_name", DefaultOutputName)
	v.SetDefault("formats", []string{"png"})
	v.SetDefault("merge_threshold", DefaultMergeLimit)
	v.SetDefault("concurrency", DefaultConcurrency)
	return v
}

// ReadConfigFile reads path when given, otherwise $HOME/.awsdiagram.yaml if it
// exists. A missing default file is not an error.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	if s.MergeThreshold < 2 {
		return fmt.Errorf("merge threshold must be at least 2, got %d", s.MergeThreshold)
	}
	if s.FromCF != "" && s.FromDB != "" {
		return fmt.Errorf("--from-cf and --from-db cannot be used together")
	}
	if s.FromDB != "" && s.Run == "" {
		return fmt.Errorf("--from-db requires --run")
	}
	if s.PerTemplate && s.FromCF == "" {
		return fmt.Errorf("--per-template requires --from-cf")
	}
	if s.OutputName == "" || strings.ContainsAny(s.OutputName, `/\`) {
		return fmt.Errorf("invalid output name: %q", s.OutputName)
	}
	return nil
}

// SnapshotDir is where --export-cf writes templates.
func (s *Settings) SnapshotDir() string {
	return filepath.Join(s.OutputDir, "cloudformation")
}
