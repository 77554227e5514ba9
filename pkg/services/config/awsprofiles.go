package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"
)

type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.ConfigProfile, error)
	GetProfile(ctx context.Context, name string) (*domain.ConfigProfile, error)
}

type source struct {
	path string
	file *ini.File
	// config files name sections "profile <name>" except for default
	prefixed bool
}

type profileRegistry struct {
	sources []source
}

// DefaultPaths returns the shared config and credentials files, honouring
// AWS_CONFIG_FILE and AWS_SHARED_CREDENTIALS_FILE.
func DefaultPaths() (configPath, credentialsPath string) {
	home, _ := os.UserHomeDir()
	configPath = os.Getenv("AWS_CONFIG_FILE")
	if configPath == "" {
		configPath = filepath.Join(home, ".aws", "config")
	}
	credentialsPath = os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	if credentialsPath == "" {
		credentialsPath = filepath.Join(home, ".aws", "credentials")
	}
	return configPath, credentialsPath
}

// NewRegistry loads whichever of the two files exist. It fails only when a
// file exists but cannot be parsed.
func NewRegistry(ctx context.Context, configPath, credentialsPath string) (Registry, error) {
	logger := zerolog.Ctx(ctx)
	reg := &profileRegistry{}
	for _, candidate := range []struct {
		path     string
		prefixed bool
	}{
		{configPath, true},
		{credentialsPath, false},
	} {
		if candidate.path == "" {
			continue
		}
		if _, err := os.Stat(candidate.path); err != nil {
			logger.Debug().Str("path", candidate.path).Msg("aws profile file not found")
			continue
		}
		cfg, err := ini.Load(candidate.path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", candidate.path, err)
		}
		reg.sources = append(reg.sources, source{path: candidate.path, file: cfg, prefixed: candidate.prefixed})
	}
	return reg, nil
}

func (pr *profileRegistry) GetProfiles(_ context.Context) ([]domain.ConfigProfile, error) {
	byName := make(map[string]*domain.ConfigProfile)
	for _, src := range pr.sources {
		for _, section := range src.file.Sections() {
			if len(section.Keys()) == 0 {
				continue
			}
			name, ok := profileName(section.Name(), src.prefixed)
			if !ok {
				continue
			}
			p, seen := byName[name]
			if !seen {
				p = &domain.ConfigProfile{Name: name, Type: domain.ProfileTypeOther}
				byName[name] = p
			}
			merge(p, section, src.path)
		}
	}

	profiles := make([]domain.ConfigProfile, 0, len(byName))
	for _, p := range byName {
		profiles = append(profiles, *p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, nil
}

func (pr *profileRegistry) GetProfile(ctx context.Context, name string) (*domain.ConfigProfile, error) {
	profiles, err := pr.GetProfiles(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("profile %s not found", name)
}

func profileName(section string, prefixed bool) (string, bool) {
	switch {
	case section == ini.DefaultSection:
		return "", false
	case section == "default":
		return section, true
	case !prefixed:
		return section, true
	case strings.HasPrefix(section, "profile "):
		return strings.TrimSpace(strings.TrimPrefix(section, "profile ")), true
	default:
		// sso-session and services sections
		return "", false
	}
}

func merge(p *domain.ConfigProfile, section *ini.Section, path string) {
	p.Files = append(p.Files, path)
	if region := section.Key("region").String(); region != "" && p.Region == "" {
		p.Region = region
	}
	if role := section.Key("role_arn").String(); role != "" {
		p.RoleArn = role
	}

	switch {
	case section.HasKey("sso_session") || section.HasKey("sso_start_url"):
		p.Type = domain.ProfileTypeSSO
	case section.HasKey("role_arn"):
		p.Type = domain.ProfileTypeRole
	case section.HasKey("aws_access_key_id") && p.Type == domain.ProfileTypeOther:
		p.Type = domain.ProfileTypeStatic
	}
}
