// Package snapshot persists resources as CloudFormation-style YAML files, one
// file per resource grouped in one directory per kind, and reads them back.
package snapshot

import (
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

const (
	templateVersion = "2010-09-09"
	customType      = "AWS::CloudFormation::CustomResource"
	maxFileName     = 100
)

type template struct {
	AWSTemplateFormatVersion string                      `yaml:"AWSTemplateFormatVersion"`
	Description              string                      `yaml:"Description"`
	Resources                map[string]templateResource `yaml:"Resources"`
	Metadata                 metadata                    `yaml:"Metadata,omitempty"`
}

type templateResource struct {
	Type       string    `yaml:"Type"`
	Properties yaml.Node `yaml:"Properties,omitempty"`
}

type metadata struct {
	ResourceId string    `yaml:"ResourceId,omitempty"`
	Name       string    `yaml:"Name,omitempty"`
	Region     string    `yaml:"Region,omitempty"`
	Attributes yaml.Node `yaml:"Attributes,omitempty"`
}

// LogicalID turns a resource id into an alphanumeric CamelCase template key.
func LogicalID(id string) string {
	spaced := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '_'
	}, id)
	camel := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, strcase.ToCamel(spaced))
	if camel == "" || unicode.IsDigit(rune(camel[0])) {
		camel = "Resource" + camel
	}
	return camel
}

// FileName makes a resource id safe to use as a file name.
func FileName(id string) string {
	name := strings.NewReplacer("/", "_", ":", "_", "*", "_", `\`, "_").Replace(id)
	if len(name) > maxFileName {
		name = name[:maxFileName]
	}
	return name
}
