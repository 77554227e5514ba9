package snapshot

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// intrinsics are the CloudFormation short-form tags and their long form.
var intrinsics = map[string]string{
	"!Ref":         "Ref",
	"!Condition":   "Condition",
	"!Base64":      "Fn::Base64",
	"!Cidr":        "Fn::Cidr",
	"!FindInMap":   "Fn::FindInMap",
	"!GetAtt":      "Fn::GetAtt",
	"!GetAZs":      "Fn::GetAZs",
	"!ImportValue": "Fn::ImportValue",
	"!Join":        "Fn::Join",
	"!Select":      "Fn::Select",
	"!Split":       "Fn::Split",
	"!Sub":         "Fn::Sub",
	"!Transform":   "Fn::Transform",
	"!And":         "Fn::And",
	"!Equals":      "Fn::Equals",
	"!If":          "Fn::If",
	"!Not":         "Fn::Not",
	"!Or":          "Fn::Or",
}

// Import reads every template below dir. Files that fail to parse are
// reported and skipped; resources of unknown types are ignored.
func Import(dir string) (map[domain.Kind][]domain.Resource, []error) {
	resources := make(map[domain.Kind][]domain.Resource)

	files, err := Templates(dir)
	if err != nil {
		return resources, []error{err}
	}

	var errs []error
	for _, path := range files {
		parsed, err := ImportFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for k, list := range parsed {
			resources[k] = append(resources[k], list...)
		}
	}
	return resources, errs
}

// ImportFile reads a single template.
func ImportFile(path string) (map[domain.Kind][]domain.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	parsed, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	resources := make(map[domain.Kind][]domain.Resource)
	for _, r := range parsed {
		resources[r.Kind] = append(resources[r.Kind], r)
	}
	return resources, nil
}

// Templates lists the .yaml and .yml files below dir in lexical order.
func Templates(dir string) ([]string, error) {
	return templateFiles(dir)
}

func templateFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk snapshot directory %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Unmarshal parses one template document into resources.
func Unmarshal(data []byte) ([]domain.Resource, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	expandIntrinsics(&root)

	var doc template
	if err := root.Decode(&doc); err != nil {
		return nil, err
	}

	var meta map[string]any
	if !doc.Metadata.Attributes.IsZero() {
		if err := doc.Metadata.Attributes.Decode(&meta); err != nil {
			return nil, fmt.Errorf("invalid metadata attributes: %w", err)
		}
	}

	logicalIDs := make([]string, 0, len(doc.Resources))
	for id := range doc.Resources {
		logicalIDs = append(logicalIDs, id)
	}
	sort.Strings(logicalIDs)

	var out []domain.Resource
	for _, logicalID := range logicalIDs {
		tr := doc.Resources[logicalID]
		kind, ok := domain.KindFromCFNType(tr.Type)
		if !ok {
			continue
		}

		var props map[string]any
		if !tr.Properties.IsZero() {
			if err := tr.Properties.Decode(&props); err != nil {
				return nil, fmt.Errorf("invalid properties of %s: %w", logicalID, err)
			}
		}

		r := domain.Resource{ID: logicalID, Kind: kind, Region: doc.Metadata.Region}
		single := len(doc.Resources) == 1
		if single && doc.Metadata.ResourceId != "" {
			r.ID = doc.Metadata.ResourceId
		}
		if single && meta != nil {
			r.Attributes = domain.NormalizeAttributes(meta)
		} else {
			r.Attributes = attributesFromProperties(props)
		}
		r.Name = nameTag(props)
		if single && doc.Metadata.Name != "" {
			r.Name = doc.Metadata.Name
		}
		out = append(out, r)
	}
	return out, nil
}

func attributesFromProperties(props map[string]any) map[string]any {
	attrs := make(map[string]any, len(props))
	for k, v := range props {
		if k == "Tags" {
			continue
		}
		attrs[strcase.ToSnake(k)] = resolveRef(v)
	}
	return domain.NormalizeAttributes(attrs)
}

// resolveRef replaces Ref and GetAtt with the logical id they point at.
func resolveRef(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if ref, ok := t["Ref"].(string); ok {
				return ref
			}
			if att, ok := t["Fn::GetAtt"].([]any); ok && len(att) > 0 {
				if s, ok := att[0].(string); ok {
					return s
				}
			}
		}
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = resolveRef(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = resolveRef(item)
		}
		return out
	default:
		return v
	}
}

func nameTag(props map[string]any) string {
	tags, _ := props["Tags"].([]any)
	for _, tag := range tags {
		m, ok := tag.(map[string]any)
		if !ok {
			continue
		}
		if m["Key"] == "Name" {
			if s, ok := m["Value"].(string); ok {
				return s
			}
		}
	}
	return ""
}

// expandIntrinsics rewrites short-form tags such as !Ref into their
// single-key mapping form so the document decodes into plain values.
func expandIntrinsics(n *yaml.Node) {
	for _, child := range n.Content {
		expandIntrinsics(child)
	}
	name, ok := intrinsics[n.Tag]
	if !ok {
		return
	}

	value := *n
	value.Style &^= yaml.TaggedStyle
	switch value.Kind {
	case yaml.ScalarNode:
		value.Tag = "!!str"
		if name == "Fn::GetAtt" {
			resource, attribute, _ := strings.Cut(value.Value, ".")
			value = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: resource},
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: attribute},
			}}
		}
	case yaml.SequenceNode:
		value.Tag = "!!seq"
	case yaml.MappingNode:
		value.Tag = "!!map"
	}

	*n = yaml.Node{
		Kind:   yaml.MappingNode,
		Tag:    "!!map",
		Line:   n.Line,
		Column: n.Column,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&value,
		},
	}
}
