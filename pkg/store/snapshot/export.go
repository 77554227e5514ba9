package snapshot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// Export writes one YAML file per resource below dir and returns the number
// of files written.
func Export(dir string, resources []domain.Resource) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	used := make(map[string]bool)
	written := 0
	for _, r := range resources {
		kindDir := filepath.Join(dir, r.Kind.Dir())
		if err := os.MkdirAll(kindDir, 0o755); err != nil {
			return written, fmt.Errorf("failed to create directory for %s: %w", r.Kind, err)
		}

		path := filepath.Join(kindDir, FileName(r.ID)+".yaml")
		for i := 2; used[path]; i++ {
			path = filepath.Join(kindDir, FileName(r.ID)+"-"+strconv.Itoa(i)+".yaml")
		}
		used[path] = true

		data, err := Marshal(r)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written++
	}
	return written, nil
}

// Marshal renders one resource as a template document.
func Marshal(r domain.Resource) ([]byte, error) {
	cfnType := r.Kind.CFNType()
	if cfnType == "" {
		cfnType = customType
	}

	doc := template{
		AWSTemplateFormatVersion: templateVersion,
		Description:              fmt.Sprintf("Exported %s: %s", cfnType, r.ID),
		Resources: map[string]templateResource{
			LogicalID(r.ID): {
				Type:       cfnType,
				Properties: *properties(r),
			},
		},
		Metadata: metadata{
			ResourceId: r.ID,
			Name:       r.Name,
			Region:     r.Region,
			Attributes: *valueNode(r.Attributes),
		},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", r, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", r, err)
	}
	return buf.Bytes(), nil
}

// properties maps attributes to CloudFormation-style property names and adds
// the Name tag.
func properties(r domain.Resource) *yaml.Node {
	props := make(map[string]any, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		props[strcase.ToCamel(k)] = v
	}
	if r.Name != "" {
		props["Tags"] = []any{map[string]any{"Key": "Name", "Value": r.Name}}
	}
	return valueNode(props)
}

// valueNode builds a node with explicit tags so floats without a fraction
// come back as floats.
func valueNode(v any) *yaml.Node {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(t)}
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(t, 10)}
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(t, 'g', -1, 64)}
	case []string:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, s := range t {
			n.Content = append(n.Content, valueNode(s))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			n.Content = append(n.Content, valueNode(item))
		}
		return n
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			n.Content = append(n.Content, valueNode(k), valueNode(t[k]))
		}
		return n
	default:
		n := &yaml.Node{}
		if err := n.Encode(t); err != nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(t)}
		}
		return n
	}
}
