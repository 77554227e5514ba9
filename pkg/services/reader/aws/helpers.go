package aws

import (
	"strings"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

// GlobalRegion marks resources of global services such as IAM.
const GlobalRegion = "global"

func newResource(kind domain.Kind, id, name, region string) domain.Resource {
	return domain.Resource{
		ID:         id,
		Kind:       kind,
		Name:       name,
		Region:     region,
		Attributes: make(map[string]any),
	}
}

// set stores v unless it is empty.
func set(r domain.Resource, key string, v any) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return
		}
	case []string:
		if len(val) == 0 {
			return
		}
	case nil:
		return
	}
	r.Attributes[key] = v
}

// appendUnique adds values not already present, keeping order.
func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// chunk splits ids into batches of at most size for Describe calls.
func chunk(ids []string, size int) [][]string {
	var out [][]string
	for size < len(ids) {
		ids, out = ids[size:], append(out, ids[:size])
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// unqualifiedFunctionArn drops a version or alias suffix from a Lambda ARN.
// Other ARNs are returned unchanged.
func unqualifiedFunctionArn(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) > 7 && parts[2] == "lambda" && parts[5] == "function" {
		return strings.Join(parts[:7], ":")
	}
	return arn
}
