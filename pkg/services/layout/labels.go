package layout

import (
	"fmt"
	"strings"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

const maxLabelName = 24

func vpcLabel(vpc domain.Resource) string {
	return joinLines(domain.ShortName(vpc.DisplayName(), maxLabelName), vpc.Str(domain.AttrCidrBlock))
}

func subnetLabel(subnet domain.Resource, public bool) string {
	visibility := "Private subnet"
	if public {
		visibility = "Public subnet"
	}
	return joinLines(visibility, domain.ShortName(subnet.DisplayName(), maxLabelName), subnet.Str(domain.AttrCidrBlock))
}

func leafLabel(r domain.Resource) string {
	return joinLines(r.Kind.Label(), domain.ShortName(r.DisplayName(), maxLabelName))
}

func endpointLabel(r domain.Resource, total int) string {
	return joinLines(r.Kind.Label(), fmt.Sprintf("(%d endpoints)", total))
}

func summaryLabel(kind domain.Kind, count int) string {
	return joinLines(kind.Label(), fmt.Sprintf("(%d)", count))
}

func joinLines(lines ...string) string {
	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
