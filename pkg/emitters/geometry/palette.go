package geometry

import (
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

// AWS architecture icon category colours.
const (
	ColorCompute     = "#ED7100"
	ColorNetworking  = "#8C4FFF"
	ColorDatabase    = "#C925D1"
	ColorStorage     = "#7AA116"
	ColorIntegration = "#E7157B"
	ColorSecurity    = "#DD344C"
	ColorAZ          = "#147EBA"
	ColorPublic      = "#7AA116"
	ColorPublicFill  = "#F2F6E8"
	ColorPrivate     = "#00A4A6"
	ColorPrivateFill = "#E6F6F7"
	ColorExternal    = "#5A6C86"
	ColorExternalBg  = "#F5F5F5"
	ColorText        = "#232F3E"
)

type KindStyle struct {
	Icon  string
	Color string
}

var kindStyles = map[domain.Kind]KindStyle{
	domain.KindRouteTable:         {"route_table", ColorNetworking},
	domain.KindInternetGateway:    {"internet_gateway", ColorNetworking},
	domain.KindNatGateway:         {"nat_gateway", ColorNetworking},
	domain.KindSecurityGroup:      {"shield", ColorSecurity},
	domain.KindVpcEndpoint:        {"endpoints", ColorNetworking},
	domain.KindInstance:           {"ec2", ColorCompute},
	domain.KindEcsCluster:         {"ecs", ColorCompute},
	domain.KindEcsService:         {"fargate", ColorCompute},
	domain.KindEksCluster:         {"eks", ColorCompute},
	domain.KindLambdaFunction:     {"lambda", ColorCompute},
	domain.KindRdsInstance:        {"rds", ColorDatabase},
	domain.KindDynamoTable:        {"dynamodb", ColorDatabase},
	domain.KindElastiCacheCluster: {"elasticache", ColorDatabase},
	domain.KindS3Bucket:           {"s3", ColorStorage},
	domain.KindEfs:                {"elastic_file_system", ColorStorage},
	domain.KindLoadBalancer:       {"elastic_load_balancing", ColorNetworking},
	domain.KindListener:           {"elastic_load_balancing", ColorNetworking},
	domain.KindTargetGroup:        {"elastic_load_balancing", ColorNetworking},
	domain.KindQueue:              {"sqs", ColorIntegration},
	domain.KindTopic:              {"sns", ColorIntegration},
	domain.KindIamRole:            {"identity_and_access_management", ColorSecurity},
	domain.KindLogGroup:           {"cloudwatch_2", ColorIntegration},
	domain.KindDistribution:       {"cloudfront", ColorNetworking},
	domain.KindRestApi:            {"api_gateway", ColorIntegration},
	domain.KindEventRule:          {"eventbridge", ColorIntegration},
}

func StyleOf(kind domain.Kind) KindStyle {
	if s, ok := kindStyles[kind]; ok {
		return s
	}
	return KindStyle{Icon: "general", Color: ColorExternal}
}

// GroupColors returns stroke and fill for a group node.
func GroupColors(n *layout.Node) (stroke, fill string) {
	switch n.Group {
	case layout.GroupVPC:
		return ColorNetworking, "none"
	case layout.GroupAZ:
		return ColorAZ, "none"
	case layout.GroupSubnet:
		if n.Public {
			return ColorPublic, ColorPublicFill
		}
		return ColorPrivate, ColorPrivateFill
	default:
		return ColorExternal, ColorExternalBg
	}
}

func RelationColor(rel domain.RelationKind) string {
	switch rel {
	case domain.RelationRoutesTo, domain.RelationTargets:
		return ColorSecurity
	case domain.RelationTriggers:
		return ColorCompute
	case domain.RelationAttachedTo:
		return ColorAZ
	default:
		return ColorStorage
	}
}

// Dashed reports whether connectors of rel are drawn dashed.
func Dashed(rel domain.RelationKind) bool {
	return rel == domain.RelationTargets || rel == domain.RelationAttachedTo
}
