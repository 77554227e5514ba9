package domain

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindVPC                Kind = "VPC"
	KindSubnet             Kind = "Subnet"
	KindRouteTable         Kind = "RouteTable"
	KindInternetGateway    Kind = "InternetGateway"
	KindNatGateway         Kind = "NatGateway"
	KindSecurityGroup      Kind = "SecurityGroup"
	KindVpcEndpoint        Kind = "VpcEndpoint"
	KindInstance           Kind = "Instance"
	KindEcsCluster         Kind = "EcsCluster"
	KindEcsService         Kind = "EcsService"
	KindEksCluster         Kind = "EksCluster"
	KindLambdaFunction     Kind = "LambdaFunction"
	KindRdsInstance        Kind = "RdsInstance"
	KindDynamoTable        Kind = "DynamoTable"
	KindElastiCacheCluster Kind = "ElastiCacheCluster"
	KindS3Bucket           Kind = "S3Bucket"
	KindEfs                Kind = "Efs"
	KindLoadBalancer       Kind = "LoadBalancer"
	KindListener           Kind = "Listener"
	KindTargetGroup        Kind = "TargetGroup"
	KindQueue              Kind = "Queue"
	KindTopic              Kind = "Topic"
	KindIamRole            Kind = "IamRole"
	KindLogGroup           Kind = "LogGroup"
	KindDistribution       Kind = "Distribution"
	KindRestApi            Kind = "RestApi"
	KindEventRule          Kind = "EventRule"
)

// KindInfo describes how a kind is named outside the process.
type KindInfo struct {
	Kind    Kind
	CFNType string
	Dir     string
	Label   string
}

// kindTable is in canonical order: network first, then compute, data, edge services.
var kindTable = []KindInfo{
	{KindVPC, "AWS::EC2::VPC", "vpc", "VPC"},
	{KindSubnet, "AWS::EC2::Subnet", "subnet", "Subnet"},
	{KindRouteTable, "AWS::EC2::RouteTable", "route-table", "Route Table"},
	{KindInternetGateway, "AWS::EC2::InternetGateway", "internet-gateway", "Internet Gateway"},
	{KindNatGateway, "AWS::EC2::NatGateway", "nat-gateway", "NAT Gateway"},
	{KindSecurityGroup, "AWS::EC2::SecurityGroup", "security-group", "Security Group"},
	{KindVpcEndpoint, "AWS::EC2::VPCEndpoint", "vpc-endpoint", "VPC Endpoint"},
	{KindInstance, "AWS::EC2::Instance", "ec2", "EC2"},
	{KindEcsCluster, "AWS::ECS::Cluster", "ecs-cluster", "ECS Cluster"},
	{KindEcsService, "AWS::ECS::Service", "ecs-service", "ECS Service"},
	{KindEksCluster, "AWS::EKS::Cluster", "eks", "EKS"},
	{KindLambdaFunction, "AWS::Lambda::Function", "lambda", "Lambda"},
	{KindRdsInstance, "AWS::RDS::DBInstance", "rds", "RDS"},
	{KindDynamoTable, "AWS::DynamoDB::Table", "dynamodb", "DynamoDB"},
	{KindElastiCacheCluster, "AWS::ElastiCache::CacheCluster", "elasticache", "ElastiCache"},
	{KindS3Bucket, "AWS::S3::Bucket", "s3", "S3"},
	{KindEfs, "AWS::EFS::FileSystem", "efs", "EFS"},
	{KindLoadBalancer, "AWS::ElasticLoadBalancingV2::LoadBalancer", "load-balancer", "Load Balancer"},
	{KindListener, "AWS::ElasticLoadBalancingV2::Listener", "listener", "Listener"},
	{KindTargetGroup, "AWS::ElasticLoadBalancingV2::TargetGroup", "target-group", "Target Group"},
	{KindQueue, "AWS::SQS::Queue", "sqs", "SQS"},
	{KindTopic, "AWS::SNS::Topic", "sns", "SNS"},
	{KindIamRole, "AWS::IAM::Role", "iam-role", "IAM Role"},
	{KindLogGroup, "AWS::Logs::LogGroup", "cloudwatch-log-group", "Log Group"},
	{KindDistribution, "AWS::CloudFront::Distribution", "cloudfront", "CloudFront"},
	{KindRestApi, "AWS::ApiGateway::RestApi", "api-gateway", "API Gateway"},
	{KindEventRule, "AWS::Events::Rule", "eventbridge", "EventBridge Rule"},
}

var (
	kindIndex   = make(map[Kind]int, len(kindTable))
	cfnTypes    = make(map[string]Kind, len(kindTable))
	lowerKinds  = make(map[string]Kind, len(kindTable))
	dirsToKinds = make(map[string]Kind, len(kindTable))
)

func init() {
	for i, info := range kindTable {
		kindIndex[info.Kind] = i
		cfnTypes[info.CFNType] = info.Kind
		lowerKinds[strings.ToLower(string(info.Kind))] = info.Kind
		dirsToKinds[info.Dir] = info.Kind
	}
}

// Kinds returns every supported kind in canonical order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindTable))
	for _, info := range kindTable {
		kinds = append(kinds, info.Kind)
	}
	return kinds
}

func KindInfos() []KindInfo {
	out := make([]KindInfo, len(kindTable))
	copy(out, kindTable)
	return out
}

func (k Kind) Valid() bool {
	_, ok := kindIndex[k]
	return ok
}

// Order is the position of the kind in canonical order, or -1 for unknown kinds.
func (k Kind) Order() int {
	if i, ok := kindIndex[k]; ok {
		return i
	}
	return -1
}

func (k Kind) Info() KindInfo {
	if i, ok := kindIndex[k]; ok {
		return kindTable[i]
	}
	return KindInfo{Kind: k, Dir: strings.ToLower(string(k)), Label: string(k)}
}

func (k Kind) CFNType() string { return k.Info().CFNType }
func (k Kind) Dir() string     { return k.Info().Dir }
func (k Kind) Label() string   { return k.Info().Label }

// ParseKind accepts the kind name in any case, or its snapshot directory name.
func ParseKind(s string) (Kind, error) {
	if k, ok := lowerKinds[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	if k, ok := dirsToKinds[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown resource kind: %q", s)
}

func KindFromCFNType(t string) (Kind, bool) {
	k, ok := cfnTypes[t]
	return k, ok
}

// CompareKinds orders kinds canonically; unknown kinds sort last, by name.
func CompareKinds(a, b Kind) int {
	oa, ob := a.Order(), b.Order()
	if oa < 0 {
		oa = len(kindTable)
	}
	if ob < 0 {
		ob = len(kindTable)
	}
	switch {
	case oa != ob:
		return oa - ob
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
