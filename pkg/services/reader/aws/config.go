package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const (
	DefaultRegion = "ap-northeast-1" // Region used when neither flag nor profile sets one
)

func LoadConfig(ctx context.Context, profile, region string) (*awssdk.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithDefaultRegion(DefaultRegion),
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	// Test the credentials
	if _, err = awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("invalid AWS credentials for profile %q: %w", profile, err)
	}

	return &awsCfg, nil
}

type callerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// AccountID returns the account the credentials belong to.
func AccountID(ctx context.Context, client callerIdentityAPI) (string, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %w", err)
	}
	return awssdk.ToString(out.Account), nil
}

// NewReaders builds one reader per supported service.
func NewReaders(cfg awssdk.Config) []Reader {
	return []Reader{
		NewEC2Reader(cfg),
		NewECSReader(cfg),
		NewEKSReader(cfg),
		NewLambdaReader(cfg),
		NewRDSReader(cfg),
		NewDynamoDBReader(cfg),
		NewElastiCacheReader(cfg),
		NewS3Reader(cfg),
		NewEFSReader(cfg),
		NewELBv2Reader(cfg),
		NewSQSReader(cfg),
		NewSNSReader(cfg),
		NewIAMReader(cfg),
		NewLogsReader(cfg),
		NewCloudFrontReader(cfg),
		NewAPIGatewayReader(cfg),
		NewEventBridgeReader(cfg),
	}
}

// ControllerFactory loads the SDK config and registers every reader.
func ControllerFactory(ctx context.Context, profile, region string, concurrency int) (*Controller, *awssdk.Config, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := NewController(concurrency, NewReaders(*cfg)...)
	if err != nil {
		return nil, nil, err
	}
	return ctrl, cfg, nil
}

// SupportedServices lists the service names NewReaders registers.
func SupportedServices() []string {
	return []string{
		"apigateway", "cloudfront", "dynamodb", "ec2", "ecs", "efs", "eks", "elasticache",
		"elbv2", "eventbridge", "iam", "lambda", "logs", "rds", "s3", "sns", "sqs",
	}
}
