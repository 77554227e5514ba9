package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type s3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
}

// s3Reader keeps only the buckets located in the configured region.
type s3Reader struct {
	client s3API
	region string
}

func NewS3Reader(cfg awssdk.Config) Reader {
	return &s3Reader{
		client: s3.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *s3Reader) Service() string {
	return "s3"
}

func (r *s3Reader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindS3Bucket}
}

func (r *s3Reader) Read(ctx context.Context) ([]domain.Resource, error) {
	resp, err := r.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 buckets: %w", err)
	}

	var out []domain.Resource
	for _, bucket := range resp.Buckets {
		name := awssdk.ToString(bucket.Name)
		locResp, err := r.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
			Bucket: bucket.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get location of bucket %s: %w", name, err)
		}
		region := bucketRegion(string(locResp.LocationConstraint))
		if r.region != "" && region != r.region {
			continue
		}

		arn := "arn:aws:s3:::" + name
		res := newResource(domain.KindS3Bucket, arn, name, region)
		set(res, domain.AttrARN, arn)
		if bucket.CreationDate != nil {
			set(res, domain.AttrCreationDate, bucket.CreationDate.UTC().Format("2006-01-02T15:04:05Z"))
		}
		out = append(out, res)
	}
	return out, nil
}

// bucketRegion maps a location constraint to a region name.
func bucketRegion(constraint string) string {
	switch constraint {
	case "":
		return "us-east-1"
	case "EU":
		return "eu-west-1"
	default:
		return constraint
	}
}
