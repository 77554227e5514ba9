package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/efs"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type efsAPI interface {
	efs.DescribeFileSystemsAPIClient
	DescribeMountTargets(ctx context.Context, params *efs.DescribeMountTargetsInput, optFns ...func(*efs.Options)) (*efs.DescribeMountTargetsOutput, error)
}

type efsReader struct {
	client efsAPI
	region string
}

func NewEFSReader(cfg awssdk.Config) Reader {
	return &efsReader{
		client: efs.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *efsReader) Service() string {
	return "efs"
}

func (r *efsReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindEfs}
}

func (r *efsReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := efs.NewDescribeFileSystemsPaginator(r.client, &efs.DescribeFileSystemsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe file systems: %w", err)
		}
		for _, fs := range page.FileSystems {
			id := awssdk.ToString(fs.FileSystemId)
			res := newResource(domain.KindEfs, id, awssdk.ToString(fs.Name), r.region)
			set(res, domain.AttrARN, awssdk.ToString(fs.FileSystemArn))
			set(res, domain.AttrPerformanceMode, string(fs.PerformanceMode))
			set(res, domain.AttrState, string(fs.LifeCycleState))
			res.Attributes[domain.AttrEncrypted] = awssdk.ToBool(fs.Encrypted)
			if fs.SizeInBytes != nil {
				res.Attributes[domain.AttrSizeBytes] = fs.SizeInBytes.Value
			}

			vpc, subnets, err := r.mountTargets(ctx, id)
			if err != nil {
				return nil, err
			}
			set(res, domain.AttrVpcID, vpc)
			set(res, domain.AttrSubnetIDs, subnets)
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *efsReader) mountTargets(ctx context.Context, fileSystemID string) (string, []string, error) {
	var (
		vpc     string
		subnets []string
		marker  *string
	)
	for {
		resp, err := r.client.DescribeMountTargets(ctx, &efs.DescribeMountTargetsInput{
			FileSystemId: awssdk.String(fileSystemID),
			Marker:       marker,
		})
		if err != nil {
			return "", nil, fmt.Errorf("failed to describe mount targets of %s: %w", fileSystemID, err)
		}
		for _, mt := range resp.MountTargets {
			if vpc == "" {
				vpc = awssdk.ToString(mt.VpcId)
			}
			subnets = appendUnique(subnets, awssdk.ToString(mt.SubnetId))
		}
		if resp.NextMarker == nil {
			return vpc, subnets, nil
		}
		marker = resp.NextMarker
	}
}
