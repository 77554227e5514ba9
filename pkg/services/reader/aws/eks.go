package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type eksAPI interface {
	eks.ListClustersAPIClient
	DescribeCluster(ctx context.Context, params *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
}

type eksReader struct {
	client eksAPI
	region string
}

func NewEKSReader(cfg awssdk.Config) Reader {
	return &eksReader{
		client: eks.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *eksReader) Service() string {
	return "eks"
}

func (r *eksReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindEksCluster}
}

func (r *eksReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var names []string
	p := eks.NewListClustersPaginator(r.client, &eks.ListClustersInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list EKS clusters: %w", err)
		}
		names = append(names, page.Clusters...)
	}

	out := make([]domain.Resource, 0, len(names))
	for _, name := range names {
		resp, err := r.client.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: awssdk.String(name)})
		if err != nil {
			return nil, fmt.Errorf("failed to describe EKS cluster %s: %w", name, err)
		}
		c := resp.Cluster
		if c == nil {
			continue
		}
		res := newResource(domain.KindEksCluster, awssdk.ToString(c.Arn), awssdk.ToString(c.Name), r.region)
		set(res, domain.AttrVersion, awssdk.ToString(c.Version))
		set(res, domain.AttrStatus, string(c.Status))
		set(res, domain.AttrRoleArn, awssdk.ToString(c.RoleArn))
		if vpc := c.ResourcesVpcConfig; vpc != nil {
			set(res, domain.AttrVpcID, awssdk.ToString(vpc.VpcId))
			set(res, domain.AttrSubnetIDs, append([]string(nil), vpc.SubnetIds...))
			groups := appendUnique(nil, vpc.SecurityGroupIds...)
			groups = appendUnique(groups, awssdk.ToString(vpc.ClusterSecurityGroupId))
			set(res, domain.AttrSecurityGroupIDs, groups)
		}
		out = append(out, res)
	}
	return out, nil
}
