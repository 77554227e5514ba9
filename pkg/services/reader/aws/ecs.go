package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type ecsAPI interface {
	ecs.ListClustersAPIClient
	ecs.ListServicesAPIClient
	DescribeClusters(ctx context.Context, params *ecs.DescribeClustersInput, optFns ...func(*ecs.Options)) (*ecs.DescribeClustersOutput, error)
	DescribeServices(ctx context.Context, params *ecs.DescribeServicesInput, optFns ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error)
}

type ecsReader struct {
	client ecsAPI
	region string
}

func NewECSReader(cfg awssdk.Config) Reader {
	return &ecsReader{
		client: ecs.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *ecsReader) Service() string {
	return "ecs"
}

func (r *ecsReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindEcsCluster, domain.KindEcsService}
}

func (r *ecsReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var arns []string
	p := ecs.NewListClustersPaginator(r.client, &ecs.ListClustersInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list ECS clusters: %w", err)
		}
		arns = append(arns, page.ClusterArns...)
	}

	var out []domain.Resource
	for _, batch := range chunk(arns, 100) {
		resp, err := r.client.DescribeClusters(ctx, &ecs.DescribeClustersInput{Clusters: batch})
		if err != nil {
			return nil, fmt.Errorf("failed to describe ECS clusters: %w", err)
		}
		for _, c := range resp.Clusters {
			res := newResource(domain.KindEcsCluster, awssdk.ToString(c.ClusterArn), awssdk.ToString(c.ClusterName), r.region)
			set(res, domain.AttrStatus, awssdk.ToString(c.Status))
			out = append(out, res)
		}
	}

	for _, cluster := range arns {
		services, err := r.services(ctx, cluster)
		if err != nil {
			return nil, err
		}
		out = append(out, services...)
	}
	return out, nil
}

func (r *ecsReader) services(ctx context.Context, cluster string) ([]domain.Resource, error) {
	var arns []string
	p := ecs.NewListServicesPaginator(r.client, &ecs.ListServicesInput{Cluster: awssdk.String(cluster)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list ECS services of %s: %w", cluster, err)
		}
		arns = append(arns, page.ServiceArns...)
	}

	var out []domain.Resource
	for _, batch := range chunk(arns, 10) {
		resp, err := r.client.DescribeServices(ctx, &ecs.DescribeServicesInput{
			Cluster:  awssdk.String(cluster),
			Services: batch,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe ECS services of %s: %w", cluster, err)
		}
		for _, s := range resp.Services {
			res := newResource(domain.KindEcsService, awssdk.ToString(s.ServiceArn), awssdk.ToString(s.ServiceName), r.region)
			clusterArn := awssdk.ToString(s.ClusterArn)
			if clusterArn == "" {
				clusterArn = cluster
			}
			set(res, domain.AttrClusterArn, clusterArn)
			set(res, domain.AttrStatus, awssdk.ToString(s.Status))
			set(res, domain.AttrLaunchType, string(s.LaunchType))
			set(res, domain.AttrRoleArn, awssdk.ToString(s.RoleArn))
			res.Attributes[domain.AttrDesiredCount] = int64(s.DesiredCount)
			if nc := s.NetworkConfiguration; nc != nil && nc.AwsvpcConfiguration != nil {
				set(res, domain.AttrSubnetIDs, append([]string(nil), nc.AwsvpcConfiguration.Subnets...))
				set(res, domain.AttrSecurityGroupIDs, append([]string(nil), nc.AwsvpcConfiguration.SecurityGroups...))
			}
			var tgs []string
			for _, lb := range s.LoadBalancers {
				tgs = appendUnique(tgs, awssdk.ToString(lb.TargetGroupArn))
			}
			set(res, domain.AttrTargetGroupArns, tgs)
			out = append(out, res)
		}
	}
	return out, nil
}
