package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type elasticacheAPI interface {
	elasticache.DescribeCacheClustersAPIClient
	elasticache.DescribeCacheSubnetGroupsAPIClient
}

type elasticacheReader struct {
	client elasticacheAPI
	region string
}

func NewElastiCacheReader(cfg awssdk.Config) Reader {
	return &elasticacheReader{
		client: elasticache.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *elasticacheReader) Service() string {
	return "elasticache"
}

func (r *elasticacheReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindElastiCacheCluster}
}

type cacheSubnetGroup struct {
	vpcID   string
	subnets []string
}

func (r *elasticacheReader) Read(ctx context.Context) ([]domain.Resource, error) {
	groups := make(map[string]cacheSubnetGroup)
	gp := elasticache.NewDescribeCacheSubnetGroupsPaginator(r.client, &elasticache.DescribeCacheSubnetGroupsInput{})
	for gp.HasMorePages() {
		page, err := gp.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe cache subnet groups: %w", err)
		}
		for _, g := range page.CacheSubnetGroups {
			var subnets []string
			for _, s := range g.Subnets {
				subnets = appendUnique(subnets, awssdk.ToString(s.SubnetIdentifier))
			}
			groups[awssdk.ToString(g.CacheSubnetGroupName)] = cacheSubnetGroup{
				vpcID:   awssdk.ToString(g.VpcId),
				subnets: subnets,
			}
		}
	}

	var out []domain.Resource
	p := elasticache.NewDescribeCacheClustersPaginator(r.client, &elasticache.DescribeCacheClustersInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe cache clusters: %w", err)
		}
		for _, c := range page.CacheClusters {
			id := awssdk.ToString(c.CacheClusterId)
			res := newResource(domain.KindElastiCacheCluster, id, id, r.region)
			set(res, domain.AttrARN, awssdk.ToString(c.ARN))
			set(res, domain.AttrEngine, awssdk.ToString(c.Engine))
			set(res, domain.AttrNodeType, awssdk.ToString(c.CacheNodeType))
			set(res, domain.AttrStatus, awssdk.ToString(c.CacheClusterStatus))
			set(res, domain.AttrAvailabilityZone, awssdk.ToString(c.PreferredAvailabilityZone))
			groupName := awssdk.ToString(c.CacheSubnetGroupName)
			set(res, domain.AttrSubnetGroup, groupName)
			if g, ok := groups[groupName]; ok {
				set(res, domain.AttrVpcID, g.vpcID)
				set(res, domain.AttrSubnetIDs, g.subnets)
			}
			var sgs []string
			for _, sg := range c.SecurityGroups {
				sgs = appendUnique(sgs, awssdk.ToString(sg.SecurityGroupId))
			}
			set(res, domain.AttrSecurityGroupIDs, sgs)
			out = append(out, res)
		}
	}
	return out, nil
}
