package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type rdsReader struct {
	client rds.DescribeDBInstancesAPIClient
	region string
}

func NewRDSReader(cfg awssdk.Config) Reader {
	return &rdsReader{
		client: rds.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *rdsReader) Service() string {
	return "rds"
}

func (r *rdsReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindRdsInstance}
}

func (r *rdsReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := rds.NewDescribeDBInstancesPaginator(r.client, &rds.DescribeDBInstancesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe DB instances: %w", err)
		}
		for _, db := range page.DBInstances {
			id := awssdk.ToString(db.DBInstanceIdentifier)
			res := newResource(domain.KindRdsInstance, id, id, r.region)
			set(res, domain.AttrARN, awssdk.ToString(db.DBInstanceArn))
			set(res, domain.AttrEngine, awssdk.ToString(db.Engine))
			set(res, domain.AttrInstanceClass, awssdk.ToString(db.DBInstanceClass))
			set(res, domain.AttrStatus, awssdk.ToString(db.DBInstanceStatus))
			set(res, domain.AttrAvailabilityZone, awssdk.ToString(db.AvailabilityZone))
			if sg := db.DBSubnetGroup; sg != nil {
				set(res, domain.AttrSubnetGroup, awssdk.ToString(sg.DBSubnetGroupName))
				set(res, domain.AttrVpcID, awssdk.ToString(sg.VpcId))
				var subnets []string
				for _, s := range sg.Subnets {
					subnets = appendUnique(subnets, awssdk.ToString(s.SubnetIdentifier))
				}
				set(res, domain.AttrSubnetIDs, subnets)
			}
			var groups []string
			for _, g := range db.VpcSecurityGroups {
				groups = appendUnique(groups, awssdk.ToString(g.VpcSecurityGroupId))
			}
			set(res, domain.AttrSecurityGroupIDs, groups)
			out = append(out, res)
		}
	}
	return out, nil
}
