// Package sample builds a small planned diagram for emitter tests.
package sample

import (
	"fmt"

	"github.com/de-tools/aws-atlas/pkg/catalog"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/services/inference"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
)

const (
	QueueArn  = "arn:aws:sqs:ap-northeast-1:123456789012:jobs"
	LambdaArn = "arn:aws:lambda:ap-northeast-1:123456789012:function:worker"
	BucketArn = "arn:aws:s3:::assets"
)

// Resources is a VPC with a public and a private subnet, six instances, a
// queue-triggered function and a bucket.
func Resources() []domain.Resource {
	rs := []domain.Resource{
		{ID: "vpc-1", Kind: domain.KindVPC, Name: "main", Attributes: map[string]any{
			domain.AttrCidrBlock: "10.0.0.0/16",
		}},
		{ID: "subnet-pub", Kind: domain.KindSubnet, Name: "public-a", Attributes: map[string]any{
			domain.AttrVpcID:            "vpc-1",
			domain.AttrCidrBlock:        "10.0.0.0/24",
			domain.AttrAvailabilityZone: "ap-northeast-1a",
		}},
		{ID: "subnet-priv", Kind: domain.KindSubnet, Name: "private-a", Attributes: map[string]any{
			domain.AttrVpcID:            "vpc-1",
			domain.AttrCidrBlock:        "10.0.1.0/24",
			domain.AttrAvailabilityZone: "ap-northeast-1a",
		}},
		{ID: "igw-1", Kind: domain.KindInternetGateway, Attributes: map[string]any{
			domain.AttrVpcID: "vpc-1",
		}},
		{ID: "rtb-1", Kind: domain.KindRouteTable, Attributes: map[string]any{
			domain.AttrVpcID:      "vpc-1",
			domain.AttrSubnetIDs:  []string{"subnet-pub"},
			domain.AttrGatewayIDs: []string{"igw-1"},
		}},
	}
	for i := 0; i < 6; i++ {
		rs = append(rs, domain.Resource{
			ID:   fmt.Sprintf("i-%d", i),
			Kind: domain.KindInstance,
			Name: fmt.Sprintf("web-%d", i),
			Attributes: map[string]any{
				domain.AttrVpcID:    "vpc-1",
				domain.AttrSubnetID: "subnet-priv",
			},
		})
	}
	rs = append(rs,
		domain.Resource{ID: LambdaArn, Kind: domain.KindLambdaFunction, Name: "worker", Attributes: map[string]any{
			domain.AttrSubnetIDs:       []string{"subnet-priv"},
			domain.AttrEventSourceArns: []string{QueueArn},
		}},
		domain.Resource{ID: QueueArn, Kind: domain.KindQueue, Name: "jobs", Attributes: map[string]any{}},
		domain.Resource{ID: BucketArn, Kind: domain.KindS3Bucket, Name: "assets <prod>", Attributes: map[string]any{}},
	)
	return rs
}

// Diagram plans Resources with the default policy.
func Diagram() (*layout.Diagram, error) {
	cat := catalog.New()
	for _, r := range Resources() {
		if err := cat.Add(r); err != nil {
			return nil, err
		}
	}
	edges, _ := inference.New().Infer(cat)
	forest := layout.NewPlanner(layout.DefaultPolicy()).Plan(cat, edges)
	return layout.NewDiagram("sample", forest, edges), nil
}
