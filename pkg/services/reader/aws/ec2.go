package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type ec2API interface {
	ec2.DescribeVpcsAPIClient
	ec2.DescribeSubnetsAPIClient
	ec2.DescribeRouteTablesAPIClient
	ec2.DescribeInternetGatewaysAPIClient
	ec2.DescribeNatGatewaysAPIClient
	ec2.DescribeSecurityGroupsAPIClient
	ec2.DescribeVpcEndpointsAPIClient
	ec2.DescribeInstancesAPIClient
}

type ec2Reader struct {
	client ec2API
	region string
}

func NewEC2Reader(cfg awssdk.Config) Reader {
	return &ec2Reader{
		client: ec2.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *ec2Reader) Service() string {
	return "ec2"
}

func (r *ec2Reader) Kinds() []domain.Kind {
	return []domain.Kind{
		domain.KindVPC,
		domain.KindSubnet,
		domain.KindRouteTable,
		domain.KindInternetGateway,
		domain.KindNatGateway,
		domain.KindSecurityGroup,
		domain.KindVpcEndpoint,
		domain.KindInstance,
	}
}

func (r *ec2Reader) Read(ctx context.Context) ([]domain.Resource, error) {
	steps := []struct {
		what string
		fn   func(context.Context) ([]domain.Resource, error)
	}{
		{"VPCs", r.vpcs},
		{"subnets", r.subnets},
		{"route tables", r.routeTables},
		{"internet gateways", r.internetGateways},
		{"NAT gateways", r.natGateways},
		{"security groups", r.securityGroups},
		{"VPC endpoints", r.vpcEndpoints},
		{"instances", r.instances},
	}

	var out []domain.Resource
	for _, s := range steps {
		rs, err := s.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe %s: %w", s.what, err)
		}
		out = append(out, rs...)
	}
	return out, nil
}

func (r *ec2Reader) vpcs(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := ec2.NewDescribeVpcsPaginator(r.client, &ec2.DescribeVpcsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, v := range page.Vpcs {
			res := newResource(domain.KindVPC, awssdk.ToString(v.VpcId), nameTag(v.Tags), r.region)
			set(res, domain.AttrCidrBlock, awssdk.ToString(v.CidrBlock))
			set(res, domain.AttrState, string(v.State))
			res.Attributes[domain.AttrIsDefault] = awssdk.ToBool(v.IsDefault)
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *ec2Reader) subnets(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := ec2.NewDescribeSubnetsPaginator(r.client, &ec2.DescribeSubnetsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range page.Subnets {
			res := newResource(domain.KindSubnet, awssdk.ToString(s.SubnetId), nameTag(s.Tags), r.region)
			set(res, domain.AttrARN, awssdk.ToString(s.SubnetArn))
			set(res, domain.AttrVpcID, awssdk.ToString(s.VpcId))
			set(res, domain.AttrCidrBlock, awssdk.ToString(s.CidrBlock))
			set(res, domain.AttrAvailabilityZone, awssdk.ToString(s.AvailabilityZone))
			res.Attributes[domain.AttrMapPublicIPOnLaunch] = awssdk.ToBool(s.MapPublicIpOnLaunch)
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *ec2Reader) routeTables(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := ec2.NewDescribeRouteTablesPaginator(r.client, &ec2.DescribeRouteTablesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, rt := range page.RouteTables {
			res := newResource(domain.KindRouteTable, awssdk.ToString(rt.RouteTableId), nameTag(rt.Tags), r.region)
			set(res, domain.AttrVpcID, awssdk.ToString(rt.VpcId))

			isMain := false
			var subnets, gateways, nats []string
			for _, a := range rt.Associations {
				if awssdk.ToBool(a.Main) {
					isMain = true
				}
				subnets = appendUnique(subnets, awssdk.ToString(a.SubnetId))
			}
			for _, route := range rt.Routes {
				if gw := awssdk.ToString(route.GatewayId); gw != "" && gw != "local" {
					gateways = appendUnique(gateways, gw)
				}
				nats = appendUnique(nats, awssdk.ToString(route.NatGatewayId))
			}
			res.Attributes[domain.AttrMain] = isMain
			set(res, domain.AttrSubnetIDs, subnets)
			set(res, domain.AttrGatewayIDs, gateways)
			set(res, domain.AttrNatGatewayIDs, nats)
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *ec2Reader) internetGateways(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := ec2.NewDescribeInternetGatewaysPaginator(r.client, &ec2.DescribeInternetGatewaysInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, igw := range page.InternetGateways {
			res := newResource(domain.KindInternetGateway, awssdk.ToString(igw.InternetGatewayId), nameTag(igw.Tags), r.region)
			for _, a := range igw.Attachments {
				// IGW attachments report "available" once attached.
				if a.State == types.AttachmentStatusAttached || string(a.State) == "available" {
					set(res, domain.AttrVpcID, awssdk.ToString(a.VpcId))
					break
				}
			}
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *ec2Reader) natGateways(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := ec2.NewDescribeNatGatewaysPaginator(r.client, &ec2.DescribeNatGatewaysInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, nat := range page.NatGateways {
			if nat.State != types.NatGatewayStateAvailable {
				continue
			}
			res := newResource(domain.KindNatGateway, awssdk.ToString(nat.NatGatewayId), nameTag(nat.Tags), r.region)
			set(res, domain.AttrVpcID, awssdk.ToString(nat.VpcId))
			set(res, domain.AttrSubnetID, awssdk.ToString(nat.SubnetId))
			set(res, domain.AttrType, string(nat.ConnectivityType))
			set(res, domain.AttrState, string(nat.State))
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *ec2Reader) securityGroups(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := ec2.NewDescribeSecurityGroupsPaginator(r.client, &ec2.DescribeSecurityGroupsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, sg := range page.SecurityGroups {
			name := nameTag(sg.Tags)
			if name == "" {
				name = awssdk.ToString(sg.GroupName)
			}
			res := newResource(domain.KindSecurityGroup, awssdk.ToString(sg.GroupId), name, r.region)
			set(res, domain.AttrARN, awssdk.ToString(sg.SecurityGroupArn))
			set(res, domain.AttrVpcID, awssdk.ToString(sg.VpcId))
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *ec2Reader) vpcEndpoints(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := ec2.NewDescribeVpcEndpointsPaginator(r.client, &ec2.DescribeVpcEndpointsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, ep := range page.VpcEndpoints {
			res := newResource(domain.KindVpcEndpoint, awssdk.ToString(ep.VpcEndpointId), nameTag(ep.Tags), r.region)
			set(res, domain.AttrVpcID, awssdk.ToString(ep.VpcId))
			set(res, domain.AttrServiceName, awssdk.ToString(ep.ServiceName))
			set(res, domain.AttrEndpointType, string(ep.VpcEndpointType))
			set(res, domain.AttrState, string(ep.State))
			set(res, domain.AttrSubnetIDs, append([]string(nil), ep.SubnetIds...))
			set(res, domain.AttrRouteTableIDs, append([]string(nil), ep.RouteTableIds...))
			var groups []string
			for _, g := range ep.Groups {
				groups = appendUnique(groups, awssdk.ToString(g.GroupId))
			}
			set(res, domain.AttrSecurityGroupIDs, groups)
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *ec2Reader) instances(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := ec2.NewDescribeInstancesPaginator(r.client, &ec2.DescribeInstancesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				state := types.InstanceStateName("")
				if inst.State != nil {
					state = inst.State.Name
				}
				if state == types.InstanceStateNameTerminated || state == types.InstanceStateNameShuttingDown {
					continue
				}
				res := newResource(domain.KindInstance, awssdk.ToString(inst.InstanceId), nameTag(inst.Tags), r.region)
				set(res, domain.AttrVpcID, awssdk.ToString(inst.VpcId))
				set(res, domain.AttrSubnetID, awssdk.ToString(inst.SubnetId))
				set(res, domain.AttrInstanceType, string(inst.InstanceType))
				set(res, domain.AttrImageID, awssdk.ToString(inst.ImageId))
				set(res, domain.AttrPrivateIP, awssdk.ToString(inst.PrivateIpAddress))
				set(res, domain.AttrState, string(state))
				if inst.Placement != nil {
					set(res, domain.AttrAvailabilityZone, awssdk.ToString(inst.Placement.AvailabilityZone))
				}
				var groups []string
				for _, g := range inst.SecurityGroups {
					groups = appendUnique(groups, awssdk.ToString(g.GroupId))
				}
				set(res, domain.AttrSecurityGroupIDs, groups)
				out = append(out, res)
			}
		}
	}
	return out, nil
}

func nameTag(tags []types.Tag) string {
	for _, t := range tags {
		if awssdk.ToString(t.Key) == "Name" {
			return awssdk.ToString(t.Value)
		}
	}
	return ""
}
