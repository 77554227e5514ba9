package aws

import (
	"context"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEC2 struct {
	vpcs      []types.Vpc
	subnets   []types.Subnet
	rts       []types.RouteTable
	igws      []types.InternetGateway
	nats      []types.NatGateway
	sgs       []types.SecurityGroup
	endpoints []types.VpcEndpoint
	instances []types.Instance
	err       error
}

func (f *fakeEC2) DescribeVpcs(context.Context, *ec2.DescribeVpcsInput, ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	return &ec2.DescribeVpcsOutput{Vpcs: f.vpcs}, f.err
}

func (f *fakeEC2) DescribeSubnets(context.Context, *ec2.DescribeSubnetsInput, ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
	return &ec2.DescribeSubnetsOutput{Subnets: f.subnets}, nil
}

func (f *fakeEC2) DescribeRouteTables(context.Context, *ec2.DescribeRouteTablesInput, ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
	return &ec2.DescribeRouteTablesOutput{RouteTables: f.rts}, nil
}

func (f *fakeEC2) DescribeInternetGateways(context.Context, *ec2.DescribeInternetGatewaysInput, ...func(*ec2.Options)) (*ec2.DescribeInternetGatewaysOutput, error) {
	return &ec2.DescribeInternetGatewaysOutput{InternetGateways: f.igws}, nil
}

func (f *fakeEC2) DescribeNatGateways(context.Context, *ec2.DescribeNatGatewaysInput, ...func(*ec2.Options)) (*ec2.DescribeNatGatewaysOutput, error) {
	return &ec2.DescribeNatGatewaysOutput{NatGateways: f.nats}, nil
}

func (f *fakeEC2) DescribeSecurityGroups(context.Context, *ec2.DescribeSecurityGroupsInput, ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: f.sgs}, nil
}

func (f *fakeEC2) DescribeVpcEndpoints(context.Context, *ec2.DescribeVpcEndpointsInput, ...func(*ec2.Options)) (*ec2.DescribeVpcEndpointsOutput, error) {
	return &ec2.DescribeVpcEndpointsOutput{VpcEndpoints: f.endpoints}, nil
}

func (f *fakeEC2) DescribeInstances(context.Context, *ec2.DescribeInstancesInput, ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return &ec2.DescribeInstancesOutput{Reservations: []types.Reservation{{Instances: f.instances}}}, nil
}

func nameTags(name string) []types.Tag {
	return []types.Tag{{Key: awssdk.String("env"), Value: awssdk.String("prod")}, {Key: awssdk.String("Name"), Value: awssdk.String(name)}}
}

func byID(rs []domain.Resource) map[string]domain.Resource {
	out := make(map[string]domain.Resource, len(rs))
	for _, r := range rs {
		out[r.ID] = r
	}
	return out
}

func TestEC2Reader_Read(t *testing.T) {
	fake := &fakeEC2{
		vpcs: []types.Vpc{{VpcId: awssdk.String("vpc-1"), CidrBlock: awssdk.String("10.0.0.0/16"), Tags: nameTags("main")}},
		subnets: []types.Subnet{{
			SubnetId:            awssdk.String("subnet-1"),
			VpcId:               awssdk.String("vpc-1"),
			CidrBlock:           awssdk.String("10.0.1.0/24"),
			AvailabilityZone:    awssdk.String("ap-northeast-1a"),
			MapPublicIpOnLaunch: awssdk.Bool(true),
		}},
		rts: []types.RouteTable{{
			RouteTableId: awssdk.String("rtb-1"),
			VpcId:        awssdk.String("vpc-1"),
			Associations: []types.RouteTableAssociation{
				{Main: awssdk.Bool(true)},
				{SubnetId: awssdk.String("subnet-1")},
			},
			Routes: []types.Route{
				{GatewayId: awssdk.String("local")},
				{GatewayId: awssdk.String("igw-1")},
				{NatGatewayId: awssdk.String("nat-1")},
			},
		}},
		igws: []types.InternetGateway{{
			InternetGatewayId: awssdk.String("igw-1"),
			Attachments:       []types.InternetGatewayAttachment{{VpcId: awssdk.String("vpc-1"), State: types.AttachmentStatus("available")}},
		}},
		nats: []types.NatGateway{
			{NatGatewayId: awssdk.String("nat-1"), VpcId: awssdk.String("vpc-1"), SubnetId: awssdk.String("subnet-1"), State: types.NatGatewayStateAvailable},
			{NatGatewayId: awssdk.String("nat-old"), State: types.NatGatewayStateDeleted},
		},
		sgs: []types.SecurityGroup{{GroupId: awssdk.String("sg-1"), GroupName: awssdk.String("web"), VpcId: awssdk.String("vpc-1")}},
		endpoints: []types.VpcEndpoint{{
			VpcEndpointId:   awssdk.String("vpce-1"),
			VpcId:           awssdk.String("vpc-1"),
			VpcEndpointType: types.VpcEndpointTypeInterface,
			SubnetIds:       []string{"subnet-1"},
			Groups:          []types.SecurityGroupIdentifier{{GroupId: awssdk.String("sg-1")}},
		}},
		instances: []types.Instance{
			{
				InstanceId:     awssdk.String("i-1"),
				VpcId:          awssdk.String("vpc-1"),
				SubnetId:       awssdk.String("subnet-1"),
				InstanceType:   types.InstanceTypeT3Micro,
				State:          &types.InstanceState{Name: types.InstanceStateNameRunning},
				SecurityGroups: []types.GroupIdentifier{{GroupId: awssdk.String("sg-1")}},
				Tags:           nameTags("web-1"),
			},
			{InstanceId: awssdk.String("i-dead"), State: &types.InstanceState{Name: types.InstanceStateNameTerminated}},
		},
	}
	r := &ec2Reader{client: fake, region: "ap-northeast-1"}

	rs, err := r.Read(context.Background())
	require.NoError(t, err)
	got := byID(rs)
	assert.Len(t, rs, 8, "terminated instances and deleted NAT gateways are skipped")

	vpc := got["vpc-1"]
	assert.Equal(t, domain.KindVPC, vpc.Kind)
	assert.Equal(t, "main", vpc.Name)
	assert.Equal(t, "ap-northeast-1", vpc.Region)
	assert.Equal(t, "10.0.0.0/16", vpc.Str(domain.AttrCidrBlock))

	subnet := got["subnet-1"]
	assert.Equal(t, "vpc-1", subnet.Str(domain.AttrVpcID))
	assert.Equal(t, "ap-northeast-1a", subnet.Str(domain.AttrAvailabilityZone))
	assert.True(t, subnet.Bool(domain.AttrMapPublicIPOnLaunch))

	rt := got["rtb-1"]
	assert.True(t, rt.Bool(domain.AttrMain))
	assert.Equal(t, []string{"subnet-1"}, rt.Strings(domain.AttrSubnetIDs))
	assert.Equal(t, []string{"igw-1"}, rt.Strings(domain.AttrGatewayIDs))
	assert.Equal(t, []string{"nat-1"}, rt.Strings(domain.AttrNatGatewayIDs))

	assert.Equal(t, "vpc-1", got["igw-1"].Str(domain.AttrVpcID))
	assert.Equal(t, "subnet-1", got["nat-1"].Str(domain.AttrSubnetID))
	assert.Equal(t, "web", got["sg-1"].Name)
	assert.Equal(t, []string{"sg-1"}, got["vpce-1"].Strings(domain.AttrSecurityGroupIDs))
	assert.Equal(t, "Interface", got["vpce-1"].Str(domain.AttrEndpointType))

	inst := got["i-1"]
	assert.Equal(t, "web-1", inst.Name)
	assert.Equal(t, "subnet-1", inst.Str(domain.AttrSubnetID))
	assert.Equal(t, "t3.micro", inst.Str(domain.AttrInstanceType))
	assert.Equal(t, []string{"sg-1"}, inst.Strings(domain.AttrSecurityGroupIDs))
	_, ok := got["i-dead"]
	assert.False(t, ok)
}

func TestEC2Reader_Error(t *testing.T) {
	r := &ec2Reader{client: &fakeEC2{err: assert.AnError}}
	_, err := r.Read(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to describe VPCs")
}
