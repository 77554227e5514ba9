package inference

import (
	"testing"

	"github.com/de-tools/aws-atlas/pkg/catalog"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func r(id string, kind domain.Kind, attrs map[string]any) domain.Resource {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return domain.Resource{ID: id, Kind: kind, Name: id, Attributes: attrs}
}

func build(t *testing.T, resources ...domain.Resource) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()
	for _, res := range resources {
		require.NoError(t, cat.Add(res))
	}
	return cat
}

func edge(from, to string, rel domain.RelationKind) domain.Edge {
	return domain.Edge{From: from, To: to, Relation: rel}
}

const (
	lbArn      = "arn:aws:elasticloadbalancing:ap-northeast-1:123:loadbalancer/app/web/1"
	tgArn      = "arn:aws:elasticloadbalancing:ap-northeast-1:123:targetgroup/web/2"
	queueArn   = "arn:aws:sqs:ap-northeast-1:123:jobs"
	topicArn   = "arn:aws:sns:ap-northeast-1:123:events"
	tableArn   = "arn:aws:dynamodb:ap-northeast-1:123:table/orders"
	fnArn      = "arn:aws:lambda:ap-northeast-1:123:function:worker"
	roleArn    = "arn:aws:iam::123:role/worker"
	clusterArn = "arn:aws:ecs:ap-northeast-1:123:cluster/main"
	serviceArn = "arn:aws:ecs:ap-northeast-1:123:service/main/api"
)

func TestInfer_NetworkContainment(t *testing.T) {
	cat := build(t,
		r("vpc-1", domain.KindVPC, nil),
		r("subnet-a", domain.KindSubnet, map[string]any{domain.AttrVpcID: "vpc-1"}),
		r("subnet-b", domain.KindSubnet, map[string]any{domain.AttrVpcID: "vpc-1"}),
		r("rtb-main", domain.KindRouteTable, map[string]any{domain.AttrVpcID: "vpc-1", domain.AttrMain: true}),
		r("rtb-pub", domain.KindRouteTable, map[string]any{
			domain.AttrVpcID:      "vpc-1",
			domain.AttrSubnetIDs:  []string{"subnet-a"},
			domain.AttrGatewayIDs: []string{"igw-1", "local"},
		}),
		r("igw-1", domain.KindInternetGateway, map[string]any{domain.AttrVpcID: "vpc-1"}),
		r("i-1", domain.KindInstance, map[string]any{
			domain.AttrVpcID:            "vpc-1",
			domain.AttrSubnetID:         "subnet-b",
			domain.AttrSecurityGroupIDs: []string{"sg-1"},
		}),
		r("sg-1", domain.KindSecurityGroup, map[string]any{domain.AttrVpcID: "vpc-1"}),
	)

	edges, warnings := New().Infer(cat)
	assert.Empty(t, warnings)

	for _, want := range []domain.Edge{
		edge("vpc-1", "subnet-a", domain.RelationContains),
		edge("vpc-1", "subnet-b", domain.RelationContains),
		edge("vpc-1", "rtb-main", domain.RelationContains),
		edge("vpc-1", "i-1", domain.RelationContains),
		edge("igw-1", "vpc-1", domain.RelationAttachedTo),
		edge("rtb-pub", "subnet-a", domain.RelationAttachedTo),
		edge("rtb-main", "subnet-b", domain.RelationAttachedTo),
		edge("rtb-pub", "igw-1", domain.RelationRoutesTo),
		edge("subnet-b", "i-1", domain.RelationContains),
		edge("i-1", "sg-1", domain.RelationAttachedTo),
	} {
		assert.True(t, edges.Has(want), "missing %s", want)
	}

	// the main route table does not claim explicitly associated subnets
	assert.False(t, edges.Has(edge("rtb-main", "subnet-a", domain.RelationAttachedTo)))
	assert.False(t, edges.Has(edge("subnet-a", "i-1", domain.RelationContains)))
}

func TestInfer_DanglingTargetGroupReference(t *testing.T) {
	cat := build(t,
		r(tgArn, domain.KindTargetGroup, map[string]any{
			domain.AttrLoadBalancerArns: []string{lbArn},
		}),
	)

	edges, warnings := New().Infer(cat)

	assert.Equal(t, 0, edges.Len())
	require.Len(t, warnings, 1)
	assert.Equal(t, Warning{
		Rule:      "LoadBalancer->TargetGroup",
		From:      tgArn,
		Attribute: domain.AttrLoadBalancerArns,
		Ref:       lbArn,
	}, warnings[0])
}

func TestInfer_LoadBalancing(t *testing.T) {
	listenerArn := "arn:aws:elasticloadbalancing:ap-northeast-1:123:listener/app/web/1/3"
	cat := build(t,
		r(lbArn, domain.KindLoadBalancer, map[string]any{domain.AttrDNSName: "web-1.elb.amazonaws.com"}),
		r(listenerArn, domain.KindListener, map[string]any{
			domain.AttrLoadBalancerArn: lbArn,
			domain.AttrTargetGroupArns: []string{tgArn},
		}),
		r(tgArn, domain.KindTargetGroup, map[string]any{
			domain.AttrLoadBalancerArns: []string{lbArn},
			domain.AttrTargetIDs:        []string{"i-1", fnArn, "10.0.0.4"},
		}),
		r("i-1", domain.KindInstance, nil),
		r(fnArn, domain.KindLambdaFunction, nil),
		r(clusterArn, domain.KindEcsCluster, nil),
		r(serviceArn, domain.KindEcsService, map[string]any{
			domain.AttrClusterArn:      clusterArn,
			domain.AttrTargetGroupArns: []string{tgArn},
		}),
		r("dist-1", domain.KindDistribution, map[string]any{
			domain.AttrOriginDomains: []string{"WEB-1.elb.amazonaws.com"},
		}),
	)

	edges, warnings := New().Infer(cat)
	assert.Empty(t, warnings)

	for _, want := range []domain.Edge{
		edge(lbArn, listenerArn, domain.RelationContains),
		edge(listenerArn, tgArn, domain.RelationRoutesTo),
		edge(lbArn, tgArn, domain.RelationRoutesTo),
		edge(tgArn, "i-1", domain.RelationTargets),
		edge(tgArn, fnArn, domain.RelationTargets),
		edge(tgArn, serviceArn, domain.RelationTargets),
		edge(clusterArn, serviceArn, domain.RelationContains),
		edge("dist-1", lbArn, domain.RelationRoutesTo),
	} {
		assert.True(t, edges.Has(want), "missing %s", want)
	}
}

func TestInfer_Triggers(t *testing.T) {
	cat := build(t,
		r(queueArn, domain.KindQueue, nil),
		r(topicArn, domain.KindTopic, map[string]any{
			domain.AttrSubscriptionEndpoints: []string{queueArn, "ops@example.com"},
		}),
		r(tableArn, domain.KindDynamoTable, nil),
		r(fnArn, domain.KindLambdaFunction, map[string]any{
			domain.AttrEventSourceArns: []string{
				queueArn,
				tableArn + "/stream/2024-01-01T00:00:00.000",
				"arn:aws:kinesis:ap-northeast-1:123:stream/clicks",
			},
			domain.AttrRoleArn: roleArn,
		}),
		r("rule-1", domain.KindEventRule, map[string]any{
			domain.AttrTargetArns: []string{fnArn, topicArn},
		}),
		r(roleArn, domain.KindIamRole, nil),
		domain.Resource{ID: "lg-1", Kind: domain.KindLogGroup, Name: "/aws/lambda/" + fnArn, Attributes: map[string]any{}},
	)

	edges, warnings := New().Infer(cat)
	assert.Empty(t, warnings)

	for _, want := range []domain.Edge{
		edge(queueArn, fnArn, domain.RelationTriggers),
		edge(tableArn, fnArn, domain.RelationTriggers),
		edge(topicArn, queueArn, domain.RelationTriggers),
		edge("rule-1", fnArn, domain.RelationTriggers),
		edge("rule-1", topicArn, domain.RelationTriggers),
		edge(fnArn, roleArn, domain.RelationAttachedTo),
		edge(fnArn, "lg-1", domain.RelationAttachedTo),
	} {
		assert.True(t, edges.Has(want), "missing %s", want)
	}
}

func TestInfer_Idempotent(t *testing.T) {
	cat := build(t,
		r("vpc-1", domain.KindVPC, nil),
		r("subnet-a", domain.KindSubnet, map[string]any{domain.AttrVpcID: "vpc-1"}),
		r("i-1", domain.KindInstance, map[string]any{domain.AttrSubnetID: "subnet-a", domain.AttrVpcID: "vpc-9"}),
	)

	inf := New()
	e1, w1 := inf.Infer(cat)
	e2, w2 := inf.Infer(cat)

	assert.Equal(t, e1.Edges(), e2.Edges())
	assert.Equal(t, w1, w2)
	require.Len(t, w1, 1)
	assert.Equal(t, "vpc-9", w1[0].Ref)
}

func TestInfer_OrderIndependent(t *testing.T) {
	resources := []domain.Resource{
		r("vpc-1", domain.KindVPC, nil),
		r("subnet-a", domain.KindSubnet, map[string]any{domain.AttrVpcID: "vpc-1"}),
		r("subnet-b", domain.KindSubnet, map[string]any{domain.AttrVpcID: "vpc-1"}),
		r("i-1", domain.KindInstance, map[string]any{domain.AttrSubnetID: "subnet-a"}),
		r(fnArn, domain.KindLambdaFunction, map[string]any{domain.AttrSubnetIDs: []string{"subnet-b", "subnet-a"}}),
	}
	reversed := make([]domain.Resource, len(resources))
	for i := range resources {
		reversed[len(resources)-1-i] = resources[i]
	}

	e1, _ := New().Infer(build(t, resources...))
	e2, _ := New().Infer(build(t, reversed...))

	assert.ElementsMatch(t, e1.Edges(), e2.Edges())
}

func TestEdgeSet(t *testing.T) {
	cat := build(t,
		r("a", domain.KindVPC, nil),
		r("b", domain.KindSubnet, nil),
		r("c", domain.KindInstance, nil),
	)
	s := NewEdgeSet(cat)

	assert.True(t, s.Add(edge("b", "c", domain.RelationContains)))
	assert.True(t, s.Add(edge("a", "c", domain.RelationContains)))
	assert.True(t, s.Add(edge("a", "b", domain.RelationContains)))
	assert.False(t, s.Add(edge("a", "b", domain.RelationContains)), "duplicate")
	assert.False(t, s.Add(edge("a", "missing", domain.RelationContains)), "unknown endpoint")
	assert.False(t, s.Add(edge("a", "a", domain.RelationContains)), "self loop")

	assert.Equal(t, []domain.Edge{
		edge("a", "b", domain.RelationContains),
		edge("a", "c", domain.RelationContains),
		edge("b", "c", domain.RelationContains),
	}, s.Edges())
	assert.Len(t, s.Outgoing("a"), 2)
	assert.Empty(t, s.Outgoing("a", domain.RelationTriggers))
	assert.Equal(t, []domain.Edge{
		edge("a", "c", domain.RelationContains),
		edge("b", "c", domain.RelationContains),
	}, s.Incoming("c", domain.RelationContains))
}

func TestARNService(t *testing.T) {
	assert.Equal(t, "sqs", ARNService(queueArn))
	assert.Equal(t, "", ARNService("i-123"))
	assert.Equal(t, "", ARNService("arn:aws"))
}

func TestInfer_QualifiedFunctionReferences(t *testing.T) {
	cat := build(t,
		r(fnArn, domain.KindLambdaFunction, nil),
		r(topicArn, domain.KindTopic, map[string]any{
			domain.AttrSubscriptionEndpoints: []string{fnArn + ":prod"},
		}),
		r("rule-1", domain.KindEventRule, map[string]any{
			domain.AttrTargetArns: []string{fnArn + ":live"},
		}),
		r(tgArn, domain.KindTargetGroup, map[string]any{
			domain.AttrTargetIDs: []string{fnArn + ":3"},
		}),
		r("api-1", domain.KindRestApi, map[string]any{
			domain.AttrIntegrationArns: []string{fnArn + ":live"},
		}),
	)

	edges, warnings := New().Infer(cat)
	assert.Empty(t, warnings)

	for _, want := range []domain.Edge{
		edge(topicArn, fnArn, domain.RelationTriggers),
		edge("rule-1", fnArn, domain.RelationTriggers),
		edge(tgArn, fnArn, domain.RelationTargets),
		edge("api-1", fnArn, domain.RelationRoutesTo),
	} {
		assert.True(t, edges.Has(want), "missing %s", want)
	}
}

func TestInfer_QualifiedReferenceToMissingFunction(t *testing.T) {
	other := "arn:aws:lambda:ap-northeast-1:123:function:other"
	cat := build(t,
		r(fnArn, domain.KindLambdaFunction, nil),
		r("rule-1", domain.KindEventRule, map[string]any{
			domain.AttrTargetArns: []string{other + ":live"},
		}),
	)

	edges, warnings := New().Infer(cat)
	assert.Equal(t, 0, edges.Len())
	require.Len(t, warnings, 1)
	assert.Equal(t, other, warnings[0].Ref)
}

func TestUnqualifiedFunctionARN(t *testing.T) {
	assert.Equal(t, fnArn, UnqualifiedFunctionARN(fnArn+":live"))
	assert.Equal(t, fnArn, UnqualifiedFunctionARN(fnArn+":12"))
	assert.Equal(t, fnArn, UnqualifiedFunctionARN(fnArn))
	assert.Equal(t, queueArn, UnqualifiedFunctionARN(queueArn))
}
