package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type elbv2API interface {
	elbv2.DescribeLoadBalancersAPIClient
	elbv2.DescribeListenersAPIClient
	elbv2.DescribeTargetGroupsAPIClient
	DescribeTargetHealth(ctx context.Context, params *elbv2.DescribeTargetHealthInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeTargetHealthOutput, error)
}

type elbv2Reader struct {
	client elbv2API
	region string
}

func NewELBv2Reader(cfg awssdk.Config) Reader {
	return &elbv2Reader{
		client: elbv2.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *elbv2Reader) Service() string {
	return "elbv2"
}

func (r *elbv2Reader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindLoadBalancer, domain.KindListener, domain.KindTargetGroup}
}

func (r *elbv2Reader) Read(ctx context.Context) ([]domain.Resource, error) {
	lbs, err := r.loadBalancers(ctx)
	if err != nil {
		return nil, err
	}
	out := append([]domain.Resource(nil), lbs...)

	for _, lb := range lbs {
		listeners, err := r.listeners(ctx, lb.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, listeners...)
	}

	tgs, err := r.targetGroups(ctx)
	if err != nil {
		return nil, err
	}
	return append(out, tgs...), nil
}

func (r *elbv2Reader) loadBalancers(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := elbv2.NewDescribeLoadBalancersPaginator(r.client, &elbv2.DescribeLoadBalancersInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe load balancers: %w", err)
		}
		for _, lb := range page.LoadBalancers {
			res := newResource(domain.KindLoadBalancer, awssdk.ToString(lb.LoadBalancerArn), awssdk.ToString(lb.LoadBalancerName), r.region)
			set(res, domain.AttrVpcID, awssdk.ToString(lb.VpcId))
			set(res, domain.AttrDNSName, awssdk.ToString(lb.DNSName))
			set(res, domain.AttrScheme, string(lb.Scheme))
			set(res, domain.AttrType, string(lb.Type))
			var subnets []string
			for _, az := range lb.AvailabilityZones {
				subnets = appendUnique(subnets, awssdk.ToString(az.SubnetId))
			}
			set(res, domain.AttrSubnetIDs, subnets)
			set(res, domain.AttrSecurityGroupIDs, append([]string(nil), lb.SecurityGroups...))
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *elbv2Reader) listeners(ctx context.Context, lbArn string) ([]domain.Resource, error) {
	var out []domain.Resource
	p := elbv2.NewDescribeListenersPaginator(r.client, &elbv2.DescribeListenersInput{
		LoadBalancerArn: awssdk.String(lbArn),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe listeners of %s: %w", lbArn, err)
		}
		for _, l := range page.Listeners {
			name := string(l.Protocol)
			if l.Port != nil {
				name = fmt.Sprintf("%s:%d", l.Protocol, *l.Port)
			}
			res := newResource(domain.KindListener, awssdk.ToString(l.ListenerArn), name, r.region)
			set(res, domain.AttrLoadBalancerArn, lbArn)
			set(res, domain.AttrProtocol, string(l.Protocol))
			if l.Port != nil {
				res.Attributes[domain.AttrPort] = int64(*l.Port)
			}
			var tgs []string
			for _, a := range l.DefaultActions {
				tgs = appendUnique(tgs, awssdk.ToString(a.TargetGroupArn))
				if a.ForwardConfig != nil {
					for _, tg := range a.ForwardConfig.TargetGroups {
						tgs = appendUnique(tgs, awssdk.ToString(tg.TargetGroupArn))
					}
				}
			}
			set(res, domain.AttrTargetGroupArns, tgs)
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *elbv2Reader) targetGroups(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := elbv2.NewDescribeTargetGroupsPaginator(r.client, &elbv2.DescribeTargetGroupsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe target groups: %w", err)
		}
		for _, tg := range page.TargetGroups {
			arn := awssdk.ToString(tg.TargetGroupArn)
			res := newResource(domain.KindTargetGroup, arn, awssdk.ToString(tg.TargetGroupName), r.region)
			set(res, domain.AttrVpcID, awssdk.ToString(tg.VpcId))
			set(res, domain.AttrProtocol, string(tg.Protocol))
			set(res, domain.AttrTargetType, string(tg.TargetType))
			if tg.Port != nil {
				res.Attributes[domain.AttrPort] = int64(*tg.Port)
			}
			set(res, domain.AttrLoadBalancerArns, append([]string(nil), tg.LoadBalancerArns...))

			health, err := r.client.DescribeTargetHealth(ctx, &elbv2.DescribeTargetHealthInput{
				TargetGroupArn: awssdk.String(arn),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to describe target health of %s: %w", arn, err)
			}
			var targets []string
			for _, h := range health.TargetHealthDescriptions {
				if h.Target != nil {
					targets = appendUnique(targets, awssdk.ToString(h.Target.Id))
				}
			}
			set(res, domain.AttrTargetIDs, targets)
			out = append(out, res)
		}
	}
	return out, nil
}
