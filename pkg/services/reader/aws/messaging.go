package aws

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type sqsAPI interface {
	sqs.ListQueuesAPIClient
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

type sqsReader struct {
	client sqsAPI
	region string
}

func NewSQSReader(cfg awssdk.Config) Reader {
	return &sqsReader{
		client: sqs.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *sqsReader) Service() string {
	return "sqs"
}

func (r *sqsReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindQueue}
}

func (r *sqsReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := sqs.NewListQueuesPaginator(r.client, &sqs.ListQueuesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list SQS queues: %w", err)
		}
		for _, queueURL := range page.QueueUrls {
			attrs, err := r.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
				QueueUrl:       awssdk.String(queueURL),
				AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to get attributes of queue %s: %w", queueURL, err)
			}
			arn := attrs.Attributes[string(sqstypes.QueueAttributeNameQueueArn)]
			if arn == "" {
				arn = queueArnFromURL(queueURL, r.region)
			}
			name := queueURL[strings.LastIndex(queueURL, "/")+1:]
			res := newResource(domain.KindQueue, arn, name, r.region)
			set(res, domain.AttrQueueURL, queueURL)
			out = append(out, res)
		}
	}
	return out, nil
}

// queueArnFromURL derives the ARN from https://sqs.<region>.amazonaws.com/<account>/<name>.
func queueArnFromURL(queueURL, region string) string {
	u, err := url.Parse(queueURL)
	if err != nil {
		return queueURL
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 {
		return queueURL
	}
	return fmt.Sprintf("arn:aws:sqs:%s:%s:%s", region, parts[0], parts[1])
}

type snsAPI interface {
	sns.ListTopicsAPIClient
	sns.ListSubscriptionsAPIClient
}

type snsReader struct {
	client snsAPI
	region string
}

func NewSNSReader(cfg awssdk.Config) Reader {
	return &snsReader{
		client: sns.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *snsReader) Service() string {
	return "sns"
}

func (r *snsReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindTopic}
}

func (r *snsReader) Read(ctx context.Context) ([]domain.Resource, error) {
	endpoints := make(map[string][]string)
	sp := sns.NewListSubscriptionsPaginator(r.client, &sns.ListSubscriptionsInput{})
	for sp.HasMorePages() {
		page, err := sp.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list SNS subscriptions: %w", err)
		}
		for _, s := range page.Subscriptions {
			topic := awssdk.ToString(s.TopicArn)
			endpoints[topic] = appendUnique(endpoints[topic], unqualifiedFunctionArn(awssdk.ToString(s.Endpoint)))
		}
	}

	var out []domain.Resource
	p := sns.NewListTopicsPaginator(r.client, &sns.ListTopicsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list SNS topics: %w", err)
		}
		for _, t := range page.Topics {
			arn := awssdk.ToString(t.TopicArn)
			res := newResource(domain.KindTopic, arn, arn[strings.LastIndex(arn, ":")+1:], r.region)
			set(res, domain.AttrSubscriptionEndpoints, endpoints[arn])
			out = append(out, res)
		}
	}
	return out, nil
}

type eventbridgeAPI interface {
	ListRules(ctx context.Context, params *eventbridge.ListRulesInput, optFns ...func(*eventbridge.Options)) (*eventbridge.ListRulesOutput, error)
	ListTargetsByRule(ctx context.Context, params *eventbridge.ListTargetsByRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.ListTargetsByRuleOutput, error)
}

// eventbridgeReader reads rules of the default event bus.
type eventbridgeReader struct {
	client eventbridgeAPI
	region string
}

func NewEventBridgeReader(cfg awssdk.Config) Reader {
	return &eventbridgeReader{
		client: eventbridge.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *eventbridgeReader) Service() string {
	return "eventbridge"
}

func (r *eventbridgeReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindEventRule}
}

func (r *eventbridgeReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var (
		out   []domain.Resource
		token *string
	)
	for {
		resp, err := r.client.ListRules(ctx, &eventbridge.ListRulesInput{NextToken: token})
		if err != nil {
			return nil, fmt.Errorf("failed to list EventBridge rules: %w", err)
		}
		for _, rule := range resp.Rules {
			res := newResource(domain.KindEventRule, awssdk.ToString(rule.Arn), awssdk.ToString(rule.Name), r.region)
			set(res, domain.AttrEventBus, awssdk.ToString(rule.EventBusName))
			set(res, domain.AttrSchedule, awssdk.ToString(rule.ScheduleExpression))
			set(res, domain.AttrState, string(rule.State))

			targets, err := r.targets(ctx, rule.Name, rule.EventBusName)
			if err != nil {
				return nil, err
			}
			set(res, domain.AttrTargetArns, targets)
			out = append(out, res)
		}
		if resp.NextToken == nil {
			return out, nil
		}
		token = resp.NextToken
	}
}

func (r *eventbridgeReader) targets(ctx context.Context, rule, bus *string) ([]string, error) {
	var (
		out   []string
		token *string
	)
	for {
		resp, err := r.client.ListTargetsByRule(ctx, &eventbridge.ListTargetsByRuleInput{
			Rule:         rule,
			EventBusName: bus,
			NextToken:    token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list targets of rule %s: %w", awssdk.ToString(rule), err)
		}
		for _, t := range resp.Targets {
			out = appendUnique(out, unqualifiedFunctionArn(awssdk.ToString(t.Arn)))
		}
		if resp.NextToken == nil {
			return out, nil
		}
		token = resp.NextToken
	}
}
