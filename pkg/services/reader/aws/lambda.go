package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type lambdaAPI interface {
	lambda.ListFunctionsAPIClient
	lambda.ListEventSourceMappingsAPIClient
}

type lambdaReader struct {
	client lambdaAPI
	region string
}

func NewLambdaReader(cfg awssdk.Config) Reader {
	return &lambdaReader{
		client: lambda.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *lambdaReader) Service() string {
	return "lambda"
}

func (r *lambdaReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindLambdaFunction}
}

func (r *lambdaReader) Read(ctx context.Context) ([]domain.Resource, error) {
	sources, err := r.eventSources(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.Resource
	p := lambda.NewListFunctionsPaginator(r.client, &lambda.ListFunctionsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list Lambda functions: %w", err)
		}
		for _, fn := range page.Functions {
			arn := awssdk.ToString(fn.FunctionArn)
			res := newResource(domain.KindLambdaFunction, arn, awssdk.ToString(fn.FunctionName), r.region)
			set(res, domain.AttrRuntime, string(fn.Runtime))
			set(res, domain.AttrHandler, awssdk.ToString(fn.Handler))
			set(res, domain.AttrRoleArn, awssdk.ToString(fn.Role))
			if vpc := fn.VpcConfig; vpc != nil {
				set(res, domain.AttrVpcID, awssdk.ToString(vpc.VpcId))
				set(res, domain.AttrSubnetIDs, append([]string(nil), vpc.SubnetIds...))
				set(res, domain.AttrSecurityGroupIDs, append([]string(nil), vpc.SecurityGroupIds...))
			}
			set(res, domain.AttrEventSourceArns, sources[arn])
			out = append(out, res)
		}
	}
	return out, nil
}

// eventSources groups event source ARNs by unqualified function ARN.
func (r *lambdaReader) eventSources(ctx context.Context) (map[string][]string, error) {
	sources := make(map[string][]string)
	p := lambda.NewListEventSourceMappingsPaginator(r.client, &lambda.ListEventSourceMappingsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list event source mappings: %w", err)
		}
		for _, m := range page.EventSourceMappings {
			fn := unqualifiedFunctionArn(awssdk.ToString(m.FunctionArn))
			sources[fn] = appendUnique(sources[fn], awssdk.ToString(m.EventSourceArn))
		}
	}
	return sources, nil
}
