package aws

import (
	"context"
	"fmt"
	"sort"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

const serviceRolePath = "/aws-service-role/"

type iamReader struct {
	client iam.ListRolesAPIClient
}

func NewIAMReader(cfg awssdk.Config) Reader {
	return &iamReader{
		client: iam.NewFromConfig(cfg),
	}
}

func (r *iamReader) Service() string {
	return "iam"
}

func (r *iamReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindIamRole}
}

func (r *iamReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := iam.NewListRolesPaginator(r.client, &iam.ListRolesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list IAM roles: %w", err)
		}
		for _, role := range page.Roles {
			path := awssdk.ToString(role.Path)
			if strings.HasPrefix(path, serviceRolePath) {
				continue
			}
			res := newResource(domain.KindIamRole, awssdk.ToString(role.Arn), awssdk.ToString(role.RoleName), GlobalRegion)
			set(res, domain.AttrPath, path)
			out = append(out, res)
		}
	}
	return out, nil
}

type logsReader struct {
	client cloudwatchlogs.DescribeLogGroupsAPIClient
	region string
}

func NewLogsReader(cfg awssdk.Config) Reader {
	return &logsReader{
		client: cloudwatchlogs.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *logsReader) Service() string {
	return "logs"
}

func (r *logsReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindLogGroup}
}

func (r *logsReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := cloudwatchlogs.NewDescribeLogGroupsPaginator(r.client, &cloudwatchlogs.DescribeLogGroupsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe log groups: %w", err)
		}
		for _, lg := range page.LogGroups {
			arn := strings.TrimSuffix(awssdk.ToString(lg.Arn), ":*")
			res := newResource(domain.KindLogGroup, arn, awssdk.ToString(lg.LogGroupName), r.region)
			if lg.RetentionInDays != nil {
				res.Attributes[domain.AttrRetentionDays] = int64(*lg.RetentionInDays)
			}
			out = append(out, res)
		}
	}
	return out, nil
}

type cloudfrontAPI interface {
	ListDistributions(ctx context.Context, params *cloudfront.ListDistributionsInput, optFns ...func(*cloudfront.Options)) (*cloudfront.ListDistributionsOutput, error)
}

type cloudfrontReader struct {
	client cloudfrontAPI
}

func NewCloudFrontReader(cfg awssdk.Config) Reader {
	return &cloudfrontReader{
		client: cloudfront.NewFromConfig(cfg),
	}
}

func (r *cloudfrontReader) Service() string {
	return "cloudfront"
}

func (r *cloudfrontReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindDistribution}
}

func (r *cloudfrontReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var (
		out    []domain.Resource
		marker *string
	)
	for {
		resp, err := r.client.ListDistributions(ctx, &cloudfront.ListDistributionsInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("failed to list CloudFront distributions: %w", err)
		}
		list := resp.DistributionList
		if list == nil {
			return out, nil
		}
		for _, d := range list.Items {
			res := newResource(domain.KindDistribution, awssdk.ToString(d.Id), awssdk.ToString(d.DomainName), GlobalRegion)
			set(res, domain.AttrARN, awssdk.ToString(d.ARN))
			set(res, domain.AttrDomainName, awssdk.ToString(d.DomainName))
			set(res, domain.AttrStatus, awssdk.ToString(d.Status))
			res.Attributes[domain.AttrEnabled] = awssdk.ToBool(d.Enabled)
			var origins []string
			if d.Origins != nil {
				for _, o := range d.Origins.Items {
					origins = appendUnique(origins, awssdk.ToString(o.DomainName))
				}
			}
			set(res, domain.AttrOriginDomains, origins)
			out = append(out, res)
		}
		if !awssdk.ToBool(list.IsTruncated) || list.NextMarker == nil {
			return out, nil
		}
		marker = list.NextMarker
	}
}

type apigatewayAPI interface {
	apigateway.GetRestApisAPIClient
	apigateway.GetResourcesAPIClient
}

type apigatewayReader struct {
	client apigatewayAPI
	region string
}

func NewAPIGatewayReader(cfg awssdk.Config) Reader {
	return &apigatewayReader{
		client: apigateway.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *apigatewayReader) Service() string {
	return "apigateway"
}

func (r *apigatewayReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindRestApi}
}

func (r *apigatewayReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	p := apigateway.NewGetRestApisPaginator(r.client, &apigateway.GetRestApisInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list REST APIs: %w", err)
		}
		for _, api := range page.Items {
			id := awssdk.ToString(api.Id)
			res := newResource(domain.KindRestApi, id, awssdk.ToString(api.Name), r.region)
			set(res, domain.AttrARN, fmt.Sprintf("arn:aws:apigateway:%s::/restapis/%s", r.region, id))

			integrations, err := r.integrations(ctx, id)
			if err != nil {
				return nil, err
			}
			set(res, domain.AttrIntegrationArns, integrations)
			out = append(out, res)
		}
	}
	return out, nil
}

// integrations lists the Lambda functions the API's methods invoke.
func (r *apigatewayReader) integrations(ctx context.Context, apiID string) ([]string, error) {
	var out []string
	p := apigateway.NewGetResourcesPaginator(r.client, &apigateway.GetResourcesInput{
		RestApiId: awssdk.String(apiID),
		Embed:     []string{"methods"},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get resources of REST API %s: %w", apiID, err)
		}
		for _, res := range page.Items {
			for _, m := range res.ResourceMethods {
				if m.MethodIntegration == nil {
					continue
				}
				if fn := integrationFunctionArn(awssdk.ToString(m.MethodIntegration.Uri)); fn != "" {
					out = appendUnique(out, fn)
				}
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// integrationFunctionArn extracts the function ARN from a Lambda proxy
// integration URI such as
// arn:aws:apigateway:<region>:lambda:path/2015-03-31/functions/<function-arn>/invocations.
func integrationFunctionArn(uri string) string {
	const start, end = "functions/", "/invocations"
	i := strings.Index(uri, start)
	if i < 0 {
		return ""
	}
	rest := uri[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return ""
	}
	return unqualifiedFunctionArn(rest[:j])
}
