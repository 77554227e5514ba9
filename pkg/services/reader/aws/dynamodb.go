package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type dynamodbAPI interface {
	dynamodb.ListTablesAPIClient
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type dynamodbReader struct {
	client dynamodbAPI
	region string
}

func NewDynamoDBReader(cfg awssdk.Config) Reader {
	return &dynamodbReader{
		client: dynamodb.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (r *dynamodbReader) Service() string {
	return "dynamodb"
}

func (r *dynamodbReader) Kinds() []domain.Kind {
	return []domain.Kind{domain.KindDynamoTable}
}

func (r *dynamodbReader) Read(ctx context.Context) ([]domain.Resource, error) {
	var names []string
	p := dynamodb.NewListTablesPaginator(r.client, &dynamodb.ListTablesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list DynamoDB tables: %w", err)
		}
		names = append(names, page.TableNames...)
	}

	out := make([]domain.Resource, 0, len(names))
	for _, name := range names {
		resp, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: awssdk.String(name)})
		if err != nil {
			return nil, fmt.Errorf("failed to describe DynamoDB table %s: %w", name, err)
		}
		t := resp.Table
		if t == nil {
			continue
		}
		res := newResource(domain.KindDynamoTable, awssdk.ToString(t.TableArn), awssdk.ToString(t.TableName), r.region)
		set(res, domain.AttrStatus, string(t.TableStatus))
		set(res, domain.AttrStreamArn, awssdk.ToString(t.LatestStreamArn))
		if t.BillingModeSummary != nil {
			set(res, domain.AttrBillingMode, string(t.BillingModeSummary.BillingMode))
		}
		out = append(out, res)
	}
	return out, nil
}
