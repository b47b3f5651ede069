// Package dynamo provides a Store implementation backed by a single
// DynamoDB table.
//
// Table schema: partition key "pk" (S), sort key "sk" (S). The one global
// secondary index projects "gsi1pk" (S) / "gsi1sk" (S). Entity rows carry
// the JSON-encoded value in "val"; counter rows carry the number in "n".
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/learnhub/course-content/pkg/coursecontent"
)

// Config options for the DynamoDB store
type Config struct {
	Region          string // AWS region
	Table           string // Table name
	Index           string // GSI name (default: gsi1)
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint (DynamoDB Local, etc.)
}

// Store implements coursecontent.Store on a DynamoDB table.
type Store struct {
	client *dynamodb.Client
	table  string
	index  string
}

// record is the wire shape of one table row.
type record struct {
	PK     string `dynamodbav:"pk"`
	SK     string `dynamodbav:"sk"`
	GSI1PK string `dynamodbav:"gsi1pk,omitempty"`
	GSI1SK string `dynamodbav:"gsi1sk,omitempty"`
	Val    []byte `dynamodbav:"val,omitempty"`
	N      int64  `dynamodbav:"n,omitempty"`
}

// New creates a DynamoDB-backed store from config.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.Table == "" {
		return nil, errors.New("table name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	if config.Index == "" {
		config.Index = "gsi1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var options []func(*dynamodb.Options)
	if config.Endpoint != "" {
		options = append(options, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}

	return NewWithClient(dynamodb.NewFromConfig(awsCfg, options...), config.Table, config.Index), nil
}

// NewWithClient creates a store on an existing DynamoDB client.
func NewWithClient(client *dynamodb.Client, table, index string) *Store {
	return &Store{client: client, table: table, index: index}
}

func addressKey(partitionKey, sortKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: partitionKey},
		"sk": &types.AttributeValueMemberS{Value: sortKey},
	}
}

func toItem(attrs map[string]types.AttributeValue) (coursecontent.Item, error) {
	var rec record
	if err := attributevalue.UnmarshalMap(attrs, &rec); err != nil {
		return coursecontent.Item{}, fmt.Errorf("failed to unmarshal row: %w", err)
	}
	return coursecontent.Item{
		PartitionKey: rec.PK,
		SortKey:      rec.SK,
		IndexKey:     rec.GSI1PK,
		IndexSortKey: rec.GSI1SK,
		Value:        rec.Val,
	}, nil
}

func fromItem(item coursecontent.Item) (map[string]types.AttributeValue, error) {
	attrs, err := attributevalue.MarshalMap(record{
		PK:     item.PartitionKey,
		SK:     item.SortKey,
		GSI1PK: item.IndexKey,
		GSI1SK: item.IndexSortKey,
		Val:    item.Value,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal row: %w", err)
	}
	return attrs, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func (s *Store) Get(ctx context.Context, partitionKey, sortKey string) (*coursecontent.Item, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       addressKey(partitionKey, sortKey),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, coursecontent.ErrItemNotFound
	}

	item, err := toItem(out.Item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) PutIfAbsent(ctx context.Context, item coursecontent.Item) error {
	attrs, err := fromItem(item)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                attrs,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if isConditionFailed(err) {
		return coursecontent.ErrItemExists
	}
	if err != nil {
		return fmt.Errorf("dynamodb conditional put failed: %w", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, item coursecontent.Item) error {
	attrs, err := fromItem(item)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      attrs,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put failed: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, item coursecontent.Item) error {
	attrs, err := fromItem(item)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                attrs,
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if isConditionFailed(err) {
		return coursecontent.ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("dynamodb update failed: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, partitionKey, sortKey string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 addressKey(partitionKey, sortKey),
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if isConditionFailed(err) {
		return coursecontent.ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("dynamodb delete failed: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, partitionKey, sortKeyPrefix string) ([]coursecontent.Item, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: partitionKey},
			":prefix": &types.AttributeValueMemberS{Value: sortKeyPrefix},
		},
	}

	var result []coursecontent.Item
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamodb query failed: %w", err)
		}
		for _, attrs := range out.Items {
			item, err := toItem(attrs)
			if err != nil {
				return nil, err
			}
			result = append(result, item)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return result, nil
}

func (s *Store) QueryIndex(ctx context.Context, indexKey string) ([]coursecontent.Item, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(s.index),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: indexKey},
		},
	}

	var result []coursecontent.Item
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamodb index query failed: %w", err)
		}
		for _, attrs := range out.Items {
			item, err := toItem(attrs)
			if err != nil {
				return nil, err
			}
			result = append(result, item)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return result, nil
}

func (s *Store) Increment(ctx context.Context, partitionKey, sortKey string, delta int64) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.table),
		Key:                      addressKey(partitionKey, sortKey),
		UpdateExpression:         aws.String("ADD #n :delta"),
		ExpressionAttributeNames: map[string]string{"#n": "n"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", delta)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return 0, fmt.Errorf("dynamodb counter update failed: %w", err)
	}

	var rec struct {
		N int64 `dynamodbav:"n"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return 0, fmt.Errorf("failed to unmarshal counter: %w", err)
	}
	return rec.N, nil
}
