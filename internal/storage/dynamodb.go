package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/google/uuid"

	"github.com/accelrix/intern-service/internal/config"
	"github.com/accelrix/intern-service/internal/models"
)

// DynamoDBStorage implements Storage interface using AWS DynamoDB
type DynamoDBStorage struct {
	client        dynamodbiface.DynamoDBAPI
	tableName     string
	contactsTable string
}

// NewDynamoDBStorage creates a new DynamoDB storage instance
func NewDynamoDBStorage(ctx context.Context, cfg config.StorageConfig) (*DynamoDBStorage, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// For local testing with DynamoDB Local
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	storage := newDynamoDBStorage(dynamodb.New(sess), cfg.TableName)

	setupCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := storage.ensureTable(setupCtx, storage.tableName, models.FieldInternID); err != nil {
		return nil, fmt.Errorf("failed to ensure table exists: %w", err)
	}
	if err := storage.ensureTable(setupCtx, storage.contactsTable, "id"); err != nil {
		return nil, fmt.Errorf("failed to ensure contacts table exists: %w", err)
	}

	return storage, nil
}

func newDynamoDBStorage(client dynamodbiface.DynamoDBAPI, tableName string) *DynamoDBStorage {
	return &DynamoDBStorage{
		client:        client,
		tableName:     tableName,
		contactsTable: tableName + "_contacts",
	}
}

// ensureTable creates a table with a string hash key if it doesn't exist.
// Any describe failure other than a missing table is returned as is.
func (d *DynamoDBStorage) ensureTable(ctx context.Context, table, hashKey string) error {
	_, err := d.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err == nil {
		return nil
	}
	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != dynamodb.ErrCodeResourceNotFoundException {
		return fmt.Errorf("failed to describe table %s: %w", table, err)
	}

	_, err = d.client.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(hashKey),
				KeyType:       aws.String("HASH"),
			},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(hashKey),
				AttributeType: aws.String("S"),
			},
		},
		BillingMode: aws.String("PAY_PER_REQUEST"),
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	return d.client.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
}

// UpsertInterns issues one conditional UpdateItem per element. DynamoDB has
// no bulk upsert with per-item old values, so the batch is a sequence of
// atomic per-key writes that continues past element-level rejections.
func (d *DynamoDBStorage) UpsertInterns(ctx context.Context, upserts []models.InternUpsert) (*models.BulkResult, error) {
	result := &models.BulkResult{}
	now := time.Now().UTC()

	for _, u := range upserts {
		input, err := buildUpdateItemInput(d.tableName, u, now)
		if err != nil {
			result.Failures = append(result.Failures, models.ElementError{Index: u.Index, InternID: u.InternID, Message: err.Error()})
			continue
		}

		out, err := d.client.UpdateItemWithContext(ctx, input)
		if err != nil {
			if isElementError(err) {
				result.Failures = append(result.Failures, models.ElementError{Index: u.Index, InternID: u.InternID, Message: err.Error()})
				continue
			}
			return nil, fmt.Errorf("failed to upsert intern %s: %w", u.InternID, err)
		}

		if len(out.Attributes) == 0 {
			result.UpsertedCount++
			continue
		}

		result.MatchedCount++
		var before models.InternshipRecord
		if err := dynamodbattribute.UnmarshalMap(out.Attributes, &before); err != nil {
			return nil, fmt.Errorf("failed to unmarshal previous intern %s: %w", u.InternID, err)
		}
		if before.Apply(u.Set) {
			result.ModifiedCount++
		}
	}

	return result, nil
}

// buildUpdateItemInput turns one upsert into a SET expression. createdAt is
// only written when the item has none.
func buildUpdateItemInput(table string, u models.InternUpsert, now time.Time) (*dynamodb.UpdateItemInput, error) {
	names := map[string]*string{"#createdAt": aws.String(models.FieldCreatedAt)}
	values := map[string]*dynamodb.AttributeValue{}

	createdAt, err := dynamodbattribute.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal createdAt: %w", err)
	}
	values[":createdAt"] = createdAt

	clauses := make([]string, 0, len(u.Set)+1)
	for i, f := range u.Set {
		name := "#f" + strconv.Itoa(i)
		value := ":v" + strconv.Itoa(i)

		av, err := dynamodbattribute.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", f.Field, err)
		}
		names[name] = aws.String(f.Field)
		values[value] = av
		clauses = append(clauses, name+" = "+value)
	}
	clauses = append(clauses, "#createdAt = if_not_exists(#createdAt, :createdAt)")

	return &dynamodb.UpdateItemInput{
		TableName: aws.String(table),
		Key: map[string]*dynamodb.AttributeValue{
			models.FieldInternID: {S: aws.String(u.InternID)},
		},
		UpdateExpression:          aws.String("SET " + strings.Join(clauses, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              aws.String(dynamodb.ReturnValueAllOld),
	}, nil
}

// isElementError reports whether DynamoDB rejected the item itself rather
// than the request failing.
func isElementError(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case "ValidationException", dynamodb.ErrCodeConditionalCheckFailedException, dynamodb.ErrCodeItemCollectionSizeLimitExceededException:
		return true
	}
	return false
}

// GetInternByID retrieves a specific record by internId
func (d *DynamoDBStorage) GetInternByID(ctx context.Context, internID string) (*models.InternshipRecord, error) {
	result, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			models.FieldInternID: {S: aws.String(internID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get intern %s: %w", internID, err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var rec models.InternshipRecord
	if err := dynamodbattribute.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intern: %w", err)
	}

	return &rec, nil
}

// SaveContact stores a contact message under a generated id
func (d *DynamoDBStorage) SaveContact(ctx context.Context, msg models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	item, err := dynamodbattribute.MarshalMap(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal contact message: %w", err)
	}

	_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.contactsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}

// Ping describes the intern table
func (d *DynamoDBStorage) Ping(ctx context.Context) error {
	_, err := d.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
	return err
}

// Close closes the DynamoDB connection
func (d *DynamoDBStorage) Close() error {
	// DynamoDB client doesn't need explicit closing
	return nil
}
