package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/zlnvch/daybook/store"
)

func newDynamoDBClient(ctx context.Context, devMode bool, dynamodbEndpoint string) (*dynamodb.Client, error) {
	var cfg aws.Config
	var err error

	if devMode {
		// Load config with dummy credentials and region for local/dev
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion("us-east-1"),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("dummy", "dummy", ""),
			),
		)
		if err != nil {
			return nil, err
		}

		// Override endpoint for DynamoDB locally
		return dynamodb.New(dynamodb.Options{
			Credentials:      cfg.Credentials,
			Region:           cfg.Region,
			EndpointResolver: dynamodb.EndpointResolverFromURL(dynamodbEndpoint),
		}), nil
	}

	// Production/Fargate: default config (uses Task Role and AWS endpoints)
	cfg, err = config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(cfg), nil
}

func getTables(client *dynamodb.Client, ctx context.Context) ([]string, error) {
	output, err := client.ListTables(ctx, &dynamodb.ListTablesInput{})
	if err != nil {
		return nil, err
	}

	return output.TableNames, nil
}

func keyOf(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// getItem retrieves an item of type T by PK and SK.
func getItem[T any](s *DynamoDaybookStore, ctx context.Context, pk string, sk string, consistentRead bool) (T, error) {
	var zero T

	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            keyOf(pk, sk),
		ConsistentRead: aws.Bool(consistentRead),
	})
	if err != nil {
		return zero, fmt.Errorf("GetItem failed: %w", err)
	}
	if resp.Item == nil {
		return zero, store.ErrItemNotFound
	}

	var item T
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return zero, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return item, nil
}

// putItemIfAbsent inserts the item only if its PK+SK is not taken.
// An existing item fails with store.ErrItemExists.
func putItemIfAbsent[T any](s *DynamoDaybookStore, ctx context.Context, item T) error {
	avMap, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if _, ok := avMap["PK"]; !ok {
		return errors.New("struct missing PK field")
	}
	if _, ok := avMap["SK"]; !ok {
		return errors.New("struct missing SK field")
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                avMap,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return store.ErrItemExists
		}
		return fmt.Errorf("failed to put item: %w", err)
	}

	return nil
}

// getByDocId looks an item up through the GSI_DocId index by its public
// document id.
func getByDocId[T any](s *DynamoDaybookStore, ctx context.Context, docId string) (T, error) {
	var zero T

	resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(gsiDocId),
		KeyConditionExpression: aws.String("DocId = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: docId},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return zero, fmt.Errorf("query GSI_DocId failed: %w", err)
	}
	if len(resp.Items) == 0 {
		return zero, store.ErrItemNotFound
	}

	var item T
	if err := attributevalue.UnmarshalMap(resp.Items[0], &item); err != nil {
		return zero, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return item, nil
}

// querySortRange returns up to limit items with the given PK whose SK is
// in [skLow, skHigh], resuming strictly after startAfter when set.
// Descending order serves the newest-first list endpoints.
// The optional filterExpr narrows results server-side after the key
// condition; its placeholder values come from filterValues. Filtered
// pages may return fewer than limit items per query page, so the
// paginator keeps reading until limit items are collected or the range
// is exhausted.
func querySortRange[T any](
	s *DynamoDaybookStore,
	ctx context.Context,
	pk string,
	skLow, skHigh string,
	descending bool,
	limit int32,
	startAfterSK string,
	filterExpr string,
	filterValues map[string]types.AttributeValue,
) ([]T, error) {
	exprValues := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: pk},
		":lo": &types.AttributeValueMemberS{Value: skLow},
		":hi": &types.AttributeValueMemberS{Value: skHigh},
	}
	for name, val := range filterValues {
		exprValues[name] = val
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    aws.String("PK = :pk AND SK BETWEEN :lo AND :hi"),
		ExpressionAttributeValues: exprValues,
		ScanIndexForward:          aws.Bool(!descending),
	}
	if filterExpr != "" {
		input.FilterExpression = aws.String(filterExpr)
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}
	if startAfterSK != "" {
		input.ExclusiveStartKey = keyOf(pk, startAfterSK)
	}

	var results []T
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		if limit > 0 && len(results) >= int(limit) {
			break
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}

		var pageItems []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal page items: %w", err)
		}
		results = append(results, pageItems...)
	}

	if limit > 0 && len(results) > int(limit) {
		results = results[:limit]
	}

	return results, nil
}

// updateFields updates named attributes of an existing item, requiring
// it to exist; the optional conditionExpr ANDs extra CAS conditions with
// their values taken from condValues.
func updateFields(
	s *DynamoDaybookStore,
	ctx context.Context,
	pk, sk string,
	set map[string]types.AttributeValue,
	conditionExpr string,
	condValues map[string]types.AttributeValue,
	requireExists bool,
) error {
	updateExpr := "SET "
	exprAttrNames := make(map[string]string)
	exprAttrValues := make(map[string]types.AttributeValue)
	first := true

	for field, val := range set {
		if !first {
			updateExpr += ", "
		}
		first = false
		updateExpr += fmt.Sprintf("#%s = :%s", field, field)
		exprAttrNames["#"+field] = field
		exprAttrValues[":"+field] = val
	}
	for name, val := range condValues {
		exprAttrValues[name] = val
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       keyOf(pk, sk),
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
	}

	cond := conditionExpr
	if requireExists {
		if cond != "" {
			cond = "attribute_exists(PK) AND (" + cond + ")"
		} else {
			cond = "attribute_exists(PK)"
		}
	}
	if cond != "" {
		input.ConditionExpression = aws.String(cond)
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return store.ErrConditionFailed
		}
		return fmt.Errorf("update failed: %w", err)
	}

	return nil
}

// incrementCounter atomically adds delta to a numeric field of an
// existing item.
func incrementCounter(s *DynamoDaybookStore, ctx context.Context, pk, sk, counterField string, delta int) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tableName),
		Key:              keyOf(pk, sk),
		UpdateExpression: aws.String("SET #c = #c + :val"),
		ExpressionAttributeNames: map[string]string{
			"#c": counterField,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":val": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", delta)},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return store.ErrItemNotFound
		}
		return fmt.Errorf("increment counter failed: %w", err)
	}

	return nil
}

func deleteItem(s *DynamoDaybookStore, ctx context.Context, pk, sk string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       keyOf(pk, sk),
	})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

// writeBatchRequests handles batch writes (Put or Delete) with retries.
func writeBatchRequests(s *DynamoDaybookStore, ctx context.Context, requests []types.WriteRequest) error {
	if len(requests) == 0 {
		return nil
	}

	backoff := 50 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: requests,
			},
		})
		if err != nil {
			return fmt.Errorf("BatchWriteItem failed: %w", err)
		}

		unprocessed := resp.UnprocessedItems[s.tableName]
		if len(unprocessed) == 0 {
			return nil
		}

		// Prepare next retry set
		requests = unprocessed

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if backoff < time.Second {
			backoff *= 2
		}
	}
}

// deletePartitionThrottled queries every item under a PK and deletes
// them in 25-item batches with a pause between batches, returning the
// sort keys it removed. Query pages are larger than delete batches for
// efficiency.
func deletePartitionThrottled(s *DynamoDaybookStore, ctx context.Context, pk string, throttle time.Duration) ([]string, error) {
	var deletedSKs []string
	var lastEvaluatedKey map[string]types.AttributeValue

	const queryPageSize int32 = 200

	for {
		resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: pk},
			},
			ProjectionExpression: aws.String("PK, SK"),
			Limit:                aws.Int32(queryPageSize),
			ExclusiveStartKey:    lastEvaluatedKey,
		})
		if err != nil {
			return deletedSKs, fmt.Errorf("query partition failed: %w", err)
		}

		if len(resp.Items) == 0 {
			return deletedSKs, nil
		}

		delRequests := make([]types.WriteRequest, 0, len(resp.Items))
		for _, item := range resp.Items {
			pkAttr, okPK := item["PK"]
			skAttr, okSK := item["SK"]
			if !okPK || !okSK {
				continue
			}
			if sk, ok := skAttr.(*types.AttributeValueMemberS); ok {
				deletedSKs = append(deletedSKs, sk.Value)
			}
			delRequests = append(delRequests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": pkAttr,
						"SK": skAttr,
					},
				},
			})
		}

		for i := 0; i < len(delRequests); i += 25 {
			end := i + 25
			if end > len(delRequests) {
				end = len(delRequests)
			}

			startTime := time.Now()

			if err := writeBatchRequests(s, ctx, delRequests[i:end]); err != nil {
				return deletedSKs, fmt.Errorf("batch delete failed: %w", err)
			}

			elapsed := time.Since(startTime)
			if elapsed < throttle {
				select {
				case <-ctx.Done():
					return deletedSKs, ctx.Err()
				case <-time.After(throttle - elapsed):
				}
			}
		}

		lastEvaluatedKey = resp.LastEvaluatedKey
		if lastEvaluatedKey == nil {
			return deletedSKs, nil
		}
	}
}
