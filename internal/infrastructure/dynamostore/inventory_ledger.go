package dynamostore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/inventory"
)

type productItem struct {
	ID                string  `dynamodbav:"id"`
	OwnerID           string  `dynamodbav:"ownerId"`
	Name              string  `dynamodbav:"name"`
	UnitPrice         float64 `dynamodbav:"unitPrice"`
	AvailableQuantity float64 `dynamodbav:"availableQuantity"`
	UpdatedAt         string  `dynamodbav:"updatedAt"`
}

// InventoryLedger keeps one item per product keyed by "id".
type InventoryLedger struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewInventoryLedger(client API, tableName string) *InventoryLedger {
	return &InventoryLedger{client: client, tableName: tableName, now: time.Now}
}

func (l *InventoryLedger) Get(ctx context.Context, productID string) (*domain.Product, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(l.tableName),
		Key:            map[string]types.AttributeValue{"id": attrS(productID)},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrNotFound
	}

	var item productItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal product %s: %w", productID, err)
	}
	return &domain.Product{
		ID:                item.ID,
		OwnerID:           item.OwnerID,
		Name:              item.Name,
		UnitPrice:         item.UnitPrice,
		AvailableQuantity: item.AvailableQuantity,
		UpdatedAt:         parseTime(item.UpdatedAt),
	}, nil
}

// Save upserts a product. Used for seeding and catalog sync.
func (l *InventoryLedger) Save(ctx context.Context, p *domain.Product) error {
	av, err := attributevalue.MarshalMap(productItem{
		ID:                p.ID,
		OwnerID:           p.OwnerID,
		Name:              p.Name,
		UnitPrice:         p.UnitPrice,
		AvailableQuantity: p.AvailableQuantity,
		UpdatedAt:         formatTime(l.now()),
	})
	if err != nil {
		return fmt.Errorf("marshal product %s: %w", p.ID, err)
	}
	if _, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put product %s: %w", p.ID, err)
	}
	return nil
}

// Reserve decrements stock only while availableQuantity >= quantity.
func (l *InventoryLedger) Reserve(ctx context.Context, productID string, quantity float64) (float64, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	out, err := l.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(l.tableName),
		Key:                 map[string]types.AttributeValue{"id": attrS(productID)},
		UpdateExpression:    aws.String("SET availableQuantity = availableQuantity - :q, updatedAt = :now"),
		ConditionExpression: aws.String("attribute_exists(id) AND availableQuantity >= :q"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":   attrN(quantity),
			":now": attrS(formatTime(l.now())),
		},
		ReturnValues:                        types.ReturnValueUpdatedNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		if failed, existed := conditionFailed(err); failed {
			if !existed {
				return 0, domain.ErrNotFound
			}
			return 0, domain.ErrInsufficientInventory
		}
		return 0, fmt.Errorf("reserve product %s: %w", productID, err)
	}
	return availableFrom(out.Attributes)
}

func (l *InventoryLedger) Release(ctx context.Context, productID string, quantity float64) (float64, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	out, err := l.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(l.tableName),
		Key:                 map[string]types.AttributeValue{"id": attrS(productID)},
		UpdateExpression:    aws.String("SET availableQuantity = availableQuantity + :q, updatedAt = :now"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":   attrN(quantity),
			":now": attrS(formatTime(l.now())),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if failed, _ := conditionFailed(err); failed {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("release product %s: %w", productID, err)
	}
	return availableFrom(out.Attributes)
}

func availableFrom(attrs map[string]types.AttributeValue) (float64, error) {
	var item struct {
		AvailableQuantity float64 `dynamodbav:"availableQuantity"`
	}
	if err := attributevalue.UnmarshalMap(attrs, &item); err != nil {
		return 0, fmt.Errorf("unmarshal available quantity: %w", err)
	}
	return item.AvailableQuantity, nil
}
