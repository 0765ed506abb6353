package dynamostore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
)

// ConsumerIndex is the GSI (consumerId HASH, orderDate RANGE) used by ListByConsumer.
const ConsumerIndex = "consumerId-orderDate-index"

type lineItem struct {
	ProductID string  `dynamodbav:"productId"`
	OwnerID   string  `dynamodbav:"ownerId"`
	Quantity  float64 `dynamodbav:"quantity"`
	UnitPrice float64 `dynamodbav:"unitPrice"`
}

type orderItem struct {
	ID              string     `dynamodbav:"id"`
	ConsumerID      string     `dynamodbav:"consumerId"`
	Lines           []lineItem `dynamodbav:"lines"`
	TotalAmount     float64    `dynamodbav:"totalAmount"`
	Status          string     `dynamodbav:"status"`
	DeliveryAddress string     `dynamodbav:"deliveryAddress"`
	OrderDate       string     `dynamodbav:"orderDate"`
	IntentID        string     `dynamodbav:"intentId,omitempty"`
	PaymentID       string     `dynamodbav:"paymentId,omitempty"`
	UpdatedAt       string     `dynamodbav:"updatedAt"`
}

func toItem(o *domain.Order) orderItem {
	lines := make([]lineItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, lineItem(l))
	}
	return orderItem{
		ID:              o.ID,
		ConsumerID:      o.ConsumerID,
		Lines:           lines,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		DeliveryAddress: o.DeliveryAddress,
		OrderDate:       formatTime(o.OrderDate),
		IntentID:        o.IntentID,
		PaymentID:       o.PaymentID,
		UpdatedAt:       formatTime(o.UpdatedAt),
	}
}

func (it orderItem) toDomain() *domain.Order {
	lines := make([]domain.Line, 0, len(it.Lines))
	for _, l := range it.Lines {
		lines = append(lines, domain.Line(l))
	}
	return &domain.Order{
		ID:              it.ID,
		ConsumerID:      it.ConsumerID,
		Lines:           lines,
		TotalAmount:     it.TotalAmount,
		Status:          domain.Status(it.Status),
		DeliveryAddress: it.DeliveryAddress,
		OrderDate:       parseTime(it.OrderDate),
		IntentID:        it.IntentID,
		PaymentID:       it.PaymentID,
		UpdatedAt:       parseTime(it.UpdatedAt),
	}
}

func unmarshalOrder(av map[string]types.AttributeValue) (*domain.Order, error) {
	var it orderItem
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return it.toDomain(), nil
}

type OrderRepository struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewOrderRepository(client API, tableName string) *OrderRepository {
	return &OrderRepository{client: client, tableName: tableName, now: time.Now}
}

func (r *OrderRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": attrS(id)}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	av, err := attributevalue.MarshalMap(toItem(order))
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", order.ID, err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		if failed, _ := conditionFailed(err); failed {
			return domain.ErrConflict
		}
		return fmt.Errorf("put order %s: %w", order.ID, err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            r.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrNotFound
	}
	return unmarshalOrder(out.Item)
}

// ListByConsumer reads the consumer index newest first. The index is
// eventually consistent, so a just-created order may be missing for a moment.
func (r *OrderRepository) ListByConsumer(ctx context.Context, consumerID string) ([]*domain.Order, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(ConsumerIndex),
		KeyConditionExpression: aws.String("consumerId = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": attrS(consumerID),
		},
		ScanIndexForward: aws.Bool(false),
	})

	var out []*domain.Order
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query orders of %s: %w", consumerID, err)
		}
		for _, av := range page.Items {
			o, err := unmarshalOrder(av)
			if err != nil {
				return nil, err
			}
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OrderRepository) AttachIntent(ctx context.Context, id, intentID string) (*domain.Order, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.key(id),
		UpdateExpression:    aws.String("SET intentId = :i, updatedAt = :now"),
		ConditionExpression: aws.String("attribute_exists(id) AND #status = :pending AND attribute_not_exists(intentId)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":i":       attrS(intentID),
			":pending": attrS(string(domain.StatusPendingPayment)),
			":now":     attrS(formatTime(r.now())),
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		return nil, r.mapConditional(err, "attach intent", id)
	}
	return unmarshalOrder(out.Attributes)
}

// TransitionStatus writes only while the stored status still equals t.From.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, t domain.Transition) (*domain.Order, error) {
	if !t.From.CanTransitionTo(t.To) {
		return nil, domain.ErrInvalidStateTransition
	}

	update := "SET #status = :to, updatedAt = :now"
	values := map[string]types.AttributeValue{
		":from": attrS(string(t.From)),
		":to":   attrS(string(t.To)),
		":now":  attrS(formatTime(r.now())),
	}
	if t.PaymentID != "" {
		update += ", paymentId = :p"
		values[":p"] = attrS(t.PaymentID)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.key(id),
		UpdateExpression:    aws.String(update),
		ConditionExpression: aws.String("attribute_exists(id) AND #status = :from"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues:           values,
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		return nil, r.mapConditional(err, "transition", id)
	}
	return unmarshalOrder(out.Attributes)
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.key(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if failed, _ := conditionFailed(err); failed {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

func (r *OrderRepository) mapConditional(err error, op, id string) error {
	failed, existed := conditionFailed(err)
	switch {
	case failed && !existed:
		return domain.ErrNotFound
	case failed:
		return domain.ErrConflict
	default:
		return fmt.Errorf("%s order %s: %w", op, id, err)
	}
}
