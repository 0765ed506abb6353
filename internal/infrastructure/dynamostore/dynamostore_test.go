package dynamostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dominv "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/inventory"
	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
)

type fakeAPI struct {
	getItem    func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem    func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	updateItem func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	deleteItem func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	query      func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)

	updates []*dynamodb.UpdateItemInput
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItem(in)
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.putItem(in)
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	return f.updateItem(in)
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return f.deleteItem(in)
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return f.query(in)
}

func conditionalFailure(existing map[string]types.AttributeValue) error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed"), Item: existing}
}

func numberValue(t *testing.T, av types.AttributeValue) string {
	t.Helper()
	n, ok := av.(*types.AttributeValueMemberN)
	require.True(t, ok)
	return n.Value
}

func TestReserveIsConditional(t *testing.T) {
	api := &fakeAPI{updateItem: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
			"availableQuantity": &types.AttributeValueMemberN{Value: "2"},
		}}, nil
	}}
	ledger := NewInventoryLedger(api, "products")

	left, err := ledger.Reserve(context.Background(), "P", 3)
	require.NoError(t, err)
	assert.Equal(t, 2.0, left)

	require.Len(t, api.updates, 1)
	in := api.updates[0]
	assert.Equal(t, "products", aws.ToString(in.TableName))
	assert.Equal(t, "attribute_exists(id) AND availableQuantity >= :q", aws.ToString(in.ConditionExpression))
	assert.Equal(t, "3", numberValue(t, in.ExpressionAttributeValues[":q"]))
}

func TestReserveMapsConditionFailures(t *testing.T) {
	tests := []struct {
		name     string
		existing map[string]types.AttributeValue
		want     error
	}{
		{name: "missing product", existing: nil, want: dominv.ErrNotFound},
		{name: "not enough stock", existing: map[string]types.AttributeValue{
			"id":                attrS("P"),
			"availableQuantity": attrN(1),
		}, want: dominv.ErrInsufficientInventory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{updateItem: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
				return nil, conditionalFailure(tt.existing)
			}}
			_, err := NewInventoryLedger(api, "products").Reserve(context.Background(), "P", 2)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	api := &fakeAPI{}
	_, err := NewInventoryLedger(api, "products").Reserve(context.Background(), "P", 0)
	assert.ErrorIs(t, err, dominv.ErrInvalidQuantity)
	assert.Empty(t, api.updates)
}

func TestReleaseAddsBack(t *testing.T) {
	api := &fakeAPI{updateItem: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
			"availableQuantity": &types.AttributeValueMemberN{Value: "5.5"},
		}}, nil
	}}
	left, err := NewInventoryLedger(api, "products").Release(context.Background(), "P", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 5.5, left)
	assert.Contains(t, aws.ToString(api.updates[0].UpdateExpression), "availableQuantity + :q")
	assert.Equal(t, "0.5", numberValue(t, api.updates[0].ExpressionAttributeValues[":q"]))
}

func TestProductSaveAndGet(t *testing.T) {
	var stored map[string]types.AttributeValue
	api := &fakeAPI{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			stored = in.Item
			return &dynamodb.PutItemOutput{}, nil
		},
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			assert.True(t, aws.ToBool(in.ConsistentRead))
			return &dynamodb.GetItemOutput{Item: stored}, nil
		},
	}
	ledger := NewInventoryLedger(api, "products")

	_, err := ledger.Get(context.Background(), "P")
	assert.ErrorIs(t, err, dominv.ErrNotFound)

	p, err := dominv.NewProduct("P", "farmer-1", "Tomatoes", 10, 5)
	require.NoError(t, err)
	require.NoError(t, ledger.Save(context.Background(), p))

	got, err := ledger.Get(context.Background(), "P")
	require.NoError(t, err)
	assert.Equal(t, "farmer-1", got.OwnerID)
	assert.Equal(t, 10.0, got.UnitPrice)
	assert.Equal(t, 5.0, got.AvailableQuantity)
}

func sampleOrder(t *testing.T) *domain.Order {
	t.Helper()
	o, err := domain.New("ord-1", "consumer-1", "12 Market Road", []domain.Line{
		{ProductID: "P", OwnerID: "farmer-1", Quantity: 1.5, UnitPrice: 10},
	})
	require.NoError(t, err)
	return o
}

func TestOrderInsertAndGetRoundTrip(t *testing.T) {
	var stored map[string]types.AttributeValue
	api := &fakeAPI{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			assert.Equal(t, "attribute_not_exists(id)", aws.ToString(in.ConditionExpression))
			if stored != nil {
				return nil, conditionalFailure(stored)
			}
			stored = in.Item
			return &dynamodb.PutItemOutput{}, nil
		},
		getItem: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: stored}, nil
		},
	}
	repo := NewOrderRepository(api, "orders")
	o := sampleOrder(t)

	require.NoError(t, repo.Insert(context.Background(), o))
	assert.ErrorIs(t, repo.Insert(context.Background(), o), domain.ErrConflict)

	got, err := repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ConsumerID, got.ConsumerID)
	assert.Equal(t, o.Lines, got.Lines)
	assert.Equal(t, 15.0, got.TotalAmount)
	assert.Equal(t, domain.StatusPendingPayment, got.Status)
	assert.True(t, o.OrderDate.Equal(got.OrderDate))
	assert.Empty(t, got.IntentID)
}

func TestTransitionStatusIsConditionalOnFromStatus(t *testing.T) {
	api := &fakeAPI{updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return nil, conditionalFailure(map[string]types.AttributeValue{
			"id":     attrS("ord-1"),
			"status": attrS(string(domain.StatusConfirmed)),
		})
	}}
	repo := NewOrderRepository(api, "orders")

	_, err := repo.TransitionStatus(context.Background(), "ord-1", domain.ConfirmPayment("pay_1"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.Len(t, api.updates, 1)
	in := api.updates[0]
	assert.Equal(t, "attribute_exists(id) AND #status = :from", aws.ToString(in.ConditionExpression))
	assert.Equal(t, "status", in.ExpressionAttributeNames["#status"])
	assert.Equal(t, attrS(string(domain.StatusPendingPayment)), in.ExpressionAttributeValues[":from"])
	assert.Equal(t, attrS("pay_1"), in.ExpressionAttributeValues[":p"])
}

func TestTransitionStatusRejectsUnknownEdgeLocally(t *testing.T) {
	api := &fakeAPI{}
	repo := NewOrderRepository(api, "orders")

	_, err := repo.TransitionStatus(context.Background(), "ord-1", domain.Transition{
		From: domain.StatusPendingPayment,
		To:   domain.StatusDelivered,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Empty(t, api.updates)
}

func TestAttachIntentReturnsUpdatedOrder(t *testing.T) {
	o := sampleOrder(t)
	o.IntentID = "order_abc"
	item := toItem(o)
	api := &fakeAPI{updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		assert.Equal(t, attrS("order_abc"), in.ExpressionAttributeValues[":i"])
		return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
			"id":              attrS(item.ID),
			"consumerId":      attrS(item.ConsumerID),
			"status":          attrS(item.Status),
			"totalAmount":     attrN(item.TotalAmount),
			"deliveryAddress": attrS(item.DeliveryAddress),
			"orderDate":       attrS(item.OrderDate),
			"updatedAt":       attrS(item.UpdatedAt),
			"intentId":        attrS(item.IntentID),
		}}, nil
	}}

	got, err := NewOrderRepository(api, "orders").AttachIntent(context.Background(), o.ID, "order_abc")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", got.IntentID)
	assert.Equal(t, 15.0, got.TotalAmount)
}

func TestListByConsumerQueriesIndexNewestFirst(t *testing.T) {
	newer := toItem(sampleOrder(t))
	newer.ID = "ord-2"
	api := &fakeAPI{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		assert.Equal(t, ConsumerIndex, aws.ToString(in.IndexName))
		assert.False(t, aws.ToBool(in.ScanIndexForward))
		assert.Equal(t, attrS("consumer-1"), in.ExpressionAttributeValues[":c"])
		return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
			{"id": attrS("ord-2"), "consumerId": attrS("consumer-1"), "status": attrS("confirmed")},
			{"id": attrS("ord-1"), "consumerId": attrS("consumer-1"), "status": attrS("pending_payment")},
		}}, nil
	}}

	orders, err := NewOrderRepository(api, "orders").ListByConsumer(context.Background(), "consumer-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, domain.StatusConfirmed, orders[0].Status)
}

func TestDeleteAndErrors(t *testing.T) {
	api := &fakeAPI{deleteItem: func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
		return nil, conditionalFailure(nil)
	}}
	repo := NewOrderRepository(api, "orders")
	assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), domain.ErrNotFound)

	boom := errors.New("throttled")
	api.deleteItem = func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) { return nil, boom }
	err := repo.Delete(context.Background(), "ord-1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestTimeFormatSortsLexicographically(t *testing.T) {
	a := time.Date(2024, 1, 2, 3, 4, 5, 100, time.UTC)
	b := a.Add(time.Millisecond * 900)
	assert.Less(t, formatTime(a), formatTime(b))
	assert.True(t, a.Equal(parseTime(formatTime(a))))
}
