package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(ordersCollection)}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	const op = "order.create"
	doc, err := toOrderDoc(order)
	if err != nil {
		return domain.Persistence(op, err)
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.E(domain.KindConflict, op, "order %s already exists", order.ID)
		}
		return domain.Persistence(op, err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	const op = "order.get"
	var doc orderDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.E(domain.KindNotFound, op, "order %s not found", id)
	}
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	o, err := doc.toDomain()
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return o, nil
}

// UpdateStatus is a compare-and-set on {_id, status}.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (*domain.Order, error) {
	const op = "order.update_status"
	var doc orderDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updatedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.coll.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, domain.Persistence(op, cerr)
		}
		if n == 0 {
			return nil, domain.E(domain.KindNotFound, op, "order %s not found", id)
		}
		return nil, domain.E(domain.KindInvalidStateTransition, op, "order %s is no longer %s", id, from)
	}
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	o, err := doc.toDomain()
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return o, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return domain.Persistence("order.delete", err)
}

func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	const op = "order.list"
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cur, err := r.coll.Find(ctx, toQuery(filter), opts)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	defer cur.Close(ctx)

	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Persistence(op, err)
	}
	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.toDomain()
		if err != nil {
			return nil, domain.Persistence(op, err)
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *OrderRepository) Stats(ctx context.Context) (domain.OrderStats, error) {
	const op = "order.stats"
	var stats domain.OrderStats
	var err error

	if stats.TotalOrders, err = r.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, domain.Persistence(op, err)
	}
	if stats.PendingOrders, err = r.coll.CountDocuments(ctx, bson.M{"status": string(domain.StatusPending)}); err != nil {
		return stats, domain.Persistence(op, err)
	}
	if stats.CompletedOrders, err = r.coll.CountDocuments(ctx, bson.M{"status": string(domain.StatusDelivered)}); err != nil {
		return stats, domain.Persistence(op, err)
	}

	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": string(domain.StatusDelivered)}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalAmount"}}}},
	})
	if err != nil {
		return stats, domain.Persistence(op, err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total primitive.Decimal128 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return stats, domain.Persistence(op, err)
	}
	stats.TotalRevenue = decimal.Zero
	if len(rows) > 0 {
		if stats.TotalRevenue, err = fromDecimal128(rows[0].Total); err != nil {
			return stats, domain.Persistence(op, err)
		}
	}
	return stats, nil
}

func toQuery(f domain.OrderFilter) bson.M {
	q := bson.M{}
	if f.CustomerID != "" {
		q["customerId"] = f.CustomerID
	}
	if f.ChefID != "" {
		q["chefId"] = f.ChefID
	}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}
	if f.From != nil || f.To != nil {
		created := bson.M{}
		if f.From != nil {
			created["$gte"] = *f.From
		}
		if f.To != nil {
			created["$lte"] = *f.To
		}
		q["createdAt"] = created
	}
	return q
}
