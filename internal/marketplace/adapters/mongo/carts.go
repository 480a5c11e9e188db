package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
)

var _ ports.CartRepository = (*CartRepository)(nil)

// addItemAttempts bounds the $inc/$push race loop of AddItem.
const addItemAttempts = 3

type CartRepository struct {
	coll *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{coll: db.Collection(cartsCollection)}
}

func (r *CartRepository) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	var doc cartDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": customerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.Cart{CustomerID: customerID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return nil, domain.Persistence("cart.get", err)
	}
	return doc.toDomain(), nil
}

// AddItem increments an existing entry in place, otherwise pushes a new one,
// creating the cart document on first use. Each write is a single-document
// atomic update; a concurrent push of the same item is retried as an $inc.
func (r *CartRepository) AddItem(ctx context.Context, customerID, itemID string, quantity int) (*domain.Cart, error) {
	const op = "cart.add_item"
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for attempt := 0; attempt < addItemAttempts; attempt++ {
		now := time.Now().UTC()

		var doc cartDoc
		err := r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": customerID, "items.itemId": itemID},
			bson.M{
				"$inc": bson.M{"items.$.quantity": quantity},
				"$set": bson.M{"updatedAt": now},
			},
			after,
		).Decode(&doc)
		if err == nil {
			return doc.toDomain(), nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.Persistence(op, err)
		}

		err = r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": customerID, "items.itemId": bson.M{"$ne": itemID}},
			bson.M{
				"$push": bson.M{"items": cartItemDoc{ItemID: itemID, Quantity: quantity}},
				"$set":  bson.M{"updatedAt": now},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true),
		).Decode(&doc)
		if err == nil {
			return doc.toDomain(), nil
		}
		// The upsert collides with _id when another request pushed the same
		// item between the two updates.
		if !mongo.IsDuplicateKeyError(err) {
			return nil, domain.Persistence(op, err)
		}
	}
	return nil, domain.E(domain.KindConflict, op, "cart %s is being modified concurrently", customerID)
}

func (r *CartRepository) RemoveItem(ctx context.Context, customerID, itemID string) (*domain.Cart, error) {
	var doc cartDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": customerID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"itemId": itemID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.Cart{CustomerID: customerID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return nil, domain.Persistence("cart.remove_item", err)
	}
	return doc.toDomain(), nil
}

func (r *CartRepository) Clear(ctx context.Context, customerID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": customerID},
		bson.M{"$set": bson.M{"items": bson.A{}, "updatedAt": time.Now().UTC()}},
	)
	return domain.Persistence("cart.clear", err)
}
