package mongo

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
)

var (
	_ ports.CatalogReader  = (*CatalogReader)(nil)
	_ ports.ActorDirectory = (*Directory)(nil)
)

// CatalogReader reads menu items owned by the menu service.
type CatalogReader struct {
	coll *mongo.Collection
}

func NewCatalogReader(db *mongo.Database) *CatalogReader {
	return &CatalogReader{coll: db.Collection(menusCollection)}
}

func (r *CatalogReader) GetItems(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	const op = "catalog.get_items"
	out := make(map[string]domain.CatalogItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": idCandidates(ids)}})
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc menuDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, domain.Persistence(op, err)
		}
		item, err := doc.toDomain()
		if err != nil {
			// A malformed menu document is treated like a missing one.
			slog.WarnContext(ctx, "skipping malformed menu item", "error", err)
			continue
		}
		out[item.ID] = item
	}
	if err := cur.Err(); err != nil {
		return nil, domain.Persistence(op, err)
	}
	return out, nil
}

func (r *CatalogReader) CountItems(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, domain.Persistence("catalog.count_items", err)
	}
	return n, nil
}

// Directory reads display profiles from the users collection.
type Directory struct {
	coll *mongo.Collection
}

func NewDirectory(db *mongo.Database) *Directory {
	return &Directory{coll: db.Collection(usersCollection)}
}

func (d *Directory) Profiles(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	const op = "directory.profiles"
	out := make(map[string]domain.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := d.coll.Find(ctx, bson.M{"_id": bson.M{"$in": idCandidates(ids)}})
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Persistence(op, err)
	}
	for _, u := range docs {
		id := idString(u.ID)
		out[id] = u.toDomain()
	}
	return out, nil
}

// CountByRole matches the canonical role name and its legacy spelling.
func (d *Directory) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	n, err := d.coll.CountDocuments(ctx, bson.M{"role": bson.M{"$in": storedRoles(role)}})
	if err != nil {
		return 0, domain.Persistence("directory.count_by_role", err)
	}
	return n, nil
}
