package db

import (
	"context"
	"errors"
	"time"

	"freshcart/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Catalog is the product and category store.
type Catalog struct{ s *Store }

func (s *Store) Catalog() *Catalog { return &Catalog{s: s} }

// FindProductByID returns nil when the product does not exist.
func (c *Catalog) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	ok, err := findOne(ctx, c.s.ProductCollection, bson.M{"_id": id}, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// FindProductsByIDs returns the products that exist among ids, in no
// particular order.
func (c *Catalog) FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	cursor, err := c.s.ProductCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Catalog) ListProducts(ctx context.Context, category string, limit, skip int64) ([]models.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(limit).SetSkip(skip)

	cursor, err := c.s.ProductCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Catalog) InsertProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.ID = uuid.New().String()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := c.s.ProductCollection.InsertOne(ctx, p)
	return err
}

// UpdateProduct applies fields with $set and returns the new document, or nil
// if the product does not exist.
func (c *Catalog) UpdateProduct(ctx context.Context, id string, fields bson.M) (*models.Product, error) {
	fields["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	ok, err := decodeOrMissing(c.s.ProductCollection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (c *Catalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	cursor, err := c.s.CategoryCollection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	cats := []models.Category{}
	if err := cursor.All(ctx, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Catalog) InsertCategory(ctx context.Context, cat *models.Category) error {
	now := time.Now()
	cat.ID = uuid.New().String()
	cat.CreatedAt, cat.UpdatedAt = now, now
	_, err := c.s.CategoryCollection.InsertOne(ctx, cat)
	return duplicate(err, "category name already exists")
}

func decodeOrMissing(res *mongo.SingleResult, out any) (bool, error) {
	err := res.Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}
