package repository

import (
	"context"
	"errors"
	"log/slog"

	"product-api/internal/logger"
	"product-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const ProductCollection = "products"

type MongoProductRepository struct {
	collection *mongo.Collection
}

var ProductRepositoryTracer = otel.Tracer("ProductRepository")

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		collection: db.Collection(ProductCollection),
	}
}

func (r *MongoProductRepository) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Create")
	defer span.End()
	logger.Info(ctx, "ProductRepository.Create")

	if err := validateProduct(p); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, p); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return p, nil
}

func (r *MongoProductRepository) Find(ctx context.Context) ([]model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Find")
	defer span.End()
	logger.Info(ctx, "ProductRepository.Find")

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]model.Product, 0)
	for cursor.Next(ctx) {
		var product model.Product
		if err := cursor.Decode(&product); err != nil {
			span.RecordError(err)
			return nil, err
		}
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	return products, nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()
	logger.Info(ctx, "ProductRepository.FindByID", slog.String("product.id", id))

	oid, err := parseID(id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var product model.Product
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&product)
	if err != nil {
		return nil, notFound(span, err)
	}
	return &product, nil
}

func (r *MongoProductRepository) FindByIDAndUpdate(ctx context.Context, id string, u model.ProductUpdate) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindByIDAndUpdate")
	defer span.End()
	logger.Info(ctx, "ProductRepository.FindByIDAndUpdate", slog.String("product.id", id))

	oid, err := parseID(id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// An empty update degrades to a lookup; $set with no fields is rejected by the server.
	if u.IsEmpty() {
		var product model.Product
		if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
			return nil, notFound(span, err)
		}
		return &product, nil
	}

	var product model.Product
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDocument(u), findOneAndUpdateOptions()).Decode(&product)
	if err != nil {
		return nil, notFound(span, err)
	}
	return &product, nil
}

func (r *MongoProductRepository) FindByIDAndDelete(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindByIDAndDelete")
	defer span.End()
	logger.Info(ctx, "ProductRepository.FindByIDAndDelete", slog.String("product.id", id))

	oid, err := parseID(id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var product model.Product
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		return nil, notFound(span, err)
	}
	return &product, nil
}

func (r *MongoProductRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}

func updateDocument(u model.ProductUpdate) bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	return bson.M{"$set": set}
}

func findOneAndUpdateOptions() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// notFound maps a missing document to ErrNotFound and records any other
// failure on span.
func notFound(span trace.Span, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	span.RecordError(err)
	return err
}
