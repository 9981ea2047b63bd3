package repository

import (
	"context"
	"errors"
	"testing"

	"product-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestFindOneAndUpdateOptionsReturnUpdatedDocument(t *testing.T) {
	opts := findOneAndUpdateOptions()
	require.NotNil(t, opts.ReturnDocument)
	assert.Equal(t, options.After, *opts.ReturnDocument)
}

func TestUpdateDocumentSetsOnlyProvidedFields(t *testing.T) {
	name := "new name"
	price := 7.5

	doc := updateDocument(model.ProductUpdate{Name: &name, Price: &price})

	assert.Equal(t, bson.M{"$set": bson.M{"name": "new name", "price": 7.5}}, doc)
}

func TestNotFoundMapping(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer("test")

	_, missing := tracer.Start(context.Background(), "missing")
	assert.ErrorIs(t, notFound(missing, mongo.ErrNoDocuments), ErrNotFound)
	missing.End()

	other := errors.New("connection reset")
	_, failed := tracer.Start(context.Background(), "failed")
	assert.Same(t, other, notFound(failed, other))
	failed.End()

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Empty(t, ended[0].Events(), "absence is not recorded as an error")
	require.Len(t, ended[1].Events(), 1)
	assert.Equal(t, "exception", ended[1].Events()[0].Name)
	assert.Contains(t, ended[1].Events()[0].Attributes, attribute.String("exception.message", "connection reset"))
}
