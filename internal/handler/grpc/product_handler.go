package grpc

import (
	"context"
	"errors"

	"product-api/internal/logger"
	"product-api/internal/model"
	"product-api/internal/repository"
	"product-api/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ProductGRPCHandler serves the product operations over gRPC with the same
// one-store-call-per-request contract as the HTTP handlers.
type ProductGRPCHandler struct {
	store repository.ProductStore
}

var GrpcProductHandlerTracer = otel.Tracer("GrpcProductHandler")

func NewProductGRPCHandler(store repository.ProductStore) *ProductGRPCHandler {
	return &ProductGRPCHandler{store: store}
}

func (h *ProductGRPCHandler) Create(ctx context.Context, req *model.Product) (*ProductReply, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.Create")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.Create")

	created, err := h.store.Create(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(created), nil
}

func (h *ProductGRPCHandler) List(ctx context.Context, _ *emptypb.Empty) (*ProductListReply, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.List")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.List")

	products, err := h.store.Find(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return &ProductListReply{
		Resolver: utils.GetHost(),
		Products: products,
	}, nil
}

func (h *ProductGRPCHandler) Get(ctx context.Context, req *ProductID) (*ProductReply, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.Get")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", req.ID))
	logger.Info(ctx, "GrpcProductHandler.Get")

	product, err := h.store.FindByID(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(product), nil
}

func (h *ProductGRPCHandler) Update(ctx context.Context, req *UpdateRequest) (*ProductReply, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.Update")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", req.ID))
	logger.Info(ctx, "GrpcProductHandler.Update")

	product, err := h.store.FindByIDAndUpdate(ctx, req.ID, req.Update)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(product), nil
}

func (h *ProductGRPCHandler) Delete(ctx context.Context, req *ProductID) (*ProductReply, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", req.ID))
	logger.Info(ctx, "GrpcProductHandler.Delete")

	product, err := h.store.FindByIDAndDelete(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(product), nil
}

func reply(p *model.Product) *ProductReply {
	return &ProductReply{
		Resolver: utils.GetHost(),
		Product:  p,
	}
}

// toStatus maps store outcomes onto gRPC codes. The message is the store's own.
func toStatus(err error) error {
	var (
		validation *repository.ValidationError
		cast       *repository.CastError
	)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &validation), errors.As(err, &cast):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
