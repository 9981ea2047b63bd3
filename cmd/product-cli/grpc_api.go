package main

import (
	"context"
	"errors"

	grpcHandler "product-api/internal/handler/grpc"
	middleware_grpc "product-api/internal/middleware/grpc"
	"product-api/internal/model"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// grpcAPI serves the CLI commands over the gRPC surface.
type grpcAPI struct {
	conn   *grpc.ClientConn
	client *grpcHandler.ProductServiceClient
}

func newGRPCAPI(target string) (*grpcAPI, error) {
	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultServiceConfig(`{"loadBalancingPolicy":"round_robin"}`),
		grpc.WithUnaryInterceptor(middleware_grpc.UnaryClientTracingInterceptor()),
	)
	if err != nil {
		return nil, err
	}
	return &grpcAPI{conn: conn, client: grpcHandler.NewProductServiceClient(conn)}, nil
}

func (a *grpcAPI) Close() error { return a.conn.Close() }

func (a *grpcAPI) Create(ctx context.Context, p model.Product) (*model.Product, error) {
	r, err := a.client.Create(ctx, &p)
	if err != nil {
		return nil, fromStatus(err)
	}
	return r.Product, nil
}

func (a *grpcAPI) List(ctx context.Context) ([]model.Product, error) {
	r, err := a.client.List(ctx)
	if err != nil {
		return nil, fromStatus(err)
	}
	return r.Products, nil
}

func (a *grpcAPI) Get(ctx context.Context, id string) (*model.Product, error) {
	r, err := a.client.Get(ctx, id)
	if err != nil {
		return nil, fromStatus(err)
	}
	return r.Product, nil
}

func (a *grpcAPI) Update(ctx context.Context, id string, u model.ProductUpdate) (*model.Product, error) {
	r, err := a.client.Update(ctx, id, u)
	if err != nil {
		return nil, fromStatus(err)
	}
	return r.Product, nil
}

func (a *grpcAPI) Delete(ctx context.Context, id string) (*model.Product, error) {
	r, err := a.client.Delete(ctx, id)
	if err != nil {
		return nil, fromStatus(err)
	}
	return r.Product, nil
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() == codes.NotFound {
		return errNotFound
	}
	return errors.New(st.Message())
}
