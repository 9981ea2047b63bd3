package grpc

import (
	"context"

	"product-api/internal/model"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "product.v1.ProductService"

type ProductID struct {
	ID string `json:"id"`
}

type UpdateRequest struct {
	ID     string              `json:"id"`
	Update model.ProductUpdate `json:"update"`
}

// ProductReply carries one product and the host that served it.
type ProductReply struct {
	Resolver string         `json:"resolver"`
	Product  *model.Product `json:"product"`
}

type ProductListReply struct {
	Resolver string          `json:"resolver"`
	Products []model.Product `json:"products"`
}

type ProductServiceServer interface {
	Create(context.Context, *model.Product) (*ProductReply, error)
	List(context.Context, *emptypb.Empty) (*ProductListReply, error)
	Get(context.Context, *ProductID) (*ProductReply, error)
	Update(context.Context, *UpdateRequest) (*ProductReply, error)
	Delete(context.Context, *ProductID) (*ProductReply, error)
}

func RegisterProductServiceServer(s grpc.ServiceRegistrar, srv ProductServiceServer) {
	s.RegisterService(&ProductServiceDesc, srv)
}

var ProductServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: unary("Create", func(s ProductServiceServer, ctx context.Context, in *model.Product) (any, error) { return s.Create(ctx, in) })},
		{MethodName: "List", Handler: unary("List", func(s ProductServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) { return s.List(ctx, in) })},
		{MethodName: "Get", Handler: unary("Get", func(s ProductServiceServer, ctx context.Context, in *ProductID) (any, error) { return s.Get(ctx, in) })},
		{MethodName: "Update", Handler: unary("Update", func(s ProductServiceServer, ctx context.Context, in *UpdateRequest) (any, error) { return s.Update(ctx, in) })},
		{MethodName: "Delete", Handler: unary("Delete", func(s ProductServiceServer, ctx context.Context, in *ProductID) (any, error) { return s.Delete(ctx, in) })},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "product/v1/product.proto",
}

// unary builds a grpc.MethodDesc handler that decodes a *Req and runs call
// through the server's interceptor chain.
func unary[Req any](method string, call func(ProductServiceServer, context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(ProductServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*Req))
		})
	}
}

// ProductServiceClient calls the product service over a connection that
// uses the json content-subtype.
type ProductServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProductServiceClient(cc grpc.ClientConnInterface) *ProductServiceClient {
	return &ProductServiceClient{cc: cc}
}

func (c *ProductServiceClient) Create(ctx context.Context, in *model.Product, opts ...grpc.CallOption) (*ProductReply, error) {
	out := new(ProductReply)
	if err := c.invoke(ctx, "Create", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProductServiceClient) List(ctx context.Context, opts ...grpc.CallOption) (*ProductListReply, error) {
	out := new(ProductListReply)
	if err := c.invoke(ctx, "List", &emptypb.Empty{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProductServiceClient) Get(ctx context.Context, id string, opts ...grpc.CallOption) (*ProductReply, error) {
	out := new(ProductReply)
	if err := c.invoke(ctx, "Get", &ProductID{ID: id}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProductServiceClient) Update(ctx context.Context, id string, u model.ProductUpdate, opts ...grpc.CallOption) (*ProductReply, error) {
	out := new(ProductReply)
	if err := c.invoke(ctx, "Update", &UpdateRequest{ID: id, Update: u}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProductServiceClient) Delete(ctx context.Context, id string, opts ...grpc.CallOption) (*ProductReply, error) {
	out := new(ProductReply)
	if err := c.invoke(ctx, "Delete", &ProductID{ID: id}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProductServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}
