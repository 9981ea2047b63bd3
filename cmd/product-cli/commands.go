package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"product-api/internal/client"
	"product-api/internal/model"
	"product-api/internal/version"

	"github.com/urfave/cli/v3"
)

const defaultAddr = "http://localhost:3000"

var errNotFound = errors.New("not found")

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "product-cli",
		Usage:   "command line client for the product API",
		Version: version.Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "product API base URL",
				Value:   defaultAddr,
				Sources: cli.EnvVars("PRODUCT_API_ADDR"),
			},
			&cli.StringFlag{
				Name:    "grpc-addr",
				Usage:   "talk to the gRPC surface at host:port instead of HTTP",
				Sources: cli.EnvVars("PRODUCT_API_GRPC_ADDR"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "request timeout",
				Value: 10 * time.Second,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a product",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "product name"},
					&cli.StringFlag{Name: "description", Usage: "product description"},
					&cli.FloatFlag{Name: "price", Usage: "product price"},
				},
				Action: createAction,
			},
			{
				Name:   "list",
				Usage:  "list all products",
				Action: listAction,
			},
			{
				Name:   "get",
				Usage:  "show one product",
				Flags:  []cli.Flag{idFlag()},
				Action: getAction,
			},
			{
				Name:  "update",
				Usage: "update fields of a product",
				Flags: []cli.Flag{
					idFlag(),
					&cli.StringFlag{Name: "name", Usage: "new name"},
					&cli.StringFlag{Name: "description", Usage: "new description"},
					&cli.FloatFlag{Name: "price", Usage: "new price"},
				},
				Action: updateAction,
			},
			{
				Name:   "delete",
				Usage:  "delete a product",
				Flags:  []cli.Flag{idFlag()},
				Action: deleteAction,
			},
		},
	}
}

func idFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "id",
		Usage:    "product id",
		Required: true,
	}
}

// productAPI is what the commands need from either transport.
type productAPI interface {
	Create(ctx context.Context, p model.Product) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Update(ctx context.Context, id string, u model.ProductUpdate) (*model.Product, error)
	Delete(ctx context.Context, id string) (*model.Product, error)
}

// withAPI runs fn against the transport selected by --grpc-addr.
func withAPI(ctx context.Context, cmd *cli.Command, fn func(context.Context, productAPI) (any, error)) error {
	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	if target := cmd.String("grpc-addr"); target != "" {
		api, err := newGRPCAPI(target)
		if err != nil {
			return err
		}
		defer api.Close()
		v, err := fn(ctx, api)
		return printResult(cmd, v, err)
	}

	v, err := fn(ctx, client.NewProductClient(cmd.String("addr"), cmd.Duration("timeout")))
	return printResult(cmd, v, err)
}

func createAction(ctx context.Context, cmd *cli.Command) error {
	p := model.Product{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
	}
	if cmd.IsSet("price") {
		price := cmd.Float("price")
		p.Price = &price
	}

	return withAPI(ctx, cmd, func(ctx context.Context, api productAPI) (any, error) {
		return api.Create(ctx, p)
	})
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	return withAPI(ctx, cmd, func(ctx context.Context, api productAPI) (any, error) {
		products, err := api.List(ctx)
		if products == nil && err == nil {
			products = []model.Product{}
		}
		return products, err
	})
}

func getAction(ctx context.Context, cmd *cli.Command) error {
	return withAPI(ctx, cmd, func(ctx context.Context, api productAPI) (any, error) {
		return api.Get(ctx, cmd.String("id"))
	})
}

func updateAction(ctx context.Context, cmd *cli.Command) error {
	var u model.ProductUpdate
	if cmd.IsSet("name") {
		name := cmd.String("name")
		u.Name = &name
	}
	if cmd.IsSet("description") {
		description := cmd.String("description")
		u.Description = &description
	}
	if cmd.IsSet("price") {
		price := cmd.Float("price")
		u.Price = &price
	}

	return withAPI(ctx, cmd, func(ctx context.Context, api productAPI) (any, error) {
		return api.Update(ctx, cmd.String("id"), u)
	})
}

func deleteAction(ctx context.Context, cmd *cli.Command) error {
	return withAPI(ctx, cmd, func(ctx context.Context, api productAPI) (any, error) {
		return api.Delete(ctx, cmd.String("id"))
	})
}

// printResult writes v as indented JSON, or turns err into the message shown to the user.
func printResult(cmd *cli.Command, v any, err error) error {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotFound):
		return errNotFound
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return errors.New(apiErr.Message)
	case err != nil:
		return err
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, string(b))
	return err
}
