package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"product-api/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second
)

type Options struct {
	URI            string
	Database       string
	AppName        string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect dials MongoDB and verifies the connection with a ping.
// The caller owns the returned handle and must Close it.
func Connect(ctx context.Context, opts Options) (*Mongo, error) {
	client, err := mongo.Connect(ctx, clientOptions(opts))
	if err != nil {
		logger.Error(ctx, "Failed to connect to MongoDB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		logger.Error(ctx, "MongoDB ping failed", slog.String("error", err.Error()))
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info(ctx, "Connected to MongoDB successfully", slog.String("database", opts.Database))

	return &Mongo{
		Client:   client,
		Database: client.Database(opts.Database),
	}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func clientOptions(opts Options) *options.ClientOptions {
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}

	co := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(connectTimeout).
		SetMonitor(otelmongo.NewMonitor())
	if opts.AppName != "" {
		co.SetAppName(opts.AppName)
	}
	return co
}
