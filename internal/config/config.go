package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"product-api/internal/logger"

	"github.com/joho/godotenv"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	AppPort                string
	GrpcPort               string
	AppName                string
	LogLevel               string
	LogFormat              string
	StorageDriver          string
	MongoURI               string
	MongoDBName            string
	DBUser                 string
	DBPass                 string
	DBHost                 string
	DBName                 string
	RemoteLogHttpURI       string
	RemoteTraceRpcURI      string
	TraceStdout            bool
	RemoteProfilingHttpURI string
}

// SafeConfig is the loggable view of Config, without credentials.
type SafeConfig struct {
	AppPort                string `json:"app_port"`
	GrpcPort               string `json:"grpc_port"`
	AppName                string `json:"app_name"`
	LogLevel               string `json:"log_level"`
	StorageDriver          string `json:"storage_driver"`
	MongoHost              string `json:"mongo_host"`
	MongoDBName            string `json:"mongo_db_name"`
	RemoteLogHttpURI       string `json:"remote_log_http_uri"`
	RemoteTraceRpcURI      string `json:"remote_trace_rpc_uri"`
	TraceStdout            bool   `json:"trace_stdout"`
	RemoteProfilingHttpURI string `json:"remote_profiling_http_uri"`
}

// MissingEnvError lists required variables that were not set.
type MissingEnvError struct {
	Names []string
}

func (e *MissingEnvError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Names, ", ")
}

// MongoConnectionURI returns MONGO_URI when set, otherwise an Atlas SRV URI
// assembled from DB_USER, DB_PASS, DB_HOST and DB_NAME.
func (c *Config) MongoConnectionURI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     c.DBHost,
		Path:     "/" + c.DBName,
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

// Database returns MONGO_DB_NAME, falling back to DB_NAME.
func (c *Config) Database() string {
	if c.MongoDBName != "" {
		return c.MongoDBName
	}
	return c.DBName
}

func (c *Config) ToSafeConfig() SafeConfig {
	host := c.DBHost
	if c.MongoURI != "" {
		if u, err := url.Parse(c.MongoURI); err == nil {
			host = u.Host
		}
	}
	return SafeConfig{
		AppPort:                c.AppPort,
		GrpcPort:               c.GrpcPort,
		AppName:                c.AppName,
		LogLevel:               c.LogLevel,
		StorageDriver:          c.StorageDriver,
		MongoHost:              host,
		MongoDBName:            c.Database(),
		RemoteLogHttpURI:       c.RemoteLogHttpURI,
		RemoteTraceRpcURI:      c.RemoteTraceRpcURI,
		TraceStdout:            c.TraceStdout,
		RemoteProfilingHttpURI: c.RemoteProfilingHttpURI,
	}
}

// Load reads the environment, after merging an optional .env file.
// Variables already present in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		logger.Warn(context.Background(), "No .env file found, using system environment variables")
	}

	cfg := &Config{
		AppPort:                os.Getenv("SERVER_PORT"),
		GrpcPort:               os.Getenv("GRPC_PORT"),
		AppName:                getEnv("APP_NAME", "product-api"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
		StorageDriver:          strings.ToLower(getEnv("STORAGE_DRIVER", StorageMongo)),
		MongoURI:               os.Getenv("MONGO_URI"),
		MongoDBName:            os.Getenv("MONGO_DB_NAME"),
		DBUser:                 os.Getenv("DB_USER"),
		DBPass:                 os.Getenv("DB_PASS"),
		DBHost:                 os.Getenv("DB_HOST"),
		DBName:                 os.Getenv("DB_NAME"),
		RemoteLogHttpURI:       os.Getenv("REMOTE_LOG_HTTP_URI"),
		RemoteTraceRpcURI:      os.Getenv("REMOTE_TRACE_RPC_URI"),
		TraceStdout:            getBool("TRACE_STDOUT"),
		RemoteProfilingHttpURI: os.Getenv("REMOTE_PROFILING_HTTP_URI"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.AppPort == "" {
		missing = append(missing, "SERVER_PORT")
	}

	switch c.StorageDriver {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			for name, v := range map[string]string{
				"DB_USER": c.DBUser,
				"DB_PASS": c.DBPass,
				"DB_HOST": c.DBHost,
			} {
				if v == "" {
					missing = append(missing, name)
				}
			}
		}
		if c.Database() == "" {
			missing = append(missing, "MONGO_DB_NAME or DB_NAME")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want %q or %q)", c.StorageDriver, StorageMongo, StorageMemory)
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return &MissingEnvError{Names: missing}
	}
	return nil
}

var (
	configInstance *Config
	configOnce     sync.Once
)

// Instance loads the configuration once and exits the process when it is invalid.
func Instance() *Config {
	configOnce.Do(func() {
		ctx := context.Background()
		cfg, err := Load()
		if err != nil {
			logger.Error(ctx, "Invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		configInstance = cfg

		if cfg.RemoteLogHttpURI == "" {
			logger.Warn(ctx, "Missing REMOTE_LOG_HTTP_URI will skip sending log")
		}
		if cfg.RemoteTraceRpcURI == "" {
			logger.Warn(ctx, "Missing REMOTE_TRACE_RPC_URI will skip sending trace")
		}
		if cfg.RemoteProfilingHttpURI == "" {
			logger.Warn(ctx, "Missing REMOTE_PROFILING_HTTP_URI will skip sending profiling")
		}

		logger.Info(ctx, "Configuration loaded successfully", StructAttrs("data", cfg.ToSafeConfig())...)
	})
	return configInstance
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// StructAttrs("data", cfg) ➜ []slog.Attr{ slog.String("data.app_port", "3000"), ... }
func StructAttrs(prefix string, s any) []slog.Attr {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		key := prefix + "." + jsonKey(t.Field(i))
		fv := v.Field(i)

		switch fv.Kind() {
		case reflect.String:
			attrs = append(attrs, slog.String(key, fv.String()))
		case reflect.Bool:
			attrs = append(attrs, slog.Bool(key, fv.Bool()))
		case reflect.Int, reflect.Int64, reflect.Int32:
			attrs = append(attrs, slog.Int64(key, fv.Int()))
		default:
			attrs = append(attrs, slog.Any(key, fv.Interface()))
		}
	}
	return attrs
}

// jsonKey uses the `json:"..."` tag name, falling back to snake_case of the field name.
func jsonKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return toSnake(f.Name)
}

func toSnake(s string) string {
	var out strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && s[i-1] != '_' {
				out.WriteRune('_')
			}
			out.WriteRune(unicode.ToLower(r))
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}
