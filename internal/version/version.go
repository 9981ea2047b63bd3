package version

// Set at build time:
//
//	go build -ldflags "-X product-api/internal/version.Version=v1.2.3 -X product-api/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
