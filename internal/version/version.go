// Package version carries build metadata set through -ldflags.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/doclens/backend/internal/version.Version=1.2.0"
var Version = "1.0.0"

// Service is the name reported by the health endpoint
const Service = "doclens-backend"
