// Package version exposes build information of rxkit binaries.
//
// Version, GitCommit and BuildTime are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/rxkit/version.Version=1.0.0"
//
// Missing values fall back to the VCS stamps of the Go build info.
package version
