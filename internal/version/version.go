// Package version reports build information injected at link time.
//
//	go build -ldflags "-X github.com/custodia-labs/paygate/internal/version.version=v1.2.0 \
//	  -X github.com/custodia-labs/paygate/internal/version.buildDate=2026-10-18T10:00:00Z \
//	  -X github.com/custodia-labs/paygate/internal/version.gitCommit=abc1234"
package version

import "runtime/debug"

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
}

// Get returns the build information. When the binary was built without ldflags
// the vcs revision recorded by the go toolchain is used as the commit.
func Get() Info {
	info := Info{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	}

	if info.GitCommit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					info.GitCommit = s.Value
				case "vcs.time":
					if info.BuildDate == "unknown" {
						info.BuildDate = s.Value
					}
				}
			}
		}
	}
	return info
}
