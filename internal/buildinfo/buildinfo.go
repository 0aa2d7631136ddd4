package buildinfo

import "fmt"

// Set with -ldflags "-X github.com/SciLifeLab/cloudbiolinux/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("cloudbio %s (commit=%s, date=%s)", Version, Commit, Date)
}
