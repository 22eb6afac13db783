package main

import (
	"context"
	"os"
	"runtime/debug"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/lehigh-university-libraries/slscollect/cmd"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = ""
	commit  = ""
)

func main() {
	v, c := buildVersion(version, commit, debug.ReadBuildInfo)

	// ^C and SIGTERM cancel the command context; devices are released on return
	if err := fang.Execute(
		context.Background(),
		cmd.NewRootCmd(),
		fang.WithVersion(v),
		fang.WithCommit(c),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

// buildVersion prefers linker-set values, then the module and VCS
// information embedded by go build.
func buildVersion(version, commit string, read func() (*debug.BuildInfo, bool)) (string, string) {
	info, ok := read()
	if version == "" {
		version = "dev"
		if ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
	if commit == "" && ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				commit = s.Value
				if len(commit) > 7 {
					commit = commit[:7]
				}
			}
		}
	}
	return version, commit
}
