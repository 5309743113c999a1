package datafog

import (
	"runtime/debug"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/rhysd/go-github-selfupdate/selfupdate"

	"github.com/datafog/datafog-go/internal/update"
)

var checkUpdate = update.Check

func selfUpdate() error {
	v := version
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(v) == 0 {
				v = s.Value
			}
		}
	}
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	_, err = selfupdate.UpdateSelf(semver3.MustParse(ver.String()), update.Slug)
	return err
}

func pickString(cli string, fallback string) string {
	if cli != "" {
		return cli
	}
	return fallback
}

func pickInt(cli int, fallback int) int {
	if cli != 0 {
		return cli
	}
	return fallback
}

func pickInt64(cli int64, fallback int64) int64 {
	if cli != 0 {
		return cli
	}
	return fallback
}

func pickBool(cli bool, fallback bool) bool {
	return cli || fallback
}
