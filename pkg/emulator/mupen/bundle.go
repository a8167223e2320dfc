package mupen

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/gofrs/flock"

	"github.com/retroframe/retroframe/pkg/config"
	"github.com/retroframe/retroframe/pkg/downloader"
	"github.com/retroframe/retroframe/pkg/logger"
	xos "github.com/retroframe/retroframe/pkg/os"
)

const appName = "retroframe"

// bundleDir returns the per-user cache directory holding an unpacked
// plugin bundle of the given version.
func bundleDir(version string) (string, error) {
	cache, err := xos.UserCacheDir(appName)
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "mupen64plus", "linux64", version), nil
}

// fetchBundle downloads and unpacks the official plugin bundle into the
// user cache, guarded by a file lock against concurrent sessions. It
// returns the cache directory to retry discovery from. Only the Linux
// bundle is published, so any other platform reports no directory.
func fetchBundle(conf config.Mupen, log *logger.Logger) (string, error) {
	if runtime.GOOS != "linux" || !conf.Bundle.Sync {
		return "", nil
	}
	dir, err := bundleDir(conf.Bundle.Version)
	if err != nil {
		return "", err
	}
	if err := xos.CheckCreateDir(dir); err != nil {
		return "", err
	}

	lock := flock.New(dir + conf.Bundle.ExtLock)
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("bundle lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	// Another session may have finished the download while we waited.
	if hasBundle(dir) {
		return dir, nil
	}

	log.Info().Str("url", conf.Bundle.Url).Str("dir", dir).Msg("fetching plugin bundle")
	d := downloader.NewDefaultDownloader(log)
	if files := d.Download(dir, conf.Bundle.Url); len(files) == 0 {
		return "", fmt.Errorf("bundle download failed: %v", conf.Bundle.Url)
	}
	return dir, nil
}

func hasBundle(dir string) bool {
	for _, file := range decorate(libSpecs[roleCore].names[0]) {
		if xos.Exists(filepath.Join(dir, file)) {
			return true
		}
	}
	return false
}
