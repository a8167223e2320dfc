package compression

import (
	"strings"

	"github.com/retroframe/retroframe/pkg/compression/targz"
	"github.com/retroframe/retroframe/pkg/compression/zip"
	"github.com/retroframe/retroframe/pkg/logger"
)

type Extractor interface {
	Extract(src string, dest string) ([]string, error)
}

// NewFromExt returns an extractor for the file name or nil when the
// format is not recognized.
func NewFromExt(path string, log *logger.Logger) Extractor {
	switch {
	case strings.HasSuffix(path, zip.Ext):
		return zip.New(log)
	case strings.HasSuffix(path, targz.Ext), strings.HasSuffix(path, targz.ExtShort):
		return targz.New(log)
	default:
		return nil
	}
}
