package targz

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroframe/retroframe/pkg/logger"
)

const (
	Ext      = ".tar.gz"
	ExtShort = ".tgz"
)

type Extractor struct {
	log *logger.Logger
}

func New(log *logger.Logger) Extractor {
	return Extractor{log: log}
}

func (e Extractor) Extract(src string, dest string) (files []string, err error) {
	f, err := os.Open(src)
	if err != nil {
		return files, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return files, err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return files, err
		}
		path := filepath.Join(dest, hdr.Name)
		if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
			e.log.Warn().Msgf("%s is illegal path", path)
			continue
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, os.ModePerm); err != nil {
				e.log.Error().Err(err).Send()
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
				e.log.Error().Err(err).Send()
				continue
			}
			out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, hdr.FileInfo().Mode())
			if err != nil {
				e.log.Error().Err(err).Send()
				continue
			}
			if _, err = io.Copy(out, tr); err != nil {
				e.log.Error().Err(err).Send()
				_ = out.Close()
				continue
			}
			_ = out.Close()
			files = append(files, path)
		}
	}
	return files, nil
}
