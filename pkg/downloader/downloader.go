// Package downloader fetches remote files and runs them through a
// post-processing pipe (unpack, delete).
package downloader

import (
	"github.com/retroframe/retroframe/pkg/downloader/backend"
	"github.com/retroframe/retroframe/pkg/downloader/pipe"
	"github.com/retroframe/retroframe/pkg/logger"
)

type Downloader struct {
	backend client
	// pipe contains a sequential list of operations applied to
	// downloaded files; each operation returns the list of
	// successfully processed files
	pipe []Process

	log *logger.Logger
}

type client interface {
	Request(dest string, urls ...string) []string
}

type Process func(dest string, files []string, log *logger.Logger) []string

func NewDefaultDownloader(log *logger.Logger) Downloader {
	return Downloader{
		backend: backend.NewGrabDownloader(log),
		pipe:    []Process{pipe.Unpack, pipe.Delete},
		log:     log,
	}
}

// Download fetches the URLs into the destination folder and returns the
// list of files surviving the processing pipe.
func (d *Downloader) Download(dest string, urls ...string) []string {
	files := d.backend.Request(dest, urls...)
	for _, op := range d.pipe {
		files = op(dest, files, d.log)
	}
	return files
}
