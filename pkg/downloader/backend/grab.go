package backend

import (
	"github.com/cavaliercoder/grab"

	"github.com/retroframe/retroframe/pkg/logger"
)

type GrabDownloader struct {
	client      *grab.Client
	concurrency int

	log *logger.Logger
}

func NewGrabDownloader(log *logger.Logger) GrabDownloader {
	return GrabDownloader{
		client:      grab.NewClient(),
		concurrency: 5,
		log:         log,
	}
}

func (d GrabDownloader) Request(dest string, urls ...string) (files []string) {
	reqs := make([]*grab.Request, 0)
	for _, url := range urls {
		req, err := grab.NewRequest(dest, url)
		if err != nil {
			d.log.Error().Err(err).Msgf("couldn't make request URL: %v", url)
		} else {
			reqs = append(reqs, req)
		}
	}

	for resp := range d.client.DoBatch(d.concurrency, reqs...) {
		if err := resp.Err(); err != nil {
			d.log.Error().Err(err).Msg("download failed")
		} else {
			d.log.Info().Msgf("downloaded [%v] %s", resp.HTTPResponse.Status, resp.Filename)
			files = append(files, resp.Filename)
		}
	}
	return
}
