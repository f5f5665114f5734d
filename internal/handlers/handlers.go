package handlers

import (
	"media-catalog/internal/catalog"
	"media-catalog/internal/crawler"
	"media-catalog/internal/startup"
)

type Handlers struct {
	catalog     *catalog.Catalog
	coordinator *crawler.Coordinator
	syncer      *catalog.Syncer
	thumbDir    string
}

func New(cat *catalog.Catalog, coord *crawler.Coordinator, syncer *catalog.Syncer, config *startup.Config) *Handlers {
	return &Handlers{
		catalog:     cat,
		coordinator: coord,
		syncer:      syncer,
		thumbDir:    config.ThumbnailDir,
	}
}
