package catalog

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"toolgate/pkg/ratelimit"
)

// ManifestWatcher re-applies the manifest whenever the file changes on disk.
type ManifestWatcher struct {
	watcher  *fsnotify.Watcher
	catalog  *Catalog
	limiter  *ratelimit.Limiter
	path     string
	debounce time.Duration
	timer    *time.Timer
	stopCh   chan struct{}
}

// WatchManifest starts watching a manifest file. The containing directory is
// watched so editors that replace the file atomically are still seen.
func WatchManifest(path string, c *Catalog, limiter *ratelimit.Limiter) (*ManifestWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	mw := &ManifestWatcher{
		watcher:  watcher,
		catalog:  c,
		limiter:  limiter,
		path:     filepath.Clean(path),
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}

	if err := watcher.Add(filepath.Dir(mw.path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go mw.run()

	log.Info().Str("path", mw.path).Msg("Manifest watcher started")
	return mw, nil
}

// Stop stops the watcher.
func (mw *ManifestWatcher) Stop() error {
	close(mw.stopCh)
	return mw.watcher.Close()
}

func (mw *ManifestWatcher) run() {
	for {
		select {
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != mw.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				log.Debug().Str("op", event.Op.String()).Msg("Manifest change detected")
				mw.scheduleReload()
			}

		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Manifest watcher error")

		case <-mw.stopCh:
			return
		}
	}
}

// scheduleReload debounces bursts of write events into one reload.
func (mw *ManifestWatcher) scheduleReload() {
	if mw.timer != nil {
		mw.timer.Stop()
	}

	mw.timer = time.AfterFunc(mw.debounce, func() {
		m, err := LoadManifest(mw.path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to reload manifest")
			return
		}
		mw.catalog.ApplyManifest(m, mw.limiter)
	})
}
