package soil

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchCatalog reloads the catalog at path whenever it changes and installs a
// new engine built from it into ref. Invalid files are logged and skipped, so
// the previous engine stays active. It blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file, so saves that
// rename a new file over path are seen as well.
func WatchCatalog(ctx context.Context, path string, ref *EngineRef, logger zerolog.Logger) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logger.Info().Str("path", path).Msg("watching crop catalog")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			file, err := LoadCatalogFile(path)
			if err != nil {
				logger.Error().Err(err).Str("path", path).Msg("catalog reload failed, keeping previous catalog")
				continue
			}
			engine, err := NewEngine(file.Options()...)
			if err != nil {
				logger.Error().Err(err).Str("path", path).Msg("catalog reload failed, keeping previous catalog")
				continue
			}

			ref.Store(engine)
			logger.Info().Str("path", path).Int("crops", len(file.Crops)).Msg("crop catalog reloaded")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("catalog watcher error")
		}
	}
}
