package importer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce 合并短时间内的多次文件事件。
const DefaultDebounce = 500 * time.Millisecond

// Watch 监听目录变化并在防抖后重新导入，直到 ctx 结束。
// onImport 可为 nil，每次重新导入完成后调用。
func (im *Importer) Watch(ctx context.Context, dir string, debounce time.Duration, onImport func(Result, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, dir); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						im.logger.Warn("watch new directory failed", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			if !isContentFile(event.Name) && filepath.Ext(event.Name) != "" {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			result, importErr := im.ImportDir(ctx, dir)
			if importErr != nil {
				im.logger.Error("re-import failed", zap.Error(importErr))
			} else {
				im.logger.Info("re-imported content", zap.Int("imported", result.Imported))
			}
			if onImport != nil {
				onImport(result, importErr)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			im.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
