package rna

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/netxfw/rna/pkg/sdk"
	"go.uber.org/zap"
)

// DefaultWatchDebounce coalesces the burst of events editors produce on save.
const DefaultWatchDebounce = 200 * time.Millisecond

// Watcher reloads a directive file whenever it changes on disk.
// The parent directory is watched so atomic replace-by-rename is seen too.
// Watcher 在指令文件变化时重新加载它。
// 监视父目录，以便也能看到通过重命名进行的原子替换。
type Watcher struct {
	path     string
	target   sdk.Reloader
	log      sdk.Logger
	fw       *fsnotify.Watcher
	Debounce time.Duration
	// OnReload, if set, is called after every reload attempt.
	OnReload func(error)
}

// NewWatcher starts watching the directory that contains path.
// NewWatcher 开始监视包含 path 的目录。
func NewWatcher(path string, target sdk.Reloader, log sdk.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	clean := filepath.Clean(path)
	if err := fw.Add(filepath.Dir(clean)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		path:     clean,
		target:   target,
		log:      log,
		fw:       fw,
		Debounce: DefaultWatchDebounce,
	}, nil
}

// Run blocks until ctx is done or the watcher is closed.
// Run 阻塞直到 ctx 结束或监视器关闭。
func (w *Watcher) Run(ctx context.Context) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warnf("RNA: Watch error on %s: %v", w.path, err)
		case <-fire:
			fire = nil
			err := w.target.Reload()
			if w.OnReload != nil {
				w.OnReload(err)
			}
		}
	}
}

// Close stops watching.
// Close 停止监视。
func (w *Watcher) Close() error {
	return w.fw.Close()
}
