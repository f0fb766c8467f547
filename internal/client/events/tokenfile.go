package events

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce интервал, в течение которого серия событий файла токена сливается в один сигнал
const DefaultDebounce = 200 * time.Millisecond

// TokenFileSource следит за файлом bearer токена и сообщает KindAccountChanged
// при его создании, изменении или удалении.
//
// Наблюдается каталог файла: процессы входа обычно заменяют файл через rename.
type TokenFileSource struct {
	logger   *slog.Logger
	path     string
	debounce time.Duration
}

// NewTokenFileSource создает источник для файла path
func NewTokenFileSource(path string, debounce time.Duration, logger *slog.Logger) *TokenFileSource {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &TokenFileSource{path: path, debounce: debounce, logger: logger}
}

// Name implements Source
func (s *TokenFileSource) Name() string {
	return "token-file"
}

// Run implements Source
func (s *TokenFileSource) Run(ctx context.Context, out chan<- Signal) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("failed to resolve token path: %w", err)
	}
	dir := filepath.Dir(absPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch token directory %s: %w", dir, err)
	}

	// Таймер создаётся остановленным; сработавший таймер означает "пора сообщить"
	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.relevant(absPath, event) {
				continue
			}
			s.logger.Debug("Token file event", "op", event.Op.String())
			timer.Reset(s.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Token file watcher error", "error", err)

		case <-timer.C:
			if !emit(ctx, out, Signal{Kind: KindAccountChanged, Source: s.Name()}) {
				return nil
			}
		}
	}
}

// relevant отбрасывает события других файлов каталога и chmod
func (s *TokenFileSource) relevant(absPath string, event fsnotify.Event) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != absPath {
		return false
	}
	return event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename)
}
