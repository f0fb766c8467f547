// Package logging строит логгер процесса из конфигурации.
package logging

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/iudanet/zonesync/internal/config"
)

// New создает логгер. Без файла логи пишутся в stderr: текстом, если stderr
// терминал, иначе JSON. С файлом логи пишутся в JSON с ротацией.
// Возвращаемый io.Closer закрывает файл ротации; для stderr это no-op.
func New(cfg config.LogConfig, stderr *os.File) (*slog.Logger, io.Closer, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		return slog.New(newHandler(cfg.Format, false, rotator, opts)), rotator, nil
	}

	tty := term.IsTerminal(int(stderr.Fd()))
	return slog.New(newHandler(cfg.Format, tty, stderr, opts)), nopCloser{}, nil
}

func newHandler(format string, tty bool, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	switch format {
	case config.LogFormatText:
		return slog.NewTextHandler(w, opts)
	case config.LogFormatJSON:
		return slog.NewJSONHandler(w, opts)
	}
	if tty {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
