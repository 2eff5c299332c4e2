package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/tarmac-project/crossdb/internal/config"
)

// New builds a logger writing text to console at the console level and,
// when cfg.FileOutput is set, to that file at the file level with source
// locations. The returned closer releases the file.
func New(cfg config.LoggerConfigs, console io.Writer) (*slog.Logger, io.Closer, error) {
	consoleLevel, err := config.ParseLevel(cfg.ConsoleLevel)
	if err != nil {
		return nil, nil, err
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: consoleLevel}),
	}
	var closer io.Closer = nopCloser{}

	if cfg.FileOutput != "" {
		fileLevel, err := config.ParseLevel(cfg.FileLevel)
		if err != nil {
			return nil, nil, err
		}
		logFile, err := os.OpenFile(cfg.FileOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(logFile, &slog.HandlerOptions{
			Level:     fileLevel,
			AddSource: true,
		}))
		closer = logFile
	}

	return slog.New(NewMultiHandler(handlers...)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
