// Package logger - общий zerolog логгер процесса.
// Логгер конкретного HTTP запроса (с request_id) живет в context.Context,
// см. Ctx и RequestLogger.
package logger

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const logstashDialTimeout = 5 * time.Second

var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Options - настройки из окружения (LOG_LEVEL, LOGSTASH_ADDR)
type Options struct {
	Service      string
	Level        string
	LogstashAddr string
	// Output заменяет stdout (тесты)
	Output io.Writer
}

// Setup настраивает общий логгер. Если Logstash недоступен, логгер все равно
// пишет в Output и возвращается ошибка подключения.
func Setup(opts Options) error {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var dialErr error
	if opts.LogstashAddr != "" {
		conn, err := net.DialTimeout("tcp", opts.LogstashAddr, logstashDialTimeout)
		if err != nil {
			dialErr = fmt.Errorf("logstash %s: %w", opts.LogstashAddr, err)
		} else {
			out = zerolog.MultiLevelWriter(out, conn)
		}
	}

	base = zerolog.New(out).
		Level(level(opts.Level)).
		With().
		Timestamp().
		Str("service", opts.Service).
		Logger()

	return dialErr
}

func level(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Ctx возвращает логгер запроса из ctx или общий логгер
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &base
}

// Base - общий логгер для библиотек, которым нужен Printf (robfig/cron)
func Base() *zerolog.Logger {
	return &base
}

func Debug() *zerolog.Event { return base.Debug() }
func Info() *zerolog.Event  { return base.Info() }
func Warn() *zerolog.Event  { return base.Warn() }
func Error() *zerolog.Event { return base.Error() }
func Fatal() *zerolog.Event { return base.Fatal() }
