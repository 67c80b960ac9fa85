package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fintrack/config"
)

type ctxKey struct{}

var base = New()

// New 创建默认的控制台日志
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// NewWithWriter 使用自定义输出创建 JSON 日志
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// Init 根据配置初始化基础日志
func Init(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		base = NewWithWriter(os.Stdout)
	} else {
		base = New()
	}
}

// Base 返回基础日志
func Base() *zerolog.Logger {
	l := base
	return &l
}

// SetBase 替换基础日志，主要用于测试
func SetBase(l zerolog.Logger) {
	base = l
}

// WithContext 将日志放入 context
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext 从 context 中取出请求级日志，没有则返回基础日志
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
			return &l
		}
	}
	return Base()
}
