// Package logger 是 zap SugaredLogger 的轻量封装，统一各组件的结构化日志风格。
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger 以 keysAndValues 形式输出结构化日志。
// 各组件通过 With 派生自己的作用域（如 With("engine", "content")）。
type Logger struct {
	sugar *zap.SugaredLogger
}

// New 创建 Logger。mode 为 "prod"/"production" 时使用生产配置（JSON 输出），
// 其余使用开发配置。
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zapLogger.Sugar()}, nil
}

// Nop 返回丢弃所有输出的 Logger，用于测试或未注入日志的场景。
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// With 派生带固定字段的子 Logger。
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}
