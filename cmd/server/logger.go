package main

import (
	"go.uber.org/zap"
)

// zapAdapter exposes a zap sugared logger through the accounts.Logger
// interface. Arguments are treated as key value pairs.
type zapAdapter struct {
	sugar *zap.SugaredLogger
}

func newZapAdapter(zl *zap.Logger) *zapAdapter {
	return &zapAdapter{sugar: zl.Sugar()}
}

// Named returns a child logger scoped to a subsystem name.
func (z *zapAdapter) Named(name string) *zapAdapter {
	return &zapAdapter{sugar: z.sugar.Named(name)}
}

func (z *zapAdapter) Debug(msg string, args ...any) {
	z.sugar.Debugw(msg, args...)
}

func (z *zapAdapter) Info(msg string, args ...any) {
	z.sugar.Infow(msg, args...)
}

func (z *zapAdapter) Warn(msg string, args ...any) {
	z.sugar.Warnw(msg, args...)
}

func (z *zapAdapter) Error(msg string, args ...any) {
	z.sugar.Errorw(msg, args...)
}
