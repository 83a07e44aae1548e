package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	bewegung "github.com/copyandpaetow/bewegung-sub000"
)

type envKey struct{}

// env keeps everything the commands need in a single place.
type env struct {
	Cfg bewegung.Config
	Log *zap.Logger

	closeLog func() error
	start    time.Time
}

func envFromContext(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	panic("env not found in context")
}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &env{
		Cfg:   bewegung.DefaultConfig(),
		Log:   zap.NewNop(),
		start: time.Now(),
	})
}

func (e *env) uptime() time.Duration {
	return time.Since(e.start)
}
