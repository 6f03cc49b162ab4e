package app

import (
	"context"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type CheckHealth func(ctx context.Context) error

func BuildCheckHealth(repo pinger) CheckHealth {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return repo.Ping(ctx)
	}
}
