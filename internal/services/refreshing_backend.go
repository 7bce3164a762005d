package services

import (
	"context"

	"go.uber.org/zap"

	"energyshare/internal/apiclient"
)

// refreshingBackend retries a call once with a fresh access token when the
// backend answers 401 and the context carries a refresh token.
type refreshingBackend struct {
	next Backend
	auth AuthService
	log  *zap.Logger
}

func NewRefreshingBackend(next Backend, auth AuthService, log *zap.Logger) Backend {
	return &refreshingBackend{next: next, auth: auth, log: log}
}

func (b *refreshingBackend) Get(ctx context.Context, path string) (*apiclient.Response, error) {
	return b.retry(ctx, func(ctx context.Context) (*apiclient.Response, error) { return b.next.Get(ctx, path) })
}

func (b *refreshingBackend) Post(ctx context.Context, path string, body any) (*apiclient.Response, error) {
	return b.retry(ctx, func(ctx context.Context) (*apiclient.Response, error) { return b.next.Post(ctx, path, body) })
}

func (b *refreshingBackend) Patch(ctx context.Context, path string, body any) (*apiclient.Response, error) {
	return b.retry(ctx, func(ctx context.Context) (*apiclient.Response, error) { return b.next.Patch(ctx, path, body) })
}

func (b *refreshingBackend) retry(ctx context.Context, call func(context.Context) (*apiclient.Response, error)) (*apiclient.Response, error) {
	resp, err := call(ctx)
	if err != nil || resp.Err == nil || !resp.Err.Unauthorized() {
		return resp, err
	}
	refresh, renewal := apiclient.RefreshTokenFrom(ctx)
	if refresh == "" {
		return resp, nil
	}
	access, rerr := b.auth.Refresh(ctx, refresh)
	if rerr != nil {
		b.log.Info("[session][refresh] failed", zap.Error(rerr))
		return resp, nil
	}
	renewal.Access = access
	return call(apiclient.WithToken(ctx, access))
}
