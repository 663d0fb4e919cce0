package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"clipforge/internal/infra"
	"clipforge/internal/store"
	"clipforge/internal/transport"
)

// readyTimeout is the one-time initialization guard: commands that talk to
// the backend wait at most this long for the health probe to pass.
const readyTimeout = 15 * time.Second

// commandContext carries lazily initialized dependencies shared by the
// subcommands.
type commandContext struct {
	backendFlag *string
	userFlag    *string

	cfg    *infra.Config
	logger infra.Logger
	client *transport.Client
}

func newCommandContext(backendFlag, userFlag *string) *commandContext {
	return &commandContext{backendFlag: backendFlag, userFlag: userFlag}
}

func (cc *commandContext) ensure() error {
	if cc.client != nil {
		return nil
	}
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	if *cc.backendFlag != "" {
		cfg.BackendBaseURL = *cc.backendFlag
	}
	cc.cfg = cfg
	cc.logger = infra.NewLogger(cfg.AppEnv)

	client, err := transport.NewClient(transport.Options{
		BaseURL: cfg.BackendBaseURL,
		Logger:  &cc.logger,
	})
	if err != nil {
		return err
	}
	cc.client = client
	return nil
}

func (cc *commandContext) userID() (string, error) {
	if *cc.userFlag == "" {
		return "", fmt.Errorf("--user is required")
	}
	return *cc.userFlag, nil
}

// gateway opens the persistence gateway. The returned cleanup closes the
// pool; callers that need the realtime feed run gw.Run themselves.
func (cc *commandContext) gateway(ctx context.Context) (*store.Gateway, func(), error) {
	pool, err := infra.NewDBPool(ctx, cc.cfg)
	if err != nil {
		return nil, nil, err
	}
	gw := store.NewGateway(pool, cc.logger)
	return gw, pool.Close, nil
}

// waitForBackend polls the health endpoint until it passes or the guard
// expires.
func (cc *commandContext) waitForBackend(ctx context.Context) error {
	deadline := time.Now().Add(readyTimeout)
	for {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		ok := cc.client.CheckHealth(probeCtx)
		cancel()
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("backend %s not reachable within %s", cc.cfg.BackendBaseURL, readyTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
