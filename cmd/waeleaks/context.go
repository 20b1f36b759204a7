package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/xKaaZz/Waeleaks/internal/app"
	"github.com/xKaaZz/Waeleaks/internal/config"
	"github.com/xKaaZz/Waeleaks/internal/logger"
)

// commandContext builds the runtime once, on first use by a command.
type commandContext struct {
	once sync.Once
	app  *app.App
	err  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureApp(ctx context.Context) (*app.App, error) {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = fmt.Errorf("load config: %w", err)
			return
		}
		log, err := logger.Init(cfg)
		if err != nil {
			c.err = fmt.Errorf("init logger: %w", err)
			return
		}
		c.app, c.err = app.New(ctx, cfg, log)
	})
	return c.app, c.err
}

func (c *commandContext) close() {
	if c.app != nil {
		if err := c.app.Close(); err != nil {
			logger.ErrorObj("shutdown failed", "error", err.Error())
		}
	}
	_ = logger.Close()
}
