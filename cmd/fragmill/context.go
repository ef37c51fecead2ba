package main

import (
	"strings"
	"sync"

	"fragmill/internal/client"
	"fragmill/internal/config"
)

type commandContext struct {
	bindFlag   *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(bindFlag, configFlag *string) *commandContext {
	return &commandContext{
		bindFlag:   bindFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) bind() string {
	if c.bindFlag != nil && strings.TrimSpace(*c.bindFlag) != "" {
		return strings.TrimSpace(*c.bindFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.Server.Bind
	}
	return config.Default().Server.Bind
}

func (c *commandContext) newClient() *client.Client {
	return client.New(c.bind())
}
