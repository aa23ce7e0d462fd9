package main

import (
	"fmt"
	"strings"
	"sync"

	"gleaner/internal/config"
)

// commandContext resolves shared CLI state lazily: the configuration file
// and the daemon API client derived from it.
type commandContext struct {
	addrFlag   *string
	configFlag *string

	once   sync.Once
	cfg    *config.Config
	cfgErr error
}

func newCommandContext(addrFlag, configFlag *string) *commandContext {
	return &commandContext{addrFlag: addrFlag, configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.cfgErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.cfg = cfg
	})
	return c.cfg, c.cfgErr
}

func (c *commandContext) client() (*apiClient, error) {
	addr := ""
	if c.addrFlag != nil {
		addr = strings.TrimSpace(*c.addrFlag)
	}
	token := ""
	if cfg, err := c.ensureConfig(); err == nil {
		if addr == "" {
			addr = cfg.Paths.APIBind
		}
		token = cfg.Paths.APIToken
	} else if addr == "" {
		return nil, err
	}
	if addr == "" {
		return nil, fmt.Errorf("daemon address not configured (set api_bind or pass --addr)")
	}
	return newAPIClient(addr, token), nil
}
