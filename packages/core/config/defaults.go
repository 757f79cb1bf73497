package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30000, // 30 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     BoolPtr(true),
		Output:          "console",
		StrictActions:   BoolPtr(true),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		c.Rate == defaults.Rate &&
		len(c.Headers) == 0 &&
		c.Root == defaults.Root &&
		len(c.EnvFiles) == 0 &&
		c.Output == defaults.Output &&
		c.GetStrictActions() == defaults.GetStrictActions() &&
		c.WaitFor == defaults.WaitFor &&
		c.GetPause() == defaults.GetPause() &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
