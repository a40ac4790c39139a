package config

// ConfigBuilder provides a fluent API for constructing test configurations.
// It is only compiled into tests.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig creates a builder seeded with a fully defaulted, valid
// configuration.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: Default()}
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithProvider adds or replaces a provider override.
func (b *ConfigBuilder) WithProvider(name string, provider ProviderConfig) *ConfigBuilder {
	if b.cfg.Providers == nil {
		b.cfg.Providers = make(map[string]ProviderConfig)
	}
	b.cfg.Providers[name] = provider
	return b
}

// WithUsagePath sets the usage database path.
func (b *ConfigBuilder) WithUsagePath(path string) *ConfigBuilder {
	b.cfg.Usage.Path = path
	return b
}

// WithUsageDisabled turns off usage recording.
func (b *ConfigBuilder) WithUsageDisabled() *ConfigBuilder {
	disabled := false
	b.cfg.Usage.Enabled = &disabled
	return b
}

// WithWatch enables configuration hot reload.
func (b *ConfigBuilder) WithWatch(watch bool) *ConfigBuilder {
	b.cfg.Watch = watch
	return b
}

// Build returns the constructed configuration.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

// MinimalConfig returns the smallest configuration that passes validation.
func MinimalConfig() *Config {
	return Default()
}
