package bulkhead

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

type (
	// configFile is the top-level JSON structure.
	configFile struct {
		Bulkheads map[string]Config `json:"bulkheads"`
	}

	// Config holds the decoded configuration for a single bulkhead. Export
	// it to embed in your own app config structs for JSON or YAML
	// unmarshaling, then call [BuildOptions] to obtain the limit and
	// functional options for [New].
	Config struct {
		// ConcurrencyLimit is the maximum number of simultaneous holders.
		// Required. Must be positive. Example: 10.
		ConcurrencyLimit *int `json:"concurrency_limit,omitempty" yaml:"concurrency_limit,omitempty"`
		// QueueLimit is the maximum number of waiting requests.
		// Optional. Must not be negative; 0 disables waiting. Example: 50.
		QueueLimit *int `json:"queue_limit,omitempty" yaml:"queue_limit,omitempty"`
	}
)

// LoadConfig reads a JSON configuration file and stores the bulkhead
// configurations in a [Registry]. Actual [Bulkhead] instances are not
// created until [GetBulkhead] is called, allowing the caller to provide
// additional code-level options such as hooks or a custom clock.
func LoadConfig(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bulkhead: read config: %w", err)
	}

	var cfg configFile
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("bulkhead: parse config: %w", err)
	}

	// Validate all bulkheads eagerly so errors surface at load time.
	for name, c := range cfg.Bulkheads {
		if _, _, buildErr := BuildOptions(&c); buildErr != nil {
			return nil, fmt.Errorf("bulkhead: %q: %w", name, buildErr)
		}
	}

	reg := NewRegistry()
	reg.mu.Lock()
	reg.configs = cfg.Bulkheads
	reg.mu.Unlock()

	return reg, nil
}

// BuildOptions converts a [Config] into the concurrency limit and the
// option slice expected by [New]. Use this when you embed [Config] in your
// own config struct and want to build a bulkhead without going through
// [LoadConfig].
func BuildOptions(c *Config) (int, []Option, error) {
	if c.ConcurrencyLimit == nil {
		return 0, nil, fmt.Errorf("concurrency_limit is required")
	}

	limit := *c.ConcurrencyLimit
	if limit <= 0 {
		return 0, nil, fmt.Errorf(
			"concurrency_limit must be positive, got %d", limit,
		)
	}

	var opts []Option

	if c.QueueLimit != nil {
		if *c.QueueLimit < 0 {
			return 0, nil, fmt.Errorf(
				"queue_limit must not be negative, got %d", *c.QueueLimit,
			)
		}

		opts = append(opts, WithQueueLimit(*c.QueueLimit))
	}

	return limit, opts, nil
}

// GetBulkhead retrieves a named bulkhead from a config-loaded [Registry],
// building it on first use and returning the same instance afterwards. Two
// instances built from one config would be two independent capacity pools,
// so memoizing here is what makes config-driven bulkheads shareable.
//
// Additional options are applied after config options, so they take
// precedence (e.g. adding hooks or a custom clock). They only take effect
// on the call that builds the instance. GetBulkhead is safe for concurrent
// use but intended for initialization.
func GetBulkhead(reg *Registry, name string, opts ...Option) (*Bulkhead, error) {
	reg.mu.Lock()

	if b, ok := reg.instances[name]; ok {
		reg.mu.Unlock()

		return b, nil
	}

	c, ok := reg.configs[name]
	reg.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("bulkhead: no configuration for %q", name)
	}

	limit, allOpts, err := BuildOptions(&c)
	if err != nil {
		return nil, fmt.Errorf("bulkhead: %q: %w", name, err)
	}

	allOpts = append(allOpts, WithName(name), WithRegistry(reg))
	// User opts come last so they can override config values.
	allOpts = append(allOpts, opts...)

	b, err := New(limit, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("bulkhead: %q: %w", name, err)
	}

	reg.mu.Lock()

	existing, lost := reg.instances[name]
	if !lost {
		reg.instances[name] = b
	}

	reg.mu.Unlock()

	if lost {
		// Another initializer won the build race; drop the redundant
		// instance's reporter so readiness lists the name once.
		reg.unregister(b)

		return existing, nil
	}

	return b, nil
}
