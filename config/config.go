package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strings"

	"go4.org/netipx"
	"gopkg.in/yaml.v3"
)

type ServiceType int

const (
	ServiceTypeAPIServer ServiceType = iota
	ServiceTypeEngine
	ServiceTypeCatalogWatcher
)

func (t ServiceType) String() string {
	switch t {
	case ServiceTypeAPIServer:
		return "APIServer"
	case ServiceTypeEngine:
		return "Engine"
	case ServiceTypeCatalogWatcher:
		return "CatalogWatcher"
	default:
		return fmt.Sprintf("unknown service type: %d", t)
	}
}

type ServiceID struct {
	Type ServiceType
	Name string
}

func (id ServiceID) String() string {
	return id.Name
}

var (
	ServiceAPIServer      = ServiceID{Type: ServiceTypeAPIServer, Name: "APIServer"}
	ServiceEngine         = ServiceID{Type: ServiceTypeEngine, Name: "Engine"}
	ServiceCatalogWatcher = ServiceID{Type: ServiceTypeCatalogWatcher, Name: "CatalogWatcher"}
)

const (
	DefaultPrefix         = "/"
	DefaultSocket         = "/tmp/chatlined.sock"
	DefaultMaxSuggestions = 10
	DefaultCapacity       = 25
	DefaultRate           = 5
	DefaultBurst          = 10
)

type PlayersConfig struct {
	Capacity  int
	AllowSelf bool
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

type Config struct {
	Prefix         string
	Socket         string
	Listen         string
	AllowedClients []netip.Prefix
	Catalog        string
	MaxSuggestions int
	Players        PlayersConfig
	RateLimit      RateLimitConfig
	LogLevel       slog.Level
}

func Default() *Config {
	return &Config{
		Prefix:         DefaultPrefix,
		Socket:         DefaultSocket,
		MaxSuggestions: DefaultMaxSuggestions,
		Players: PlayersConfig{
			Capacity: DefaultCapacity,
		},
		RateLimit: RateLimitConfig{
			PerSecond: DefaultRate,
			Burst:     DefaultBurst,
		},
		LogLevel: slog.LevelInfo,
	}
}

// Load reads and validates the config at path. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	s, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config, err := parseConfig(string(s))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	err = config.validate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

func parseConfig(s string) (*Config, error) {
	var data map[string]interface{}

	if err := yaml.Unmarshal([]byte(s), &data); err != nil {
		return nil, err
	}

	c := Default()

	for k, v := range data {
		switch k {
		case "prefix":
			v, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("prefix must be a string")
			}

			c.Prefix = v
		case "socket":
			v, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("socket must be a string")
			}

			c.Socket = v
		case "listen":
			v, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("listen must be a string")
			}

			c.Listen = v
		case "allowed-clients":
			prefixes, err := parseAllowedClients(v)
			if err != nil {
				return nil, err
			}

			c.AllowedClients = prefixes
		case "catalog":
			v, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("catalog must be a string")
			}

			c.Catalog = v
		case "max-suggestions":
			v, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("max-suggestions must be an integer")
			}

			c.MaxSuggestions = v
		case "players":
			v, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("players must be a map")
			}

			if err := parsePlayersConfig(&c.Players, v); err != nil {
				return nil, err
			}
		case "rate-limit":
			v, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("rate-limit must be a map")
			}

			if err := parseRateLimitConfig(&c.RateLimit, v); err != nil {
				return nil, err
			}
		case "log-level":
			v, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("log-level must be a string")
			}

			if err := c.LogLevel.UnmarshalText([]byte(v)); err != nil {
				return nil, fmt.Errorf("log-level: %w", err)
			}
		default:
			return nil, fmt.Errorf("unknown top level key: %s", k)
		}
	}

	return c, nil
}

func parseAllowedClients(v interface{}) ([]netip.Prefix, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("allowed-clients must be a list")
	}

	var prefixes []netip.Prefix
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("allowed-clients: entries must be strings")
		}

		if !strings.Contains(s, "/") {
			addr, err := netip.ParseAddr(s)
			if err != nil {
				return nil, fmt.Errorf("allowed-clients: %w", err)
			}

			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}

		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, fmt.Errorf("allowed-clients: %w", err)
		}

		prefixes = append(prefixes, prefix.Masked())
	}

	return prefixes, nil
}

func parsePlayersConfig(c *PlayersConfig, data map[string]interface{}) error {
	for k, v := range data {
		switch k {
		case "capacity":
			v, ok := v.(int)
			if !ok {
				return fmt.Errorf("players: capacity must be an integer")
			}

			c.Capacity = v
		case "allow-self":
			v, ok := v.(bool)
			if !ok {
				return fmt.Errorf("players: allow-self must be a boolean")
			}

			c.AllowSelf = v
		default:
			return fmt.Errorf("players: unknown key: %s", k)
		}
	}

	return nil
}

func parseRateLimitConfig(c *RateLimitConfig, data map[string]interface{}) error {
	for k, v := range data {
		switch k {
		case "per-second":
			switch v := v.(type) {
			case int:
				c.PerSecond = float64(v)
			case float64:
				c.PerSecond = v
			default:
				return fmt.Errorf("rate-limit: per-second must be a number")
			}
		case "burst":
			v, ok := v.(int)
			if !ok {
				return fmt.Errorf("rate-limit: burst must be an integer")
			}

			c.Burst = v
		default:
			return fmt.Errorf("rate-limit: unknown key: %s", k)
		}
	}

	return nil
}

// AllowedClientSet returns the allow-list for TCP clients. Loopback is
// always allowed.
func (c *Config) AllowedClientSet() (*netipx.IPSet, error) {
	var b netipx.IPSetBuilder

	b.AddPrefix(netip.MustParsePrefix("127.0.0.0/8"))
	b.Add(netip.IPv6Loopback())

	for _, p := range c.AllowedClients {
		b.AddPrefix(p)
	}

	return b.IPSet()
}

func (c *Config) ServicesInBootOrder() []ServiceID {
	g := newGraph()

	g.addNode(ServiceAPIServer, ServiceEngine)

	if c.Catalog != "" {
		g.addNode(ServiceEngine, ServiceCatalogWatcher)
		g.addNode(ServiceCatalogWatcher)
	} else {
		g.addNode(ServiceEngine)
	}

	return g.topologicalSort()
}

func (c *Config) copy() *Config {
	newConfig := *c
	newConfig.AllowedClients = append([]netip.Prefix(nil), c.AllowedClients...)

	return &newConfig
}

func (c *Config) validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}

	if strings.ContainsAny(c.Prefix, " \t") {
		return fmt.Errorf("prefix must not contain whitespace: %q", c.Prefix)
	}

	if c.Socket == "" && c.Listen == "" {
		return fmt.Errorf("one of socket or listen is required")
	}

	if c.Listen != "" {
		if _, err := netip.ParseAddrPort(c.Listen); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	if c.MaxSuggestions <= 0 {
		return fmt.Errorf("max-suggestions must be positive: %d", c.MaxSuggestions)
	}

	if c.Players.Capacity <= 0 {
		return fmt.Errorf("players: capacity must be positive: %d", c.Players.Capacity)
	}

	if c.RateLimit.PerSecond <= 0 {
		return fmt.Errorf("rate-limit: per-second must be positive: %v", c.RateLimit.PerSecond)
	}

	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate-limit: burst must be positive: %d", c.RateLimit.Burst)
	}

	return nil
}
