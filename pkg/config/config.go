// Package config loads file-based configuration for the connection layer.
// The authentication key is an explicit configuration value (inline or via
// key file), never hidden process-global state.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ipclink/ipclink/pkg/address"
	"github.com/ipclink/ipclink/pkg/codec"
	"github.com/ipclink/ipclink/pkg/frame"
)

type Config struct {
	Listener EndpointConfig `yaml:"listener"`
	Dial     DialConfig     `yaml:"dial"`
}

// EndpointConfig describes one endpoint: where it lives and how its
// connections behave.
type EndpointConfig struct {
	Address      string `yaml:"address"`
	Family       string `yaml:"family"`
	Backlog      int    `yaml:"backlog"`
	Authenticate bool   `yaml:"authenticate"`
	AuthKey      string `yaml:"auth_key"`
	AuthKeyFile  string `yaml:"auth_key_file"`
	Codec        string `yaml:"codec"`
	MaxFrameSize uint32 `yaml:"max_frame_size"`
}

type DialConfig struct {
	EndpointConfig `yaml:",inline"`

	DialTimeout Duration `yaml:"dial_timeout"`
}

// Duration parses "5s"-style strings in yaml.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dd
	return nil
}

func Default() *Config {
	return &Config{
		Listener: EndpointConfig{
			Backlog:      1,
			Codec:        "json",
			MaxFrameSize: frame.DefaultMaxFrameSize,
		},
		Dial: DialConfig{
			EndpointConfig: EndpointConfig{
				Codec:        "json",
				MaxFrameSize: frame.DefaultMaxFrameSize,
			},
			DialTimeout: Duration{5 * time.Second},
		},
	}
}

// Load reads and validates a yaml config file, applied over Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Listener.validate("listener"); err != nil {
		return err
	}
	return c.Dial.validate("dial")
}

func (e *EndpointConfig) validate(section string) error {
	if _, err := address.ParseFamily(e.Family); err != nil {
		return fmt.Errorf("%s: %w", section, err)
	}
	if e.Codec != "" && codec.Get(e.Codec) == nil {
		return fmt.Errorf("%s: unknown codec %q", section, e.Codec)
	}
	if e.AuthKey != "" && e.AuthKeyFile != "" {
		return fmt.Errorf("%s: auth_key and auth_key_file are mutually exclusive", section)
	}
	if e.Authenticate && e.AuthKey == "" && e.AuthKeyFile == "" {
		return fmt.Errorf("%s: authenticate requires auth_key or auth_key_file", section)
	}
	return nil
}

// ResolveAuthKey returns the configured key bytes: the inline value when
// set, otherwise the trimmed contents of the key file. Returns nil when no
// key is configured.
func (e *EndpointConfig) ResolveAuthKey() ([]byte, error) {
	if e.AuthKey != "" {
		return []byte(e.AuthKey), nil
	}
	if e.AuthKeyFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(e.AuthKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read auth key file: %w", err)
	}
	key := bytes.TrimSpace(data)
	if len(key) == 0 {
		return nil, fmt.Errorf("auth key file %s is empty", e.AuthKeyFile)
	}
	return key, nil
}

// ResolveAddr parses the configured address and family.
func (e *EndpointConfig) ResolveAddr() (address.Addr, address.Family, error) {
	family, err := address.ParseFamily(e.Family)
	if err != nil {
		return nil, address.FamilyUnknown, err
	}

	var addr address.Addr
	switch {
	case e.Address == "":
		addr = nil
	case family == address.TCP:
		tcp, err := address.HostPort(e.Address)
		if err != nil {
			return nil, address.FamilyUnknown, err
		}
		addr = tcp
	default:
		addr = address.FromString(e.Address)
		if family == address.FamilyUnknown && addr.Family() == address.Unix {
			// a host:port string with no explicit family is a TCP endpoint
			if tcp, err := address.HostPort(e.Address); err == nil {
				addr = tcp
			}
		}
	}
	return addr, family, nil
}
