// Package codec defines the injectable serialization capability used to
// turn application values into frame payloads and back. The framing layer
// never looks inside the bytes a codec produces.
package codec

import (
	"fmt"
	"sync"
)

// Codec encodes and decodes application values. Implementations must be
// safe for concurrent use.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

var registry = struct {
	codecs map[string]Codec
	sync.RWMutex
}{
	codecs: make(map[string]Codec),
}

// Register makes a codec available by its Name. It panics on nil codecs and
// duplicate registrations, both of which are programmer errors.
func Register(c Codec) {
	registry.Lock()
	defer registry.Unlock()

	if c == nil {
		panic("codec: Register called with nil codec")
	}
	if _, exists := registry.codecs[c.Name()]; exists {
		panic(fmt.Sprintf("codec: Register called twice for %q", c.Name()))
	}
	registry.codecs[c.Name()] = c
}

// Get returns the codec registered under name, or nil.
func Get(name string) Codec {
	registry.RLock()
	defer registry.RUnlock()

	return registry.codecs[name]
}

// GetOrDefault falls back to the JSON codec for unknown names.
func GetOrDefault(name string) Codec {
	if c := Get(name); c != nil {
		return c
	}
	return Default()
}

// Default is the codec connections use when none is configured.
func Default() Codec {
	return Get("json")
}

// List returns the registered codec names.
func List() []string {
	registry.RLock()
	defer registry.RUnlock()

	names := make([]string, 0, len(registry.codecs))
	for name := range registry.codecs {
		names = append(names, name)
	}
	return names
}
