package failover

import (
	"fmt"
	"sort"

	"aurora-ml/relay/pkg/providers"
)

// Catalog holds the immutable set of configured providers, ordered by
// priority. Construction filters out providers without usable credentials:
// an excluded provider never gets a breaker, never appears in a chain, and
// never surfaces in health output.
type Catalog struct {
	ordered []providers.Descriptor
	byKind  map[providers.Kind]providers.Descriptor
}

// NewCatalog builds a catalog from the given descriptors. Descriptors with
// empty or placeholder credentials are dropped; duplicates by kind are
// rejected. A catalog with zero usable providers is a fatal
// ConfigurationError.
func NewCatalog(descs []providers.Descriptor) (*Catalog, error) {
	byKind := make(map[providers.Kind]providers.Descriptor)
	ordered := make([]providers.Descriptor, 0, len(descs))

	for _, d := range descs {
		if !d.Kind.Valid() {
			return nil, &ConfigurationError{
				Message: fmt.Sprintf("unknown provider kind %q", d.Kind),
			}
		}
		if _, dup := byKind[d.Kind]; dup {
			return nil, &ConfigurationError{
				Message: fmt.Sprintf("provider %q configured twice", d.Kind),
			}
		}
		if !providers.UsableCredential(d.APIKey) {
			continue
		}
		byKind[d.Kind] = d
		ordered = append(ordered, d)
	}

	if len(ordered) == 0 {
		return nil, &ConfigurationError{
			Message: "no providers with usable credentials configured",
		}
	}

	// Ascending by priority; ties break on kind name so the order is
	// deterministic for a fixed configuration.
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].Kind < ordered[j].Kind
	})

	return &Catalog{ordered: ordered, byKind: byKind}, nil
}

// Len returns the number of usable providers.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// Contains reports whether kind is in the catalog.
func (c *Catalog) Contains(kind providers.Kind) bool {
	_, ok := c.byKind[kind]
	return ok
}

// Descriptor returns the descriptor for kind.
func (c *Catalog) Descriptor(kind providers.Kind) (providers.Descriptor, bool) {
	d, ok := c.byKind[kind]
	return d, ok
}

// Chain returns the provider kinds in priority order.
func (c *Catalog) Chain() []providers.Kind {
	chain := make([]providers.Kind, len(c.ordered))
	for i, d := range c.ordered {
		chain[i] = d.Kind
	}
	return chain
}

// reorder returns a copy of chain with primary moved to position 0. The
// input is never mutated; an unknown primary leaves the order unchanged.
func reorder(chain []providers.Kind, primary providers.Kind) []providers.Kind {
	out := make([]providers.Kind, 0, len(chain))
	found := false
	for _, k := range chain {
		if k == primary {
			found = true
			continue
		}
		out = append(out, k)
	}
	if !found {
		return append([]providers.Kind(nil), chain...)
	}
	return append([]providers.Kind{primary}, out...)
}
