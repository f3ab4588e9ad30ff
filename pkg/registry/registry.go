// Package registry holds the immutable market table built from the
// exchange's symbol list. A Registry value is never mutated after Build;
// reloading swaps the whole value through a Holder so the two lookup
// indices can never be observed out of sync.
package registry

import (
	"fmt"
	"strings"
	"sync/atomic"

	"uexgo/pkg/core"
)

// Registry indexes markets by exchange-native id and by canonical symbol.
type Registry struct {
	byID     map[string]core.Market
	bySymbol map[string]core.Market
	markets  []core.Market
}

// Build constructs a Registry from a list of markets. Duplicate market ids
// or canonical symbols are rejected, as are negative precision values.
func Build(markets []core.Market) (*Registry, error) {
	r := &Registry{
		byID:     make(map[string]core.Market, len(markets)),
		bySymbol: make(map[string]core.Market, len(markets)),
		markets:  make([]core.Market, 0, len(markets)),
	}

	for _, m := range markets {
		if m.ID == "" || m.Symbol == "" {
			return nil, fmt.Errorf("market missing id or symbol: %+v", m)
		}
		if m.PricePrecision < 0 || m.AmountPrecision < 0 {
			return nil, fmt.Errorf("market %s: negative precision", m.ID)
		}
		if _, exists := r.byID[m.ID]; exists {
			return nil, fmt.Errorf("duplicate market id %q", m.ID)
		}
		if _, exists := r.bySymbol[m.Symbol]; exists {
			return nil, fmt.Errorf("duplicate market symbol %q", m.Symbol)
		}
		r.byID[m.ID] = m
		r.bySymbol[m.Symbol] = m
		r.markets = append(r.markets, m)
	}

	return r, nil
}

// ByID returns the market with the given exchange-native identifier.
func (r *Registry) ByID(id string) (core.Market, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// BySymbol returns the market with the given canonical symbol.
func (r *Registry) BySymbol(symbol string) (core.Market, bool) {
	m, ok := r.bySymbol[symbol]
	return m, ok
}

// Markets returns a copy of all markets in load order.
func (r *Registry) Markets() []core.Market {
	out := make([]core.Market, len(r.markets))
	copy(out, r.markets)
	return out
}

// Symbols returns all canonical symbols in load order.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.markets))
	for _, m := range r.markets {
		out = append(out, m.Symbol)
	}
	return out
}

// Len returns the number of markets in the registry.
func (r *Registry) Len() int {
	return len(r.markets)
}

// Holder publishes a Registry to concurrent readers. Replace installs a new
// registry atomically, so both indices change together.
type Holder struct {
	ptr atomic.Pointer[Registry]
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Load returns the current registry, or nil when markets have not been
// loaded yet.
func (h *Holder) Load() *Registry {
	return h.ptr.Load()
}

// Replace installs reg as the current registry.
func (h *Holder) Replace(reg *Registry) {
	h.ptr.Store(reg)
}

// Loaded reports whether a registry has been installed.
func (h *Holder) Loaded() bool {
	return h.ptr.Load() != nil
}

// CurrencyCode canonicalizes an exchange-native currency code: upper-cases
// it and maps exchange-specific aliases onto standard ticker symbols. The
// same rule applies to base/quote codes and fee currencies.
func CurrencyCode(code string, aliases map[string]string) string {
	upper := strings.ToUpper(strings.TrimSpace(code))
	if canonical, ok := aliases[upper]; ok {
		return canonical
	}
	return upper
}
