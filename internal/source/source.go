package source

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind selects the adapter used for a source.
type Kind string

const (
	KindLever      Kind = "lever"
	KindGreenhouse Kind = "greenhouse"
	KindPage       Kind = "page"
)

func (k Kind) Valid() bool {
	switch k {
	case KindLever, KindGreenhouse, KindPage:
		return true
	}
	return false
}

// Descriptor is one employer in the roster. Locator is an API slug for the
// structured kinds and an absolute URL for KindPage.
type Descriptor struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Locator string `json:"locator"`
}

// ConfigError collects every malformed roster entry found at startup.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid source registry: %s", strings.Join(e.Problems, "; "))
}

func (e *ConfigError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Registry is the ordered, read-only employer roster.
type Registry struct {
	entries []Descriptor
}

// NewRegistry validates descs and freezes them in the given order.
func NewRegistry(descs []Descriptor) (*Registry, error) {
	cfgErr := &ConfigError{}
	entries := make([]Descriptor, 0, len(descs))

	for i, d := range descs {
		d.Name = strings.TrimSpace(d.Name)
		d.Locator = strings.TrimSpace(d.Locator)

		label := d.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		if d.Name == "" {
			cfgErr.add("entry %s: name is required", label)
		}
		if !d.Kind.Valid() {
			cfgErr.add("entry %s: unknown adapter kind %q", label, d.Kind)
		}
		if d.Locator == "" {
			cfgErr.add("entry %s: locator is required", label)
		} else if err := checkLocator(d.Kind, d.Locator); err != nil {
			cfgErr.add("entry %s: %v", label, err)
		}

		entries = append(entries, d)
	}

	if len(cfgErr.Problems) > 0 {
		return nil, cfgErr
	}
	return &Registry{entries: entries}, nil
}

func checkLocator(kind Kind, locator string) error {
	switch kind {
	case KindLever, KindGreenhouse:
		if strings.ContainsAny(locator, "/?# ") {
			return fmt.Errorf("%s slug %q must be a bare board name", kind, locator)
		}
	case KindPage:
		u, err := url.Parse(locator)
		if err != nil {
			return fmt.Errorf("page url %q: %w", locator, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("page url %q must be absolute http(s)", locator)
		}
	}
	return nil
}

// Entries returns a copy of the roster in registry order.
func (r *Registry) Entries() []Descriptor {
	if r == nil {
		return nil
	}
	out := make([]Descriptor, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// DuplicateNames reports names used by more than one entry, in first-seen order.
func (r *Registry) DuplicateNames() []string {
	if r == nil {
		return nil
	}
	counts := make(map[string]int, len(r.entries))
	var order []string
	for _, d := range r.entries {
		if counts[d.Name] == 0 {
			order = append(order, d.Name)
		}
		counts[d.Name]++
	}
	var dups []string
	for _, name := range order {
		if counts[name] > 1 {
			dups = append(dups, name)
		}
	}
	return dups
}
