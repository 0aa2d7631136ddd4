package edition

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
)

// BaseName is the short name of the default edition.
const BaseName = "biolinux"

// Constructor builds an edition for the given distribution version.
type Constructor func(version string) Edition

// Registry maps edition short names to constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns a registry holding the built-in editions.
func NewRegistry() *Registry {
	r := &Registry{ctors: map[string]Constructor{}}
	_ = r.Register(BaseName, func(v string) Edition { return NewBase(v) })
	_ = r.Register("bionode", func(v string) Edition { return NewBioNode(v) })
	_ = r.Register("minimal", func(v string) Edition { return NewMinimal(v) })
	return r
}

// Default is the registry used by Select.
var Default = NewRegistry()

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, ctor Constructor) error {
	key := normalize(name)
	if key == "" {
		return &domain.OpError{
			Op:   "edition.register",
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("edition name is empty"),
		}
	}
	if ctor == nil {
		return &domain.OpError{
			Op:   "edition.register",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("edition %q: constructor is nil", key),
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[key] = ctor
	return nil
}

// Names returns the registered short names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type selectOptions struct {
	strict bool
	logger *slog.Logger
}

type SelectOption func(*selectOptions)

// WithStrict makes an unknown selector an error instead of a fallback to the base edition.
func WithStrict(strict bool) SelectOption {
	return func(o *selectOptions) { o.strict = strict }
}

// WithLogger sets where the fallback warning goes.
func WithLogger(l *slog.Logger) SelectOption {
	return func(o *selectOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Select constructs the edition registered under shortName. An empty selector
// yields the base edition; so does an unknown one unless WithStrict is set.
func (r *Registry) Select(shortName, version string, opts ...SelectOption) (Edition, error) {
	o := selectOptions{logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	key := normalize(shortName)
	if key == "" {
		key = BaseName
	}

	r.mu.RLock()
	ctor, ok := r.ctors[key]
	if !ok && !o.strict {
		ctor, ok = r.ctors[BaseName]
		if ok {
			o.logger.Warn("edition.unknown", "selector", shortName, "fallback", BaseName)
		}
	}
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.OpError{
			Op:   "edition.select",
			Kind: domain.KindUnknownEdition,
			Err:  fmt.Errorf("%q (known: %s): %w", shortName, strings.Join(r.Names(), ", "), domain.ErrUnknownEdition),
		}
	}

	ed := ctor(version)
	if ed == nil {
		return nil, &domain.OpError{
			Op:   "edition.select",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("edition %q: constructor returned nil", key),
		}
	}
	return ed, nil
}

// Select picks an edition from the Default registry.
func Select(shortName, version string, opts ...SelectOption) (Edition, error) {
	return Default.Select(shortName, version, opts...)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
