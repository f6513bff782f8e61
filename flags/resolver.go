package flags

import (
	"strconv"
	"strings"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cast"

	"github.com/flagkit/flagkit/store"
)

// Reason explains where a resolved value came from.
type Reason string

// Resolution reasons, also used as the "reason" metric label.
const (
	ReasonDefault  Reason = "default"  // no stored value
	ReasonStored   Reason = "stored"   // stored value used
	ReasonFallback Reason = "fallback" // stored value unreadable as the key's type
)

// Detail is a resolved value together with the reason it was chosen.
type Detail[T Value] struct {
	Value  T
	Reason Reason
}

// Resolver produces typed values for keys from a store. It never mutates the
// store. A nil *Resolver is valid and resolves every key to its default.
type Resolver struct {
	src         store.Getter
	logger      log.Logger
	resolutions metrics.Counter
}

// ResolverOption sets an optional parameter for resolvers.
type ResolverOption func(*Resolver)

// ResolverLogger sets the logger used to report values that could not be
// coerced. By default, nothing is logged.
func ResolverLogger(logger log.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// ResolverMetrics sets a counter incremented once per resolution, with the
// label "reason" set to one of the Reason constants.
func ResolverMetrics(resolutions metrics.Counter) ResolverOption {
	return func(r *Resolver) { r.resolutions = resolutions }
}

// NewResolver returns a Resolver reading from src.
func NewResolver(src store.Getter, options ...ResolverOption) *Resolver {
	r := &Resolver{
		src:         src,
		logger:      log.NewNopLogger(),
		resolutions: discard.NewCounter(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Resolve returns the effective value of k.
func Resolve[T Value](r *Resolver, k Key[T]) T {
	return ResolveDetail(r, k).Value
}

// ResolveDetail returns the effective value of k and why it was chosen.
func ResolveDetail[T Value](r *Resolver, k Key[T]) Detail[T] {
	if r == nil || r.src == nil {
		return Detail[T]{Value: k.Default, Reason: ReasonDefault}
	}
	d := Detail[T]{Value: k.Default, Reason: ReasonDefault}
	if raw, ok := r.src.Get(k.ID); ok {
		v, err := coerce[T](raw)
		if err != nil {
			level.Debug(r.logger).Log("msg", "stored value unreadable, using default", "key", k.ID, "err", err)
			d.Reason = ReasonFallback
		} else {
			d = Detail[T]{Value: v, Reason: ReasonStored}
		}
	}
	r.resolutions.With("reason", string(d.Reason)).Add(1)
	return d
}

// coerce reads raw as a T. Strings are returned as is.
func coerce[T Value](raw string) (T, error) {
	var (
		zero T
		v    any
		err  error
	)
	switch any(zero).(type) {
	case string:
		v = raw
	case bool:
		v, err = cast.ToBoolE(raw)
	case int64:
		// Always base 10: a stored "010" is ten, not eight.
		v, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	case float64:
		v, err = cast.ToFloat64E(raw)
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
