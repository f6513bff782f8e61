package flags

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/log"

	"github.com/flagkit/flagkit/store"
)

// reasonCounter records Add calls per "reason" label value.
type reasonCounter struct {
	mu     *sync.Mutex
	counts map[string]float64
	lvs    []string
}

func newReasonCounter() *reasonCounter {
	return &reasonCounter{mu: &sync.Mutex{}, counts: map[string]float64{}}
}

func (c *reasonCounter) With(labelValues ...string) metrics.Counter {
	return &reasonCounter{mu: c.mu, counts: c.counts, lvs: append(append([]string{}, c.lvs...), labelValues...)}
}

func (c *reasonCounter) Add(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i+1 < len(c.lvs); i += 2 {
		if c.lvs[i] == "reason" {
			c.counts[c.lvs[i+1]] += delta
		}
	}
}

func TestResolveAbsentReturnsDefault(t *testing.T) {
	r := NewResolver(store.New())
	k := NewKey("myKey", "myValue")
	if want, have := "myValue", Resolve(r, k); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
}

func TestResolveStored(t *testing.T) {
	s := store.New()
	r := NewResolver(s)
	k := NewKey("myKey", "myValue")

	s.Set("myKey", "VarA")
	if want, have := "VarA", Resolve(r, k); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	s := store.New()
	s.Set("myKey", "VarB")
	r := NewResolver(s)
	k := NewKey("myKey", "myValue")

	first := Resolve(r, k)
	for i := 0; i < 10; i++ {
		if have := Resolve(r, k); have != first {
			t.Fatalf("resolution %d: want %q, have %q", i, first, have)
		}
	}
	if want, have := uint64(1), s.Revision(); want != have {
		t.Errorf("resolve mutated the store: want revision %d, have %d", want, have)
	}
}

func TestResolveTyped(t *testing.T) {
	s := store.New()
	s.Set("enabled", "true")
	s.Set("limit", "42")
	s.Set("ratio", "0.25")
	r := NewResolver(s)

	if !Resolve(r, NewKey("enabled", false)) {
		t.Errorf("want true, have false")
	}
	if want, have := int64(42), Resolve(r, NewKey("limit", int64(7))); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
	if want, have := 0.25, Resolve(r, NewKey("ratio", 1.0)); want != have {
		t.Errorf("want %f, have %f", want, have)
	}

	for raw, want := range map[string]int64{
		"010":  10,
		"08":   8,
		" 12 ": 12,
		"-7":   -7,
	} {
		s.Set("padded", raw)
		d := ResolveDetail(r, NewKey("padded", int64(-1)))
		if d.Value != want || d.Reason != ReasonStored {
			t.Errorf("%q: want %d/%s, have %d/%s", raw, want, ReasonStored, d.Value, d.Reason)
		}
	}
}

func TestResolveCoercionFallback(t *testing.T) {
	s := store.New()
	s.Set("enabled", "maybe")
	s.Set("limit", "lots")
	s.Set("ratio", "half")

	var buf bytes.Buffer
	r := NewResolver(s, ResolverLogger(log.NewLogfmtLogger(&buf)))

	if d := ResolveDetail(r, NewKey("enabled", true)); !d.Value || d.Reason != ReasonFallback {
		t.Errorf("bool: want true/%s, have %t/%s", ReasonFallback, d.Value, d.Reason)
	}
	if d := ResolveDetail(r, NewKey("limit", int64(7))); d.Value != 7 || d.Reason != ReasonFallback {
		t.Errorf("int: want 7/%s, have %d/%s", ReasonFallback, d.Value, d.Reason)
	}
	if d := ResolveDetail(r, NewKey("ratio", 0.5)); d.Value != 0.5 || d.Reason != ReasonFallback {
		t.Errorf("float: want 0.5/%s, have %f/%s", ReasonFallback, d.Value, d.Reason)
	}

	if !strings.Contains(buf.String(), "key=limit") {
		t.Errorf("expected fallback to be logged, have %q", buf.String())
	}

	for _, raw := range []string{"0x10", "0b11", "0o17", "1_000"} {
		s.Set("based", raw)
		if d := ResolveDetail(r, NewKey("based", int64(-1))); d.Value != -1 || d.Reason != ReasonFallback {
			t.Errorf("%q: want -1/%s, have %d/%s", raw, ReasonFallback, d.Value, d.Reason)
		}
	}
}

func TestResolveNilResolver(t *testing.T) {
	var r *Resolver
	if want, have := "myValue", Resolve(r, NewKey("myKey", "myValue")); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
}

func TestResolveMetrics(t *testing.T) {
	s := store.New()
	s.Set("a", "VarA")
	s.Set("n", "nope")
	c := newReasonCounter()
	r := NewResolver(s, ResolverMetrics(c))

	Resolve(r, NewKey("a", ""))
	Resolve(r, NewKey("missing", ""))
	Resolve(r, NewKey("missing", ""))
	Resolve(r, NewKey("n", int64(0)))

	for reason, want := range map[Reason]float64{
		ReasonStored:   1,
		ReasonDefault:  2,
		ReasonFallback: 1,
	} {
		if have := c.counts[string(reason)]; want != have {
			t.Errorf("%s: want %f, have %f", reason, want, have)
		}
	}
}

func TestTypedAdapters(t *testing.T) {
	s := store.New()
	r := NewResolver(s)
	ctx := context.Background()

	str := NewStringer(r, NewKey("myKey", "myValue"))
	boo := NewBooler(r, NewKey("on", false))
	in := NewInter(r, NewKey("n", int64(3)))
	fl := NewFloater(r, NewKey("f", 1.5))

	if want, have := "myValue", str.String(ctx); want != have {
		t.Errorf("want %q, have %q", want, have)
	}

	s.Replace(map[string]string{"myKey": "VarA", "on": "1", "n": "9", "f": "2.5"})

	if want, have := "VarA", str.String(ctx); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
	if !boo.Bool(ctx) {
		t.Errorf("want true, have false")
	}
	if want, have := int64(9), in.Int(ctx); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
	if want, have := 2.5, fl.Float(ctx); want != have {
		t.Errorf("want %f, have %f", want, have)
	}
}

func TestConcurrentResolveAndSet(t *testing.T) {
	s := store.New()
	r := NewResolver(s)
	k := NewKey("myKey", "myValue")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				s.Set("myKey", "VarA")
			} else {
				s.Delete("myKey")
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			switch v := Resolve(r, k); v {
			case "VarA", "myValue":
			default:
				t.Errorf("unexpected value %q", v)
			}
		}
	}()
	wg.Wait()
}
