package bewegung

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// stage is a scripted layout: every element has a resting box, and applied
// "left" and "width" styles move or resize it.
type stage struct {
	mu       sync.Mutex
	boxes    map[*Element]Rect
	display  map[*Element]string
	applied  map[*Element]map[string]string
	reads    map[*Element]int
	calls    []string
	restored []*Element
}

func newStage() *stage {
	return &stage{
		boxes:   map[*Element]Rect{},
		display: map[*Element]string{},
		applied: map[*Element]map[string]string{},
		reads:   map[*Element]int{},
	}
}

func (s *stage) place(el *Element, box Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes[el] = box
}

func (s *stage) Read(el *Element) (Readout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[el]++
	box, ok := s.boxes[el]
	if !ok {
		return Readout{}, errors.New("not laid out")
	}
	props := s.applied[el]
	if v, ok := px(props["left"]); ok {
		box.Left = v
	}
	if v, ok := px(props["width"]); ok {
		box.Width = v
	}
	display := s.display[el]
	if d, ok := props["display"]; ok {
		display = d
	}
	return Readout{Box: box, Display: display}, nil
}

func (s *stage) Apply(el *Element, o StyleOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("apply %s", el.ID()))
	if s.applied[el] == nil {
		s.applied[el] = map[string]string{}
	}
	maps.Copy(s.applied[el], o.Properties)
	return nil
}

func (s *stage) Restore(el *Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("restore %s", el.ID()))
	s.restored = append(s.restored, el)
	delete(s.applied, el)
	return nil
}

func (s *stage) readsOf(el *Element) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[el]
}

func (s *stage) overrides(el *Element) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.applied[el])
}

func px(v string) (float64, bool) {
	if !strings.HasSuffix(v, "px") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	return f, err == nil
}

type fakeHandle struct {
	mu  sync.Mutex
	ops []string
	at  time.Duration
}

func (h *fakeHandle) record(op string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, op)
}

func (h *fakeHandle) Play()    { h.record("play") }
func (h *fakeHandle) Pause()   { h.record("pause") }
func (h *fakeHandle) Reverse() { h.record("reverse") }
func (h *fakeHandle) Finish()  { h.record("finish") }
func (h *fakeHandle) Cancel()  { h.record("cancel") }

func (h *fakeHandle) SetCurrentTime(t time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, "seek")
	h.at = t
}

func (h *fakeHandle) CurrentTime() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.at
}

func (h *fakeHandle) history() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ops...)
}

type animateCall struct {
	el        *Element
	keyframes []Keyframe
	runtime   time.Duration
	handle    *fakeHandle
}

type fakePlayer struct {
	mu        sync.Mutex
	animated  []animateCall
	mounted   []Synthetic
	unmounted []Synthetic
	failOn    *Element
}

func (p *fakePlayer) Animate(el *Element, keyframes []Keyframe, runtime time.Duration) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el == p.failOn {
		return nil, errors.New("no animation support")
	}
	h := &fakeHandle{}
	p.animated = append(p.animated, animateCall{el: el, keyframes: keyframes, runtime: runtime, handle: h})
	return h, nil
}

func (p *fakePlayer) Mount(el *Element, layer Synthetic, runtime time.Duration) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mounted = append(p.mounted, layer)
	return &fakeHandle{}, nil
}

func (p *fakePlayer) Unmount(el *Element, layer Synthetic) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unmounted = append(p.unmounted, layer)
	return nil
}

func (p *fakePlayer) calls() []animateCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]animateCall(nil), p.animated...)
}

// lastFor returns the most recent animation of el.
func (p *fakePlayer) lastFor(t *testing.T, el *Element) animateCall {
	t.Helper()
	calls := p.calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].el == el {
			return calls[i]
		}
	}
	t.Fatalf("%s was never animated", el)
	return animateCall{}
}

// manualClock delivers ticks only when the test sends them.
type manualClock struct {
	ticks chan time.Time
	now   time.Time
}

func newManualClock() *manualClock {
	return &manualClock{ticks: make(chan time.Time), now: time.Unix(0, 0)}
}

func (c *manualClock) Now() time.Time         { return c.now }
func (c *manualClock) Tick() <-chan time.Time { return c.ticks }

// run keeps ticking until stop is closed.
func (c *manualClock) run(stop <-chan struct{}) {
	at := c.now
	for {
		at = at.Add(16 * time.Millisecond)
		select {
		case c.ticks <- at:
		case <-stop:
			return
		}
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
