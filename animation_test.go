package bewegung

import (
	"context"
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"
	"time"
)

type scene struct {
	root, parent, child *Element
	stage               *stage
	player              *fakePlayer
}

// newScene lays out root > parent > child with child resting at left 50.
func newScene() scene {
	child := NewElement(WithID("child"))
	parent := NewElement(WithID("parent"), WithChildren(child))
	root := NewElement(WithID("root"), WithChildren(parent))

	st := newStage()
	st.place(root, Rect{Width: 800, Height: 800})
	st.place(parent, Rect{Width: 400, Height: 400})
	st.place(child, Rect{Left: 50, Width: 100, Height: 100})
	return scene{root: root, parent: parent, child: child, stage: st, player: &fakePlayer{}}
}

func moveChunk(target *Element) Chunk {
	return Chunk{
		Targets: []*Element{target},
		Keyframes: []ChunkKeyframe{
			{Properties: map[string]string{"left": "0px"}},
			{Properties: map[string]string{"left": "50px"}},
		},
		Options: ChunkOptions{Duration: time.Second},
	}
}

func (s scene) animation(t *testing.T, chunks []Chunk, opts ...Option) *Animation {
	t.Helper()
	opts = append([]Option{WithClock(nil), WithPlayer(s.player)}, opts...)
	a, err := New(s.root, chunks, s.stage, s.stage, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestAnimation_PlayComputesLazily(t *testing.T) {
	s := newScene()
	a := s.animation(t, []Chunk{moveChunk(s.child)})

	if len(s.stage.calls) != 0 {
		t.Fatalf("stage calls before play = %v, want none", s.stage.calls)
	}
	if err := a.Play(context.Background()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if got := a.State(); got != StateRunning {
		t.Errorf("State() = %v, want %v", got, StateRunning)
	}

	call := s.player.lastFor(t, s.child)
	want := []Keyframe{
		{Offset: 0, Transform: "translate(-50px,0px) scale(1,1)", Easing: "ease"},
		{Offset: 1, Transform: "translate(0px,0px) scale(1,1)", Easing: "linear"},
	}
	if !slices.Equal(call.keyframes, want) {
		t.Errorf("keyframes = %+v, want %+v", call.keyframes, want)
	}
	if call.runtime != time.Second {
		t.Errorf("runtime = %v, want %v", call.runtime, time.Second)
	}
	if got := call.handle.history(); !slices.Equal(got, []string{"play"}) {
		t.Errorf("handle ops = %v, want [play]", got)
	}
	if len(s.player.calls()) != 1 {
		t.Errorf("animated %d elements, want only the child", len(s.player.calls()))
	}
	if got := s.stage.overrides(s.child); len(got) != 0 {
		t.Errorf("sampling styles left on child: %v", got)
	}
}

func TestAnimation_Transitions(t *testing.T) {
	type action func(context.Context, *Animation) error

	var (
		play    action = func(ctx context.Context, a *Animation) error { return a.Play(ctx) }
		reverse action = func(ctx context.Context, a *Animation) error { return a.Reverse(ctx) }
		scroll  action = func(ctx context.Context, a *Animation) error { return a.Scroll(ctx, 0.5, false) }
		pause   action = func(_ context.Context, a *Animation) error { return a.Pause() }
		finish  action = func(_ context.Context, a *Animation) error { return a.Finish() }
		cancel  action = func(_ context.Context, a *Animation) error { return a.Cancel() }
	)

	type tc struct {
		actions []action
		want    State
		ops     []string
	}

	tests := map[string]tc{
		"pause while idle is ignored": {
			actions: []action{pause},
			want:    StateIdle,
		},
		"finish while idle is ignored": {
			actions: []action{finish},
			want:    StateIdle,
		},
		"play": {
			actions: []action{play},
			want:    StateRunning,
			ops:     []string{"play"},
		},
		"play pause reverse": {
			actions: []action{play, pause, reverse},
			want:    StateReversing,
			ops:     []string{"play", "pause", "reverse"},
		},
		"scroll from idle": {
			actions: []action{scroll},
			want:    StateScrolling,
			ops:     []string{"pause", "seek"},
		},
		"running cannot scroll": {
			actions: []action{play, scroll},
			want:    StateRunning,
			ops:     []string{"play"},
		},
		"paused can scroll": {
			actions: []action{play, pause, scroll},
			want:    StateScrolling,
			ops:     []string{"play", "pause", "pause", "seek"},
		},
		"scrolling back to running": {
			actions: []action{scroll, play},
			want:    StateRunning,
			ops:     []string{"pause", "seek", "play"},
		},
		"reversing to running": {
			actions: []action{reverse, play},
			want:    StateRunning,
			ops:     []string{"reverse", "play"},
		},
		"finished is terminal": {
			actions: []action{play, finish, play, cancel},
			want:    StateFinished,
			ops:     []string{"play", "finish"},
		},
		"cancel from paused": {
			actions: []action{play, pause, cancel, play},
			want:    StateCanceled,
			ops:     []string{"play", "pause", "cancel"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := newScene()
			a := s.animation(t, []Chunk{moveChunk(s.child)})
			ctx := context.Background()

			for i, act := range tt.actions {
				if err := act(ctx, a); err != nil {
					t.Fatalf("action %d error = %v", i, err)
				}
			}
			if got := a.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
			if tt.ops == nil {
				if n := len(s.player.calls()); n != 0 {
					t.Errorf("animated %d elements, want none", n)
				}
				return
			}
			if got := s.player.lastFor(t, s.child).handle.history(); !slices.Equal(got, tt.ops) {
				t.Errorf("handle ops = %v, want %v", got, tt.ops)
			}
		})
	}
}

func TestAnimation_ScrollClamps(t *testing.T) {
	type tc struct {
		progress float64
		done     bool
		want     time.Duration
	}

	tests := map[string]tc{
		"start is clamped":         {progress: 0, want: time.Millisecond},
		"end is clamped":           {progress: 1, want: 999 * time.Millisecond},
		"middle":                   {progress: 0.5, want: 500 * time.Millisecond},
		"done reaches the end":     {progress: 1, done: true, want: time.Second},
		"done stays within bounds": {progress: -3, done: true, want: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := newScene()
			a := s.animation(t, []Chunk{moveChunk(s.child)})

			if err := a.Scroll(context.Background(), tt.progress, tt.done); err != nil {
				t.Fatalf("Scroll() error = %v", err)
			}
			if got := s.player.lastFor(t, s.child).handle.CurrentTime(); got != tt.want {
				t.Errorf("CurrentTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnimation_CallbacksFireInOffsetOrder(t *testing.T) {
	s := newScene()
	var fired []string
	note := func(name string) func() {
		return func() { fired = append(fired, name) }
	}

	first := moveChunk(s.child)
	first.Callbacks = []Callback{{Offset: 1, Fn: note("first-end")}, {Offset: 0.25, Fn: note("first-quarter")}}
	second := Chunk{
		Targets: []*Element{s.child},
		Keyframes: []ChunkKeyframe{
			{Properties: map[string]string{"opacity": "1"}},
			{Properties: map[string]string{"opacity": "1"}},
		},
		Options:   ChunkOptions{Duration: time.Second},
		Callbacks: []Callback{{Offset: 0.5, Fn: note("second-half")}},
	}
	a := s.animation(t, []Chunk{first, second})
	ctx := context.Background()

	if err := a.Scroll(ctx, 0.6, false); err != nil {
		t.Fatalf("Scroll() error = %v", err)
	}
	if want := []string{"first-quarter", "second-half"}; !slices.Equal(fired, want) {
		t.Errorf("after scroll fired = %v, want %v", fired, want)
	}
	if err := a.Scroll(ctx, 0.2, false); err != nil {
		t.Fatalf("Scroll() error = %v", err)
	}
	if len(fired) != 2 {
		t.Errorf("scrolling back fired again: %v", fired)
	}
	if err := a.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if want := []string{"first-quarter", "second-half", "first-end"}; !slices.Equal(fired, want) {
		t.Errorf("after finish fired = %v, want %v", fired, want)
	}
}

// hidingScene hides child at the end so it needs a position override.
func hidingScene(t *testing.T) (scene, *Animation) {
	t.Helper()
	s := newScene()
	chunk := Chunk{
		Targets: []*Element{s.child},
		Keyframes: []ChunkKeyframe{
			{Properties: map[string]string{"display": "block"}},
			{Properties: map[string]string{"display": "none"}},
		},
		Options: ChunkOptions{Duration: time.Second},
	}
	return s, s.animation(t, []Chunk{chunk})
}

func TestAnimation_CancelRestoresOverrides(t *testing.T) {
	s, a := hidingScene(t)

	if err := a.Play(context.Background()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if got := s.stage.overrides(s.child)["position"]; got != "absolute" {
		t.Fatalf("child position override = %q, want absolute", got)
	}
	if got := s.stage.overrides(s.parent)["position"]; got != "relative" {
		t.Fatalf("parent position override = %q, want relative", got)
	}

	if err := a.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if got := a.State(); got != StateCanceled {
		t.Errorf("State() = %v, want %v", got, StateCanceled)
	}
	for _, el := range []*Element{s.child, s.parent} {
		if got := s.stage.overrides(el); len(got) != 0 {
			t.Errorf("%s overrides after cancel = %v, want none", el, got)
		}
	}
	ops := s.player.lastFor(t, s.child).handle.history()
	if ops[len(ops)-1] != "cancel" {
		t.Errorf("handle ops = %v, want ending in cancel", ops)
	}
	if _, err := a.Prepare(context.Background()); !errors.Is(err, ErrEnded) {
		t.Errorf("Prepare() after cancel error = %v, want %v", err, ErrEnded)
	}
}

func TestAnimation_MountFailureReturnsToIdle(t *testing.T) {
	s, a := hidingScene(t)
	s.player.failOn = s.child

	if err := a.Play(context.Background()); err == nil {
		t.Fatal("Play() error = nil, want mount failure")
	}
	if got := a.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}
	for _, el := range []*Element{s.child, s.parent} {
		if got := s.stage.overrides(el); len(got) != 0 {
			t.Errorf("%s overrides after failed mount = %v, want none", el, got)
		}
	}
}

func TestAnimation_PlayWithoutPlayer(t *testing.T) {
	s := newScene()
	a, err := New(s.root, []Chunk{moveChunk(s.child)}, s.stage, s.stage, WithClock(nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Play(context.Background()); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("Play() error = %v, want %v", err, ErrNoPlayer)
	}
}

func TestAnimation_PrepareDoesNotPlay(t *testing.T) {
	s := newScene()
	a := s.animation(t, []Chunk{moveChunk(s.child)})

	res, err := a.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if got := a.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}
	if !slices.Equal(res.Timeline, []float64{0, 1}) {
		t.Errorf("Timeline = %v, want [0 1]", res.Timeline)
	}
	if frames := res.Elements[s.child]; len(frames) != 2 || frames[0].Transform != "translate(-50px,0px) scale(1,1)" {
		t.Errorf("child keyframes = %+v", frames)
	}
	if len(s.player.calls()) != 0 {
		t.Error("Prepare() should not animate")
	}

	reads := len(s.stage.calls)
	if err := a.Play(context.Background()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if len(s.stage.calls) != reads {
		t.Errorf("Play() after Prepare() sampled again: %v", s.stage.calls[reads:])
	}
}

func TestNew_Errors(t *testing.T) {
	s := newScene()

	type tc struct {
		chunks []Chunk
		opts   []Option
		wantIs error
		wantAs bool
	}

	tests := map[string]tc{
		"chunk without targets": {
			chunks: []Chunk{{Keyframes: moveChunk(s.child).Keyframes}},
			wantIs: ErrNoTargets,
			wantAs: true,
		},
		"unbounded iterations": {
			chunks: []Chunk{{Targets: []*Element{s.child}, Options: ChunkOptions{Duration: time.Second, Iterations: math.Inf(1)}}},
		},
		"bad frame rate": {
			chunks: []Chunk{moveChunk(s.child)},
			opts:   []Option{WithFrameRate(0)},
		},
		"bad budget": {
			chunks: []Chunk{moveChunk(s.child)},
			opts:   []Option{WithFrameBudget(1.5)},
		},
		"bad debounce": {
			chunks: []Chunk{moveChunk(s.child)},
			opts:   []Option{WithDebounce(time.Microsecond)},
		},
		"invalid config": {
			chunks: []Chunk{moveChunk(s.child)},
			opts:   []Option{WithConfig(Config{RootPolicy: "first-wins"})},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(s.root, tt.chunks, s.stage, s.stage, tt.opts...)
			if err == nil {
				t.Fatal("New() error = nil")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("New() error = %v, want %v", err, tt.wantIs)
			}
			var input *InputError
			if tt.wantAs && !errors.As(err, &input) {
				t.Errorf("New() error = %T, want *InputError", err)
			}
		})
	}
}

func TestAnimation_LoadingReplaysLatestRequest(t *testing.T) {
	s := newScene()
	clock := newManualClock()
	a, err := New(s.root, []Chunk{moveChunk(s.child)}, s.stage, s.stage, WithClock(clock), WithPlayer(s.player))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	errs := make(chan error, 2)
	go func() { errs <- a.Play(context.Background()) }()
	waitFor(t, "loading", func() bool { return a.State() == StateLoading })

	go func() { errs <- a.Pause() }()
	waitFor(t, "pause to be queued", func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.pending.to == StatePaused
	})

	stop := make(chan struct{})
	defer close(stop)
	go clock.run(stop)

	for range 2 {
		if err := <-errs; err != nil {
			t.Fatalf("request error = %v", err)
		}
	}
	if got := a.State(); got != StatePaused {
		t.Errorf("State() = %v, want %v", got, StatePaused)
	}
	if got := s.player.lastFor(t, s.child).handle.history(); !slices.Equal(got, []string{"pause"}) {
		t.Errorf("handle ops = %v, want [pause]", got)
	}
}

func TestAnimation_CancelWhileLoading(t *testing.T) {
	s := newScene()
	a, err := New(s.root, []Chunk{moveChunk(s.child)}, s.stage, s.stage, WithClock(newManualClock()), WithPlayer(s.player))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	errs := make(chan error, 1)
	go func() { errs <- a.Play(context.Background()) }()
	waitFor(t, "loading", func() bool { return a.State() == StateLoading })

	if err := a.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := <-errs; !errors.Is(err, ErrCanceled) {
		t.Errorf("Play() error = %v, want %v", err, ErrCanceled)
	}
	if got := a.State(); got != StateCanceled {
		t.Errorf("State() = %v, want %v", got, StateCanceled)
	}
	if n := len(s.player.calls()); n != 0 {
		t.Errorf("animated %d elements after cancel, want none", n)
	}
}

func TestAnimation_StructuralMutationSwapsKeyframes(t *testing.T) {
	s := newScene()
	a := s.animation(t, []Chunk{moveChunk(s.child)},
		WithStructuralWatcher(WatchTree(s.root)),
		WithDebounce(time.Millisecond))
	defer a.Cancel()

	if err := a.Play(context.Background()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	old := s.player.lastFor(t, s.child).handle
	old.SetCurrentTime(300 * time.Millisecond)

	s.parent.AddChild(NewElement(WithID("late")))
	waitFor(t, "recomputed keyframes", func() bool { return len(s.player.calls()) == 2 })

	waitFor(t, "old handle canceled", func() bool {
		ops := old.history()
		return ops[len(ops)-1] == "cancel"
	})
	fresh := s.player.lastFor(t, s.child).handle
	waitFor(t, "new handle resumed", func() bool {
		return slices.Equal(fresh.history(), []string{"seek", "play"})
	})
	if got := fresh.CurrentTime(); got != 300*time.Millisecond {
		t.Errorf("resumed at %v, want 300ms", got)
	}
	if got := a.State(); got != StateRunning {
		t.Errorf("State() = %v, want %v", got, StateRunning)
	}
}

func TestAnimation_MutationResamplesOnlyTouchedRegion(t *testing.T) {
	s := newScene()
	note := NewElement(WithID("note"))
	aside := NewElement(WithID("aside"), WithChildren(note))
	s.root.AddChild(aside)
	s.stage.place(aside, Rect{Top: 400, Width: 400, Height: 400})
	s.stage.place(note, Rect{Top: 400, Width: 100, Height: 100})

	inParent := moveChunk(s.child)
	inParent.Options.RootSelector = "#parent"
	inAside := moveChunk(note)
	inAside.Options.RootSelector = "#aside"

	a := s.animation(t, []Chunk{inParent, inAside},
		WithStructuralWatcher(WatchTree(s.root)),
		WithDebounce(time.Millisecond))
	defer a.Cancel()

	if err := a.Play(context.Background()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	a.mu.Lock()
	before := a.current
	a.mu.Unlock()
	played := len(s.player.calls())
	untouched := map[*Element]int{aside: s.stage.readsOf(aside), note: s.stage.readsOf(note)}
	childReads := s.stage.readsOf(s.child)

	late := NewElement(WithID("late"))
	s.stage.place(late, Rect{Top: 100, Width: 100, Height: 100})
	s.parent.AddChild(late)
	waitFor(t, "recomputed keyframes", func() bool { return len(s.player.calls()) > played })

	a.mu.Lock()
	after := a.current
	a.mu.Unlock()
	if after.generation != before.generation+1 {
		t.Errorf("generation = %d, want %d", after.generation, before.generation+1)
	}
	for el, n := range untouched {
		if got := s.stage.readsOf(el); got != n {
			t.Errorf("%s read %d times, want %d", el.ID(), got, n)
		}
		oldKey, _ := before.graph.Key(el)
		newKey, _ := after.graph.Key(el)
		if !reflect.DeepEqual(after.series[newKey], before.series[oldKey]) {
			t.Errorf("%s readouts = %v, want %v", el.ID(), after.series[newKey], before.series[oldKey])
		}
	}
	if got := s.stage.readsOf(s.child); got <= childReads {
		t.Errorf("child read %d times, want more than %d", got, childReads)
	}
	if s.stage.readsOf(late) == 0 {
		t.Error("late element was never read")
	}
}

func TestAnimation_MutationOutsideRegionKeepsKeyframes(t *testing.T) {
	s := newScene()
	aside := NewElement(WithID("aside"), WithChildren(NewElement(WithID("note"))))
	s.root.AddChild(aside)
	chunk := moveChunk(s.child)
	chunk.Options.RootSelector = "#parent"

	a := s.animation(t, []Chunk{chunk},
		WithStructuralWatcher(WatchTree(s.root)),
		WithDebounce(time.Millisecond))
	defer a.Cancel()

	if err := a.Play(context.Background()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	aside.AddChild(NewElement(WithID("elsewhere")))

	waitFor(t, "mutation to be consumed", func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.generation > 0 && !a.dirty()
	})
	if n := len(s.player.calls()); n != 1 {
		t.Errorf("animated %d times, want the original animation only", n)
	}
}
