package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/tragoedia0722/unrar/pkg/engine"
	"github.com/tragoedia0722/unrar/pkg/engine/enginetest"
	"github.com/tragoedia0722/unrar/pkg/relay"
)

const testTimeout = 5 * time.Second

type testListener struct {
	mu        sync.Mutex
	files     []string
	bytes     int
	passwords atomic.Int32
	onPass    func()
	onData    func(n int) int
}

func (l *testListener) OnFileProcessed(_ int, name string) {
	l.mu.Lock()
	l.files = append(l.files, name)
	l.mu.Unlock()
}

func (l *testListener) OnPasswordRequired() {
	l.passwords.Add(1)
	if l.onPass != nil {
		l.onPass()
	}
}

func (l *testListener) OnDataProcessed(n int) int {
	l.mu.Lock()
	l.bytes += n
	l.mu.Unlock()
	if l.onData != nil {
		return l.onData(n)
	}
	return relay.Continue
}

func newSession(e engine.Engine, opts ...Option) *Session {
	opts = append([]Option{WithLogger(zap.NewNop().Sugar())}, opts...)
	return New(engine.NewRuntime(e), opts...)
}

type extractResult struct {
	code engine.Code
	err  error
}

func extractAsync(ctx context.Context, s *Session) <-chan extractResult {
	out := make(chan extractResult, 1)
	go func() {
		code, err := s.Extract(ctx, "archive.rar", "out")
		out <- extractResult{code, err}
	}()
	return out
}

func waitResult(t *testing.T, ch <-chan extractResult) extractResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(testTimeout):
		t.Fatal("Extract did not return")
		return extractResult{}
	}
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for s.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want %v", s.State(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSession_InitialState(t *testing.T) {
	s := newSession(&enginetest.Engine{})

	if s.State() != Created {
		t.Errorf("State() = %v, want %v", s.State(), Created)
	}
	if s.PasswordSupplied() {
		t.Error("new session should not report a password")
	}
	if !s.Metadata().FirstVolume {
		t.Error("default metadata should mark the first volume")
	}
	if s.Result() != engine.Success {
		t.Errorf("Result() = %v before extraction", s.Result())
	}
}

func TestSession_Configuring(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*Session)
	}{
		{"listener", func(s *Session) { _ = s.AttachListener(&testListener{}) }},
		{"password", func(s *Session) { s.SetPassword("x") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(&enginetest.Engine{})
			tt.configure(s)
			if s.State() != Configuring {
				t.Errorf("State() = %v, want %v", s.State(), Configuring)
			}
		})
	}
}

func TestSession_PreseededPassword(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.Password("secret"),
		enginetest.Data(100),
		enginetest.File(0, "a.txt"),
	}}
	l := &testListener{}
	s := newSession(e, WithListener(l), WithPassword("secret"))

	code, err := s.Extract(context.Background(), "archive.rar", "out")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if code != engine.Success {
		t.Errorf("code = %v, want success", code)
	}
	if n := l.passwords.Load(); n != 0 {
		t.Errorf("OnPasswordRequired called %d times for a pre-seeded password", n)
	}
	if s.State() != Completed {
		t.Errorf("State() = %v, want %v", s.State(), Completed)
	}
	if !s.PasswordSupplied() {
		t.Error("PasswordSupplied() = false")
	}
}

func TestSession_ControllerAnswersChallenge(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.Password("hunter2"),
		enginetest.Data(10),
		enginetest.File(0, "a"),
		enginetest.Data(20),
		enginetest.File(0, "b"),
	}}

	challenged := make(chan struct{}, 4)
	l := &testListener{onPass: func() { challenged <- struct{}{} }}
	s := newSession(e, WithListener(l))

	done := extractAsync(context.Background(), s)

	select {
	case <-challenged:
	case <-time.After(testTimeout):
		t.Fatal("no password challenge")
	}
	waitState(t, s, AwaitingPassword)

	s.SetPassword("hunter2")

	r := waitResult(t, done)
	if r.err != nil || r.code != engine.Success {
		t.Fatalf("Extract() = %v, %v", r.code, r.err)
	}
	if n := l.passwords.Load(); n != 1 {
		t.Errorf("OnPasswordRequired called %d times, want 1", n)
	}
	if len(l.files) != 2 || l.bytes != 30 {
		t.Errorf("listener saw files=%v bytes=%d", l.files, l.bytes)
	}
	if st := s.Stats(); st.Challenges != 1 || st.Files != 2 || st.Bytes != 30 {
		t.Errorf("Stats() = %+v", st)
	}
	if got := e.Secrets(); len(got) != 1 || got[0] != "hunter2" {
		t.Errorf("engine received %v", got)
	}
}

func TestSession_SupplyFromListener(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{enginetest.Password("pw")}}
	var s *Session
	l := &testListener{onPass: func() { s.SetPassword("pw") }}
	s = newSession(e, WithListener(l))

	done := extractAsync(context.Background(), s)
	if r := waitResult(t, done); r.code != engine.Success || r.err != nil {
		t.Errorf("Extract() = %v, %v", r.code, r.err)
	}
}

func TestSession_OneNotificationPerChallenge(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.Password("pw"),
		enginetest.File(0, "vol1"),
		enginetest.Password("pw"),
		enginetest.File(0, "vol2"),
	}}
	var s *Session
	l := &testListener{onPass: func() { go s.SetPassword("pw") }}
	s = newSession(e, WithListener(l))

	r := waitResult(t, extractAsync(context.Background(), s))
	if r.code != engine.Success || r.err != nil {
		t.Fatalf("Extract() = %v, %v", r.code, r.err)
	}
	if n := l.passwords.Load(); n != 2 {
		t.Errorf("OnPasswordRequired called %d times, want 2", n)
	}
}

func TestSession_LastSupplyWins(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{enginetest.Password("third")}}
	s := newSession(e)
	s.SetPassword("first")
	s.SetPassword("second")
	s.SetPassword("third")

	code, err := s.Extract(context.Background(), "archive.rar", "out")
	if err != nil || code != engine.Success {
		t.Fatalf("Extract() = %v, %v", code, err)
	}
	if got := e.Secrets(); len(got) != 1 || got[0] != "third" {
		t.Errorf("engine received %v", got)
	}
}

func TestSession_WrongPasswordThenFreshSession(t *testing.T) {
	script := []enginetest.Step{enginetest.Password("right"), enginetest.File(0, "a")}

	first := newSession(&enginetest.Engine{Steps: script}, WithPassword("wrong"))
	code, err := first.Extract(context.Background(), "archive.rar", "out")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if code != engine.BadPassword {
		t.Errorf("code = %v, want %v", code, engine.BadPassword)
	}
	if first.State() != Failed {
		t.Errorf("State() = %v, want %v", first.State(), Failed)
	}
	if first.Result() != engine.BadPassword {
		t.Errorf("Result() = %v", first.Result())
	}

	second := newSession(&enginetest.Engine{Steps: script}, WithPassword("right"))
	code, err = second.Extract(context.Background(), "archive.rar", "out")
	if err != nil || code != engine.Success {
		t.Errorf("fresh session Extract() = %v, %v", code, err)
	}
}

func TestSession_ListenerCancels(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.Data(10),
		enginetest.Data(10),
		enginetest.File(0, "never"),
	}}
	l := &testListener{onData: func(int) int { return relay.Cancel }}
	s := newSession(e, WithListener(l))

	code, err := s.Extract(context.Background(), "archive.rar", "out")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if code.Completed() {
		t.Errorf("cancelled extraction reported %v", code)
	}
	if len(l.files) != 0 {
		t.Errorf("events after cancel: %v", l.files)
	}
	if !s.Stats().Cancelled {
		t.Error("Stats().Cancelled = false")
	}
}

func TestSession_NonCancelReturnValuesContinue(t *testing.T) {
	for _, ret := range []int{1, 0, 2, -2} {
		e := &enginetest.Engine{Steps: []enginetest.Step{enginetest.Data(1), enginetest.File(0, "a")}}
		l := &testListener{onData: func(int) int { return ret }}
		s := newSession(e, WithListener(l))

		if code, _ := s.Extract(context.Background(), "archive.rar", "out"); code != engine.Success {
			t.Errorf("return %d: code = %v", ret, code)
		}
	}
}

func TestSession_NoListenerNeverCancels(t *testing.T) {
	steps := make([]enginetest.Step, 0, 100)
	for i := 0; i < 100; i++ {
		steps = append(steps, enginetest.Data(1<<20))
	}
	s := newSession(&enginetest.Engine{Steps: steps})

	code, err := s.Extract(context.Background(), "archive.rar", "out")
	if err != nil || code != engine.Success {
		t.Errorf("Extract() = %v, %v", code, err)
	}
	if st := s.Stats(); st.Bytes != 100<<20 || st.Cancelled {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestSession_NoListenerDeclinesChallenge(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{enginetest.Password("pw")}}
	s := newSession(e)

	done := extractAsync(context.Background(), s)
	r := waitResult(t, done)
	if r.err != nil {
		t.Fatalf("Extract failed: %v", r.err)
	}
	if r.code != engine.MissingPassword {
		t.Errorf("code = %v, want %v", r.code, engine.MissingPassword)
	}
}

func TestSession_InterruptedWait(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{enginetest.Password("pw")}}
	l := &testListener{}
	s := newSession(e, WithListener(l))

	ctx, cancel := context.WithCancel(context.Background())
	done := extractAsync(ctx, s)
	waitState(t, s, AwaitingPassword)
	cancel()

	r := waitResult(t, done)
	if !errors.Is(r.err, ErrInterrupted) {
		t.Fatalf("err = %v, want ErrInterrupted", r.err)
	}
	if !errors.Is(r.err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled wrapped", r.err)
	}
	if r.code != engine.MissingPassword {
		t.Errorf("code = %v, want %v", r.code, engine.MissingPassword)
	}
	if s.State() != Failed {
		t.Errorf("State() = %v, want %v", s.State(), Failed)
	}
}

func TestSession_DoneContextSkipsChallenge(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{enginetest.Password("pw")}}
	l := &testListener{}
	s := newSession(e, WithListener(l))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := waitResult(t, extractAsync(ctx, s))
	if !errors.Is(r.err, ErrInterrupted) {
		t.Fatalf("err = %v, want ErrInterrupted", r.err)
	}
	if r.code != engine.MissingPassword {
		t.Errorf("code = %v, want %v", r.code, engine.MissingPassword)
	}
	if n := l.passwords.Load(); n != 0 {
		t.Errorf("OnPasswordRequired called %d times with a done context", n)
	}
}

func TestSession_ClearPassword(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{enginetest.Password("right")}}
	l := &testListener{}
	s := newSession(e, WithListener(l), WithPassword("stale"))

	s.ClearPassword()
	if s.PasswordSupplied() {
		t.Error("PasswordSupplied() = true after ClearPassword")
	}

	// The stale value is gone, so the engine's challenge reaches the listener.
	l.onPass = func() { go s.SetPassword("right") }
	r := waitResult(t, extractAsync(context.Background(), s))
	if r.err != nil || r.code != engine.Success {
		t.Fatalf("Extract() = %v, %v", r.code, r.err)
	}
	if n := l.passwords.Load(); n != 1 {
		t.Errorf("OnPasswordRequired called %d times, want 1", n)
	}
	if got := e.Secrets(); len(got) != 1 || got[0] != "right" {
		t.Errorf("engine received %v", got)
	}
}

func TestSession_StatsCoverLatestOperation(t *testing.T) {
	e := &enginetest.Engine{
		InspectSteps: []enginetest.Step{enginetest.Data(7), enginetest.File(0, "peek")},
		Steps:        []enginetest.Step{enginetest.Data(3), enginetest.File(0, "a")},
	}
	s := newSession(e)

	if _, err := s.Inspect(context.Background(), "archive.rar"); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.Bytes != 7 || st.Files != 1 {
		t.Errorf("Stats() after Inspect = %+v", st)
	}

	if _, err := s.Extract(context.Background(), "archive.rar", "out"); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.Bytes != 3 || st.Files != 1 {
		t.Errorf("Stats() after Extract = %+v, want only the extraction", st)
	}
}

func TestSession_BusyWhileRunning(t *testing.T) {
	e := &enginetest.Engine{Steps: []enginetest.Step{enginetest.Password("pw")}}
	s := newSession(e, WithListener(&testListener{}))

	done := extractAsync(context.Background(), s)
	waitState(t, s, AwaitingPassword)

	if err := s.AttachListener(&testListener{}); !errors.Is(err, ErrBusy) {
		t.Errorf("AttachListener() = %v, want ErrBusy", err)
	}
	if err := s.DetachListener(); !errors.Is(err, ErrBusy) {
		t.Errorf("DetachListener() = %v, want ErrBusy", err)
	}
	if _, err := s.Inspect(context.Background(), "archive.rar"); !errors.Is(err, ErrBusy) {
		t.Errorf("Inspect() = %v, want ErrBusy", err)
	}
	if _, err := s.Extract(context.Background(), "archive.rar", "out"); !errors.Is(err, ErrBusy) {
		t.Errorf("Extract() = %v, want ErrBusy", err)
	}

	s.SetPassword("pw")
	if r := waitResult(t, done); r.code != engine.Success {
		t.Errorf("code = %v", r.code)
	}

	if err := s.DetachListener(); err != nil {
		t.Errorf("DetachListener() after run = %v", err)
	}
}

func TestSession_SecondExtract(t *testing.T) {
	e := &enginetest.Engine{}
	s := newSession(e)

	if _, err := s.Extract(context.Background(), "archive.rar", "out"); err != nil {
		t.Fatalf("first Extract failed: %v", err)
	}
	if _, err := s.Extract(context.Background(), "archive.rar", "out"); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("second Extract() = %v, want ErrSessionFinished", err)
	}
	if s.State() != Completed {
		t.Errorf("State() = %v, want %v", s.State(), Completed)
	}
}

func TestSession_InitErrorIsSticky(t *testing.T) {
	initErr := errors.New("library missing")
	e := &enginetest.Engine{InitErr: initErr}
	rt := engine.NewRuntime(e)

	for i := 0; i < 3; i++ {
		s := New(rt, WithLogger(zap.NewNop().Sugar()))
		_, err := s.Extract(context.Background(), "archive.rar", "out")

		var ie *engine.InitError
		if !errors.As(err, &ie) {
			t.Fatalf("run %d: err = %v, want *engine.InitError", i, err)
		}
		if !errors.Is(err, initErr) {
			t.Errorf("run %d: init cause lost: %v", i, err)
		}
		if s.State() != Failed {
			t.Errorf("run %d: State() = %v", i, s.State())
		}
	}

	if n := e.Inits(); n != 1 {
		t.Errorf("engine initialized %d times, want 1", n)
	}
}

func TestSession_Inspect(t *testing.T) {
	e := &enginetest.Engine{Meta: engine.Metadata{
		Solid:       true,
		Volume:      true,
		FirstVolume: true,
		HasComment:  true,
		Comment:     "hello",
		Items:       3,
	}}
	s := newSession(e)

	for i := 0; i < 2; i++ {
		code, err := s.Inspect(context.Background(), "archive.rar")
		if err != nil || code != engine.Success {
			t.Fatalf("Inspect() = %v, %v", code, err)
		}
	}

	md := s.Metadata()
	if !md.Solid || !md.Volume || md.Comment != "hello" || md.Items != 3 {
		t.Errorf("Metadata() = %+v", md)
	}
	if s.State() != Created {
		t.Errorf("Inspect moved state to %v", s.State())
	}

	if _, err := s.Extract(context.Background(), "archive.rar", "out"); err != nil {
		t.Errorf("Extract after Inspect failed: %v", err)
	}
}

func TestSession_ExpandsHomeDir(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	e := &enginetest.Engine{}
	s := newSession(e)
	if _, err := s.Extract(context.Background(), "~/archive.rar", "~/out"); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if want := filepath.Join(home, "out"); e.Dest() != want {
		t.Errorf("dest = %q, want %q", e.Dest(), want)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Created, "created"},
		{AwaitingPassword, "awaiting-password"},
		{Failed, "failed"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
	if !Completed.Terminal() || Running.Terminal() {
		t.Error("Terminal() mismatch")
	}
}
