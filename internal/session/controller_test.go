package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chaz8081/gostt-dictate/internal/audio"
	"github.com/chaz8081/gostt-dictate/internal/events"
)

type fakeRecorder struct {
	device    string
	startErr  error
	samples   []float32
	stopErr   error
	truncated bool

	started, stopped, cancelled int
}

func (r *fakeRecorder) Start() error {
	r.started++
	return r.startErr
}

func (r *fakeRecorder) Stop() ([]float32, error) {
	r.stopped++
	return r.samples, r.stopErr
}

func (r *fakeRecorder) Cancel()         { r.cancelled++ }
func (r *fakeRecorder) Truncated() bool { return r.truncated }

type fakeTranscriber struct {
	text     string
	err      error
	unloaded bool
	calls    int
	got      []float32
}

func (f *fakeTranscriber) Loaded() bool { return !f.unloaded }

func (f *fakeTranscriber) Process(samples []float32) (string, error) {
	f.calls++
	f.got = samples
	return f.text, f.err
}

type recordedEvent struct {
	name    string
	payload any
}

type eventLog struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (l *eventLog) Emit(name string, payload any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, recordedEvent{name, payload})
}

func (l *eventLog) names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		out = append(out, e.name)
	}
	return out
}

type harness struct {
	ctl       *Controller
	recorders []*fakeRecorder
	next      *fakeRecorder
	tr        *fakeTranscriber
	events    *eventLog
	device    string
}

func newHarness() *harness {
	h := &harness{
		tr:     &fakeTranscriber{text: "hello world"},
		events: &eventLog{},
	}
	factory := func(name string) (Recorder, error) {
		rec := h.next
		if rec == nil {
			rec = &fakeRecorder{samples: []float32{0.1, -0.1}}
		}
		h.next = nil
		rec.device = name
		h.recorders = append(h.recorders, rec)
		return rec, nil
	}
	h.ctl = New(&Flag{}, factory, func() string { return h.device }, h.tr, h.events)
	return h
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStartTwiceFails(t *testing.T) {
	h := newHarness()
	if err := h.ctl.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := h.ctl.Start(); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyRecording", err)
	}
	if len(h.recorders) != 1 {
		t.Fatalf("built %d recorders, want 1", len(h.recorders))
	}
	first := h.recorders[0]
	if first.stopped != 0 || first.cancelled != 0 {
		t.Errorf("first session was disturbed: stopped=%d cancelled=%d", first.stopped, first.cancelled)
	}
	if !h.ctl.Flag().IsSet() {
		t.Error("flag should still be set")
	}
}

func TestStartUsesSelectedDevice(t *testing.T) {
	h := newHarness()
	h.device = "USB Mic"
	if err := h.ctl.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := h.recorders[0].device; got != "USB Mic" {
		t.Errorf("recorder device = %q, want USB Mic", got)
	}
}

func TestStartFailureClearsFlag(t *testing.T) {
	h := newHarness()
	h.next = &fakeRecorder{startErr: audio.ErrDeviceConfig}
	if err := h.ctl.Start(); !errors.Is(err, audio.ErrDeviceConfig) {
		t.Fatalf("Start() error = %v, want ErrDeviceConfig", err)
	}
	if h.ctl.Flag().IsSet() {
		t.Error("flag should be clear after a failed start")
	}
	if err := h.ctl.Start(); err != nil {
		t.Errorf("Start() after failure error = %v", err)
	}
}

func TestFactoryFailureClearsFlag(t *testing.T) {
	flag := &Flag{}
	ctl := New(flag, func(string) (Recorder, error) { return nil, audio.ErrPermissionDenied }, nil, &fakeTranscriber{}, nil)
	if err := ctl.Start(); !errors.Is(err, audio.ErrPermissionDenied) {
		t.Fatalf("Start() error = %v, want ErrPermissionDenied", err)
	}
	if flag.IsSet() {
		t.Error("flag should be clear after the factory failed")
	}
}

func TestStopAndTranscribe(t *testing.T) {
	h := newHarness()
	if err := h.ctl.Start(); err != nil {
		t.Fatal(err)
	}

	var captured []float32
	h.ctl.OnCapture = func(_ string, samples []float32) { captured = samples }

	text, err := h.ctl.StopAndTranscribe()
	if err != nil {
		t.Fatalf("StopAndTranscribe() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want hello world", text)
	}
	if h.ctl.Flag().IsSet() {
		t.Error("flag should be clear after stop")
	}
	if len(h.tr.got) != 2 || len(captured) != 2 {
		t.Errorf("transcriber got %d samples, capture hook got %d, want 2", len(h.tr.got), len(captured))
	}

	want := []string{events.TranscriptionStarted, events.TranscriptionComplete}
	if got := h.events.names(); !equalNames(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if p := h.events.events[1].payload; p != "hello world" {
		t.Errorf("complete payload = %v", p)
	}

	if _, err := h.ctl.StopAndTranscribe(); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("second StopAndTranscribe() error = %v, want ErrNoActiveRecording", err)
	}
}

func TestStopWithoutSession(t *testing.T) {
	h := newHarness()
	if _, err := h.ctl.StopAndTranscribe(); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("StopAndTranscribe() error = %v, want ErrNoActiveRecording", err)
	}
	if h.tr.calls != 0 {
		t.Error("transcriber should not run without a session")
	}
}

func TestStopCaptureErrorSkipsTranscription(t *testing.T) {
	h := newHarness()
	h.next = &fakeRecorder{stopErr: audio.ErrTooQuiet}
	if err := h.ctl.Start(); err != nil {
		t.Fatal(err)
	}

	if _, err := h.ctl.StopAndTranscribe(); !errors.Is(err, audio.ErrTooQuiet) {
		t.Fatalf("StopAndTranscribe() error = %v, want ErrTooQuiet", err)
	}
	if h.tr.calls != 0 {
		t.Error("transcriber should not run after a rejected capture")
	}
	if h.ctl.Flag().IsSet() {
		t.Error("flag should be clear after a failed stop")
	}
	if got := h.events.names(); !equalNames(got, []string{events.TranscriptionError}) {
		t.Errorf("events = %v, want [%s]", got, events.TranscriptionError)
	}
}

func TestStopTranscriptionError(t *testing.T) {
	h := newHarness()
	h.tr.err = errors.New("boom")
	if err := h.ctl.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.ctl.StopAndTranscribe(); err == nil {
		t.Fatal("StopAndTranscribe() should surface the transcriber error")
	}
	want := []string{events.TranscriptionStarted, events.TranscriptionError}
	if got := h.events.names(); !equalNames(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if err := h.ctl.Start(); err != nil {
		t.Errorf("Start() after inference failure error = %v", err)
	}
}

func TestStopReportsTruncation(t *testing.T) {
	h := newHarness()
	h.next = &fakeRecorder{samples: []float32{0.2}, truncated: true}
	if err := h.ctl.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.ctl.StopAndTranscribe(); err != nil {
		t.Fatalf("StopAndTranscribe() error = %v", err)
	}
	want := []string{events.RecordingTruncated, events.TranscriptionStarted, events.TranscriptionComplete}
	if got := h.events.names(); !equalNames(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestCancel(t *testing.T) {
	h := newHarness()

	// Nothing to cancel.
	h.ctl.Cancel()

	if err := h.ctl.Start(); err != nil {
		t.Fatal(err)
	}
	h.ctl.Cancel()
	rec := h.recorders[0]
	if rec.cancelled != 1 || rec.stopped != 0 {
		t.Errorf("recorder cancelled=%d stopped=%d, want 1/0", rec.cancelled, rec.stopped)
	}
	if h.ctl.Flag().IsSet() {
		t.Error("flag should be clear after cancel")
	}
	if h.tr.calls != 0 || len(h.events.names()) != 0 {
		t.Error("cancel should not transcribe or emit")
	}
	if _, err := h.ctl.StopAndTranscribe(); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("StopAndTranscribe() after cancel error = %v, want ErrNoActiveRecording", err)
	}
}

func TestStartButtonMode(t *testing.T) {
	h := newHarness()
	if err := h.ctl.StartButtonMode(); err != nil {
		t.Fatalf("StartButtonMode() error = %v", err)
	}
	if got := h.events.names(); !equalNames(got, []string{events.StartRecordingButton}) {
		t.Errorf("events = %v, want [%s]", got, events.StartRecordingButton)
	}
	if err := h.ctl.StartButtonMode(); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second StartButtonMode() error = %v, want ErrAlreadyRecording", err)
	}
	if n := len(h.events.names()); n != 1 {
		t.Errorf("failed button start emitted; %d events total", n)
	}
}

func TestStopWithoutModel(t *testing.T) {
	h := newHarness()
	h.tr.unloaded = true
	if err := h.ctl.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.ctl.StopAndTranscribe(); !errors.Is(err, ErrNoModelLoaded) {
		t.Fatalf("StopAndTranscribe() error = %v, want ErrNoModelLoaded", err)
	}
	if h.tr.calls != 0 {
		t.Errorf("transcriber called %d times without a model", h.tr.calls)
	}
	want := []string{events.TranscriptionError}
	if got := h.events.names(); !equalNames(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if h.ctl.Flag().IsSet() {
		t.Error("flag should be clear")
	}
}

func TestStopDuringStartWaitsForRecorder(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu   sync.Mutex
		recs []*fakeRecorder
	)
	factory := func(name string) (Recorder, error) {
		rec := &fakeRecorder{device: name, samples: []float32{0.1, -0.1}}
		mu.Lock()
		recs = append(recs, rec)
		first := len(recs) == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
		return rec, nil
	}
	tr := &fakeTranscriber{text: "hello"}
	ctl := New(&Flag{}, factory, nil, tr, nil)

	startErr := make(chan error, 1)
	go func() { startErr <- ctl.Start() }()
	<-entered

	type result struct {
		text string
		err  error
	}
	stopped := make(chan result, 1)
	go func() {
		text, err := ctl.StopAndTranscribe()
		stopped <- result{text, err}
	}()

	select {
	case r := <-stopped:
		t.Fatalf("StopAndTranscribe() returned before Start finished: %q, %v", r.text, r.err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-startErr; err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	r := <-stopped
	if r.err != nil {
		t.Fatalf("StopAndTranscribe() error = %v", r.err)
	}
	if r.text != "hello" {
		t.Errorf("StopAndTranscribe() = %q, want %q", r.text, "hello")
	}
	if ctl.Flag().IsSet() {
		t.Fatal("flag should be clear after stop")
	}

	if err := ctl.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	ctl.Cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(recs) != 2 {
		t.Fatalf("built %d recorders, want 2", len(recs))
	}
	if recs[0].stopped != 1 {
		t.Errorf("first recorder stopped %d times, want 1", recs[0].stopped)
	}
	if recs[1].cancelled != 1 {
		t.Errorf("second recorder cancelled %d times, want 1", recs[1].cancelled)
	}
}

func TestFlag(t *testing.T) {
	var f Flag
	if !f.TrySet() {
		t.Fatal("TrySet() on clear flag = false")
	}
	if f.TrySet() {
		t.Fatal("TrySet() on set flag = true")
	}
	f.Clear()
	if f.IsSet() {
		t.Fatal("IsSet() after Clear() = true")
	}
}
