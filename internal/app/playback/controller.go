package playback

import (
	"context"
	"sync"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/audio"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
)

// Synthesizer turns text into base64 PCM16 speech, "" meaning no audio.
type Synthesizer interface {
	Speak(ctx context.Context, text string) string
}

// Controller owns the audio output of one session and keeps at most one
// playback active: every Play or Stop supersedes whatever came before.
type Controller struct {
	synth      Synthesizer
	newOutput  audio.OutputFactory
	sampleRate int

	outMu sync.Mutex
	out   audio.Output

	mu       sync.Mutex
	state    State
	gen      uint64
	voice    audio.Voice
	closed   bool
	onChange func(State)
}

func NewController(synth Synthesizer, newOutput audio.OutputFactory) *Controller {
	return &Controller{
		synth:      synth,
		newOutput:  newOutput,
		sampleRate: audio.SpeechSampleRate,
		state:      StateIdle,
	}
}

// OnStateChange registers fn to be called after every state transition.
// fn runs without the controller lock held.
func (c *Controller) OnStateChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Play speaks text. It returns once playback has started, or once the
// request resolved to idle (no audio, failure, or superseded). Errors are
// logged, never returned.
func (c *Controller) Play(ctx context.Context, text string) {
	log := observability.LoggerFromContext(ctx).With("component", "playback")

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.gen++
	gen := c.gen
	notify := c.setStateLocked(StateLoading)
	c.mu.Unlock()
	notify()

	out, err := c.output(ctx)
	if err != nil {
		log.Error("audio output unavailable", "error", err)
		observability.PlaybackFailures.WithLabelValues("device").Inc()
		c.finish(gen)
		return
	}
	if err := out.Resume(ctx); err != nil {
		log.Error("resuming audio output failed", "error", err)
		observability.PlaybackFailures.WithLabelValues("device").Inc()
		c.finish(gen)
		return
	}

	b64 := c.synth.Speak(ctx, text)
	if b64 == "" {
		log.Debug("no speech returned, staying silent")
		c.finish(gen)
		return
	}

	buf, err := audio.DecodePCMBase64(b64, c.sampleRate)
	if err != nil {
		log.Error("decoding speech failed", "error", err)
		observability.PlaybackFailures.WithLabelValues("decode").Inc()
		c.finish(gen)
		return
	}

	c.mu.Lock()
	if gen != c.gen || c.closed {
		c.mu.Unlock()
		observability.PlaybacksSuperseded.Inc()
		log.Debug("speech superseded before playback")
		return
	}
	voice, err := out.Start(buf)
	if err != nil {
		notify = c.setStateLocked(StateIdle)
		c.mu.Unlock()
		notify()
		log.Error("starting playback failed", "error", err)
		observability.PlaybackFailures.WithLabelValues("device").Inc()
		return
	}
	c.voice = voice
	notify = c.setStateLocked(StatePlaying)
	c.mu.Unlock()
	notify()

	observability.PlaybacksStarted.Inc()
	log.Info("playback started", "duration_ms", buf.Duration().Milliseconds())

	go c.watch(gen, voice)
}

// Stop terminates the active playback, if any, and cancels a pending one.
// Safe to call at any time.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.gen++
	c.stopLocked()
	notify := c.setStateLocked(StateIdle)
	c.mu.Unlock()
	notify()
}

// Close stops playback and releases the output context.
func (c *Controller) Close() error {
	c.Stop()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.out == nil {
		return nil
	}
	err := c.out.Close()
	c.out = nil
	return err
}

func (c *Controller) output(ctx context.Context) (audio.Output, error) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.out != nil {
		return c.out, nil
	}
	out, err := c.newOutput(ctx)
	if err != nil {
		return nil, err
	}
	c.out = out
	return out, nil
}

func (c *Controller) watch(gen uint64, voice audio.Voice) {
	<-voice.Done()

	c.mu.Lock()
	if c.gen != gen || c.voice != voice {
		c.mu.Unlock()
		return
	}
	c.voice = nil
	notify := c.setStateLocked(StateIdle)
	c.mu.Unlock()
	notify()
}

func (c *Controller) finish(gen uint64) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	notify := c.setStateLocked(StateIdle)
	c.mu.Unlock()
	notify()
}

func (c *Controller) stopLocked() {
	if c.voice != nil {
		c.voice.Stop()
		c.voice = nil
	}
}

// setStateLocked records s and returns the notification to run once the
// lock is released.
func (c *Controller) setStateLocked(s State) func() {
	if c.state == s {
		return func() {}
	}
	c.state = s
	fn := c.onChange
	if fn == nil {
		return func() {}
	}
	return func() { fn(s) }
}
