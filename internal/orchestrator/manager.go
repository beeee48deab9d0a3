// Package orchestrator wires the capture, dispatch and control loops
package orchestrator

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	audiocap "github.com/AymNine/vrc-osc-scripts/internal/audio"
	"github.com/AymNine/vrc-osc-scripts/internal/config"
	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/normalize"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/audio"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/dispatch"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/transcript"
	"github.com/AymNine/vrc-osc-scripts/internal/osc"
	"github.com/AymNine/vrc-osc-scripts/internal/oscquery"
	"github.com/AymNine/vrc-osc-scripts/internal/output"
	"github.com/AymNine/vrc-osc-scripts/internal/recognize"
	"github.com/AymNine/vrc-osc-scripts/internal/resilience"
	"github.com/AymNine/vrc-osc-scripts/internal/server"
	"github.com/AymNine/vrc-osc-scripts/internal/store"
	"github.com/AymNine/vrc-osc-scripts/internal/trace"
	"github.com/AymNine/vrc-osc-scripts/internal/translate"
)

// Deps are the collaborators the loops talk to.
type Deps struct {
	Source     audio.Source
	Recognizer dispatch.Recognizer
	Translator dispatch.Translator
	Normalizer dispatch.Normalizer
	Chatbox    output.Output
}

// Manager coordinates all loops
type Manager struct {
	cfg     *config.Config
	state   *store.Store
	runtime *store.Store

	queue      *segment.Queue
	segmenter  *audio.Segmenter
	dispatcher *dispatch.Processor
	history    *transcript.MemoryStore
	mirror     *server.Server
	closers    []io.Closer

	control     *osc.Control
	controlDone chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens the audio device and builds the configured providers. Without a
// usable audio device the manager still runs dispatch, control and the mirror.
func New(cfg *config.Config) (*Manager, error) {
	rec, err := recognize.New(cfg.Recognizer)
	if err != nil {
		return nil, err
	}
	guarded := recognize.WithBreaker(rec, resilience.Config{
		Threshold:    cfg.Breaker.Threshold,
		ResetTimeout: cfg.Breaker.ResetTimeout,
	})

	deps := Deps{
		Recognizer: guarded,
		Normalizer: normalize.Default(),
		Chatbox:    osc.NewChatbox(cfg.Output.Host, cfg.Output.Port),
	}

	runtime, err := cfg.RuntimeStore()
	if err != nil {
		return nil, err
	}
	// EnableTranslation can be switched on over osc, so build the translator either way
	tr, err := translate.New(cfg.Translator)
	switch {
	case err == nil:
		deps.Translator = tr
	case runtime.Bool(store.KeyEnableTranslation):
		return nil, err
	default:
		trace.Logger(context.Background()).Warn("translation unavailable", "error", err)
	}

	listener, err := audiocap.Open(audiocap.Options{
		Device:          cfg.Audio.Device,
		ExcludedDevices: cfg.Audio.ExcludedDevices,
		Energy: audiocap.EnergyConfig{
			SampleRate:      cfg.Audio.SampleRate,
			FramesPerBuffer: cfg.Audio.FramesPerBuffer,
			Threshold:       cfg.Audio.EnergyThreshold,
			Dynamic:         cfg.Audio.DynamicEnergy,
			Pause:           cfg.Audio.PauseThreshold,
		},
	})
	if err != nil {
		trace.Logger(context.Background()).Error("audio capture unavailable", "error", err, "class", apperrors.ClassOf(err))
	} else {
		deps.Source = listener
	}

	m, err := NewWithDeps(cfg, runtime, deps)
	if err != nil {
		if listener != nil {
			_ = listener.Close()
		}
		return nil, err
	}
	if listener != nil {
		m.closers = append(m.closers, listener)
	}
	return m, nil
}

// NewWithDeps builds a manager around existing collaborators. A nil Source
// leaves the capture loop out.
func NewWithDeps(cfg *config.Config, runtime *store.Store, deps Deps) (*Manager, error) {
	if deps.Recognizer == nil || deps.Normalizer == nil || deps.Chatbox == nil {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "manager needs a recognizer, normalizer and chatbox")
	}

	historySize := cfg.Server.HistorySize
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	history := transcript.NewStore(historySize, cfg.Server.HistoryLimit, HistoryEventBuffer)

	m := &Manager{
		cfg:     cfg,
		state:   store.NewState(),
		runtime: runtime,
		queue:   segment.NewQueue(),
		history: history,
	}

	if deps.Source != nil {
		m.segmenter = audio.NewSegmenter(deps.Source, m.queue, audio.Config{
			PhraseLimit: cfg.Audio.PhraseLimit,
			WaitTimeout: cfg.Audio.WaitTimeout,
		})
	}

	var opts []dispatch.Option
	if deps.Translator != nil {
		opts = append(opts, dispatch.WithTranslator(deps.Translator))
	}
	m.dispatcher = dispatch.NewProcessor(m.queue, deps.Recognizer, deps.Normalizer,
		output.Fanout{deps.Chatbox, history}, m.state, m.runtime, opts...)

	if cfg.Server.HTTPAddr != "" {
		m.mirror = server.New(history, m.state, m.runtime, server.WithStats(m.dispatcher.Stats))
	}
	return m, nil
}

// State returns the runtime state store.
func (m *Manager) State() *store.Store { return m.state }

// Runtime returns the runtime config store.
func (m *Manager) Runtime() *store.Store { return m.runtime }

// Stats returns dispatch outcome counters.
func (m *Manager) Stats() map[string]int64 { return m.dispatcher.Stats() }

// ControlAddr returns the bound control address, or nil when control is not running.
func (m *Manager) ControlAddr() net.Addr {
	if m.control == nil {
		return nil
	}
	return m.control.Addr()
}

// Start launches the capture and dispatch loops, plus control and the mirror
// when enabled. A control bind failure is logged and the other loops keep running.
func (m *Manager) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)
	log := trace.Logger(ctx)

	if m.segmenter != nil {
		m.goLoop(ctx, "capture", m.segmenter.Run)
	} else {
		log.Warn("no audio source, capture loop not started")
	}
	m.goLoop(ctx, "dispatch", m.dispatcher.Run)

	if m.runtime.Bool(store.KeyFollowMicMute) {
		log.Info("FollowMicMute is enabled, recognition pauses while muted in-game")
	} else {
		log.Info("FollowMicMute is disabled, recognition runs while muted in-game")
	}
	if m.runtime.Bool(store.KeyAllowOSCControl) {
		log.Info("AllowOSCControl is enabled, listening for osc controls")
	}
	if m.runtime.Bool(store.KeyFollowMicMute) || m.runtime.Bool(store.KeyAllowOSCControl) {
		if err := m.startControl(ctx); err != nil {
			log.Error("control loop not started", "error", err, "class", apperrors.ClassOf(err))
		}
	}

	if m.mirror != nil {
		m.goLoop(ctx, "mirror", func(ctx context.Context) error {
			return m.mirror.ListenAndServe(ctx, m.cfg.Server.HTTPAddr)
		})
	}
	return nil
}

func (m *Manager) startControl(ctx context.Context) error {
	conn, err := osc.Listen(m.runtime.Int(store.KeyControlPort))
	if err != nil {
		return err
	}
	control, err := osc.NewControl(conn, m.state, m.runtime)
	if err != nil {
		_ = conn.Close()
		return err
	}
	m.control = control
	m.controlDone = make(chan struct{})

	go func() {
		defer close(m.controlDone)
		if err := control.Serve(ctx); err != nil {
			trace.Logger(ctx).Error("control loop stopped", "error", err)
		}
	}()

	if m.cfg.OSCQuery.Enabled {
		ln, err := oscquery.Listen()
		if err != nil {
			trace.Logger(ctx).Warn("oscquery not started", "error", err)
			return nil
		}
		svc := oscquery.New(ln, control.Port(), oscquery.Parameters(m.runtime))
		m.goLoop(ctx, "oscquery", svc.Serve)
	}
	return nil
}

func (m *Manager) goLoop(ctx context.Context, name string, run func(context.Context) error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := run(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			trace.Logger(ctx).Debug("loop finished", "loop", name)
			return
		}
		trace.Logger(ctx).Error("loop stopped", "loop", name, "error", err, "class", apperrors.ClassOf(err))
	}()
}

// Stop shuts control down and joins it, then cancels and joins the other loops.
func (m *Manager) Stop() {
	if m.control != nil {
		if err := m.control.Shutdown(); err != nil {
			trace.Logger(context.Background()).Warn("control shutdown error", "error", err)
		}
		<-m.controlDone
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.queue.Close()
	m.wg.Wait()
	m.history.Close()
	for _, c := range m.closers {
		_ = c.Close()
	}
}
