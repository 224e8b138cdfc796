package engine

// AudioController is the handle the engine loop holds on a running audio
// capture stream; audio capture itself lives in a sibling package (it
// depends on this one, not the other way around) and is wired in via
// AudioStarter so the engine loop never imports a concrete device layer.
type AudioController interface {
	Stop()
}

// AudioStarter opens a capture stream that feeds AudioFrameCommand into
// commandTx, using preferredDevice (empty means system default).
type AudioStarter func(commandTx chan<- EngineCommand, preferredDevice string, logger Logger) (AudioController, error)

// SpawnConfig bundles everything the engine loop needs to start.
type SpawnConfig struct {
	Settings       EngineSettings
	ModelRoot      string
	WakeWordConfig WakeWordConfig
	Logger         Logger
	AudioStarter   AudioStarter
}

const (
	commandChannelCapacity = 1024
	workerChannelCapacity  = 128
)

// engine owns the state machine and every worker channel; it is the
// single-threaded loop described in §4.7, running on its own goroutine.
type engine struct {
	sm     *StateMachine
	bus    *eventBus
	logger Logger

	commandRx <-chan EngineCommand
	commandTx chan<- EngineCommand

	wakeAudioTx       chan<- AudioFrame
	vadTx             chan<- VadMessage
	transcriberTx     chan<- TranscriberMessage
	injectorTx        chan<- InjectionMessage

	modelRoot    string
	wakeWordCfg  WakeWordConfig
	audioStarter AudioStarter

	settingsMicrophone string
	captureRunning     bool
	capture            AudioController
}

// Spawn builds every worker, starts the engine loop on its own goroutine,
// and returns the public Handle. Mirrors the original's spawn_engine.
func Spawn(cfg SpawnConfig) (*Handle, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = NoOpLogger{}
	}

	commandCh := make(chan EngineCommand, commandChannelCapacity)
	wakeAudioCh := make(chan AudioFrame, workerChannelCapacity)
	vadCh := make(chan VadMessage, workerChannelCapacity)
	transcriberCh := make(chan TranscriberMessage, workerChannelCapacity)
	injectorCh := make(chan InjectionMessage, workerChannelCapacity)

	bus := &eventBus{}

	vadWorker := NewVADWorker(vadCh, commandCh, cfg.Settings.Sensitivity, logger)
	go vadWorker.Run()

	transcriber := NewTranscriber(transcriberCh, commandCh, cfg.ModelRoot, cfg.Settings.Model, logger)
	go transcriber.Run()

	injector := NewInjector(injectorCh, logger)
	go injector.Run()

	detector, err := NewWakeDetector(cfg.WakeWordConfig, logger)
	if err != nil {
		logger.Error("wake: detector unavailable, wake-word detection disabled", "error", err)
	} else {
		SpawnWakeListener(wakeAudioCh, commandCh, detector, logger)
	}

	e := &engine{
		sm:                 NewStateMachine(cfg.Settings.Enabled),
		bus:                bus,
		logger:             logger,
		commandRx:          commandCh,
		commandTx:          commandCh,
		wakeAudioTx:        wakeAudioCh,
		vadTx:              vadCh,
		transcriberTx:      transcriberCh,
		injectorTx:         injectorCh,
		modelRoot:          cfg.ModelRoot,
		wakeWordCfg:        cfg.WakeWordConfig,
		audioStarter:       cfg.AudioStarter,
		settingsMicrophone: cfg.Settings.Microphone,
	}

	go e.run()

	return &Handle{commandTx: commandCh, bus: bus, settings: cfg.Settings}, nil
}

func (e *engine) run() {
	for cmd := range e.commandRx {
		e.handle(cmd)
	}
}

func (e *engine) handle(cmd EngineCommand) {
	switch c := cmd.(type) {
	case AudioFrameCommand:
		e.handleAudioFrame(c.Frame)
	case WakeDetectedCommand:
		e.beginDictation()
	case PushToTalkTriggeredCommand:
		e.beginDictation()
	case SilenceTimeoutCommand:
		e.handleSilenceTimeout()
	case TranscriptionDeltaCommand:
		e.handleTranscriptionDelta(c.Text)
	case TranscriptionFinishedCommand:
		e.handleTranscriptionFinished()
	case CancelDictationCommand:
		e.handleCancelDictation()
	case UndoLastDictationCommand:
		e.injectorTx <- InjectionUndoLast{}
	case SetEnabledCommand:
		e.handleSetEnabled(c.Enabled)
	case UpdateMicrophoneCommand:
		e.handleUpdateMicrophone(c.Microphone)
	case UpdateSensitivityCommand:
		e.vadTx <- VadSetSensitivity{Value: c.Value}
	case UpdateModelCommand:
		e.transcriberTx <- TranscriberUpdateModel{Model: c.Model}
	case PermissionsCheckedCommand:
		e.handlePermissionsChecked(c.Status)
	}
}

func (e *engine) handleAudioFrame(frame AudioFrame) {
	if e.sm.ShouldRouteToWake() {
		select {
		case e.wakeAudioTx <- frame:
		default:
		}
		return
	}
	if e.sm.ShouldRouteToDictation() {
		select {
		case e.vadTx <- VadAudio{Frame: frame}:
		default:
		}
		select {
		case e.transcriberTx <- TranscriberAudio{Frame: frame}:
		default:
		}
		e.bus.publish(OverlayWaveEvent{Peak: frame.Peak})
	}
}

func (e *engine) beginDictation() {
	if !e.sm.TryStartDictation() {
		return
	}
	e.transcriberTx <- TranscriberBegin{}
	e.vadTx <- VadBegin{}
	e.injectorTx <- InjectionBeginSession{}
	e.bus.publish(OverlayResetEvent{})
	e.bus.publish(OverlayVisibilityEvent{Visible: true})
	e.emitStateEvents()
}

func (e *engine) handleSilenceTimeout() {
	if !e.sm.TryBeginStopping() {
		return
	}
	e.vadTx <- VadEnd{}
	e.transcriberTx <- TranscriberEnd{}
	e.emitStateEvents()
}

func (e *engine) handleTranscriptionDelta(text string) {
	state := e.sm.State()
	if state != Dictating && state != Stopping {
		return
	}
	e.bus.publish(OverlayTextDeltaEvent{Text: text})
	e.injectorTx <- InjectionDelta{Text: text}
}

func (e *engine) handleTranscriptionFinished() {
	e.injectorTx <- InjectionCommitSession{}
	if e.sm.FinishStopping() {
		e.bus.publish(OverlayVisibilityEvent{Visible: false})
		e.bus.publish(OverlayResetEvent{})
		e.emitStateEvents()
	}
}

func (e *engine) handleCancelDictation() {
	if !e.sm.CancelDictation() {
		return
	}
	e.transcriberTx <- TranscriberCancel{}
	e.vadTx <- VadEnd{}
	e.injectorTx <- InjectionCancelSession{}
	e.bus.publish(OverlayVisibilityEvent{Visible: false})
	e.bus.publish(OverlayResetEvent{})
	e.emitStateEvents()
}

func (e *engine) handleSetEnabled(enabled bool) {
	if !e.sm.SetEnabled(enabled) {
		return
	}
	if !enabled {
		e.transcriberTx <- TranscriberCancel{}
		e.vadTx <- VadEnd{}
		e.injectorTx <- InjectionCancelSession{}
		e.bus.publish(OverlayVisibilityEvent{Visible: false})
	}
	e.emitStateEvents()
}

func (e *engine) handleUpdateMicrophone(microphone string) {
	e.settingsMicrophone = microphone
	if e.capture != nil {
		e.capture.Stop()
		e.capture = nil
		e.captureRunning = false
	}
	e.tryStartAudioCapture()
}

func (e *engine) handlePermissionsChecked(status PermissionStatus) {
	if status.Microphone && !e.captureRunning {
		e.tryStartAudioCapture()
	}
	if !status.AllGranted() {
		e.bus.publish(PermissionsRequiredEvent{Status: status})
	}
}

// tryStartAudioCapture mirrors the original's try_start_audio_capture
// helper: a failure publishes an Error event but the engine keeps running.
func (e *engine) tryStartAudioCapture() {
	if e.audioStarter == nil {
		return
	}
	controller, err := e.audioStarter(e.commandTx, e.settingsMicrophone, e.logger)
	if err != nil {
		e.logger.Error("engine: failed to start audio capture", "error", err)
		e.bus.publish(ErrorEvent{Message: err.Error()})
		return
	}
	e.capture = controller
	e.captureRunning = true
}

func (e *engine) emitStateEvents() {
	e.bus.publish(StateChangedEvent{State: e.sm.State()})
	e.bus.publish(TrayStateChangedEvent{State: e.sm.TrayState()})
}
