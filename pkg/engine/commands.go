package engine

// EngineCommand is the tagged union of everything the engine loop accepts
// on its bounded command channel.
type EngineCommand interface{ isEngineCommand() }

type AudioFrameCommand struct{ Frame AudioFrame }
type WakeDetectedCommand struct{}
type PushToTalkTriggeredCommand struct{}
type SilenceTimeoutCommand struct{}
type TranscriptionDeltaCommand struct{ Text string }
type TranscriptionFinishedCommand struct{}
type CancelDictationCommand struct{}
type UndoLastDictationCommand struct{}
type SetEnabledCommand struct{ Enabled bool }
type UpdateMicrophoneCommand struct{ Microphone string }
type UpdateSensitivityCommand struct{ Value float32 }
type UpdateModelCommand struct{ Model TranscriptionModel }
type PermissionsCheckedCommand struct{ Status PermissionStatus }

func (AudioFrameCommand) isEngineCommand()           {}
func (WakeDetectedCommand) isEngineCommand()         {}
func (PushToTalkTriggeredCommand) isEngineCommand()  {}
func (SilenceTimeoutCommand) isEngineCommand()       {}
func (TranscriptionDeltaCommand) isEngineCommand()   {}
func (TranscriptionFinishedCommand) isEngineCommand() {}
func (CancelDictationCommand) isEngineCommand()      {}
func (UndoLastDictationCommand) isEngineCommand()    {}
func (SetEnabledCommand) isEngineCommand()           {}
func (UpdateMicrophoneCommand) isEngineCommand()     {}
func (UpdateSensitivityCommand) isEngineCommand()    {}
func (UpdateModelCommand) isEngineCommand()          {}
func (PermissionsCheckedCommand) isEngineCommand()   {}

// EngineEvent is the tagged union broadcast to subscribers (tray, overlay,
// settings UI).
type EngineEvent interface{ isEngineEvent() }

type StateChangedEvent struct{ State DictationState }
type TrayStateChangedEvent struct{ State TrayState }
type OverlayVisibilityEvent struct{ Visible bool }
type OverlayResetEvent struct{}
type OverlayTextDeltaEvent struct{ Text string }
type OverlayWaveEvent struct{ Peak float32 }
type PermissionsRequiredEvent struct{ Status PermissionStatus }
type ErrorEvent struct{ Message string }

func (StateChangedEvent) isEngineEvent()        {}
func (TrayStateChangedEvent) isEngineEvent()    {}
func (OverlayVisibilityEvent) isEngineEvent()   {}
func (OverlayResetEvent) isEngineEvent()        {}
func (OverlayTextDeltaEvent) isEngineEvent()    {}
func (OverlayWaveEvent) isEngineEvent()         {}
func (PermissionsRequiredEvent) isEngineEvent() {}
func (ErrorEvent) isEngineEvent()               {}
