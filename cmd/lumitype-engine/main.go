// Command lumitype-engine is a runnable host for the dictation engine: it
// owns the malgo capture device and prints EngineEvents to stdout instead
// of driving a tray icon, playing the role cmd/agent plays for the
// orchestrator it was adapted from.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/lumitype/lumitype-engine/pkg/audio"
	"github.com/lumitype/lumitype-engine/pkg/engine"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Note: no .env file found, using system environment variables")
	}

	logger := engine.NewCharmLogger(charmlog.InfoLevel)

	modelRoot := os.Getenv("LUMI_MODEL_DIR")
	if modelRoot == "" {
		modelRoot = "./models"
	}

	settings := engine.DefaultEngineSettings()
	wakeCfg := engine.NewWakeWordConfig(modelRoot, settings.Sensitivity).WithEnvOverrides()

	devices, err := audio.ListInputDevices()
	if err != nil {
		logger.Warn("failed to enumerate input devices", "error", err)
	} else {
		logger.Info("available input devices", "devices", devices)
	}

	handle, err := engine.Spawn(engine.SpawnConfig{
		Settings:       settings,
		ModelRoot:      modelRoot,
		WakeWordConfig: wakeCfg,
		Logger:         logger,
		AudioStarter:   startCapture,
	})
	if err != nil {
		logger.Error("failed to start engine", "error", err)
		os.Exit(1)
	}

	go func() {
		for ev := range handle.Subscribe() {
			printEvent(ev)
		}
	}()

	// No OS permission-prompt collaborator is wired here; assume granted
	// so the CLI host starts capture immediately.
	handle.Send(engine.PermissionsCheckedCommand{
		Status: engine.PermissionStatus{Microphone: true, Accessibility: true},
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("\nShutting down...")
}

// startCapture adapts pkg/audio's malgo-backed Capture to engine.AudioStarter.
func startCapture(commandTx chan<- engine.EngineCommand, preferredDevice string, logger engine.Logger) (engine.AudioController, error) {
	return audio.StartCapture(commandTx, preferredDevice, 16000, logger)
}

func printEvent(ev engine.EngineEvent) {
	switch e := ev.(type) {
	case engine.StateChangedEvent:
		fmt.Printf("\r\033[K[STATE] %s\n", e.State)
	case engine.TrayStateChangedEvent:
		// Tray icon rendering is out of scope; this CLI just notes the view.
	case engine.OverlayVisibilityEvent:
		fmt.Printf("\r\033[K[OVERLAY] visible=%v\n", e.Visible)
	case engine.OverlayResetEvent:
		fmt.Printf("\r\033[K[OVERLAY] reset\n")
	case engine.OverlayTextDeltaEvent:
		fmt.Printf("\r\033[K[TRANSCRIPT] +%q\n", e.Text)
	case engine.OverlayWaveEvent:
		// High frequency; left for an overlay collaborator to render.
	case engine.PermissionsRequiredEvent:
		fmt.Printf("\r\033[K[PERMISSIONS] microphone=%v accessibility=%v\n", e.Status.Microphone, e.Status.Accessibility)
	case engine.ErrorEvent:
		fmt.Printf("\r\033[K[ERROR] %s\n", e.Message)
	}
}
