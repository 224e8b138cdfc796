// Package audio owns the microphone device and turns its raw callback
// buffers into fixed-duration AudioFrame records for the engine.
package audio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/lumitype/lumitype-engine/pkg/engine"
)

// Capture opens a single input device and emits engine.AudioFrame records
// via a non-blocking try-send into the engine command channel, per §4.1:
// the realtime audio callback must never stall.
type Capture struct {
	mctx   *malgo.AllocatedContext
	device *malgo.Device
	logger engine.Logger

	mu     sync.Mutex
	buffer []int16
}

// StartCapture opens the preferred device (by name if non-empty,
// otherwise the system default) and begins streaming AudioFrames into
// commandTx. Callers must call Stop when finished.
func StartCapture(commandTx chan<- engine.EngineCommand, preferredDevice string, sampleRate int, logger engine.Logger) (*Capture, error) {
	if logger == nil {
		logger = engine.NoOpLogger{}
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrDeviceUnavailable, err)
	}

	deviceID, err := selectDevice(mctx, preferredDevice)
	if err != nil {
		mctx.Uninit()
		return nil, err
	}

	c := &Capture{mctx: mctx, logger: logger}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	// miniaudio converts whatever format the device natively runs at into
	// the format requested here, so the callback never sees u16/f32 PCM —
	// requesting S16 up front is the teacher's own pattern too (see
	// cmd/agent/main.go's device setup).
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	if deviceID != nil {
		deviceConfig.Capture.DeviceID = deviceID.Pointer()
	}

	frameSamples := engine.FrameSamples(sampleRate)

	onSamples := func(_, input []byte, _ uint32) {
		mono := convertS16Samples(input, int(deviceConfig.Capture.Channels))
		c.pushMonoSamples(mono, sampleRate, frameSamples, commandTx)
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		mctx.Uninit()
		return nil, fmt.Errorf("%w: %v", engine.ErrDeviceUnavailable, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return nil, fmt.Errorf("%w: %v", engine.ErrDeviceUnavailable, err)
	}

	c.device = device
	return c, nil
}

// Stop stops and releases the device and its context.
func (c *Capture) Stop() {
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	if c.mctx != nil {
		c.mctx.Uninit()
		c.mctx = nil
	}
}

// pushMonoSamples down-mixes (already done by the caller's conversion),
// accumulates into the reassembly buffer, drains frameSamples-sized
// chunks, computes peak, and try-sends AudioFrame commands — never
// blocking the realtime callback.
func (c *Capture) pushMonoSamples(mono []int16, sampleRate, frameSamples int, commandTx chan<- engine.EngineCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buffer = append(c.buffer, mono...)
	for len(c.buffer) >= frameSamples {
		chunk := c.buffer[:frameSamples]
		c.buffer = c.buffer[frameSamples:]

		frame := engine.AudioFrame{
			Samples:    append([]int16(nil), chunk...),
			SampleRate: sampleRate,
			Peak:       peakOf(chunk),
		}

		select {
		case commandTx <- engine.AudioFrameCommand{Frame: frame}:
		default:
			// Backpressure policy: realtime supremacy, drop on a full channel.
		}
	}
}

func peakOf(samples []int16) float32 {
	var max int16
	for _, s := range samples {
		abs := s
		if abs < 0 {
			abs = -abs
		}
		if abs > max {
			max = abs
		}
	}
	return float32(max) / 32767.0
}

// convertS16Samples down-mixes interleaved little-endian signed 16-bit PCM
// to mono by integer averaging across channels.
func convertS16Samples(pcm []byte, channels int) []int16 {
	if channels <= 0 {
		channels = 1
	}
	frameBytes := 2 * channels
	count := len(pcm) / frameBytes
	out := make([]int16, count)
	for i := 0; i < count; i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			off := i*frameBytes + ch*2
			sum += int32(int16(binary.LittleEndian.Uint16(pcm[off : off+2])))
		}
		out[i] = int16(sum / int32(channels))
	}
	return out
}

func selectDevice(mctx *malgo.AllocatedContext, preferredDevice string) (*malgo.DeviceID, error) {
	if preferredDevice == "" {
		return nil, nil
	}
	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrDeviceUnavailable, err)
	}
	for i := range infos {
		if infos[i].Name() == preferredDevice {
			return &infos[i].ID, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", engine.ErrDeviceUnavailable, preferredDevice)
}

// ListInputDevices enumerates capture device names for an external
// collaborator (settings UI) to present.
func ListInputDevices() ([]string, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrDeviceUnavailable, err)
	}
	defer mctx.Uninit()

	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrDeviceUnavailable, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}
