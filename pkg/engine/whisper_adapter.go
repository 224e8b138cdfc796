package engine

import (
	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// whisperModelAdapter and whisperContextAdapter narrow whisper.cpp's own
// Model/Context interfaces down to the exact surface TranscriberRuntime
// drives, so tests can substitute a fake without linking the CGO bindings.
type whisperModelAdapter struct {
	model whisperlib.Model
}

func loadWhisperModel(path string) (whisperModel, error) {
	model, err := whisperlib.New(path)
	if err != nil {
		return nil, err
	}
	return &whisperModelAdapter{model: model}, nil
}

func (a *whisperModelAdapter) NewContext() (whisperContext, error) {
	ctx, err := a.model.NewContext()
	if err != nil {
		return nil, err
	}
	return &whisperContextAdapter{ctx: ctx}, nil
}

func (a *whisperModelAdapter) Close() error {
	return a.model.Close()
}

type whisperContextAdapter struct {
	ctx whisperlib.Context
}

func (a *whisperContextAdapter) SetLanguage(lang string) error {
	return a.ctx.SetLanguage(lang)
}

func (a *whisperContextAdapter) SetTranslate(v bool) {
	a.ctx.SetTranslate(v)
}

func (a *whisperContextAdapter) SetThreads(n uint) {
	a.ctx.SetThreads(n)
}

func (a *whisperContextAdapter) SetNoContext(v bool) {
	a.ctx.SetNoContext(v)
}

func (a *whisperContextAdapter) Process(samples []float32, p1, p2, p3 interface{}) error {
	return a.ctx.Process(samples, nil, nil, nil)
}

func (a *whisperContextAdapter) NextSegment() (whisperlib.Segment, error) {
	return a.ctx.NextSegment()
}
