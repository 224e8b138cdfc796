package audio

import (
	"encoding/binary"
	"testing"
)

func TestConvertS16SamplesDownMixesByIntegerAverage(t *testing.T) {
	pcm := make([]byte, 4) // one stereo frame: left=100, right=-100
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(100)))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(-100)))

	got := convertS16Samples(pcm, 2)
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected a single down-mixed sample of 0, got %v", got)
	}
}

func TestPeakOfComputesNormalizedMaxAbs(t *testing.T) {
	samples := []int16{100, -32767, 500}
	peak := peakOf(samples)
	if peak != 1.0 {
		t.Fatalf("expected peak 1.0, got %v", peak)
	}
}
