package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClassifyDevice(t *testing.T) {
	tests := []struct {
		device   string
		expected string
	}{
		{"BlackHole 2ch", SourceSystem},
		{"VB-Cable", SourceSystem},
		{"Monitor of Built-in Audio", SourceSystem},
		{"Stereo Mix (Realtek)", SourceSystem},
		{"Built-in Microphone", SourceUser},
		{"External Mic", SourceUser},
		{"Line Input", SourceUser},
		{"Valve Index Headset", SourceUser},
		{"External Speakers", ""},
		{"HDMI Output", ""},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			if got := classifyDevice(tt.device); got != tt.expected {
				t.Errorf("classifyDevice(%q) = %q, want %q", tt.device, got, tt.expected)
			}
		})
	}
}

func TestSelectDevice(t *testing.T) {
	devs := []Device{
		{Index: 0, Name: "HDMI Output", MaxInputChannels: 0},
		{Index: 1, Name: "BlackHole 2ch", MaxInputChannels: 2},
		{Index: 2, Name: "USB Microphone", MaxInputChannels: 1},
		{Index: 3, Name: "Built-in Microphone", MaxInputChannels: 1},
		{Index: 4, Name: "iPhone Microphone", MaxInputChannels: 1},
		{Index: 5, Name: "Default Capture", MaxInputChannels: 2, Default: true},
	}

	tests := []struct {
		name     string
		devs     []Device
		want     string
		excluded []string
		index    int
		ok       bool
	}{
		{"by name", devs, "usb", nil, 2, true},
		{"explicit loopback allowed", devs, "blackhole", nil, 1, true},
		{"missing name", devs, "rode", nil, 0, false},
		{"preferred built-in", devs, "", []string{"iphone"}, 3, true},
		{"default fallback", []Device{devs[0], devs[1], devs[5]}, "", nil, 5, true},
		{"nothing usable", []Device{devs[0]}, "", nil, 0, false},
		{"output only skipped by name", devs, "hdmi", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectDevice(tt.devs, tt.want, tt.excluded)
			if ok != tt.ok {
				t.Fatalf("SelectDevice() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.Index != tt.index {
				t.Errorf("SelectDevice() = %d (%s), want %d", got.Index, got.Name, tt.index)
			}
		})
	}
}

// script returns a read func that yields buffers of constant amplitude.
func script(levels ...int16) (func() ([]int16, error), *int) {
	calls := 0
	return func() ([]int16, error) {
		if calls >= len(levels) {
			return nil, errors.New("script exhausted")
		}
		buf := make([]int16, 160)
		for i := range buf {
			buf[i] = levels[calls]
		}
		calls++
		return buf, nil
	}, &calls
}

func repeat(level int16, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = level
	}
	return out
}

// 160 frames at 16 kHz is 10ms per buffer.
func testDetector() *Detector {
	return NewDetector(EnergyConfig{
		SampleRate:      16000,
		FramesPerBuffer: 160,
		Threshold:       300,
		Pause:           50 * time.Millisecond,
		NonSpeaking:     20 * time.Millisecond,
		MinPhrase:       30 * time.Millisecond,
	})
}

func TestListenWaitTimeout(t *testing.T) {
	d := testDetector()
	read, calls := script(repeat(10, 100)...)

	_, err := d.Listen(context.Background(), read, time.Second, 100*time.Millisecond)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("Listen() error = %v, want ErrWaitTimeout", err)
	}
	if *calls < 10 || *calls > 12 {
		t.Errorf("read %d buffers before timing out, want about 10", *calls)
	}
}

func TestListenPhraseLimit(t *testing.T) {
	d := testDetector()
	read, _ := script(repeat(5000, 500)...)

	samples, err := d.Listen(context.Background(), read, time.Second, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	got := time.Duration(len(samples)) * time.Second / 16000
	if got < time.Second || got > 1100*time.Millisecond {
		t.Errorf("phrase length = %v, want about 1s", got)
	}
}

func TestListenEndsOnPause(t *testing.T) {
	d := testDetector()
	levels := append(repeat(5000, 10), repeat(0, 50)...)
	read, calls := script(levels...)

	samples, err := d.Listen(context.Background(), read, time.Second, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if *calls >= len(levels) {
		t.Errorf("Listen consumed the whole script, pause not detected")
	}
	if len(samples) == 0 || samples[0] != 5000 {
		t.Errorf("phrase should start with speech, got %d samples", len(samples))
	}
}

func TestListenContextCancel(t *testing.T) {
	d := testDetector()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	read, _ := script(repeat(5000, 10)...)

	if _, err := d.Listen(ctx, read, time.Second, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Listen() error = %v, want context.Canceled", err)
	}
}

func TestDynamicThresholdTracksAmbient(t *testing.T) {
	d := NewDetector(EnergyConfig{SampleRate: 16000, FramesPerBuffer: 160, Threshold: 300, Dynamic: true})
	read, _ := script(repeat(20, 200)...)

	_, _ = d.Listen(context.Background(), read, time.Second, time.Second)
	if d.Threshold() >= 300 {
		t.Errorf("Threshold() = %v, want it to fall toward the ambient level", d.Threshold())
	}
}

func TestInt16ToBytes(t *testing.T) {
	got := Int16ToBytes([]int16{1, -1, 256})
	want := []byte{1, 0, 0xff, 0xff, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}
