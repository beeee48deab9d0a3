// Package audio handles microphone capture and energy-based phrase detection
package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
)

// Options selects and configures the input device.
type Options struct {
	Device          string
	ExcludedDevices []string
	Energy          EnergyConfig
}

// Listener reads phrases from a portaudio input stream.
type Listener struct {
	stream   *portaudio.Stream
	buf      []int16
	detector *Detector
	device   Device
	rate     int

	closeOnce sync.Once
}

// ListDevices returns every device portaudio reports. It initializes and
// terminates portaudio itself.
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeAudioDeviceUnavailable, "initialize portaudio")
	}
	defer portaudio.Terminate()
	return devices()
}

func devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeAudioDeviceUnavailable, "enumerate devices")
	}
	var defName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defName = def.Name
	}

	out := make([]Device, 0, len(infos))
	for _, info := range infos {
		d := Device{
			Index:            info.Index,
			Name:             info.Name,
			MaxInputChannels: info.MaxInputChannels,
			DefaultRate:      info.DefaultSampleRate,
			Default:          info.Name == defName,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		out = append(out, d)
	}
	return out, nil
}

// Open initializes portaudio, selects a device and starts a mono int16 stream.
// Any failure is reported as AUDIO_DEVICE_UNAVAILABLE.
func Open(opts Options) (*Listener, error) {
	energy := opts.Energy.withDefaults()

	if err := portaudio.Initialize(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeAudioDeviceUnavailable, "initialize portaudio")
	}

	devs, err := devices()
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	dev, ok := SelectDevice(devs, opts.Device, opts.ExcludedDevices)
	if !ok {
		_ = portaudio.Terminate()
		return nil, apperrors.New(apperrors.CodeAudioDeviceUnavailable, "no usable input device").
			WithMetadata("wanted", opts.Device)
	}

	infos, err := portaudio.Devices()
	if err != nil || dev.Index >= len(infos) {
		_ = portaudio.Terminate()
		return nil, apperrors.Wrap(err, apperrors.CodeAudioDeviceUnavailable, "device list changed")
	}
	info := infos[dev.Index]

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: 1,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(energy.SampleRate),
		FramesPerBuffer: energy.FramesPerBuffer,
	}

	buf := make([]int16, energy.FramesPerBuffer)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, apperrors.Wrap(err, apperrors.CodeAudioDeviceUnavailable, "open input stream").
			WithMetadata("device", dev.Name)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, apperrors.Wrap(err, apperrors.CodeAudioDeviceUnavailable, "start input stream").
			WithMetadata("device", dev.Name)
	}

	slog.Info("started audio capture", "device", dev.Name, "host_api", dev.HostAPI, "sample_rate", energy.SampleRate)

	return &Listener{
		stream:   stream,
		buf:      buf,
		detector: NewDetector(energy),
		device:   dev,
		rate:     energy.SampleRate,
	}, nil
}

// Device returns the selected device.
func (l *Listener) Device() Device { return l.device }

// Listen blocks until a phrase is captured, the wait timeout passes without
// speech (ErrWaitTimeout) or ctx is done.
func (l *Listener) Listen(ctx context.Context, phraseLimit, timeout time.Duration) (segment.Audio, error) {
	samples, err := l.detector.Listen(ctx, l.read, phraseLimit, timeout)
	if err != nil {
		return segment.Audio{}, err
	}
	return segment.Audio{Data: Int16ToBytes(samples), SampleRate: l.rate, SampleWidth: sampleWidth}, nil
}

func (l *Listener) read() ([]int16, error) {
	if err := l.stream.Read(); err != nil {
		if err == portaudio.InputOverflowed {
			slog.Debug("audio input overflowed")
		} else {
			return nil, apperrors.Wrap(err, apperrors.CodeAudioReadFailed, "read input stream")
		}
	}
	return append([]int16(nil), l.buf...), nil
}

// Close stops the stream and releases portaudio. Callers must not be inside
// Listen.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		_ = l.stream.Stop()
		err = l.stream.Close()
		_ = portaudio.Terminate()
	})
	return err
}
