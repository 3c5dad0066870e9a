package audiocapture

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/malgo"
)

// MalgoBackend opens the system default capture device through miniaudio.
type MalgoBackend struct{}

// Open initialises the default capture device with its native rate, channel
// count and sample format.
func (MalgoBackend) Open(onData func(input []byte)) (Stream, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		slog.Debug("miniaudio", "message", strings.TrimSpace(msg))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %v", ErrNoDevice, err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	// zero values select the device's native configuration
	cfg.Capture.Format = malgo.FormatUnknown
	cfg.Capture.Channels = 0
	cfg.SampleRate = 0

	dev, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			onData(input)
		},
	})
	if err != nil {
		mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}

	return &malgoStream{
		ctx: mctx,
		dev: dev,
		format: Format{
			SampleRate: int(dev.SampleRate()),
			Channels:   int(dev.CaptureChannels()),
			Sample:     fromMalgoFormat(dev.CaptureFormat()),
		},
	}, nil
}

type malgoStream struct {
	ctx    *malgo.AllocatedContext
	dev    *malgo.Device
	format Format
}

func (s *malgoStream) Format() Format { return s.format }

func (s *malgoStream) Start() error {
	return s.dev.Start()
}

func (s *malgoStream) Close() error {
	err := s.dev.Stop()
	s.dev.Uninit()
	s.ctx.Uninit()
	s.ctx.Free()
	return err
}

func fromMalgoFormat(f malgo.FormatType) SampleFormat {
	switch f {
	case malgo.FormatU8:
		return SampleU8
	case malgo.FormatS16:
		return SampleS16
	case malgo.FormatS24:
		return SampleS24
	case malgo.FormatS32:
		return SampleS32
	case malgo.FormatF32:
		return SampleF32
	default:
		return SampleUnknown
	}
}
