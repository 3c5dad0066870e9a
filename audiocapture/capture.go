// Package audiocapture captures microphone audio and delivers it as 16 kHz
// mono 16-bit chunks.
package audiocapture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.aimuz.me/voxlore/internal/apperr"
)

// TargetSampleRate is the rate every delivered chunk is converted to.
const TargetSampleRate = 16000

var (
	// ErrAlreadyCapturing is returned when Start is called on an active Controller.
	ErrAlreadyCapturing = errors.New("already capturing audio")

	// ErrNoDevice is returned when no input device is available.
	ErrNoDevice = errors.New("no input device available")

	// ErrUnsupportedFormat is returned when the device's native sample format
	// is neither signed 16-bit nor 32-bit float.
	ErrUnsupportedFormat = errors.New("unsupported sample format")

	// ErrRecvTimeout is returned by Recv when no chunk arrived in time.
	ErrRecvTimeout = errors.New("receive timed out")

	// ErrDisconnected is returned by Recv once the stream is closed and drained.
	ErrDisconnected = errors.New("audio stream disconnected")
)

// audioErr classifies a sentinel as an audio error; errors.Is still
// matches the sentinel.
func audioErr(msg string, sentinel error) error {
	return &apperr.Error{Kind: apperr.KindAudio, Msg: msg, Err: sentinel}
}

// Chunk is one block of mono 16 kHz samples. The receiver owns it.
type Chunk []int16

// SampleFormat is the native sample encoding of an input stream.
type SampleFormat int

const (
	SampleUnknown SampleFormat = iota
	SampleU8
	SampleS16
	SampleS24
	SampleS32
	SampleF32
)

func (f SampleFormat) String() string {
	switch f {
	case SampleU8:
		return "u8"
	case SampleS16:
		return "s16"
	case SampleS24:
		return "s24"
	case SampleS32:
		return "s32"
	case SampleF32:
		return "f32"
	default:
		return "unknown"
	}
}

// Format describes the negotiated configuration of an opened stream.
type Format struct {
	SampleRate int
	Channels   int
	Sample     SampleFormat
}

// Backend opens the default input device in its native format.
// onData is invoked from the device thread with interleaved frames and
// must not block.
type Backend interface {
	Open(onData func(input []byte)) (Stream, error)
}

// Stream is an opened input device.
type Stream interface {
	Format() Format
	Start() error
	Close() error
}

// Controller owns one capture session at a time: it starts the device,
// converts callback data and queues it for a single consumer.
type Controller struct {
	backend Backend

	mu     sync.Mutex
	stream Stream
	queue  *chunkQueue
	format Format

	active atomic.Bool
	pipe   atomic.Pointer[pipeline]
}

// NewController creates a Controller reading from backend.
func NewController(backend Backend) *Controller {
	return &Controller{backend: backend}
}

// Start opens the default input device and begins queueing chunks.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return audioErr("Audio capture is already running", ErrAlreadyCapturing)
	}
	if c.backend == nil {
		return audioErr("No input device available", ErrNoDevice)
	}

	queue := newChunkQueue()
	stream, err := c.backend.Open(func(input []byte) {
		c.handleData(queue, input)
	})
	if err != nil {
		return apperr.Wrap(apperr.KindAudio, err, "Could not open the input device")
	}

	format := stream.Format()
	if format.Sample != SampleS16 && format.Sample != SampleF32 {
		_ = stream.Close()
		return audioErr(fmt.Sprintf("Unsupported sample format %s", format.Sample), ErrUnsupportedFormat)
	}
	if format.Channels <= 0 {
		format.Channels = 1
	}

	c.pipe.Store(&pipeline{
		format:    format,
		resampler: NewResampler(format.SampleRate, TargetSampleRate),
	})
	c.active.Store(true)

	if err := stream.Start(); err != nil {
		c.active.Store(false)
		c.pipe.Store(nil)
		_ = stream.Close()
		return apperr.Wrap(apperr.KindAudio, err, "Could not start the input device")
	}

	c.stream = stream
	c.queue = queue
	c.format = format

	slog.Info("audio capture started",
		"rate", format.SampleRate,
		"channels", format.Channels,
		"format", format.Sample.String(),
		"resample", format.SampleRate != TargetSampleRate)
	return nil
}

// Stop halts the device and closes the queue. Chunks already queued can
// still be drained with TryRecv. Stop is idempotent and safe without Start.
func (c *Controller) Stop() {
	c.active.Store(false)

	c.mu.Lock()
	stream := c.stream
	queue := c.queue
	c.stream = nil
	c.pipe.Store(nil)
	c.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			slog.Warn("close input stream", "error", err)
		}
		slog.Info("audio capture stopped")
	}
	if queue != nil {
		queue.close()
	}
}

// Recv waits up to timeout for the next chunk.
func (c *Controller) Recv(timeout time.Duration) (Chunk, error) {
	q := c.currentQueue()
	if q == nil {
		return nil, audioErr("Audio stream disconnected", ErrDisconnected)
	}
	chunk, err := q.recv(timeout)
	switch {
	case errors.Is(err, ErrRecvTimeout):
		return nil, audioErr("No audio received in time", err)
	case err != nil:
		return nil, audioErr("Audio stream disconnected", err)
	}
	return chunk, nil
}

// TryRecv returns the next queued chunk without waiting.
func (c *Controller) TryRecv() (Chunk, bool) {
	q := c.currentQueue()
	if q == nil {
		return nil, false
	}
	return q.tryRecv()
}

// IsCapturing reports whether a session is active.
func (c *Controller) IsCapturing() bool {
	return c.active.Load()
}

// Format returns the native format of the current or last session.
func (c *Controller) Format() Format {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

func (c *Controller) currentQueue() *chunkQueue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue
}

// handleData runs on the device thread.
func (c *Controller) handleData(q *chunkQueue, input []byte) {
	if !c.active.Load() {
		return
	}
	p := c.pipe.Load()
	if p == nil {
		return
	}
	chunk := p.convert(input)
	if len(chunk) == 0 {
		return
	}
	// a closed queue drops the chunk
	q.push(chunk)
}

// pipeline converts native frames to 16 kHz mono. The device delivers
// callbacks serially, so the resampler state needs no lock.
type pipeline struct {
	format    Format
	resampler *Resampler
}

func (p *pipeline) convert(input []byte) Chunk {
	var mono []int16
	switch p.format.Sample {
	case SampleS16:
		mono = downmixS16(input, p.format.Channels)
	case SampleF32:
		mono = downmixF32(input, p.format.Channels)
	default:
		return nil
	}
	if len(mono) == 0 {
		return nil
	}
	if !p.resampler.NeedsResampling() {
		return mono
	}
	return p.resampler.Resample(mono)
}

func downmixS16(input []byte, channels int) []int16 {
	frames := len(input) / (2 * channels)
	out := make([]int16, frames)
	for i := range frames {
		var sum int32
		for ch := range channels {
			off := (i*channels + ch) * 2
			sum += int32(int16(binary.LittleEndian.Uint16(input[off:])))
		}
		out[i] = int16(sum / int32(channels))
	}
	return out
}

func downmixF32(input []byte, channels int) []int16 {
	frames := len(input) / (4 * channels)
	out := make([]int16, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			off := (i*channels + ch) * 4
			sum += math.Float32frombits(binary.LittleEndian.Uint32(input[off:]))
		}
		v := sum / float32(channels) * math.MaxInt16
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, v)))
	}
	return out
}
