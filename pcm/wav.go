// Package pcm encodes and inspects 16-bit mono PCM audio.
package pcm

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// HeaderSize is the size of the canonical WAV header written by EncodeWAV.
const HeaderSize = 44

// ErrInvalidWAV is returned when DecodeWAV is given something that is not a RIFF/WAVE PCM stream.
var ErrInvalidWAV = errors.New("invalid wav data")

// EncodeWAV wraps mono 16-bit samples in a 44-byte RIFF/WAVE header.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+dataSize))

	buf.WriteString("RIFF")
	writeUint32LE(buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeUint32LE(buf, 16)                   // chunk size
	writeUint16LE(buf, 1)                    // PCM
	writeUint16LE(buf, 1)                    // mono
	writeUint32LE(buf, uint32(sampleRate))   // sample rate
	writeUint32LE(buf, uint32(sampleRate*2)) // byte rate
	writeUint16LE(buf, 2)                    // block align
	writeUint16LE(buf, 16)                   // bits per sample

	buf.WriteString("data")
	writeUint32LE(buf, uint32(dataSize))

	for _, s := range samples {
		writeUint16LE(buf, uint16(s))
	}

	return buf.Bytes()
}

// DecodeWAV reads a PCM WAV stream and returns mono 16-bit samples and the
// sample rate. Multi-channel input is averaged down to mono and other bit
// depths are rescaled to 16 bits.
func DecodeWAV(data []byte) ([]int16, int, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, 0, ErrInvalidWAV
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode pcm: %w", err)
	}

	channels := int(d.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if channels <= 0 {
		channels = 1
	}

	return toMono16(buf, int(d.BitDepth), channels), int(d.SampleRate), nil
}

func toMono16(buf *audio.IntBuffer, bitDepth, channels int) []int16 {
	shift := bitDepth - 16

	frames := len(buf.Data) / channels
	out := make([]int16, frames)
	for i := range frames {
		var sum int
		for c := range channels {
			sum += buf.Data[i*channels+c]
		}
		v := sum / channels
		switch {
		case bitDepth == 8:
			// 8-bit WAV is unsigned
			v = (v - 128) << 8
		case shift > 0:
			v >>= shift
		case shift < 0:
			v <<= -shift
		}
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, v)))
	}
	return out
}

func writeUint16LE(w *bytes.Buffer, v uint16) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
}

func writeUint32LE(w *bytes.Buffer, v uint32) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
	w.WriteByte(byte(v >> 16))
	w.WriteByte(byte(v >> 24))
}
