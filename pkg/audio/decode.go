package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// TargetSampleRate is the sample rate every decoded clip is normalised to.
// All STT providers in this module expect 16 kHz mono input.
const TargetSampleRate = 16000

// ErrUnsupportedFormat is returned when the input is not a recognisable WAV,
// MP3, or Ogg Vorbis stream.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// Decode converts an uploaded audio file to 16 kHz mono 16-bit little-endian
// PCM. formatHint is an optional lowercase extension or MIME subtype ("wav",
// "mp3", "ogg"); when empty or unrecognised the container is sniffed from the
// stream's magic bytes instead.
//
// Returns [ErrUnsupportedFormat] (wrapped) when neither the hint nor the
// magic bytes identify a supported container, and a decoder error when the
// container is recognised but the stream is corrupt.
func Decode(data []byte, formatHint string) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("audio: empty input")
	}

	switch normaliseHint(formatHint) {
	case "wav":
		return decodeWAV(data)
	case "mp3":
		return decodeMP3(data)
	case "ogg":
		return decodeOggVorbis(data)
	}

	// No usable hint: sniff the magic bytes.
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return decodeWAV(data)
	case bytes.HasPrefix(data, []byte("OggS")):
		return decodeOggVorbis(data)
	case bytes.HasPrefix(data, []byte("ID3")), len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return decodeMP3(data)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, sniffLabel(data))
}

// normaliseHint reduces a file extension or MIME type to one of the supported
// container labels, or "" when the hint is unusable.
func normaliseHint(hint string) string {
	h := strings.ToLower(strings.TrimPrefix(hint, "."))
	if i := strings.LastIndex(h, "/"); i >= 0 {
		h = h[i+1:] // "audio/mpeg" → "mpeg"
	}
	switch h {
	case "wav", "wave", "x-wav":
		return "wav"
	case "mp3", "mpeg":
		return "mp3"
	case "ogg", "oga", "vorbis":
		return "ogg"
	}
	return ""
}

// sniffLabel returns a short printable label for the leading bytes, for error
// messages only.
func sniffLabel(data []byte) string {
	n := min(len(data), 4)
	label := make([]byte, 0, n)
	for _, b := range data[:n] {
		if b >= 0x20 && b < 0x7F {
			label = append(label, b)
		} else {
			label = append(label, '.')
		}
	}
	return string(label)
}

// decodeWAV decodes a RIFF/WAV container to 16 kHz mono PCM.
func decodeWAV(data []byte) ([]byte, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("audio: invalid wav container")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("audio: empty wav stream")
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	pcm := IntsToPCM(buf.Data, bitDepth)

	channels := 1
	rate := 44100
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}
	return normalise(pcm, rate, channels), nil
}

// decodeMP3 decodes an MP3 stream to 16 kHz mono PCM. go-mp3 always emits
// 16-bit stereo at the stream's native sample rate.
func decodeMP3(data []byte) ([]byte, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("audio: decode mp3: %w", err)
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, fmt.Errorf("audio: read mp3 stream: %w", err)
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return normalise(raw.Bytes(), rate, 2), nil
}

// decodeOggVorbis decodes an Ogg Vorbis stream to 16 kHz mono PCM.
func decodeOggVorbis(data []byte) ([]byte, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("audio: decode ogg: %w", err)
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("audio: invalid ogg/vorbis stream")
	}

	// Down-mix interleaved float samples before quantising.
	mono := samples
	if format.Channels > 1 {
		frames := len(samples) / format.Channels
		mono = make([]float32, frames)
		for i := range frames {
			var sum float32
			base := i * format.Channels
			for c := range format.Channels {
				sum += samples[base+c]
			}
			mono[i] = sum / float32(format.Channels)
		}
	}

	pcm := Float32ToPCM(mono)
	return normalise(pcm, format.SampleRate, 1), nil
}

// normalise converts PCM of any rate/channel layout to 16 kHz mono.
// Down-mix happens before resampling so only one channel is interpolated.
func normalise(pcm []byte, rate, channels int) []byte {
	if channels == 2 {
		pcm = StereoToMono(pcm)
	}
	if rate != TargetSampleRate {
		pcm = ResampleMono16(pcm, rate, TargetSampleRate)
	}
	return pcm
}
