package audio

import (
	"encoding/binary"
	"errors"
	"testing"
)

// ─── EncodeWAV ───

// TestEncodeWAV_Header verifies the RIFF header fields of an encoded clip.
func TestEncodeWAV_Header(t *testing.T) {
	pcm := Int16sToPCM([]int16{1, 2, 3, 4})
	out := EncodeWAV(pcm, 16000, 1)

	if len(out) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(out))
	}
	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Errorf("bad container magic: %q %q", out[0:4], out[8:12])
	}
	if rate := binary.LittleEndian.Uint32(out[24:28]); rate != 16000 {
		t.Errorf("expected sample rate 16000, got %d", rate)
	}
	if ch := binary.LittleEndian.Uint16(out[22:24]); ch != 1 {
		t.Errorf("expected 1 channel, got %d", ch)
	}
	if size := binary.LittleEndian.Uint32(out[40:44]); int(size) != len(pcm) {
		t.Errorf("expected data size %d, got %d", len(pcm), size)
	}
}

// ─── Decode ───

// TestDecode_WAVRoundTrip verifies a 16 kHz mono WAV clip decodes back to
// its original samples.
func TestDecode_WAVRoundTrip(t *testing.T) {
	in := []int16{100, -100, 2000, -2000, 0, 12345}
	wavBytes := EncodeWAV(Int16sToPCM(in), 16000, 1)

	pcm, err := Decode(wavBytes, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := pcmToInt16s(pcm)
	if len(got) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("sample %d: expected %d, got %d", i, in[i], got[i])
		}
	}
}

// TestDecode_WAVStereoDownmix verifies a stereo WAV clip is down-mixed to
// mono.
func TestDecode_WAVStereoDownmix(t *testing.T) {
	// Interleaved L/R frames: each frame averages to 1500.
	in := []int16{1000, 2000, 1000, 2000, 1000, 2000}
	wavBytes := EncodeWAV(Int16sToPCM(in), 16000, 2)

	pcm, err := Decode(wavBytes, "wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := pcmToInt16s(pcm)
	if len(got) != 3 {
		t.Fatalf("expected 3 mono samples, got %d", len(got))
	}
	for i, s := range got {
		if s != 1500 {
			t.Errorf("sample %d: expected 1500, got %d", i, s)
		}
	}
}

// TestDecode_WAVResamples verifies a non-16 kHz clip is resampled to the
// target rate.
func TestDecode_WAVResamples(t *testing.T) {
	in := make([]int16, 800) // 25 ms at 32 kHz
	wavBytes := EncodeWAV(Int16sToPCM(in), 32000, 1)

	pcm, err := Decode(wavBytes, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(pcm) / 2; got != 400 {
		t.Errorf("expected 400 samples after resample, got %d", got)
	}
}

// TestDecode_UnsupportedFormat verifies unknown magic bytes map to the
// sentinel error.
func TestDecode_UnsupportedFormat(t *testing.T) {
	_, err := Decode([]byte("not audio data at all"), "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestDecode_EmptyInput verifies empty input is rejected.
func TestDecode_EmptyInput(t *testing.T) {
	if _, err := Decode(nil, ""); err == nil {
		t.Error("expected error for empty input")
	}
}

// TestDecode_CorruptWAV verifies a truncated RIFF header returns an error
// rather than the sentinel.
func TestDecode_CorruptWAV(t *testing.T) {
	_, err := Decode([]byte("RIFFxxxx"), "")
	if err == nil {
		t.Fatal("expected error for corrupt wav")
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		t.Error("corrupt wav should not map to ErrUnsupportedFormat")
	}
}

// ─── normaliseHint ───

// TestNormaliseHint covers extension, dotted extension, and MIME forms.
func TestNormaliseHint(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"wav", "wav"},
		{".wav", "wav"},
		{"WAVE", "wav"},
		{"audio/x-wav", "wav"},
		{"mp3", "mp3"},
		{"audio/mpeg", "mp3"},
		{".ogg", "ogg"},
		{"audio/vorbis", "ogg"},
		{"flac", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normaliseHint(tc.in); got != tc.want {
			t.Errorf("normaliseHint(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
