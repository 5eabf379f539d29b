package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// RecordingFilename is the name the backend sees for uploads.
	RecordingFilename = "recording.wav"
	// RecordingMimeType is the content type of a packaged recording.
	RecordingMimeType = "audio/wav"
)

// Artifact is a finished recording on disk, ready for upload.
type Artifact struct {
	Path     string
	Size     int64
	Duration time.Duration
	MimeType string
	Filename string
}

// Remove deletes the artifact file.
func (a Artifact) Remove() error {
	if a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove recording %s: %w", a.Path, err)
	}
	return nil
}

// EncodeWAV concatenates PCM chunks in order and writes them as one 16-bit
// WAV file in dir (os.TempDir when empty).
func EncodeWAV(chunks [][]byte, format Format, dir string) (Artifact, error) {
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return Artifact{}, fmt.Errorf("invalid pcm format: %d Hz, %d channels", format.SampleRate, format.Channels)
	}
	samples := pcmToInts(chunks)
	if len(samples) == 0 {
		return Artifact{}, ErrEmptyRecording
	}

	f, err := os.CreateTemp(dir, "walkie-talkie-*.wav")
	if err != nil {
		return Artifact{}, fmt.Errorf("create recording file: %w", err)
	}
	path := f.Name()

	enc := wav.NewEncoder(f, format.SampleRate, 16, format.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: format.Channels,
			SampleRate:  format.SampleRate,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		os.Remove(path)
		return Artifact{}, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return Artifact{}, fmt.Errorf("finalize wav: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Artifact{}, fmt.Errorf("close recording file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("stat recording file: %w", err)
	}

	frames := len(samples) / format.Channels
	return Artifact{
		Path:     path,
		Size:     info.Size(),
		Duration: time.Duration(frames) * time.Second / time.Duration(format.SampleRate),
		MimeType: RecordingMimeType,
		Filename: RecordingFilename,
	}, nil
}

// pcmToInts decodes s16le bytes. A chunk boundary may split a sample, so
// chunks are joined before decoding and a trailing odd byte is dropped.
func pcmToInts(chunks [][]byte) []int {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	raw := make([]byte, 0, total)
	for _, c := range chunks {
		raw = append(raw, c...)
	}

	samples := make([]int, len(raw)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(raw[2*i:])))
	}
	return samples
}
