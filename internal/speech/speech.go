// Package speech holds the speech-to-text and text-to-speech seams used by
// the voice and raw-audio channels. The real engines (Whisper, Piper) run
// out of process; the stubs here keep the conversation loop functional when
// no engine is installed.
package speech

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bdafahim/OmniAssist/pkg/logging"
)

// TranscriptionUnavailable is the reply surfaced to the caller when no
// recognition engine is wired in. It reads as a normal assistant turn so the
// dialogue loop keeps moving.
const TranscriptionUnavailable = "I'm sorry, speech recognition is currently unavailable."

// Transcriber converts captured audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer renders reply text into an audio file and returns its path.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
	Voices() []string
	SetVoice(voice string)
}

// StubTranscriber stands in for a speech recognition engine. Every input
// transcribes to the unavailable notice.
type StubTranscriber struct {
	model  string
	logger *logging.Logger
}

// NewStubTranscriber records the configured model name so logs show what
// would have been loaded.
func NewStubTranscriber(model string, logger *logging.Logger) *StubTranscriber {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubTranscriber{model: model, logger: logger.Component("speech")}
}

func (t *StubTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.logger.Warn("speech recognition engine not installed, returning placeholder",
		"model", t.model,
		"audio_bytes", len(audio),
	)
	return TranscriptionUnavailable, nil
}

// StubSynthesizer writes empty wav files to the system temp directory. The
// file path contract matches what a real engine would return, so channel
// code does not change when one is wired in.
type StubSynthesizer struct {
	voice     string
	outputDir string
}

func NewStubSynthesizer(voice string) *StubSynthesizer {
	if voice == "" {
		voice = "en_US-amy-medium"
	}
	return &StubSynthesizer{voice: voice, outputDir: os.TempDir()}
}

func (s *StubSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var suffix [8]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return "", fmt.Errorf("speech: failed to name output file: %w", err)
	}
	path := filepath.Join(s.outputDir, "tts_"+hex.EncodeToString(suffix[:])+".wav")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		return "", fmt.Errorf("speech: failed to write audio file: %w", err)
	}
	return path, nil
}

// Voices lists the voices the stub pretends to offer.
func (s *StubSynthesizer) Voices() []string {
	return []string{"en_US-amy-medium", "en_US-amy-low", "en_US-amy-high"}
}

func (s *StubSynthesizer) SetVoice(voice string) {
	if voice != "" {
		s.voice = voice
	}
}

// Voice returns the currently selected voice.
func (s *StubSynthesizer) Voice() string {
	return s.voice
}
