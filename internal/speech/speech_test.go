package speech

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestStubTranscriberPlaceholder(t *testing.T) {
	tr := NewStubTranscriber("base", nil)
	got, err := tr.Transcribe(context.Background(), []byte{0x52, 0x49, 0x46, 0x46})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != TranscriptionUnavailable {
		t.Fatalf("Transcribe = %q", got)
	}
}

func TestStubTranscriberHonorsContext(t *testing.T) {
	tr := NewStubTranscriber("base", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Transcribe(ctx, nil); err == nil {
		t.Fatal("expected context error")
	}
}

func TestStubSynthesizerWritesFile(t *testing.T) {
	syn := NewStubSynthesizer("")
	syn.outputDir = t.TempDir()

	path, err := syn.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.HasSuffix(path, ".wav") {
		t.Fatalf("output path %q lacks .wav suffix", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("stub output should be empty, got %d bytes", info.Size())
	}

	second, err := syn.Synthesize(context.Background(), "hello again")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if second == path {
		t.Fatal("expected distinct output paths per call")
	}
}

func TestStubSynthesizerVoices(t *testing.T) {
	syn := NewStubSynthesizer("")
	if syn.Voice() != "en_US-amy-medium" {
		t.Fatalf("default voice = %q", syn.Voice())
	}
	voices := syn.Voices()
	if len(voices) != 3 {
		t.Fatalf("expected 3 voices, got %d", len(voices))
	}

	syn.SetVoice("en_US-amy-low")
	if syn.Voice() != "en_US-amy-low" {
		t.Fatalf("voice after SetVoice = %q", syn.Voice())
	}
	syn.SetVoice("")
	if syn.Voice() != "en_US-amy-low" {
		t.Fatal("empty SetVoice should be a no-op")
	}
}
