package audioio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockSink_Lifecycle(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	ctx := context.Background()

	if sink.State() != StateSuspended {
		t.Fatalf("new sink state = %s, want suspended", sink.State())
	}

	if err := sink.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if sink.State() != StateRunning {
		t.Errorf("state after Start = %s, want running", sink.State())
	}

	if err := sink.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := sink.Stop(); err != nil {
		t.Fatalf("Second Stop failed: %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if sink.State() != StateClosed {
		t.Errorf("state after Close = %s, want closed", sink.State())
	}
	if err := sink.Start(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close = %v, want ErrClosed", err)
	}
}

func TestMockSink_WriteFlushClear(t *testing.T) {
	cfg := DefaultConfig()
	sink := NewMockSink(cfg, nil)
	defer sink.Close()

	ctx := context.Background()
	if err := sink.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	chunk := AudioChunk{Samples: make([]int16, 480), SampleRate: cfg.SampleRate, Channels: 1}
	for i := 0; i < 3; i++ {
		if err := sink.Write(ctx, chunk); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	stats := sink.Stats()
	if stats.ChunksWritten != 3 || stats.SamplesWritten != 1440 {
		t.Errorf("stats = %+v, want 3 chunks / 1440 samples", stats)
	}
	if stats.BufferedSamples != 1440 {
		t.Errorf("buffered = %d, want 1440", stats.BufferedSamples)
	}

	if err := sink.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := sink.Stats().BufferedSamples; got != 0 {
		t.Errorf("buffered after Flush = %d, want 0", got)
	}

	sink.Write(ctx, chunk)
	sink.Clear()
	if got := sink.Stats().BufferedSamples; got != 0 {
		t.Errorf("buffered after Clear = %d, want 0", got)
	}

	// History survives Flush and Clear.
	if got := len(sink.Chunks()); got != 4 {
		t.Errorf("Chunks() len = %d, want 4", got)
	}
}

func TestMockSink_SuspendResume(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	defer sink.Close()
	ctx := context.Background()
	sink.Start(ctx)

	sink.Suspend()
	err := sink.Write(ctx, AudioChunk{Samples: []int16{1}})
	if !errors.Is(err, ErrSuspended) {
		t.Fatalf("Write while suspended = %v, want ErrSuspended", err)
	}

	if err := sink.Resume(ctx); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if err := sink.Write(ctx, AudioChunk{Samples: []int16{1}}); err != nil {
		t.Fatalf("Write after Resume failed: %v", err)
	}
	if sink.ResumeCalls() != 1 {
		t.Errorf("ResumeCalls = %d, want 1", sink.ResumeCalls())
	}
}

func TestMockSink_FailResume(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	defer sink.Close()
	ctx := context.Background()

	boom := errors.New("device busy")
	sink.FailResume(boom)

	if err := sink.Resume(ctx); !errors.Is(err, boom) {
		t.Fatalf("Resume = %v, want %v", err, boom)
	}
	if sink.State() != StateSuspended {
		t.Errorf("state after failed Resume = %s, want suspended", sink.State())
	}

	sink.FailResume(nil)
	if err := sink.Resume(ctx); err != nil {
		t.Fatalf("Resume after clearing failure: %v", err)
	}
	if sink.State() != StateRunning {
		t.Errorf("state = %s, want running", sink.State())
	}
}

func TestMockSink_FlushHonorsContext(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	defer sink.Close()
	sink.Start(context.Background())
	sink.Write(context.Background(), AudioChunk{Samples: make([]int16, 24000*10)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Flush(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Flush with canceled ctx = %v, want context.Canceled", err)
	}
}

func TestAudioChunk_Bytes(t *testing.T) {
	chunk := AudioChunk{
		Samples:    []int16{0x0102, 0x0304, -1},
		SampleRate: 24000,
		Channels:   1,
	}

	bytes := chunk.Bytes()
	if len(bytes) != 6 {
		t.Errorf("Expected 6 bytes, got %d", len(bytes))
	}
	if bytes[0] != 0x02 || bytes[1] != 0x01 {
		t.Errorf("First sample not encoded correctly: %v", bytes[0:2])
	}
}

func TestAudioChunk_FromBytes(t *testing.T) {
	var chunk AudioChunk
	chunk.FromBytes([]byte{0x02, 0x01, 0x04, 0x03, 0xFF, 0xFF}, 24000, 1)

	if len(chunk.Samples) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(chunk.Samples))
	}
	if chunk.Samples[0] != 0x0102 {
		t.Errorf("First sample incorrect: got %d, expected %d", chunk.Samples[0], 0x0102)
	}
	if chunk.Samples[2] != -1 {
		t.Errorf("Third sample incorrect: got %d, expected -1", chunk.Samples[2])
	}
}

func TestAudioChunk_Duration(t *testing.T) {
	tests := []struct {
		name  string
		chunk AudioChunk
		want  time.Duration
	}{
		{"20ms mono", AudioChunk{Samples: make([]int16, 480), SampleRate: 24000, Channels: 1}, 20 * time.Millisecond},
		{"20ms stereo", AudioChunk{Samples: make([]int16, 1920), SampleRate: 48000, Channels: 2}, 20 * time.Millisecond},
		{"no rate", AudioChunk{Samples: make([]int16, 10)}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.chunk.Duration(); got != tc.want {
				t.Errorf("Duration() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAudioChunk_Convert(t *testing.T) {
	mono := AudioChunk{Samples: make([]int16, 480), SampleRate: 24000, Channels: 1}

	up := mono.Convert(48000, 1)
	if len(up.Samples) != 960 || up.SampleRate != 48000 {
		t.Errorf("mono 24k->48k: %d samples @ %d", len(up.Samples), up.SampleRate)
	}

	st := mono.Convert(48000, 2)
	if len(st.Samples) != 1920 || st.Channels != 2 {
		t.Errorf("mono->stereo: %d samples, %d channels", len(st.Samples), st.Channels)
	}
	if st.Duration() != mono.Duration() {
		t.Errorf("duration changed: %v -> %v", mono.Duration(), st.Duration())
	}

	back := st.Convert(24000, 1)
	if len(back.Samples) != 480 {
		t.Errorf("stereo 48k->mono 24k: %d samples, want 480", len(back.Samples))
	}
}

func TestNewOutput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		want    string
		wantErr bool
	}{
		{"auto without addr", func(c *Config) {}, "mock", false},
		{"auto with addr", func(c *Config) { c.RTPAddr = "127.0.0.1:5004" }, "rtp", false},
		{"explicit mock", func(c *Config) { c.Backend = BackendMock; c.RTPAddr = "127.0.0.1:5004" }, "mock", false},
		{"rtp without addr", func(c *Config) { c.Backend = BackendRTP }, "", true},
		{"unknown", func(c *Config) { c.Backend = "alsa" }, "", true},
		{"bad channels", func(c *Config) { c.Channels = 3 }, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			out, err := NewOutput(cfg, nil)
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewOutput error = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil {
				defer out.Close()
				if out.Name() != tc.want {
					t.Errorf("Name() = %q, want %q", out.Name(), tc.want)
				}
			}
		})
	}
}
