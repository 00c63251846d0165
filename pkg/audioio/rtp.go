package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusPacket bounds a single encoded frame; 20 ms at 64 kbit/s is ~160 bytes.
const maxOpusPacket = 1500

// RTPSink encodes audio to Opus and sends it as RTP over UDP.
// Audio is buffered until a full 20 ms frame is available; Flush pads and
// sends the remainder.
type RTPSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	conn    net.Conn
	enc     *opus.Encoder
	pending []int16
	encBuf  []byte

	seq    uint16
	ts     uint32
	ssrc   uint32
	marker bool

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
	packetsSent    atomic.Int64
}

// NewRTPSink creates an RTP sink. Nothing is dialed until Start.
func NewRTPSink(cfg Config, logger *slog.Logger) (*RTPSink, error) {
	if cfg.RTPAddr == "" {
		return nil, fmt.Errorf("rtp sink: rtp_addr is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PayloadType == 0 {
		cfg.PayloadType = RTPPayloadType
	}
	return &RTPSink{
		cfg:    cfg,
		logger: logger.With("component", "audioio.rtp", "addr", cfg.RTPAddr),
		state:  StateSuspended,
		encBuf: make([]byte, maxOpusPacket),
		seq:    uint16(rand.Uint32()),
		ts:     rand.Uint32(),
		ssrc:   rand.Uint32(),
		marker: true,
	}, nil
}

// Start dials the destination and creates the encoder.
func (s *RTPSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *RTPSink) startLocked(ctx context.Context) error {
	switch s.state {
	case StateClosed:
		return ErrClosed
	case StateRunning:
		return nil
	}

	if s.conn == nil {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "udp", s.cfg.RTPAddr)
		if err != nil {
			return fmt.Errorf("rtp sink: dial %s: %w", s.cfg.RTPAddr, err)
		}
		s.conn = conn
	}
	if s.enc == nil {
		enc, err := opus.NewEncoder(RTPSampleRate, s.cfg.Channels, opus.AppAudio)
		if err != nil {
			return fmt.Errorf("rtp sink: opus encoder: %w", err)
		}
		if s.cfg.Bitrate > 0 {
			if err := enc.SetBitrate(s.cfg.Bitrate); err != nil {
				return fmt.Errorf("rtp sink: set bitrate: %w", err)
			}
		}
		s.enc = enc
	}

	s.state = StateRunning
	s.marker = true
	s.logger.Info("rtp audio sink started",
		"payload_type", s.cfg.PayloadType,
		"bitrate", s.cfg.Bitrate,
	)
	return nil
}

// Stop suspends the sink. The socket stays open for Resume.
func (s *RTPSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StateSuspended
		s.pending = s.pending[:0]
	}
	return nil
}

// Resume restarts a suspended sink.
func (s *RTPSink) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

// State returns the current state.
func (s *RTPSink) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// frameSamples is the interleaved sample count of one 20 ms frame.
func (s *RTPSink) frameSamples() int {
	return int(RTPSampleRate*RTPFrameLength.Milliseconds()/1000) * s.cfg.Channels
}

// Write converts the chunk to 48 kHz and sends every complete frame.
func (s *RTPSink) Write(ctx context.Context, chunk AudioChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return ErrClosed
	case StateSuspended:
		return ErrSuspended
	}
	if chunk.SampleRate == 0 {
		chunk.SampleRate = s.cfg.SampleRate
	}
	if chunk.Channels == 0 {
		chunk.Channels = s.cfg.Channels
	}

	conv := chunk.Convert(RTPSampleRate, s.cfg.Channels)
	s.pending = append(s.pending, conv.Samples...)
	s.chunksWritten.Add(1)
	s.samplesWritten.Add(int64(len(chunk.Samples)))

	n := s.frameSamples()
	for len(s.pending) >= n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.sendFrame(s.pending[:n]); err != nil {
			return err
		}
		s.pending = s.pending[n:]
	}
	return nil
}

// sendFrame encodes and sends exactly one frame. Caller holds mu.
func (s *RTPSink) sendFrame(pcm []int16) error {
	n, err := s.enc.Encode(pcm, s.encBuf)
	if err != nil {
		return fmt.Errorf("rtp sink: encode: %w", err)
	}

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         s.marker,
			PayloadType:    s.cfg.PayloadType,
			SequenceNumber: s.seq,
			Timestamp:      s.ts,
			SSRC:           s.ssrc,
		},
		Payload: s.encBuf[:n],
	}
	raw, err := pkt.Marshal()
	if err != nil {
		return fmt.Errorf("rtp sink: marshal: %w", err)
	}
	if _, err := s.conn.Write(raw); err != nil {
		return fmt.Errorf("rtp sink: send: %w", err)
	}

	s.marker = false
	s.seq++
	s.ts += uint32(len(pcm) / s.cfg.Channels)
	s.packetsSent.Add(1)
	return nil
}

// Flush pads any partial frame with silence and sends it.
func (s *RTPSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return ErrClosed
	}
	if len(s.pending) == 0 || s.state != StateRunning {
		return nil
	}
	frame := make([]int16, s.frameSamples())
	copy(frame, s.pending)
	s.pending = s.pending[:0]
	return s.sendFrame(frame)
}

// Clear drops any partial frame.
func (s *RTPSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = s.pending[:0]
	return nil
}

// Config returns the audio configuration.
func (s *RTPSink) Config() Config {
	return s.cfg
}

// Name returns "rtp".
func (s *RTPSink) Name() string {
	return "rtp"
}

// Close closes the socket.
func (s *RTPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	s.pending = nil
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Stats returns sink statistics.
func (s *RTPSink) Stats() SinkStats {
	s.mu.Lock()
	state := s.state
	buffered := int64(len(s.pending))
	s.mu.Unlock()

	return SinkStats{
		ChunksWritten:   s.chunksWritten.Load(),
		SamplesWritten:  s.samplesWritten.Load(),
		PacketsSent:     s.packetsSent.Load(),
		State:           state,
		Backend:         "rtp",
		BufferedSamples: buffered,
	}
}

var _ SinkWithStats = (*RTPSink)(nil)
