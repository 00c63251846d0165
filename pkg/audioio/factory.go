package audioio

import (
	"fmt"
	"log/slog"
)

// NewOutput creates an audio output with the given configuration.
// If cfg.Backend is BackendAuto, RTP is used when an address is set.
func NewOutput(cfg Config, logger *slog.Logger) (Output, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto || backend == "" {
		backend = detectBackend(cfg)
	}

	logger.Info("creating audio output",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
	)

	switch backend {
	case BackendMock:
		return NewMockSink(cfg, logger), nil
	case BackendRTP:
		return NewRTPSink(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

func detectBackend(cfg Config) Backend {
	if cfg.RTPAddr != "" {
		return BackendRTP
	}
	return BackendMock
}

// AvailableBackends returns the selectable backends.
func AvailableBackends() []Backend {
	return []Backend{BackendMock, BackendRTP}
}
