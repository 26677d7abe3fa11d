package reporter

import (
	"context"

	"github.com/sirupsen/logrus"

	"neoknock/internal/core/model"
	"neoknock/internal/pkg/logger"
)

// LogReporter 将每次尝试写入结构化日志 (受 --log-level 控制)
type LogReporter struct {
	mode model.KnockMode
	seq  int
}

func NewLogReporter(mode model.KnockMode) *LogReporter {
	return &LogReporter{mode: mode}
}

func (r *LogReporter) Report(ctx context.Context, attempt *model.Attempt) error {
	if attempt == nil {
		return nil
	}
	r.seq++

	entry := logger.WithFields(logrus.Fields{
		"mode":    r.mode,
		"target":  attempt.Address(),
		"seq":     r.seq,
		"check":   attempt.Check,
		"outcome": attempt.Outcome,
		"latency": attempt.Latency,
	})
	if attempt.Detail != "" {
		entry = entry.WithField("detail", attempt.Detail)
	}
	if attempt.Flags != "" {
		entry = entry.WithField("flags", attempt.Flags)
	}

	if attempt.Outcome == model.OutcomeError {
		entry.Warn("knock attempt failed")
	} else {
		entry.Info("knock attempt")
	}
	return nil
}
