package parse

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	routinepdf "github.com/alnah/go-routinepdf"
	"github.com/alnah/go-routinepdf/internal/quota"
)

// MaxInputRunes bounds the text accepted for one parse.
const MaxInputRunes = 20000

// Service validates input and enforces the daily quota around a Parser.
type Service struct {
	parser Parser
	quota  quota.Checker
	logger *slog.Logger
}

// NewService wraps p. A nil checker disables the quota; a nil logger
// discards logs.
func NewService(p Parser, q quota.Checker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{parser: p, quota: q, logger: logger}
}

// Parse checks the quota for clientKey, rejects empty input, calls the
// parser and records the use on success. Quota and input errors are
// returned before any network call.
func (s *Service) Parse(ctx context.Context, clientKey, text string) (*routinepdf.Routine, error) {
	if s.quota != nil {
		if err := s.quota.Check(ctx, clientKey); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if utf8.RuneCountInString(text) > MaxInputRunes {
		return nil, ErrInputTooLong
	}

	r, err := s.parser.Parse(ctx, text)
	if err != nil {
		s.logger.Warn("parse failed", slog.String("error", err.Error()))
		return nil, err
	}

	if s.quota != nil {
		if err := s.quota.Increment(ctx, clientKey); err != nil {
			// Best effort: the routine is still returned.
			s.logger.Error("recording usage", slog.String("error", err.Error()))
		}
	}
	s.logger.Info("routine parsed",
		slog.String("type", string(r.Kind)),
		slog.Int("days", len(r.Days)),
		slog.Int("items", r.ItemCount()),
	)
	return r, nil
}
