package service

import (
	"context"
	"errors"
	"time"

	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/pkg/logger"
)

var ErrLogNotFound = logger.ErrLogNotFound

// zap's ISO8601 encoder, then plain RFC3339 for hand-written lines
var logTimeLayouts = []string{"2006-01-02T15:04:05.000Z0700", time.RFC3339Nano}

type ILogService interface {
	List(ctx context.Context, req *dto.LogListRequest) ([]*dto.LogListResponse, error)
	Detail(ctx context.Context, id string) (*dto.LogDetailResponse, error)
}

type logService struct {
	logs logger.ILogger
}

// NewLogService reads from logs, which is usually the isolated alert logger
// rather than the application logger.
func NewLogService(logs logger.ILogger) ILogService {
	return &logService{logs: logs}
}

func parseLogTime(s string) time.Time {
	for _, layout := range logTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func toLogListResponse(l *logger.LogEntry) dto.LogListResponse {
	return dto.LogListResponse{
		Id:        l.Id,
		Level:     l.Level,
		Module:    l.Module,
		Message:   l.Message,
		CreatedAt: parseLogTime(l.Timestamp),
	}
}

func (s *logService) List(ctx context.Context, req *dto.LogListRequest) ([]*dto.LogListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	entries, err := s.logs.GetLogs(logger.LogQuery{
		Level:  req.Level,
		Module: req.Module,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LogListResponse, 0, len(entries))
	for i := range entries {
		item := toLogListResponse(&entries[i])
		res = append(res, &item)
	}
	return res, nil
}

func (s *logService) Detail(ctx context.Context, id string) (*dto.LogDetailResponse, error) {
	l, err := s.logs.GetLogById(id)
	if err != nil {
		if errors.Is(err, logger.ErrLogNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	return &dto.LogDetailResponse{
		LogListResponse: toLogListResponse(l),
		Details:         l.Details,
	}, nil
}
