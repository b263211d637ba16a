package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"sales-assistant/audit"
	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/utils"
	"sales-assistant/web/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ActivityStore interface {
	InsertAttempts(ctx context.Context, events []domain.ActivityEvent) (int, error)
	InsertMeeting(ctx context.Context, ev domain.MeetingEvent) (uuid.UUID, error)
}

// AttemptsResult reports what a RecordAttempts call stored.
type AttemptsResult struct {
	RequestID string    `json:"request_id"`
	Date      time.Time `json:"date"`
	Inserted  int       `json:"inserted"`
	Skipped   int       `json:"skipped"`
}

type ActivityService struct {
	store   ActivityStore
	audit   *audit.Recorder
	today   func() time.Time
	timeout time.Duration
	logger  *zap.Logger
}

// NewActivityService creates the activity write path. today returns the
// current business date.
func NewActivityService(store ActivityStore, recorder *audit.Recorder, today func() time.Time, timeout time.Duration, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		store:   store,
		audit:   recorder,
		today:   today,
		timeout: timeout,
		logger:  logger,
	}
}

// RecordAttempts stores one event per product with a positive count. Zero
// counts are skipped. Replaying the same request id stores nothing new.
func (s *ActivityService) RecordAttempts(ctx context.Context, employeeID domain.EmployeeID, req types.RecordAttemptsRequest) (*AttemptsResult, error) {
	date, err := s.businessDate(req.Date)
	if err != nil {
		return nil, err
	}
	requestID, err := s.requestID(req.RequestID)
	if err != nil {
		return nil, err
	}
	var meetingID *uuid.UUID
	if strings.TrimSpace(req.MeetingID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(req.MeetingID))
		if err != nil {
			return nil, apperrors.NewValidationError("meeting_id", "must be a UUID")
		}
		meetingID = &id
	}
	if len(req.Attempts) == 0 {
		return nil, apperrors.NewValidationError("attempts", "must not be empty")
	}

	// Sorted so the insert order (and any validation error) is deterministic.
	codes := make([]string, 0, len(req.Attempts))
	for code := range req.Attempts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	result := &AttemptsResult{RequestID: requestID, Date: date}
	var events []domain.ActivityEvent
	for _, raw := range codes {
		count := req.Attempts[raw]
		product, err := domain.ParseProductCode(raw)
		if err != nil || !product.Valid() {
			return nil, apperrors.NewValidationError("product_code", "unknown product code %q", raw)
		}
		ev := domain.ActivityEvent{
			EmployeeID: employeeID,
			Product:    product,
			Count:      count,
			Date:       date,
			MeetingID:  meetingID,
			RequestID:  requestID,
		}
		if err := ev.Validate(); err != nil {
			return nil, err
		}
		if count == 0 {
			result.Skipped++
			continue
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		return result, nil
	}

	writeCtx, cancel := utils.DetachedTimeout(ctx, s.timeout)
	defer cancel()
	inserted, err := s.store.InsertAttempts(writeCtx, events)
	if err != nil {
		if apperrors.IsIntegrity(err) || apperrors.IsInvalidInput(err) {
			return nil, err
		}
		return nil, apperrors.Dependency(err, "insert attempts")
	}
	result.Inserted = inserted

	s.logger.Info("Recorded attempts",
		zap.Int64("employee_id", int64(employeeID)),
		zap.String("request_id", requestID),
		zap.Int("inserted", inserted),
		zap.Int("skipped", result.Skipped))
	s.audit.Record(ctx, employeeID, audit.ActionSaveAttempts, map[string]any{
		"request_id": requestID,
		"date":       date.Format(time.DateOnly),
		"attempts":   req.Attempts,
		"inserted":   inserted,
	})
	return result, nil
}

// RecordMeeting stores a meeting and returns its id. A replayed request id
// returns the id stored the first time.
func (s *ActivityService) RecordMeeting(ctx context.Context, employeeID domain.EmployeeID, req types.RecordMeetingRequest) (uuid.UUID, error) {
	date, err := s.businessDate(req.Date)
	if err != nil {
		return uuid.Nil, err
	}
	requestID, err := s.requestID(req.RequestID)
	if err != nil {
		return uuid.Nil, err
	}
	product, err := domain.ParseProductCode(req.ProductCode)
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError("product_code", "unknown product code %q", req.ProductCode)
	}
	ev := domain.MeetingEvent{EmployeeID: employeeID, Product: product, Date: date, RequestID: requestID}
	if err := ev.Validate(); err != nil {
		return uuid.Nil, err
	}

	writeCtx, cancel := utils.DetachedTimeout(ctx, s.timeout)
	defer cancel()
	id, err := s.store.InsertMeeting(writeCtx, ev)
	if err != nil {
		if apperrors.IsIntegrity(err) {
			return uuid.Nil, err
		}
		return uuid.Nil, apperrors.Dependency(err, "insert meeting")
	}
	s.audit.Record(ctx, employeeID, audit.ActionMeeting, map[string]any{
		"meeting_id":   id.String(),
		"product_code": string(product),
		"date":         date.Format(time.DateOnly),
	})
	return id, nil
}

// businessDate parses an optional YYYY-MM-DD date, defaulting to today.
// Dates after today are rejected.
func (s *ActivityService) businessDate(raw string) (time.Time, error) {
	today := s.today()
	if strings.TrimSpace(raw) == "" {
		return today, nil
	}
	date, err := domain.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date", "expected YYYY-MM-DD")
	}
	if date.After(today) {
		return time.Time{}, apperrors.NewValidationError("date", "must not be in the future")
	}
	return date, nil
}

func (s *ActivityService) requestID(raw string) (string, error) {
	id, err := utils.NormalizeRequestID(raw)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = utils.GenerateRequestID()
	}
	return id, nil
}
