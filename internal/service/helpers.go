package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/pkg/database"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
	"github.com/noah-isme/uniroom-api/pkg/middleware/requestid"
)

// unitOfWork runs fn inside one serializable transaction.
type unitOfWork interface {
	Do(ctx context.Context, fn database.TxFunc) error
}

// txError maps an error escaping a unit of work onto the API error space.
func txError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, database.ErrSerialization) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "concurrent update detected, retry the request")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func validationError(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

func parseDateField(field, raw string) (time.Time, error) {
	date, err := models.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, field+" must be a YYYY-MM-DD date")
	}
	return date, nil
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	date, err := parseDateField(field, *raw)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	return optionalString(*value)
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func emitAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, userID, action, resource, resourceID string, oldValue, newValue interface{}) {
	if audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: optionalString(resourceID),
		UserID:     optionalString(userID),
		IPAddress:  "system",
		UserAgent:  "scheduling-service",
	}
	if oldValue != nil {
		log.OldValues, _ = json.Marshal(oldValue)
	}
	if newValue != nil {
		log.NewValues, _ = json.Marshal(newValue)
	}
	if err := audit.CreateAuditLog(ctx, log); err != nil {
		logger.Warn("failed to persist audit log",
			zap.String("action", action),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err))
	}
}
