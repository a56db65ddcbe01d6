package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/auditctx"
	"github.com/charlesng35/track/internal/models"
)

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	ActorID     string
	WorkspaceID string
	Action      string
	Resource    string
	Result      string
	IPAddress   string
	Metadata    map[string]any
}

// AuditFilters encapsulates optional filters when querying audit logs.
type AuditFilters struct {
	ActorID     string
	WorkspaceID string
	Action      string
	Since       *time.Time
}

// AuditService persists and retrieves audit log entries.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, now: time.Now}, nil
}

// Log stores an audit entry, marshalling metadata into JSON form.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}
	if strings.TrimSpace(entry.Result) == "" {
		return errors.New("audit service: result is required")
	}

	if origin, ok := auditctx.FromContext(ctx); ok {
		if strings.TrimSpace(entry.IPAddress) == "" {
			entry.IPAddress = origin.IPAddress
		}
		entry.Metadata = withOrigin(entry.Metadata, origin)
	}

	var payload datatypes.JSON
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		payload = datatypes.JSON(encoded)
	}

	log := models.AuditLog{
		ActorID:     stringPtr(entry.ActorID),
		WorkspaceID: stringPtr(entry.WorkspaceID),
		Action:      strings.TrimSpace(entry.Action),
		Resource:    strings.TrimSpace(entry.Resource),
		Result:      strings.TrimSpace(entry.Result),
		IPAddress:   strings.TrimSpace(entry.IPAddress),
		Metadata:    payload,
	}

	return s.db.WithContext(ctx).Create(&log).Error
}

func withOrigin(metadata map[string]any, origin auditctx.Origin) map[string]any {
	if origin.RequestID == "" && origin.UserAgent == "" {
		return metadata
	}
	out := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		out[k] = v
	}
	if origin.RequestID != "" {
		out["request_id"] = origin.RequestID
	}
	if origin.UserAgent != "" {
		out["user_agent"] = origin.UserAgent
	}
	return out
}

// List returns audit logs ordered by creation time descending. limit <= 0 selects 50.
func (s *AuditService) List(ctx context.Context, filters AuditFilters, limit int) ([]models.AuditLog, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filters.ActorID != "" {
		query = query.Where("actor_id = ?", filters.ActorID)
	}
	if filters.WorkspaceID != "" {
		query = query.Where("workspace_id = ?", filters.WorkspaceID)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}

	var logs []models.AuditLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("audit service: list logs: %w", err)
	}
	return logs, nil
}

// CleanupOlderThan removes audit logs older than the supplied retention window (in days).
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}
