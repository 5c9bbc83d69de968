package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/erp/jobcost/internal/domain/audit"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// csvHeader is the column row of ExportCSV
var csvHeader = []string{
	"ID", "Timestamp", "Action", "Entity Type", "Entity ID", "Entity Name",
	"User", "Project", "Severity", "Description", "Financial Impact",
}

// Service records and queries the audit log
type Service struct {
	repo   audit.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new audit Service
func NewService(repo audit.Repository, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.OrNop(log).Named("audit"),
		now:    time.Now,
	}
}

// Log appends an entry. The id and timestamp are assigned here.
func (s *Service) Log(ctx context.Context, req audit.LogRequest) (*audit.Entry, error) {
	if req.Action == "" {
		return nil, shared.NewValidationError("Audit action is required")
	}
	if strings.TrimSpace(req.EntityType) == "" {
		return nil, shared.NewValidationError("Audit entity type is required")
	}

	severity := req.Severity
	if severity == "" {
		severity = audit.SeverityForAction(req.Action)
	}
	if !severity.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Invalid audit severity %q", severity))
	}

	userName := req.Actor.Name
	if userName == "" {
		userName = shared.SystemActor.Name
	}

	entry := &audit.Entry{
		ID:              uuid.New(),
		Timestamp:       s.now(),
		Action:          req.Action,
		EntityType:      req.EntityType,
		EntityID:        req.EntityID,
		EntityName:      req.EntityName,
		UserID:          req.Actor.ID,
		UserName:        userName,
		ProjectID:       req.ProjectID,
		Description:     req.Description,
		Severity:        severity,
		FinancialImpact: req.FinancialImpact,
		Changes:         req.Changes,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append audit entry: %w", err)
	}

	s.logger.Debug("audit entry recorded",
		zap.String("action", entry.Action.String()),
		zap.String("entity_type", entry.EntityType),
		zap.String("entity_id", entry.EntityID.String()),
		zap.String("severity", entry.Severity.String()),
	)
	return entry, nil
}

// List returns entries matching the filter, newest first
func (s *Service) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	return s.repo.Find(ctx, filter)
}

// GetEntityHistory returns every entry of one entity, newest first
func (s *Service) GetEntityHistory(ctx context.Context, entityType string, entityID uuid.UUID) ([]audit.Entry, error) {
	return s.repo.Find(ctx, audit.Filter{EntityType: entityType, EntityID: &entityID})
}

// ExportJSON returns the matching entries as a pretty-printed JSON array
func (s *Service) ExportJSON(ctx context.Context, filter audit.Filter) ([]byte, error) {
	entries, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}

// ExportCSV returns the matching entries as CSV with every field quoted
func (s *Service) ExportCSV(ctx context.Context, filter audit.Filter) ([]byte, error) {
	entries, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	writeCSVRow(&b, csvHeader)
	for i := range entries {
		writeCSVRow(&b, csvRecord(&entries[i]))
	}
	return []byte(b.String()), nil
}

func csvRecord(e *audit.Entry) []string {
	project := ""
	if e.ProjectID != nil {
		project = e.ProjectID.String()
	}
	impact := ""
	if e.FinancialImpact != nil {
		impact = e.FinancialImpact.StringFixed(2)
	}
	return []string{
		e.ID.String(),
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Action.String(),
		e.EntityType,
		e.EntityID.String(),
		e.EntityName,
		e.UserName,
		project,
		e.Severity.String(),
		e.Description,
		impact,
	}
}

// writeCSVRow writes one row, quoting every field and doubling embedded quotes
func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

var _ audit.Recorder = (*Service)(nil)
