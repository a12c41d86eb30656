package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	responsesSheet = "Responses"
	scoresSheet    = "Scores"
	leadsSheet     = "Leads"

	maxLeadExport = 10000
)

// ReportService renders spreadsheets for the team reviewing assessments and leads
type ReportService interface {
	ExportSessionReport(ctx context.Context, token string) ([]byte, error)
	ExportLeads(ctx context.Context, since *time.Time) ([]byte, error)
}

type reportService struct {
	sessions  repositories.SessionRepository
	responses repositories.ResponseRepository
	catalog   CatalogService
	logger    *ServiceLogger
}

func NewReportService(repos *repositories.Repositories, catalog CatalogService, logger *slog.Logger) ReportService {
	return &reportService{
		sessions:  repos.Sessions,
		responses: repos.Responses,
		catalog:   catalog,
		logger:    NewServiceLogger(logger, LogConfig{Service: "career-assessment", Component: "reports"}),
	}
}

func (s *reportService) ExportSessionReport(ctx context.Context, token string) (data []byte, err error) {
	op := s.logger.WithOperation(ctx, "export_session_report", tokenKey(token))
	defer func() { op.LogResult(err) }()

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}

	responses, err := s.responses.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	set := NewResponseSet(responses)
	scores := ComputeDimensionScores(catalog, set)

	f := excelize.NewFile()
	defer f.Close()

	rows := make([][]interface{}, 0, len(responses))
	for _, q := range catalog.Questions() {
		response, ok := set[q.ID]
		if !ok {
			continue
		}
		rows = append(rows, []interface{}{
			q.ModuleID, q.ID, string(q.QuestionType), q.Prompt, answerText(q, response), response.UpdatedAt.Format(time.RFC3339),
		})
	}
	if err := writeSheet(f, responsesSheet,
		[]string{"Module", "Question ID", "Type", "Question", "Answer", "Answered At"}, rows); err != nil {
		return nil, err
	}

	dimensions := make([]string, 0, len(scores))
	for dim := range scores {
		dimensions = append(dimensions, dim)
	}
	sort.Strings(dimensions)

	scoreRows := make([][]interface{}, 0, len(dimensions))
	for _, dim := range dimensions {
		scoreRows = append(scoreRows, []interface{}{dim, scores[dim]})
	}
	if err := writeSheet(f, scoresSheet, []string{"Dimension", "Score"}, scoreRows); err != nil {
		return nil, err
	}

	return finishWorkbook(f)
}

func (s *reportService) ExportLeads(ctx context.Context, since *time.Time) (data []byte, err error) {
	op := s.logger.WithOperation(ctx, "export_leads", "")
	defer func() { op.LogResult(err) }()

	leads, err := s.sessions.ListLeads(ctx, repositories.LeadFilters{Since: since, Limit: maxLeadExport})
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	rows := make([][]interface{}, 0, len(leads))
	for _, lead := range leads {
		rows = append(rows, []interface{}{
			lead.ID,
			stringOrEmpty(lead.Email),
			string(lead.Status),
			stringOrEmpty(lead.InferredLevel),
			lead.CreatedAt.Format(time.RFC3339),
			timeOrEmpty(lead.SubmittedAt),
		})
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, leadsSheet,
		[]string{"Session ID", "Email", "Status", "Inferred Level", "Started At", "Submitted At"}, rows); err != nil {
		return nil, err
	}
	return finishWorkbook(f)
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// finishWorkbook drops the default sheet and serializes the workbook
func finishWorkbook(f *excelize.File) ([]byte, error) {
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func answerText(q *CatalogQuestion, response *models.AssessmentResponse) string {
	switch {
	case response.SelectedOptionID != nil:
		for _, option := range q.Options {
			if option.ID == *response.SelectedOptionID {
				return option.OptionText
			}
		}
		return fmt.Sprintf("option %d", *response.SelectedOptionID)
	case response.NumericValue != nil:
		return fmt.Sprintf("%d", *response.NumericValue)
	case response.TextValue != nil:
		return *response.TextValue
	}
	return ""
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
