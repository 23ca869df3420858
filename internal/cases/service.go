// Package cases is the case library: CRUD over authored case documents
// plus single-shot case authoring through the generation service.
package cases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"caseprep/internal/config"
	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/domain/repositories"
)

// CreateCaseRequest carries an authored case document.
type CreateCaseRequest struct {
	UserID   string                 `json:"-"`
	Title    string                 `json:"title"`
	CaseType models.CaseType        `json:"case_type"`
	Prompt   string                 `json:"prompt"`
	Context  map[string]interface{} `json:"context"`
	Exhibits []models.Exhibit       `json:"exhibits"`
}

// Service implements case library operations.
type Service struct {
	cases  repositories.CaseRepository
	logger *slog.Logger
}

// NewService creates a new case service.
func NewService(cases repositories.CaseRepository, logger *slog.Logger) *Service {
	return &Service{cases: cases, logger: logger}
}

// Create validates and stores a case document.
func (s *Service) Create(ctx context.Context, req *CreateCaseRequest) (*models.Case, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	c := &models.Case{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		CaseType:  req.CaseType,
		Prompt:    req.Prompt,
		Context:   req.Context,
		Exhibits:  req.Exhibits,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.UserID != "" {
		c.CreatedBy = &req.UserID
	}

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("case created",
		"case_id", c.ID,
		"title", c.Title,
		"exhibits", len(c.Exhibits),
	)

	return c, nil
}

// Get retrieves a case by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Case, error) {
	return s.cases.GetByID(ctx, id)
}

// List retrieves all cases.
func (s *Service) List(ctx context.Context) ([]models.Case, error) {
	return s.cases.List(ctx)
}

// Delete removes a case.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.cases.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("case deleted", "case_id", id)
	return nil
}

// validateCreateRequest checks the case document shape, including
// per-kind exhibit payload rules.
func (s *Service) validateCreateRequest(req *CreateCaseRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxCaseTitleLength),
		),
		validation.Field(&req.CaseType,
			validation.Required,
			validation.In(models.CaseTypeConsulting, models.CaseTypeProductManagement),
		),
		validation.Field(&req.Prompt, validation.Required),
		validation.Field(&req.Exhibits,
			validation.Length(0, config.MaxExhibits),
			validation.By(validateExhibits),
		),
	)
}

// validateExhibits enforces per-kind payload shape. Pie chart values must
// sum to 100 so the exhibit reads as shares.
func validateExhibits(value interface{}) error {
	exhibits, ok := value.([]models.Exhibit)
	if !ok {
		return fmt.Errorf("exhibits must be a list")
	}

	for i, ex := range exhibits {
		if strings.TrimSpace(ex.Title) == "" {
			return fmt.Errorf("exhibit %d: title is required", i+1)
		}

		switch ex.Kind {
		case models.ExhibitKindTable:
			if err := requirePayloadKeys(ex.Payload, "columns", "rows"); err != nil {
				return fmt.Errorf("exhibit %d (%s): %w", i+1, ex.Kind, err)
			}
		case models.ExhibitKindBarChart:
			if err := requirePayloadKeys(ex.Payload, "labels", "values"); err != nil {
				return fmt.Errorf("exhibit %d (%s): %w", i+1, ex.Kind, err)
			}
		case models.ExhibitKindPieChart:
			if err := requirePayloadKeys(ex.Payload, "labels", "values"); err != nil {
				return fmt.Errorf("exhibit %d (%s): %w", i+1, ex.Kind, err)
			}
			if err := validatePieShares(ex.Payload["values"]); err != nil {
				return fmt.Errorf("exhibit %d (%s): %w", i+1, ex.Kind, err)
			}
		default:
			return fmt.Errorf("exhibit %d: unknown kind %q", i+1, ex.Kind)
		}
	}

	return nil
}

func requirePayloadKeys(payload map[string]interface{}, keys ...string) error {
	for _, key := range keys {
		if _, ok := payload[key]; !ok {
			return fmt.Errorf("payload missing %q", key)
		}
	}
	return nil
}

// validatePieShares checks that pie chart values sum to 100 (within a
// rounding tolerance).
func validatePieShares(values interface{}) error {
	items, ok := values.([]interface{})
	if !ok {
		return fmt.Errorf("values must be a list of numbers")
	}

	var sum float64
	for _, item := range items {
		n, ok := toFloat(item)
		if !ok {
			return fmt.Errorf("values must be numbers")
		}
		sum += n
	}

	if math.Abs(sum-100) > 0.01 {
		return fmt.Errorf("pie chart values must sum to 100, got %.2f", sum)
	}

	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
