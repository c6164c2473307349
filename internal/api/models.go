package api

import (
	"time"

	"github.com/petaltask/recur/internal/domain"
)

// Common request/response structures

// SpecPayload is the wire form of a recurrence spec. Dates use ISO
// YYYY-MM-DD; weekdays use 0 (Sunday) through 6 (Saturday).
type SpecPayload struct {
	Pattern        string `json:"pattern"`
	Interval       int    `json:"interval"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	MaxOccurrences int    `json:"max_occurrences,omitempty"`
	Weekdays       []int  `json:"weekdays,omitempty"`
	MonthDays      []int  `json:"month_days,omitempty"`
	MonthPosition  int    `json:"month_position,omitempty"`
	MonthWeekday   int    `json:"month_weekday,omitempty"`
}

// ToSpec converts the payload into a domain spec. Parse failures surface as
// validation errors on the offending field; full semantic validation happens
// in the service layer.
func (p *SpecPayload) ToSpec() (*domain.RecurrenceSpec, error) {
	start, err := time.Parse("2006-01-02", p.StartDate)
	if err != nil {
		return nil, domain.NewValidationError("start_date", "must be a date in YYYY-MM-DD form", err)
	}

	spec := &domain.RecurrenceSpec{
		Pattern:        domain.Pattern(p.Pattern),
		Interval:       p.Interval,
		StartDate:      start,
		MaxOccurrences: p.MaxOccurrences,
		MonthDays:      p.MonthDays,
		MonthPosition:  domain.MonthPosition(p.MonthPosition),
		MonthWeekday:   time.Weekday(p.MonthWeekday),
	}

	if p.EndDate != "" {
		end, err := time.Parse("2006-01-02", p.EndDate)
		if err != nil {
			return nil, domain.NewValidationError("end_date", "must be a date in YYYY-MM-DD form", err)
		}
		spec.EndDate = &end
	}

	for _, wd := range p.Weekdays {
		spec.Weekdays = append(spec.Weekdays, time.Weekday(wd))
	}

	return spec, nil
}

// CreateDefinitionRequest defines the payload for creating a recurring
// definition. The ID is the origin task's ID.
type CreateDefinitionRequest struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Spec  SpecPayload `json:"spec"`
}

// UpdateDefinitionRequest defines the payload for updating a definition.
// Omitted fields are left unchanged.
type UpdateDefinitionRequest struct {
	Title *string      `json:"title,omitempty"`
	Spec  *SpecPayload `json:"spec,omitempty"`
}

// PreviewRequest defines the payload for the occurrence-preview endpoint.
type PreviewRequest struct {
	Spec  SpecPayload `json:"spec"`
	Count int         `json:"count"`
}

// PreviewResponse carries the computed preview dates.
type PreviewResponse struct {
	Dates []string `json:"dates"`
}

// InstanceResponse is the wire form of a recurring instance.
type InstanceResponse struct {
	ID               string     `json:"id"`
	DefinitionID     string     `json:"definition_id"`
	OccurrenceDate   string     `json:"occurrence_date"`
	OccurrenceNumber int        `json:"occurrence_number"`
	IsGenerated      bool       `json:"is_generated"`
	Status           string     `json:"status"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func newInstanceResponse(inst *domain.RecurringInstance) InstanceResponse {
	return InstanceResponse{
		ID:               inst.ID.String(),
		DefinitionID:     inst.DefinitionID.String(),
		OccurrenceDate:   inst.OccurrenceDate.Format("2006-01-02"),
		OccurrenceNumber: inst.OccurrenceNumber,
		IsGenerated:      inst.IsGenerated,
		Status:           string(inst.Status),
		CompletedAt:      inst.CompletedAt,
	}
}
