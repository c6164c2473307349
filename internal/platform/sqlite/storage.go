package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petaltask/recur/internal/domain"
	"github.com/petaltask/recur/internal/store"
)

const dateLayout = "2006-01-02"

// Storage implements store.TaskStorage over SQLite. Occurrence dates are
// stored as ISO date strings so range queries compare lexicographically.
type Storage struct {
	db *sql.DB
}

var _ store.TaskStorage = (*Storage)(nil)

// NewStorage creates a Storage over the given database handle.
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// LoadDefinition implements store.TaskStorage.LoadDefinition.
func (s *Storage) LoadDefinition(ctx context.Context, id uuid.UUID) (*domain.RecurringDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, spec, is_paused, created_at, updated_at
		 FROM recurring_definitions WHERE id = ?`, id.String())

	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrDefinitionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}
	return def, nil
}

// SaveDefinition implements store.TaskStorage.SaveDefinition.
func (s *Storage) SaveDefinition(ctx context.Context, def *domain.RecurringDefinition) error {
	spec, err := json.Marshal(def.Spec)
	if err != nil {
		return fmt.Errorf("failed to encode spec: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recurring_definitions (id, title, spec, is_paused, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title,
		   spec = excluded.spec,
		   is_paused = excluded.is_paused,
		   updated_at = excluded.updated_at`,
		def.ID.String(), def.Title, string(spec), boolToInt(def.IsPaused),
		def.CreatedAt.UTC().Format(time.RFC3339), def.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save definition: %w", err)
	}
	return nil
}

// DeleteDefinition implements store.TaskStorage.DeleteDefinition.
func (s *Storage) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recurring_definitions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete definition: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrDefinitionNotFound
	}
	return nil
}

// ListActiveDefinitions implements store.TaskStorage.ListActiveDefinitions.
func (s *Storage) ListActiveDefinitions(ctx context.Context) ([]*domain.RecurringDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, spec, is_paused, created_at, updated_at
		 FROM recurring_definitions WHERE is_paused = 0 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active definitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.RecurringDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

// ListOverdueInstances implements store.TaskStorage.ListOverdueInstances.
func (s *Storage) ListOverdueInstances(ctx context.Context, now time.Time) ([]*domain.RecurringInstance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, definition_id, occurrence_date, occurrence_number, is_generated, status, completed_at
		 FROM recurring_instances
		 WHERE occurrence_date < ? AND status != ?
		 ORDER BY occurrence_date`,
		domain.DateOnly(now).Format(dateLayout), string(domain.InstanceStatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue instances: %w", err)
	}
	return collectInstances(rows)
}

// ListUpcomingInstances implements store.TaskStorage.ListUpcomingInstances.
func (s *Storage) ListUpcomingInstances(ctx context.Context, now time.Time, windowDays int) ([]*domain.RecurringInstance, error) {
	today := domain.DateOnly(now)
	cutoff := today.AddDate(0, 0, windowDays)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, definition_id, occurrence_date, occurrence_number, is_generated, status, completed_at
		 FROM recurring_instances
		 WHERE occurrence_date >= ? AND occurrence_date <= ?
		 ORDER BY occurrence_date`,
		today.Format(dateLayout), cutoff.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming instances: %w", err)
	}
	return collectInstances(rows)
}

// ListAllInstances implements store.TaskStorage.ListAllInstances.
func (s *Storage) ListAllInstances(ctx context.Context) ([]*domain.RecurringInstance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, definition_id, occurrence_date, occurrence_number, is_generated, status, completed_at
		 FROM recurring_instances
		 ORDER BY definition_id, occurrence_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list instance records: %w", err)
	}
	return collectInstances(rows)
}

// CreateInstanceRecord implements store.TaskStorage.CreateInstanceRecord.
func (s *Storage) CreateInstanceRecord(ctx context.Context, inst *domain.RecurringInstance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recurring_instances
		   (id, definition_id, occurrence_date, occurrence_number, is_generated, status, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inst.ID.String(), inst.DefinitionID.String(),
		inst.OccurrenceDate.Format(dateLayout), inst.OccurrenceNumber,
		boolToInt(inst.IsGenerated), string(inst.Status), completedAtValue(inst))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: definition %s date %s", store.ErrDuplicateOccurrence,
				inst.DefinitionID, inst.OccurrenceDate.Format(dateLayout))
		}
		return fmt.Errorf("failed to create instance record: %w", err)
	}
	return nil
}

// SaveInstanceRecord implements store.TaskStorage.SaveInstanceRecord.
func (s *Storage) SaveInstanceRecord(ctx context.Context, inst *domain.RecurringInstance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recurring_instances
		   (id, definition_id, occurrence_date, occurrence_number, is_generated, status, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   status = excluded.status,
		   completed_at = excluded.completed_at`,
		inst.ID.String(), inst.DefinitionID.String(),
		inst.OccurrenceDate.Format(dateLayout), inst.OccurrenceNumber,
		boolToInt(inst.IsGenerated), string(inst.Status), completedAtValue(inst))
	if err != nil {
		return fmt.Errorf("failed to save instance record: %w", err)
	}
	return nil
}

// DeleteInstanceRecords implements store.TaskStorage.DeleteInstanceRecords.
func (s *Storage) DeleteInstanceRecords(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM recurring_instances WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to delete instance records: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*domain.RecurringDefinition, error) {
	var (
		def       domain.RecurringDefinition
		id        string
		spec      string
		isPaused  int
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&id, &def.Title, &spec, &isPaused, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid definition id %q: %w", id, err)
	}
	def.ID = parsed
	def.IsPaused = isPaused != 0

	if err := json.Unmarshal([]byte(spec), &def.Spec); err != nil {
		return nil, fmt.Errorf("invalid spec payload: %w", err)
	}
	if def.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	if def.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	return &def, nil
}

func collectInstances(rows *sql.Rows) ([]*domain.RecurringInstance, error) {
	defer func() { _ = rows.Close() }()

	var out []*domain.RecurringInstance
	for rows.Next() {
		var (
			inst        domain.RecurringInstance
			id          string
			defID       string
			date        string
			isGenerated int
			status      string
			completedAt sql.NullString
		)
		if err := rows.Scan(&id, &defID, &date, &inst.OccurrenceNumber, &isGenerated, &status, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}

		parsedID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid instance id %q: %w", id, err)
		}
		parsedDefID, err := uuid.Parse(defID)
		if err != nil {
			return nil, fmt.Errorf("invalid definition id %q: %w", defID, err)
		}
		parsedDate, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("invalid occurrence date %q: %w", date, err)
		}

		inst.ID = parsedID
		inst.DefinitionID = parsedDefID
		inst.OccurrenceDate = parsedDate
		inst.IsGenerated = isGenerated != 0
		inst.Status = domain.InstanceStatus(status)
		if completedAt.Valid {
			t, err := time.Parse(time.RFC3339, completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("invalid completed_at: %w", err)
			}
			inst.CompletedAt = &t
		}

		out = append(out, &inst)
	}
	return out, rows.Err()
}

func completedAtValue(inst *domain.RecurringInstance) any {
	if inst.CompletedAt == nil {
		return nil
	}
	return inst.CompletedAt.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
