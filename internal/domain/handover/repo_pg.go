package handover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epd/epd/internal/domain/overview"
	"github.com/epd/epd/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type noteStorePG struct {
	pool *pgxpool.Pool
	q    queryable
}

func NewNoteStorePG(pool *pgxpool.Pool) NoteStore {
	return &noteStorePG{pool: pool}
}

func (s *noteStorePG) withConn(ctx context.Context, fn func(q queryable) error) error {
	if s.q != nil {
		return fn(s.q)
	}
	conn, err := db.AcquireTenantConn(ctx, s.pool)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(conn)
}

func (s *noteStorePG) GetPatient(ctx context.Context, id uuid.UUID) (*overview.PatientIdentity, error) {
	var p overview.PatientIdentity
	err := s.withConn(ctx, func(q queryable) error {
		return q.QueryRow(ctx, `
			SELECT id, name_given, COALESCE(name_family, ''), birth_date, gender
			FROM patients WHERE id = $1`, id.String()).
			Scan(&p.ID, &p.GivenNames, &p.FamilyName, &p.BirthDate, &p.Gender)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}

func (s *noteStorePG) RecentNotes(ctx context.Context, patientID uuid.UUID, since time.Time, limit int) ([]Note, error) {
	var notes []Note
	err := s.withConn(ctx, func(q queryable) error {
		rows, err := q.Query(ctx, `
			SELECT id, type, COALESCE(structured_data->>'category', ''), content,
				shift_date, COALESCE(created_by, ''), created_at
			FROM reports
			WHERE patient_id = $1 AND deleted_at IS NULL AND created_at >= $2
			ORDER BY created_at DESC
			LIMIT $3`,
			patientID.String(), since, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var n Note
			if err := rows.Scan(&n.ID, &n.Type, &n.Category, &n.Content, &n.ShiftDate, &n.CreatedBy, &n.CreatedAt); err != nil {
				return fmt.Errorf("scan note: %w", err)
			}
			notes = append(notes, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}
