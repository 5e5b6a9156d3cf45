package overview

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/epd/epd/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// storePG reads the overview signals from Postgres. Each call takes its own
// tenant-scoped connection so the scanner and counter can query in parallel.
type storePG struct {
	pool   *pgxpool.Pool
	q      queryable
	logger zerolog.Logger
}

func NewStorePG(pool *pgxpool.Pool, logger zerolog.Logger) Store {
	return &storePG{pool: pool, logger: logger}
}

func (s *storePG) withConn(ctx context.Context, fn func(q queryable) error) error {
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

const identityCols = `p.id, p.name_given, COALESCE(p.name_family, ''), p.birth_date, p.gender`

func (s *storePG) queryIdentities(ctx context.Context, sql string, args ...interface{}) ([]PatientIdentity, error) {
	var out []PatientIdentity
	err := s.withConn(ctx, func(q queryable) error {
		rows, err := q.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id *uuid.UUID
				p  PatientIdentity
			)
			if err := rows.Scan(&id, &p.GivenNames, &p.FamilyName, &p.BirthDate, &p.Gender); err != nil {
				return fmt.Errorf("scan patient: %w", err)
			}
			if id == nil {
				s.logger.Debug().Msg("skipping record without patient")
				continue
			}
			p.ID = *id
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

func (s *storePG) ReportPatients(ctx context.Context, since time.Time) ([]PatientIdentity, error) {
	return s.queryIdentities(ctx, `
		SELECT `+identityCols+`
		FROM reports r
		JOIN patients p ON p.id = r.patient_id
		WHERE r.deleted_at IS NULL AND r.type <> $1 AND r.created_at >= $2
		ORDER BY r.created_at`,
		NursingEntryType, since)
}

func (s *storePG) NursingEntryPatients(ctx context.Context, from, to time.Time) ([]PatientIdentity, error) {
	return s.queryIdentities(ctx, `
		SELECT `+identityCols+`
		FROM reports r
		JOIN patients p ON p.id = r.patient_id
		WHERE r.deleted_at IS NULL AND r.type = $1 AND r.shift_date BETWEEN $2 AND $3
		ORDER BY r.shift_date, r.created_at`,
		NursingEntryType, from, to)
}

func (s *storePG) SamplePatients(ctx context.Context, limit int) ([]PatientIdentity, error) {
	return s.queryIdentities(ctx, `
		SELECT `+identityCols+`
		FROM patients p
		ORDER BY p.created_at, p.id
		LIMIT $1`,
		limit)
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (s *storePG) queryPatientIDs(ctx context.Context, sql string, args ...interface{}) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := s.withConn(ctx, func(q queryable) error {
		rows, err := q.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id *uuid.UUID
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("scan patient id: %w", err)
			}
			if id == nil {
				continue
			}
			out = append(out, *id)
		}
		return rows.Err()
	})
	return out, err
}

func (s *storePG) HighRiskPatients(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return s.queryPatientIDs(ctx, `
		SELECT i.patient_id
		FROM risk_assessments ra
		JOIN intakes i ON i.id = ra.intake_id
		WHERE i.patient_id = ANY($1::uuid[]) AND ra.risk_level = ANY($2)`,
		idStrings(ids), HighRiskLevels)
}

func (s *storePG) AbnormalVitalPatients(ctx context.Context, ids []uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	return s.queryPatientIDs(ctx, `
		SELECT patient_id
		FROM observations
		WHERE patient_id = ANY($1::uuid[]) AND category = $2
		  AND effective_at >= $3 AND interpretation_code = ANY($4)`,
		idStrings(ids), VitalSignsCategory, since, AbnormalInterpretation)
}

func (s *storePG) HandoverEntryPatients(ctx context.Context, ids []uuid.UUID, from, to time.Time) ([]uuid.UUID, error) {
	return s.queryPatientIDs(ctx, `
		SELECT patient_id
		FROM reports
		WHERE patient_id = ANY($1::uuid[]) AND type = $2 AND include_in_handover
		  AND deleted_at IS NULL AND shift_date BETWEEN $3 AND $4`,
		idStrings(ids), NursingEntryType, from, to)
}

func (s *storePG) IncidentSignals(ctx context.Context, ids []uuid.UUID, since time.Time) ([]ReportSignal, error) {
	var out []ReportSignal
	err := s.withConn(ctx, func(q queryable) error {
		rows, err := q.Query(ctx, `
			SELECT patient_id, type, COALESCE(structured_data->>'category', '')
			FROM reports
			WHERE patient_id = ANY($1::uuid[]) AND deleted_at IS NULL
			  AND created_at >= $2 AND type = ANY($3)`,
			idStrings(ids), since, []string{IncidentType, CrisisType, NursingEntryType})
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id  *uuid.UUID
				sig ReportSignal
			)
			if err := rows.Scan(&id, &sig.Type, &sig.Category); err != nil {
				return fmt.Errorf("scan incident signal: %w", err)
			}
			if id == nil {
				continue
			}
			sig.PatientID = *id
			out = append(out, sig)
		}
		return rows.Err()
	})
	return out, err
}
