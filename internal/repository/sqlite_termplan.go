package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/termplan/internal/codec"
	"github.com/alexanderramin/termplan/internal/db"
)

// SQLiteTermPlanRepo implements TermPlanRepo using a SQLite database.
type SQLiteTermPlanRepo struct {
	db  db.DBTX
	uow db.UnitOfWork
}

// NewSQLiteTermPlanRepo creates a new SQLiteTermPlanRepo. Upserts run in
// their own transaction on conn.
func NewSQLiteTermPlanRepo(conn *sql.DB) *SQLiteTermPlanRepo {
	return &SQLiteTermPlanRepo{db: conn, uow: db.NewSQLiteUnitOfWork(conn)}
}

// WithUnitOfWork returns a copy whose upserts run through uow.
func (r *SQLiteTermPlanRepo) WithUnitOfWork(uow db.UnitOfWork) *SQLiteTermPlanRepo {
	return &SQLiteTermPlanRepo{db: r.db, uow: uow}
}

const termPlanColumns = `id, user_id, academic_term, term_type, term_year, goals, data, version, updated_at`

func (r *SQLiteTermPlanRepo) GetByID(ctx context.Context, id string) (*codec.Record, error) {
	return getTermPlan(ctx, r.db, id)
}

func (r *SQLiteTermPlanRepo) Create(ctx context.Context, rec *codec.Record) error {
	goals, data, err := encodeColumns(rec)
	if err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO term_plans (`+termPlanColumns+`, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.AcademicTerm, rec.TermType, rec.TermYear,
		goals, data, rec.Version, formatTime(rec.UpdatedAt), nowUTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("term plan %s: %w", rec.ID, ErrConflict)
		}
		return fmt.Errorf("inserting term plan: %w", err)
	}
	return nil
}

// Upsert inserts or overwrites rec for its owner and returns the stored
// row. An overwrite stores nextVersion of the two versions.
func (r *SQLiteTermPlanRepo) Upsert(ctx context.Context, rec *codec.Record) (*codec.Record, error) {
	goals, data, err := encodeColumns(rec)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	var stored *codec.Record
	err = r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		existing, err := getTermPlan(ctx, tx, rec.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			_, err = tx.ExecContext(ctx,
				`INSERT INTO term_plans (`+termPlanColumns+`, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, rec.UserID, rec.AcademicTerm, rec.TermType, rec.TermYear,
				goals, data, rec.Version, formatTime(now), formatTime(now))
			if err != nil {
				return fmt.Errorf("inserting term plan: %w", err)
			}
		case err != nil:
			return err
		case existing.UserID != "" && existing.UserID != rec.UserID:
			return fmt.Errorf("term plan %s: %w", rec.ID, ErrForbidden)
		default:
			_, err = tx.ExecContext(ctx,
				`UPDATE term_plans SET user_id = ?, academic_term = ?, term_type = ?,
				 term_year = ?, goals = ?, data = ?, version = ?, updated_at = ?
				 WHERE id = ?`,
				rec.UserID, rec.AcademicTerm, rec.TermType, rec.TermYear,
				goals, data, nextVersion(existing.Version, rec.Version), formatTime(now), rec.ID)
			if err != nil {
				return fmt.Errorf("updating term plan: %w", err)
			}
		}
		stored, err = getTermPlan(ctx, tx, rec.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *SQLiteTermPlanRepo) ListByUser(ctx context.Context, userID string) ([]*codec.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+termPlanColumns+` FROM term_plans WHERE user_id = ? ORDER BY updated_at DESC, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing term plans: %w", err)
	}
	defer rows.Close()

	var records []*codec.Record
	for rows.Next() {
		rec, err := scanTermPlan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getTermPlan(ctx context.Context, q db.DBTX, id string) (*codec.Record, error) {
	row := q.QueryRowContext(ctx, `SELECT `+termPlanColumns+` FROM term_plans WHERE id = ?`, id)
	rec, err := scanTermPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("term plan %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

func scanTermPlan(s rowScanner) (*codec.Record, error) {
	var (
		rec     codec.Record
		goals   string
		data    string
		updated string
	)
	err := s.Scan(&rec.ID, &rec.UserID, &rec.AcademicTerm, &rec.TermType, &rec.TermYear,
		&goals, &data, &rec.Version, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning term plan: %w", err)
	}
	if err := json.Unmarshal([]byte(goals), &rec.Goals); err != nil || rec.Goals == nil {
		rec.Goals = []string{}
	}
	// Stored verbatim; codec.FromRecord copes with string or object forms.
	rec.Data = json.RawMessage(data)
	rec.UpdatedAt = parseTime(updated)
	return &rec, nil
}

func encodeColumns(rec *codec.Record) (goals, data string, err error) {
	g := rec.Goals
	if g == nil {
		g = []string{}
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return "", "", fmt.Errorf("encoding goals: %w", err)
	}
	data = strings.TrimSpace(string(rec.Data))
	if data == "" || data == "null" {
		data = "{}"
	}
	return string(raw), data, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
