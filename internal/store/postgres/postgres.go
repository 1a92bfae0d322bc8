// Package postgres implements leave.Store on a pgx pool. Updates lock the
// row inside a transaction so a decision and its payload commit as one unit.
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leavegate/internal/domain/leave"
)

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const columns = `id, student_name, attendance, year, student_id, branch, batch,
  email, leave_days, start_date, end_date, reason, teacher, status, qr_code_data`

// LoadAll returns every request in append order.
func (s *Store) LoadAll(ctx context.Context) ([]leave.Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+columns+`
    FROM leave_requests
    ORDER BY seq
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (s *Store) Append(ctx context.Context, req leave.Request) (string, error) {
	req.ID = uuid.NewString()
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_requests
      (id, student_name, attendance, year, student_id, branch, batch,
       email, leave_days, start_date, end_date, reason, teacher, status, qr_code_data)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
  `, req.ID, req.StudentName, req.Attendance, req.Year, req.StudentID,
		req.Branch, req.Batch, req.Email, req.LeaveDays, req.StartDate,
		req.EndDate, req.Reason, req.Teacher, req.Status, req.QRCodeData)
	if err != nil {
		return "", err
	}
	return req.ID, nil
}

// Update runs mutate against the row under a FOR UPDATE lock. A mutator
// error rolls the transaction back and surfaces unchanged.
func (s *Store) Update(ctx context.Context, id string, mutate func(*leave.Request) error) error {
	// A malformed id is simply an unknown record, not a query error.
	if _, err := uuid.Parse(id); err != nil {
		return leave.ErrNotFound
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
    SELECT `+columns+`
    FROM leave_requests
    WHERE id = $1
    FOR UPDATE
  `, id)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := mutate(&req); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE leave_requests
    SET status = $2, qr_code_data = $3
    WHERE id = $1
  `, id, req.Status, req.QRCodeData); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanRequest(row pgx.Row) (leave.Request, error) {
	var req leave.Request
	err := row.Scan(&req.ID, &req.StudentName, &req.Attendance, &req.Year,
		&req.StudentID, &req.Branch, &req.Batch, &req.Email, &req.LeaveDays,
		&req.StartDate, &req.EndDate, &req.Reason, &req.Teacher, &req.Status,
		&req.QRCodeData)
	return req, err
}
