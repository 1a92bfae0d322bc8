// Package csvfile persists leave requests as a flat CSV file, one row per
// request, in the sheet layout the workflow started out on. Record identity
// is the 1-based row position.
//
// Access is serialized by a process-local mutex; concurrent writers from
// other processes are not protected against.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"leavegate/internal/domain/leave"
)

// nullMarker distinguishes an unset qr_code_data column from a real payload.
const nullMarker = "null"

const dateLayout = "2006-01-02"

var header = []string{
	"student_name", "attendance", "year", "student_id", "branch", "batch",
	"email", "leave_days", "start_date", "end_date", "reason", "teacher",
	"status", "qr_code_data",
}

type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) LoadAll(_ context.Context) ([]leave.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (s *Store) Append(_ context.Context, req leave.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return "", err
	}
	req.ID = strconv.Itoa(len(all) + 1)
	all = append(all, req)
	if err := s.writeAll(all); err != nil {
		return "", err
	}
	return req.ID, nil
}

func (s *Store) Update(_ context.Context, id string, mutate func(*leave.Request) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return err
	}
	row, err := strconv.Atoi(id)
	if err != nil || row < 1 || row > len(all) {
		return leave.ErrNotFound
	}

	working := all[row-1]
	if err := mutate(&working); err != nil {
		return err
	}
	working.ID = id
	all[row-1] = working
	return s.writeAll(all)
}

func (s *Store) readAll() ([]leave.Request, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	requests := make([]leave.Request, 0, len(rows)-1)
	for i, row := range rows[1:] {
		req, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i+2, s.path, err)
		}
		req.ID = strconv.Itoa(i + 1)
		requests = append(requests, req)
	}
	return requests, nil
}

func (s *Store) writeAll(requests []leave.Request) error {
	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		file.Close()
		return err
	}
	for _, req := range requests {
		if err := writer.Write(toRow(req)); err != nil {
			file.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func toRow(req leave.Request) []string {
	qr := nullMarker
	if req.QRCodeData != nil {
		qr = *req.QRCodeData
	}
	return []string{
		req.StudentName,
		strconv.FormatFloat(req.Attendance, 'f', -1, 64),
		req.Year,
		req.StudentID,
		req.Branch,
		req.Batch,
		req.Email,
		strconv.Itoa(req.LeaveDays),
		req.StartDate.Format(dateLayout),
		req.EndDate.Format(dateLayout),
		req.Reason,
		req.Teacher,
		req.Status,
		qr,
	}
}

func fromRow(row []string) (leave.Request, error) {
	if len(row) != len(header) {
		return leave.Request{}, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}

	attendance, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return leave.Request{}, fmt.Errorf("attendance: %w", err)
	}
	days, err := strconv.Atoi(row[7])
	if err != nil {
		return leave.Request{}, fmt.Errorf("leave_days: %w", err)
	}
	start, err := time.Parse(dateLayout, row[8])
	if err != nil {
		return leave.Request{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := time.Parse(dateLayout, row[9])
	if err != nil {
		return leave.Request{}, fmt.Errorf("end_date: %w", err)
	}

	req := leave.Request{
		StudentName: row[0],
		Attendance:  attendance,
		Year:        row[2],
		StudentID:   row[3],
		Branch:      row[4],
		Batch:       row[5],
		Email:       row[6],
		LeaveDays:   days,
		StartDate:   start,
		EndDate:     end,
		Reason:      row[10],
		Teacher:     row[11],
		Status:      row[12],
	}
	if row[13] != nullMarker && row[13] != "" {
		payload := row[13]
		req.QRCodeData = &payload
	}
	return req, nil
}
