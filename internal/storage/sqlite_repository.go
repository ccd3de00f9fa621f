package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mtuyar/habitd/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteRepository stores tasks, their completion history and reminders in
// separate tables. Save rewrites the whole list in one transaction.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Load(ctx context.Context) ([]model.Task, error) {
	records, index, err := r.loadTasks(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.loadCompletions(ctx, records, index); err != nil {
		return nil, err
	}
	if err := r.loadReminders(ctx, records, index); err != nil {
		return nil, err
	}

	out := make([]model.Task, 0, len(records))
	for _, rec := range records {
		task, err := normalize(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, tasks []model.Task) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{`DELETE FROM reminders`, `DELETE FROM task_completions`, `DELETE FROM tasks`} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for pos, t := range tasks {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO tasks (id, position, title, description, category, icon, frequency, is_completed, period_start, created_at, color)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, pos, t.Title, t.Description, t.Category, t.Icon, string(t.Frequency),
			boolInt(t.IsCompleted), nullString(t.PeriodStart), mustTime(t.CreatedAt), t.Color,
		); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
		for ordinal, d := range t.CompletedDates {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO task_completions (task_id, day, ordinal) VALUES (?, ?, ?)`,
				t.ID, d, ordinal,
			); err != nil {
				return fmt.Errorf("insert completion %s/%s: %w", t.ID, d, err)
			}
		}
		if t.Reminder != nil {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO reminders (task_id, id, enabled, trigger_time, one_shot) VALUES (?, ?, ?, ?, ?)`,
				t.ID, t.Reminder.ID, boolInt(t.Reminder.Enabled), nullTime(&t.Reminder.Time), boolInt(t.Reminder.OneShot),
			); err != nil {
				return fmt.Errorf("insert reminder %s: %w", t.ID, err)
			}
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) loadTasks(ctx context.Context) ([]taskRecord, map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, category, icon, frequency, is_completed, period_start, created_at, color
		FROM tasks ORDER BY position ASC`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	records := make([]taskRecord, 0)
	index := make(map[string]int)
	for rows.Next() {
		rec, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, nil, scanErr
		}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	return records, index, rows.Err()
}

func (r *SQLiteRepository) loadCompletions(ctx context.Context, records []taskRecord, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx, `SELECT task_id, day FROM task_completions ORDER BY task_id, ordinal ASC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, day string
		if err := rows.Scan(&taskID, &day); err != nil {
			return err
		}
		if i, ok := index[taskID]; ok {
			records[i].CompletedDates = append(records[i].CompletedDates, day)
		}
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadReminders(ctx context.Context, records []taskRecord, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx, `SELECT task_id, id, enabled, trigger_time, one_shot FROM reminders`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var taskID string
		rem, scanErr := scanReminder(rows, &taskID)
		if scanErr != nil {
			return scanErr
		}
		if i, ok := index[taskID]; ok {
			records[i].Reminder = &rem
		}
	}
	return rows.Err()
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullTime(v *time.Time) any {
	if v == nil || v.IsZero() {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	local := tm.Local()
	return &local, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	tm, err := time.Parse(sqliteTimeLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	return tm.Local(), nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (taskRecord, error) {
	var out taskRecord
	var desc string
	var completed int
	var period sql.NullString
	var created string
	if err := s.Scan(&out.ID, &out.Title, &desc, &out.Category, &out.Icon, &out.Frequency, &completed, &period, &created, &out.Color); err != nil {
		return taskRecord{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return taskRecord{}, err
	}
	out.Description = &desc
	out.IsCompleted = completed == 1
	if period.Valid {
		ps := period.String
		out.PeriodStart = &ps
	}
	out.CreatedAt = createdAt
	return out, nil
}

func scanReminder(s scanner, taskID *string) (reminderRecord, error) {
	var out reminderRecord
	var enabled int
	var trigger sql.NullString
	var oneShot int
	if err := s.Scan(taskID, &out.ID, &enabled, &trigger, &oneShot); err != nil {
		return reminderRecord{}, err
	}
	triggerAt, err := parseNullableTime(trigger)
	if err != nil {
		return reminderRecord{}, err
	}
	on := enabled == 1
	out.Enabled = &on
	out.Time = triggerAt
	out.OneShot = oneShot == 1
	return out, nil
}
