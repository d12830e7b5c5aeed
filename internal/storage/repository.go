// ABOUTME: gateway.Gateway implementation over the SQLite tables.
// ABOUTME: Builds parameterised statements from the collection column layouts.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/lift/internal/gateway"
)

var _ gateway.Gateway = (*DB)(nil)

// Create inserts payload, generating an id when absent.
func (d *DB) Create(ctx context.Context, c gateway.Collection, payload gateway.Record) (gateway.Record, error) {
	t, err := tableFor(c)
	if err != nil {
		return nil, err
	}
	rec := payload.Clone()
	if rec.ID() == "" {
		rec["id"] = uuid.NewString()
	}

	cols := make([]string, 0, len(rec))
	args := make([]any, 0, len(rec))
	for _, col := range t.cols {
		v, ok := rec[col.name]
		if !ok {
			continue
		}
		enc, err := col.encode(v)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c, err)
		}
		cols = append(cols, col.name)
		args = append(args, enc)
	}
	if err := checkFields(t, rec); err != nil {
		return nil, fmt.Errorf("create %s: %w", c, err)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(cols, ", "), placeholders(len(cols)))
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("create %s: %w", c, err)
	}
	return d.get(ctx, t, rec.ID())
}

// Read returns the rows matching every filter, ordered by order.Field and
// then by insertion.
func (d *DB) Read(ctx context.Context, c gateway.Collection, filters []gateway.Filter, order *gateway.Order) ([]gateway.Record, error) {
	t, err := tableFor(c)
	if err != nil {
		return nil, err
	}

	var where []string
	var args []any
	for _, f := range filters {
		col, ok := t.column(f.Field)
		if !ok {
			return nil, fmt.Errorf("read %s: unknown filter field %q", c, f.Field)
		}
		if len(f.Values) == 0 {
			where = append(where, "1 = 0")
			continue
		}
		for _, v := range f.Values {
			enc, err := col.encode(v)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", c, err)
			}
			args = append(args, enc)
		}
		if f.Op == gateway.OpEq && len(f.Values) == 1 {
			where = append(where, col.name+" = ?")
		} else {
			where = append(where, fmt.Sprintf("%s IN (%s)", col.name, placeholders(len(f.Values))))
		}
	}

	orderBy := "rowid"
	if order != nil {
		col, ok := t.column(order.Field)
		if !ok {
			return nil, fmt.Errorf("read %s: unknown order field %q", c, order.Field)
		}
		orderBy = col.name + ", rowid"
	}

	query := fmt.Sprintf("SELECT %s FROM %s", t.columnList(), t.name)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderBy

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}
	defer rows.Close()

	var out []gateway.Record
	for rows.Next() {
		rec, err := scanRecord(t, rows)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", c, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}
	return out, nil
}

// Update writes the patch fields onto the row with id.
func (d *DB) Update(ctx context.Context, c gateway.Collection, id string, patch gateway.Record) (gateway.Record, error) {
	t, err := tableFor(c)
	if err != nil {
		return nil, err
	}
	if err := checkFields(t, patch); err != nil {
		return nil, fmt.Errorf("update %s: %w", c, err)
	}

	var sets []string
	var args []any
	for _, col := range t.cols[1:] {
		v, ok := patch[col.name]
		if !ok {
			continue
		}
		enc, err := col.encode(v)
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", c, err)
		}
		sets = append(sets, col.name+" = ?")
		args = append(args, enc)
	}
	if len(sets) == 0 {
		return d.get(ctx, t, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.name, strings.Join(sets, ", "))
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", c, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%s %s: %w", c, id, gateway.ErrNotFound)
	}
	return d.get(ctx, t, id)
}

// Delete removes the row with id. Child rows go with it through ON DELETE CASCADE.
func (d *DB) Delete(ctx context.Context, c gateway.Collection, id string) error {
	t, err := tableFor(c)
	if err != nil {
		return err
	}
	res, err := d.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", c, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", c, id, gateway.ErrNotFound)
	}
	return nil
}

func (d *DB) get(ctx context.Context, t table, id string) (gateway.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", t.columnList(), t.name)
	rec, err := scanRecord(t, d.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %s: %w", t.name, id, gateway.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", t.name, err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(t table, s scanner) (gateway.Record, error) {
	raw := make([]any, len(t.cols))
	dest := make([]any, len(t.cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	rec := make(gateway.Record, len(t.cols))
	for i, col := range t.cols {
		v, err := col.decode(raw[i])
		if err != nil {
			return nil, err
		}
		rec[col.name] = v
	}
	return rec, nil
}

// checkFields rejects record keys that have no column.
func checkFields(t table, rec gateway.Record) error {
	for k := range rec {
		if _, ok := t.column(k); !ok {
			return fmt.Errorf("unknown field %q", k)
		}
	}
	return nil
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
