package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Writes are single statements
// guarded by an owner_id predicate, so an ownership check can never race a
// concurrent request for the same id.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const todoColumns = `id, owner_id, title, description, completed, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, item *Todo) error {
	_, err := s.db.ExecContext(ctx,
		`insert into todos(id, owner_id, title, description, completed, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		item.ID, item.OwnerID, item.Title, item.Description, item.Completed, item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (s *PGStore) Find(ctx context.Context, ownerID, id string) (*Todo, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+todoColumns+` from todos where id=$1 and owner_id=$2`, id, ownerID)
	return scanTodo(row)
}

func (s *PGStore) ListByOwner(ctx context.Context, ownerID string) ([]*Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+todoColumns+` from todos where owner_id=$1 order by created_at desc, id desc`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Todo, 0)
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*Todo, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 6)
	args = append(args, id, ownerID)

	if in.Title != nil {
		args = append(args, *in.Title)
		sets = append(sets, fmt.Sprintf("title=$%d", len(args)))
	}
	if in.ClearDesc {
		sets = append(sets, "description=null")
	} else if in.Description != nil {
		args = append(args, *in.Description)
		sets = append(sets, fmt.Sprintf("description=$%d", len(args)))
	}
	if in.Completed != nil {
		args = append(args, *in.Completed)
		sets = append(sets, fmt.Sprintf("completed=$%d", len(args)))
	}
	if len(sets) == 0 {
		return nil, ErrInvalidInput
	}
	sets = append(sets, "updated_at=now()")

	query := `update todos set ` + strings.Join(sets, ", ") +
		` where id=$1 and owner_id=$2 returning ` + todoColumns
	row := s.db.QueryRowContext(ctx, query, args...)
	return scanTodo(row)
}

func (s *PGStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from todos where id=$1 and owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTodo(row *sql.Row) (*Todo, error) {
	var t Todo
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
