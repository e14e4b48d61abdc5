package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edflow/edflow/internal/platform/apperr"
	"github.com/edflow/edflow/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const userCols = `id, name, email, role, cedula, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Cedula, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "scan user")
	}
	return &u, nil
}

// uniqueViolation reports a duplicate-key error (SQLSTATE 23505).
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO app_user (id, name, email, role, cedula)
		VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Name, u.Email, u.Role, u.Cedula)
	if uniqueViolation(err) {
		return apperr.New(apperr.Conflict, "a user with email %s already exists", u.Email)
	}
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "insert user")
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE email = $1`, email))
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*User, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Role != "" {
		where += fmt.Sprintf(` AND role = $%d`, idx)
		args = append(args, f.Role)
		idx++
	}
	if f.Query != "" {
		where += fmt.Sprintf(` AND (name ILIKE $%d OR email ILIKE $%d)`, idx, idx)
		args = append(args, "%"+f.Query+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM app_user`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(apperr.Storage, err, "count users")
	}

	query := `SELECT ` + userCols + ` FROM app_user` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Storage, err, "query users")
	}
	defer rows.Close()
	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Wrap(apperr.Storage, err, "read user rows")
	}
	return items, total, nil
}

func (r *repoPG) Update(ctx context.Context, u *User) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE app_user SET name=$2, email=$3, role=$4, cedula=$5, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.Name, u.Email, u.Role, u.Cedula)
	if uniqueViolation(err) {
		return apperr.New(apperr.Conflict, "a user with email %s already exists", u.Email)
	}
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "update user")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "delete user")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}
