package repositories

import (
	"context"

	"salonhub/internal/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/juju/errors"
)

// DBTX is the subset of pgxpool.Pool used by repositories. pgx.Tx and
// pgxmock pools satisfy it too.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

// Transactor runs a function inside a database transaction. Repositories
// called with the context passed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type pgxTransactor struct {
	db DBTX
}

func NewTransactor(db DBTX) Transactor {
	return &pgxTransactor{db: db}
}

func (t *pgxTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.Begin(ctx)
	if err != nil {
		return errors.Annotate(err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Annotate(err, "commit transaction")
	}
	return nil
}

// executor returns the transaction carried by ctx, or db when there is none.
func executor(ctx context.Context, db DBTX) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translateError maps driver errors onto error kinds the HTTP layer
// understands.
func translateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.NotFoundf("%s", entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.AlreadyExistsf("%s with the same %s", entity, uniqueField(pgErr))
		case pgForeignKeyViolation:
			return errors.NotValidf("%s reference", entity)
		case pgCheckViolation:
			return common.Conflictf("%s violates %s", entity, pgErr.ConstraintName)
		}
	}
	return errors.Annotatef(err, "%s", entity)
}

func uniqueField(pgErr *pgconn.PgError) string {
	switch pgErr.ConstraintName {
	case "users_email_key":
		return "email"
	case "tenants_slug_key":
		return "slug"
	case "clients_tenant_email_key":
		return "email"
	case "products_tenant_sku_key":
		return "sku"
	case "categories_tenant_kind_name_key", "stylists_tenant_name_key":
		return "name"
	default:
		return "key"
	}
}

// expectOne turns a zero-row write into NotFound.
func expectOne(tag pgconn.CommandTag, entity string) error {
	if tag.RowsAffected() == 0 {
		return errors.NotFoundf("%s", entity)
	}
	return nil
}
