package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("queueboard/sqlite")

// WithWriteTx runs fn in a write transaction. The transaction is rolled back
// when fn returns an error.
func (db *DB) WithWriteTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	if db == nil || db.W == nil {
		return errors.New("write db is not initialized")
	}
	return runTx(ctx, db.W, "sqlite.write_tx", &sql.TxOptions{}, fn)
}

// WithReadTx runs fn in a read-only transaction on the pooled reader.
func (db *DB) WithReadTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	if db == nil || db.R == nil {
		return errors.New("read db is not initialized")
	}
	return runTx(ctx, db.R, "sqlite.read_tx", &sql.TxOptions{ReadOnly: true}, fn)
}

func runTx(ctx context.Context, conn *bun.DB, name string, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()
	span.SetAttributes(attribute.Bool("db.read_only", opts.ReadOnly))

	err := conn.RunInTx(ctx, opts, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
