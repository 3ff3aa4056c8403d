package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE accounts").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := WithTx(ctx, db, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "UPDATE accounts SET balance = 1")
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and returns fn error unwrapped", func(t *testing.T) {
		sentinel := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := WithTx(ctx, db, func(tx *sql.Tx) error { return sentinel })
		assert.Same(t, sentinel, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		err := WithTx(ctx, db, func(tx *sql.Tx) error { return nil })
		assert.ErrorContains(t, err, "begin tx")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err := WithTx(ctx, db, func(tx *sql.Tx) error { return nil })
		assert.ErrorContains(t, err, "commit tx")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	for range schemaStatements {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	assert.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_Failure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS branch").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = EnsureSchema(context.Background(), db)
	assert.ErrorContains(t, err, "schema statement 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	for _, b := range Branches {
		mock.ExpectExec("INSERT INTO branch").
			WithArgs(b.ID, b.Name, b.City, b.Address).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for _, d := range Departments {
		mock.ExpectExec("INSERT INTO department").
			WithArgs(d.ID, d.Name).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for range seedEmployees {
		mock.ExpectExec("INSERT INTO employee").WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	assert.NoError(t, Seed(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
