// Package postgres is the production LedgerStore. forUpdate reads map to
// SELECT ... FOR UPDATE row locks, so the freshest committed balance is
// guaranteed for the lifetime of the session.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/banklab/concurrent-ledger/internal/interfaces"
	"github.com/banklab/concurrent-ledger/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS account (
	account_id BIGSERIAL PRIMARY KEY,
	owner_name TEXT NOT NULL,
	balance NUMERIC(18,2) NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
	transaction_id UUID PRIMARY KEY,
	account_id BIGINT NOT NULL REFERENCES account(account_id),
	type TEXT NOT NULL,
	amount NUMERIC(18,2) NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_account_idx ON transactions(account_id);
`

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db}
}

// EnsureSchema creates the tables if they are missing.
func (p *PostgresLedgerStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *PostgresLedgerStore) Begin(ctx context.Context) (interfaces.Session, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &session{tx: tx}, nil
}

func (p *PostgresLedgerStore) CreateAccount(ctx context.Context, owner string, initial decimal.Decimal) (models.Account, error) {
	const query = `INSERT INTO account(owner_name, balance) VALUES ($1, $2) RETURNING account_id`

	acct := models.Account{OwnerName: owner, Balance: initial}
	err := p.db.QueryRowContext(ctx, query, owner, initial).Scan(&acct.ID)
	if err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	const query = `SELECT account_id, owner_name, balance FROM account WHERE account_id = $1`

	return scanAccount(p.db.QueryRowContext(ctx, query, id))
}

func (p *PostgresLedgerStore) TransactionsByAccount(ctx context.Context, id int64) ([]models.LedgerTransaction, error) {
	const query = `SELECT transaction_id, account_id, type, amount, timestamp FROM transactions
	WHERE account_id = $1 ORDER BY timestamp`

	rows, err := p.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.LedgerTransaction
	for rows.Next() {
		var rec models.LedgerTransaction
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Type, &rec.Amount, &rec.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (p *PostgresLedgerStore) Close() error {
	return p.db.Close()
}

type session struct {
	tx   *sql.Tx
	done bool
}

func (s *session) GetAccount(ctx context.Context, id int64, forUpdate bool) (models.Account, error) {
	query := `SELECT account_id, owner_name, balance FROM account WHERE account_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanAccount(s.tx.QueryRowContext(ctx, query, id))
}

func (s *session) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	const query = `UPDATE account SET balance = balance + $1 WHERE account_id = $2`

	res, err := s.tx.ExecContext(ctx, query, delta, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return interfaces.ErrAccountMissing
	}
	return nil
}

func (s *session) AppendTransaction(ctx context.Context, rec models.LedgerTransaction) (models.LedgerTransaction, error) {
	const query = `INSERT INTO transactions(transaction_id, account_id, type, amount, timestamp)
	VALUES ($1, $2, $3, $4, $5)`

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	_, err := s.tx.ExecContext(ctx, query, rec.ID, rec.AccountID, string(rec.Type), rec.Amount, rec.Timestamp)
	if err != nil {
		return models.LedgerTransaction{}, err
	}
	return rec, nil
}

func (s *session) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.tx.Commit()
}

func (s *session) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	err := s.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (s *session) Close() error {
	return s.Rollback()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var acct models.Account
	err := row.Scan(&acct.ID, &acct.OwnerName, &acct.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, interfaces.ErrAccountMissing
	}
	if err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
