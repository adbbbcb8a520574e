package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledger/internal/model"
)

// AccountStore owns persisted balance state. Begin opens a transfer scope
// covering both accounts: every read and write inside the scope is applied
// wholly or not at all, isolated from any concurrent scope that touches
// either account.
type AccountStore interface {
	Get(ctx context.Context, userID int64) (model.Account, error)
	Begin(ctx context.Context, a, b int64) (TransferScope, error)
	ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error)
}

// TransferScope is one atomic two-account unit of work. Account reads come
// from the snapshot taken at Begin; Debit and Credit are relative updates,
// so a scope whose two identities coincide nets to a no-op instead of
// double-counting. Rollback after Commit is a no-op.
type TransferScope interface {
	Account(userID int64) (model.Account, error)
	Debit(userID, amount int64) error
	Credit(userID, amount int64) error
	Record(txn model.Transaction) error
	Commit() error
	Rollback() error
}

// lockOrder returns the distinct account ids in ascending order. Scopes
// always acquire row locks in this order so two opposing transfers cannot
// deadlock; both commit, serialized one after the other.
func lockOrder(a, b int64) []int64 {
	if a == b {
		return []int64{a}
	}
	if a < b {
		return []int64{a, b}
	}
	return []int64{b, a}
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
}

type PostgresAccountStore struct {
	db *sql.DB
}

func NewPostgresAccountStore(db *sql.DB) AccountStore {
	return &PostgresAccountStore{db: db}
}

func (s *PostgresAccountStore) Get(ctx context.Context, userID int64) (model.Account, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE user_id = $1`, userID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, storeErr(err)
	}
	return model.Account{UserID: userID, Balance: balance}, nil
}

// ListTransactions returns the transfers sent by the user, newest first.
func (s *PostgresAccountStore) ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_user, to_user, amount, created_at
         FROM transactions
         WHERE from_user = $1
         ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		if err := rows.Scan(&txn.ID, &txn.From, &txn.To, &txn.Amount, &txn.CreatedAt); err != nil {
			return nil, storeErr(err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return txns, nil
}

func (s *PostgresAccountStore) Begin(ctx context.Context, a, b int64) (TransferScope, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr(err)
	}

	scope := &pgScope{ctx: ctx, tx: tx, accounts: make(map[int64]model.Account, 2)}
	for _, id := range lockOrder(a, b) {
		var balance int64
		err := tx.QueryRowContext(ctx,
			`SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE`, id,
		).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			// Absence surfaces later through Account.
			continue
		}
		if err != nil {
			_ = tx.Rollback()
			return nil, storeErr(err)
		}
		scope.accounts[id] = model.Account{UserID: id, Balance: balance}
	}
	return scope, nil
}

type pgScope struct {
	ctx      context.Context
	tx       *sql.Tx
	accounts map[int64]model.Account
	done     bool
}

func (s *pgScope) Account(userID int64) (model.Account, error) {
	acct, ok := s.accounts[userID]
	if !ok {
		return model.Account{}, model.ErrAccountNotFound
	}
	return acct, nil
}

func (s *pgScope) Debit(userID, amount int64) error {
	return s.apply(userID, -amount)
}

func (s *pgScope) Credit(userID, amount int64) error {
	return s.apply(userID, amount)
}

func (s *pgScope) apply(userID, delta int64) error {
	if _, ok := s.accounts[userID]; !ok {
		return model.ErrAccountNotFound
	}
	_, err := s.tx.ExecContext(s.ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE user_id = $2`,
		delta, userID,
	)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *pgScope) Record(txn model.Transaction) error {
	_, err := s.tx.ExecContext(s.ctx,
		`INSERT INTO transactions (id, from_user, to_user, amount, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
		txn.ID, txn.From, txn.To, txn.Amount, txn.CreatedAt,
	)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *pgScope) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.tx.Commit(); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *pgScope) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	_ = s.tx.Rollback()
	return nil
}
