// Package pg durably archives committed transactions in Postgres. The hot
// path stays in process; the archive is the long-term audit trail and is
// written after commit, never inside a ledger operation.
package pg

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"corebank.org/internal/ledger"
	"corebank.org/internal/money"
)

type Store struct {
	db *sql.DB
}

var _ ledger.Archiver = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Ping reports archive reachability for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Append records one committed transaction. The insert is idempotent on the
// transaction id so a retried append cannot duplicate the row.
func (s *Store) Append(ctx context.Context, tx *ledger.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		insert into transactions(id, tx_type, amount, occurred_at,
			from_account_id, from_account_number, to_account_id, to_account_number,
			description, actor_id)
		values ($1,$2,$3,$4,nullif($5,''),nullif($6,''),nullif($7,''),nullif($8,''),$9,$10)
		on conflict (id) do nothing
	`, tx.ID, string(tx.Type), tx.Amount.String(), tx.OccurredAt,
		tx.FromAccountID, tx.FromAccountNumber, tx.ToAccountID, tx.ToAccountNumber,
		tx.Description, tx.ActorID)
	return err
}

// Recent returns the newest archived transactions.
func (s *Store) Recent(ctx context.Context, limit int) ([]ledger.Transaction, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, tx_type, amount, occurred_at,
			coalesce(from_account_id,''), coalesce(from_account_number,''),
			coalesce(to_account_id,''), coalesce(to_account_number,''),
			description, actor_id
		from transactions
		order by occurred_at desc, id desc
		limit $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []ledger.Transaction
	for rows.Next() {
		var tx ledger.Transaction
		var typ, amount string
		if err := rows.Scan(&tx.ID, &typ, &amount, &tx.OccurredAt,
			&tx.FromAccountID, &tx.FromAccountNumber, &tx.ToAccountID, &tx.ToAccountNumber,
			&tx.Description, &tx.ActorID); err != nil {
			return nil, err
		}
		tx.Type = ledger.TxType(typ)
		amt, err := money.ParseString(amount)
		if err != nil {
			return nil, err
		}
		tx.Amount = amt
		res = append(res, tx)
	}
	return res, rows.Err()
}
