package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Store объединяет сгенерированные запросы и транзакционный хелпер.
// Сервисы зависят от интерфейса, чтобы в тестах подставлять фейковые стора.
type Store interface {
	Querier
	ExecTx(ctx context.Context, fn func(*Queries) error) error
}

// SQLStore реализует Store поверх *sql.DB.
type SQLStore struct {
	*Queries
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return &SQLStore{
		Queries: New(db),
		db:      db,
	}
}

// ExecTx выполняет fn внутри одной транзакции.
// Откат при любой ошибке; ошибка отката приклеивается к исходной.
func (s *SQLStore) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	q := New(tx)
	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %v, rollback err: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
