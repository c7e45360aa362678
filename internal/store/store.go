// Package store хранит ленту вычислений в SQLite
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DipperMason/desk-calculator/internal/agent"
	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

// Record - сохраненная запись ленты
type Record struct {
	ID        int64     `json:"id"`
	Session   string    `json:"session"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	agent.Entry
}

// Open открывает базу SQLite и создает таблицы, если их нет
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("открытие базы данных: %w", err)
	}

	// Создание таблицы expressions, если она не существует
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS expressions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session TEXT NOT NULL,
        user TEXT NOT NULL,
        expression TEXT NOT NULL,
        op TEXT NOT NULL,
        left_operand REAL NOT NULL,
        right_operand REAL NOT NULL,
        result REAL NOT NULL,
        responses TEXT NOT NULL,
        created_at INTEGER NOT NULL
    )`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("создание таблицы expressions: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS expressions_session ON expressions (session, id)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("создание индекса expressions_session: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveEntry записывает вычисление в ленту сессии и возвращает id записи
func (s *Store) SaveEntry(ctx context.Context, session, user string, e agent.Entry) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expressions (session, user, expression, op, left_operand, right_operand, result, responses, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session, user, e.Expression(), e.Op.String(), e.Left, e.Right, e.Result, e.Display, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("запись в ленту: %w", err)
	}
	return res.LastInsertId()
}

// History возвращает ленту сессии в порядке записи
func (s *Store) History(ctx context.Context, session string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session, user, op, left_operand, right_operand, result, responses, created_at
         FROM expressions WHERE session = ? ORDER BY id`, session)
	if err != nil {
		return nil, fmt.Errorf("чтение ленты: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r       Record
			op      string
			created int64
		)
		err := rows.Scan(&r.ID, &r.Session, &r.User, &op, &r.Left, &r.Right, &r.Result, &r.Display, &created)
		if err != nil {
			return nil, fmt.Errorf("сканирование строки: %w", err)
		}
		if err := r.Op.UnmarshalText([]byte(op)); err != nil {
			return nil, fmt.Errorf("запись %d: %w", r.ID, err)
		}
		r.CreatedAt = time.Unix(created, 0)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Clear удаляет ленту сессии
func (s *Store) Clear(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM expressions WHERE session = ?`, session); err != nil {
		return fmt.Errorf("очистка ленты: %w", err)
	}
	return nil
}
