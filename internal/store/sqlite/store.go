package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budget-advisor/internal/models"
	"budget-advisor/internal/store"

	"github.com/jmoiron/sqlx"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	db *sqlx.DB
}

// Open connects to the database file at path, creating its directory when needed.
// Schema setup is left to migrations.UpSQLite.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory for SQLite: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping SQLite database: %w", err)
	}
	return NewStore(db), nil
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type budgetRow struct {
	ID                 int64          `db:"id"`
	UserID             int64          `db:"user_id"`
	Salary             float64        `db:"salary"`
	SpendingCategories sql.NullString `db:"spending_categories"`
	SavingOptions      sql.NullString `db:"saving_options"`
	Notes              sql.NullString `db:"notes"`
	AIResponse         sql.NullString `db:"ai_response"`
	Created            time.Time      `db:"created_at"`
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = ?
	`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, store.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	created := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, created_at)
		VALUES (?, ?, ?)
	`, username, passwordHash, created)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, store.ErrUsernameTaken
		}
		return models.User{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	return models.User{ID: id, Username: username, PasswordHash: passwordHash, Created: created}, nil
}

func (s *Store) CreateBudgetRecord(ctx context.Context, input store.BudgetRecordInput) (models.BudgetRecord, error) {
	categories, err := store.EncodeJSON(input.SpendingCategories)
	if err != nil {
		return models.BudgetRecord{}, fmt.Errorf("encode spending categories: %w", err)
	}
	options, err := store.EncodeJSON(input.SavingOptions)
	if err != nil {
		return models.BudgetRecord{}, fmt.Errorf("encode saving options: %w", err)
	}
	created := input.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = created.UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO budget_history (user_id, salary, spending_categories, saving_options, notes, ai_response, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, input.UserID, input.Salary, categories, options, input.Notes, input.AIResponse, created)
	if err != nil {
		return models.BudgetRecord{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.BudgetRecord{}, err
	}

	record := models.BudgetRecord{
		ID:                 id,
		UserID:             input.UserID,
		Salary:             input.Salary,
		SpendingCategories: json.RawMessage(categories),
		SavingOptions:      json.RawMessage(options),
		Notes:              input.Notes,
		AIResponse:         input.AIResponse,
		Created:            created,
	}
	return record, nil
}

func (s *Store) ListBudgetRecords(ctx context.Context, userID int64) ([]models.BudgetRecord, error) {
	var rows []budgetRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, salary, spending_categories, saving_options, notes, ai_response, created_at
		FROM budget_history
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}

	records := make([]models.BudgetRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (r budgetRow) toModel() (models.BudgetRecord, error) {
	record := models.BudgetRecord{
		ID:         r.ID,
		UserID:     r.UserID,
		Salary:     r.Salary,
		AIResponse: r.AIResponse.String,
		Created:    r.Created,
	}
	var err error
	if record.SpendingCategories, err = store.DecodeJSON([]byte(r.SpendingCategories.String)); err != nil {
		return models.BudgetRecord{}, fmt.Errorf("decode spending categories of record %d: %w", r.ID, err)
	}
	if record.SavingOptions, err = store.DecodeJSON([]byte(r.SavingOptions.String)); err != nil {
		return models.BudgetRecord{}, fmt.Errorf("decode saving options of record %d: %w", r.ID, err)
	}
	if r.Notes.Valid {
		notes := r.Notes.String
		record.Notes = &notes
	}
	return record, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
