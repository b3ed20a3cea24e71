package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"budget-advisor/internal/models"
	"budget-advisor/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, store.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	user := models.User{Username: username, PasswordHash: passwordHash}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, username, passwordHash)
	if err := row.Scan(&user.ID, &user.Created); err != nil {
		if isUniqueViolation(err) {
			return models.User{}, store.ErrUsernameTaken
		}
		return models.User{}, err
	}
	return user, nil
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
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	record := models.BudgetRecord{
		UserID:             input.UserID,
		Salary:             input.Salary,
		SpendingCategories: json.RawMessage(categories),
		SavingOptions:      json.RawMessage(options),
		Notes:              input.Notes,
		AIResponse:         input.AIResponse,
		Created:            createdAt,
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO budget_history (user_id, salary, spending_categories, saving_options, notes, ai_response, created_at)
		VALUES ($1, $2::float8, $3, $4, $5, $6, $7)
		RETURNING id
	`, input.UserID, input.Salary, categories, options, input.Notes, input.AIResponse, createdAt)
	if err := row.Scan(&record.ID); err != nil {
		return models.BudgetRecord{}, err
	}
	return record, nil
}

func (s *Store) ListBudgetRecords(ctx context.Context, userID int64) ([]models.BudgetRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, salary::float8, spending_categories::text, saving_options::text, notes, COALESCE(ai_response, ''), created_at
		FROM budget_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.BudgetRecord{}
	for rows.Next() {
		var record models.BudgetRecord
		var categories, options *string
		if err := rows.Scan(&record.ID, &record.UserID, &record.Salary, &categories, &options, &record.Notes, &record.AIResponse, &record.Created); err != nil {
			return nil, err
		}
		if record.SpendingCategories, err = decodeNullable(categories); err != nil {
			return nil, fmt.Errorf("decode spending categories of record %d: %w", record.ID, err)
		}
		if record.SavingOptions, err = decodeNullable(options); err != nil {
			return nil, fmt.Errorf("decode saving options of record %d: %w", record.ID, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func decodeNullable(raw *string) (json.RawMessage, error) {
	if raw == nil {
		return store.DecodeJSON(nil)
	}
	return store.DecodeJSON([]byte(*raw))
}
