package store

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"budget-advisor/internal/models"
)

type BudgetRecordInput struct {
	UserID             int64
	Salary             float64
	SpendingCategories json.RawMessage
	SavingOptions      json.RawMessage
	Notes              *string
	AIResponse         string
	CreatedAt          time.Time
}

type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (models.User, error)
}

type BudgetStore interface {
	CreateBudgetRecord(ctx context.Context, input BudgetRecordInput) (models.BudgetRecord, error)
	ListBudgetRecords(ctx context.Context, userID int64) ([]models.BudgetRecord, error)
}

type Store interface {
	UserStore
	BudgetStore
	Close() error
}

// EncodeJSON returns the stored text of a JSON field; empty becomes "[]".
func EncodeJSON(raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "[]", nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DecodeJSON reads a stored JSON field back; NULL or empty becomes [].
func DecodeJSON(raw []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage(`[]`), nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}
