package models

import (
	"encoding/json"
	"time"
)

type BudgetRecord struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"-"`
	Salary             float64         `json:"salary"`
	SpendingCategories json.RawMessage `json:"spending_categories"`
	SavingOptions      json.RawMessage `json:"saving_options"`
	Notes              *string         `json:"notes"`
	AIResponse         string          `json:"ai_response"`
	Created            time.Time       `json:"created_at"`
}
