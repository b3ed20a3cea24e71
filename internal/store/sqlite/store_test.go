package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"budget-advisor/internal/store"
	"budget-advisor/internal/store/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	path := filepath.Join(s.T().TempDir(), "budget.db")
	require.NoError(s.T(), migrations.UpSQLite(path))
	st, err := Open(path)
	require.NoError(s.T(), err, "failed to open test database")
	s.store = st
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *StoreTestSuite) TestCreateAndGetUser() {
	created, err := s.store.CreateUser(s.ctx, "alice", "hash-1")
	require.NoError(s.T(), err)
	assert.NotZero(s.T(), created.ID)

	got, err := s.store.GetUserByUsername(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.ID, got.ID)
	assert.Equal(s.T(), "hash-1", got.PasswordHash)
	assert.False(s.T(), got.Created.IsZero())
}

func (s *StoreTestSuite) TestDuplicateUsernameKeepsFirstHash() {
	_, err := s.store.CreateUser(s.ctx, "alice", "hash-1")
	require.NoError(s.T(), err)

	_, err = s.store.CreateUser(s.ctx, "alice", "hash-2")
	assert.ErrorIs(s.T(), err, store.ErrUsernameTaken)

	got, err := s.store.GetUserByUsername(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "hash-1", got.PasswordHash)
}

func (s *StoreTestSuite) TestUnknownUser() {
	_, err := s.store.GetUserByUsername(s.ctx, "ghost")
	assert.ErrorIs(s.T(), err, store.ErrUserNotFound)
}

func (s *StoreTestSuite) TestHistoryEmpty() {
	user, err := s.store.CreateUser(s.ctx, "bob", "hash")
	require.NoError(s.T(), err)

	records, err := s.store.ListBudgetRecords(s.ctx, user.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), records)
	assert.Len(s.T(), records, 0)
}

func (s *StoreTestSuite) TestHistoryNewestFirst() {
	user, err := s.store.CreateUser(s.ctx, "bob", "hash")
	require.NoError(s.T(), err)
	other, err := s.store.CreateUser(s.ctx, "carol", "hash")
	require.NoError(s.T(), err)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		_, err := s.store.CreateBudgetRecord(s.ctx, store.BudgetRecordInput{
			UserID:             user.ID,
			Salary:             4000,
			SpendingCategories: json.RawMessage(`["Housing", "Food"]`),
			SavingOptions:      json.RawMessage(`{"b":1,"a":"Emergency Fund"}`),
			AIResponse:         text,
			CreatedAt:          base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(s.T(), err, "failed to create record: %s", text)
	}
	_, err = s.store.CreateBudgetRecord(s.ctx, store.BudgetRecordInput{UserID: other.ID, Salary: 10, AIResponse: "other"})
	require.NoError(s.T(), err)

	records, err := s.store.ListBudgetRecords(s.ctx, user.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 3)
	assert.Equal(s.T(), "third", records[0].AIResponse)
	assert.Equal(s.T(), "second", records[1].AIResponse)
	assert.Equal(s.T(), "first", records[2].AIResponse)
	assert.Equal(s.T(), `["Housing","Food"]`, string(records[0].SpendingCategories))
	assert.Equal(s.T(), `{"b":1,"a":"Emergency Fund"}`, string(records[0].SavingOptions))
	assert.Nil(s.T(), records[0].Notes)
	assert.True(s.T(), records[0].Created.Equal(base.Add(2*time.Hour)))
}

func (s *StoreTestSuite) TestRecordKeepsNotesAndEmptyLists() {
	user, err := s.store.CreateUser(s.ctx, "dave", "hash")
	require.NoError(s.T(), err)
	notes := "saving for a car"

	created, err := s.store.CreateBudgetRecord(s.ctx, store.BudgetRecordInput{
		UserID:     user.ID,
		Salary:     2500.5,
		Notes:      &notes,
		AIResponse: "plan",
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), `[]`, string(created.SpendingCategories))

	records, err := s.store.ListBudgetRecords(s.ctx, user.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), created.ID, records[0].ID)
	assert.Equal(s.T(), 2500.5, records[0].Salary)
	require.NotNil(s.T(), records[0].Notes)
	assert.Equal(s.T(), notes, *records[0].Notes)
	assert.Equal(s.T(), `[]`, string(records[0].SavingOptions))
}

func (s *StoreTestSuite) TestDeleteUserCascades() {
	user, err := s.store.CreateUser(s.ctx, "erin", "hash")
	require.NoError(s.T(), err)
	_, err = s.store.CreateBudgetRecord(s.ctx, store.BudgetRecordInput{UserID: user.ID, Salary: 1, AIResponse: "plan"})
	require.NoError(s.T(), err)

	_, err = s.store.db.ExecContext(s.ctx, `DELETE FROM users WHERE id = ?`, user.ID)
	require.NoError(s.T(), err)

	records, err := s.store.ListBudgetRecords(s.ctx, user.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), records)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
