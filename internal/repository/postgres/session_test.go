package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"carcamalbot/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSessionRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSessionRepo_Load(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	query := "SELECT user_id, state, items, updated_at FROM conversation_sessions WHERE user_id = \\$1"

	tests := []struct {
		name          string
		userID        int64
		rows          *sqlmock.Rows
		mockError     error
		expectedErr   error
		expectedState domain.State
		expectedItems map[string]bool
	}{
		{
			name:   "stored session",
			userID: 123,
			rows: sqlmock.NewRows([]string{"user_id", "state", "items", "updated_at"}).
				AddRow(int64(123), "adding", []byte(`{"milk":true,"eggs":false}`), now),
			expectedState: domain.StateAdding,
			expectedItems: map[string]bool{"milk": true, "eggs": false},
		},
		{
			name:   "empty items",
			userID: 124,
			rows: sqlmock.NewRows([]string{"user_id", "state", "items", "updated_at"}).
				AddRow(int64(124), "start", []byte(nil), now),
			expectedState: domain.StateStart,
			expectedItems: map[string]bool{},
		},
		{
			name:        "no session",
			userID:      456,
			mockError:   sql.ErrNoRows,
			expectedErr: domain.ErrSessionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			if tt.mockError != nil {
				mock.ExpectQuery(query).WithArgs(tt.userID).WillReturnError(tt.mockError)
			} else {
				mock.ExpectQuery(query).WithArgs(tt.userID).WillReturnRows(tt.rows)
			}

			s, err := repo.Load(context.Background(), tt.userID)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.userID, s.UserID)
				assert.Equal(t, tt.expectedState, s.State)
				assert.Equal(t, tt.expectedItems, s.Items)
				assert.Equal(t, now, s.UpdatedAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSessionRepo_LoadDecodeError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT user_id, state, items, updated_at FROM conversation_sessions").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "state", "items", "updated_at"}).
			AddRow(int64(1), "start", []byte(`not json`), time.Now()))

	_, err := repo.Load(context.Background(), 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_Save(t *testing.T) {
	repo, mock := newMockRepo(t)

	s := domain.NewSession(123)
	s.State = domain.StateRemoving
	s.Add("milk")
	s.UpdatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO conversation_sessions").
		WithArgs(int64(123), "removing", []byte(`{"milk":true}`), s.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Save(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_SaveError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO conversation_sessions").
		WillReturnError(errors.New("connection reset"))

	err := repo.Save(context.Background(), domain.NewSession(1))
	assert.EqualError(t, err, "failed to save session of user 1: connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_LoadError(t *testing.T) {
	repo, mock := newMockRepo(t)
	connErr := errors.New("connection reset")

	mock.ExpectQuery("SELECT user_id, state, items, updated_at FROM conversation_sessions").
		WithArgs(int64(7)).
		WillReturnError(connErr)

	_, err := repo.Load(context.Background(), 7)
	assert.ErrorIs(t, err, connErr)
	assert.EqualError(t, err, "failed to load session of user 7: connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
