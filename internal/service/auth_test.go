package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carcamalbot/internal/domain"
	"carcamalbot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthService_IsRegistered(t *testing.T) {
	tests := []struct {
		name     string
		userID   int64
		expected bool
	}{
		{name: "admin is a user", userID: 1, expected: true},
		{name: "registered user", userID: 2, expected: true},
		{name: "unknown user", userID: 3, expected: false},
		{name: "zero id", userID: 0, expected: false},
	}

	service := NewAuthService(testutil.NewTestAccess(1, 2), nil, nil, testutil.NewTestLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, service.IsRegistered(tt.userID))
		})
	}
}

func TestAuthService_IsAdmin(t *testing.T) {
	service := NewAuthService(testutil.NewTestAccess(1, 2), nil, nil, testutil.NewTestLogger())

	assert.True(t, service.IsAdmin(1))
	assert.False(t, service.IsAdmin(2))
	assert.False(t, service.IsAdmin(3))

	noAdmin := NewAuthService(testutil.NewTestAccess(0, 2), nil, nil, testutil.NewTestLogger())
	assert.False(t, noAdmin.IsAdmin(0))
}

func TestAuthService_IsPrivateChat(t *testing.T) {
	tests := []struct {
		name        string
		resolved    string
		resolveErr  error
		msgChatType string
		expected    bool
	}{
		{name: "resolved private", resolved: domain.ChatPrivate, msgChatType: "group", expected: true},
		{name: "resolved group", resolved: "group", msgChatType: domain.ChatPrivate, expected: false},
		{name: "lookup fails, private message", resolveErr: errors.New("timeout"), msgChatType: domain.ChatPrivate, expected: true},
		{name: "lookup fails, group message", resolveErr: errors.New("timeout"), msgChatType: "supergroup", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(testutil.MockChatResolver)
			resolver.On("ChatType", mock.Anything, int64(50)).Return(tt.resolved, tt.resolveErr)

			service := NewAuthService(testutil.NewTestAccess(1), nil, resolver, testutil.NewTestLogger())
			msg := domain.Message{UserID: 5, ChatID: 50, ChatType: tt.msgChatType}

			assert.Equal(t, tt.expected, service.IsPrivateChat(context.Background(), msg))
			resolver.AssertExpectations(t)
		})
	}
}

func TestAuthService_RecordChat(t *testing.T) {
	tests := []struct {
		name          string
		userID        int64
		chatID        int64
		expectPersist bool
		check         func(*testing.T, *domain.Access)
	}{
		{
			name:          "admin",
			userID:        1,
			chatID:        100,
			expectPersist: true,
			check: func(t *testing.T, a *domain.Access) {
				assert.Equal(t, int64(100), a.Admin.ChatID)
				assert.Equal(t, int64(100), a.Users[1].ChatID)
			},
		},
		{
			name:          "registered user",
			userID:        2,
			chatID:        200,
			expectPersist: true,
			check: func(t *testing.T, a *domain.Access) {
				assert.Equal(t, int64(0), a.Admin.ChatID)
				assert.Equal(t, int64(200), a.Users[2].ChatID)
			},
		},
		{
			name:          "unknown user is not added",
			userID:        3,
			chatID:        300,
			expectPersist: false,
			check: func(t *testing.T, a *domain.Access) {
				_, ok := a.Users[3]
				assert.False(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockAccessRepository)
			if tt.expectPersist {
				repo.On("Persist", mock.Anything, mock.AnythingOfType("*domain.Access")).Return(nil)
			}

			service := NewAuthService(testutil.NewTestAccess(1, 2), repo, nil, testutil.NewTestLogger())

			err := service.RecordChat(context.Background(), tt.userID, tt.chatID)
			require.NoError(t, err)

			tt.check(t, service.Snapshot())
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_RecordChatUnchangedSkipsPersist(t *testing.T) {
	access := testutil.NewTestAccess(1, 2)
	access.Users[2] = domain.UserEntry{ChatID: 200}
	repo := new(testutil.MockAccessRepository)

	service := NewAuthService(access, repo, nil, testutil.NewTestLogger())

	require.NoError(t, service.RecordChat(context.Background(), 2, 200))
	repo.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything)
}

func TestAuthService_RecordChatPersistError(t *testing.T) {
	repo := new(testutil.MockAccessRepository)
	repo.On("Persist", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	service := NewAuthService(testutil.NewTestAccess(1, 2), repo, nil, testutil.NewTestLogger())

	err := service.RecordChat(context.Background(), 2, 200)
	assert.Error(t, err)

	// in-memory state keeps the learned chat id
	assert.Equal(t, int64(200), service.User(2).ChatID)
}

// slowAccessRepository blocks its first Persist until released
type slowAccessRepository struct {
	mu        sync.Mutex
	calls     int
	entered   chan struct{}
	release   chan struct{}
	persisted *domain.Access
}

func (r *slowAccessRepository) Load(context.Context) (*domain.Access, error) {
	return nil, errors.New("not used")
}

func (r *slowAccessRepository) Persist(_ context.Context, access *domain.Access) error {
	r.mu.Lock()
	r.calls++
	first := r.calls == 1
	r.mu.Unlock()

	if first {
		close(r.entered)
		<-r.release
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.persisted = access.Clone()
	return nil
}

func TestAuthService_RecordChatConcurrentPersistKeepsLatest(t *testing.T) {
	repo := &slowAccessRepository{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	service := NewAuthService(testutil.NewTestAccess(1, 2, 3), repo, nil, testutil.NewTestLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, service.RecordChat(ctx, 2, 202))
	}()
	<-repo.entered

	go func() {
		defer wg.Done()
		assert.NoError(t, service.RecordChat(ctx, 3, 303))
	}()
	// give the second call time to reach its write
	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	require.NotNil(t, repo.persisted)
	assert.Equal(t, int64(202), repo.persisted.Users[2].ChatID)
	assert.Equal(t, int64(303), repo.persisted.Users[3].ChatID)
	assert.Equal(t, 2, repo.calls)
}

func TestAuthService_UserAndAdminChatID(t *testing.T) {
	access := testutil.NewTestAccess(1, 2)
	access.Admin.ChatID = 100
	service := NewAuthService(access, nil, nil, testutil.NewTestLogger())

	admin := service.User(1)
	assert.True(t, admin.Admin)
	assert.True(t, admin.Registered)
	assert.Equal(t, int64(100), admin.ChatID)

	stranger := service.User(9)
	assert.False(t, stranger.Registered)
	assert.False(t, stranger.Admin)

	id, ok := service.AdminChatID()
	assert.True(t, ok)
	assert.Equal(t, int64(100), id)
}

func TestAuthService_SnapshotIsDetached(t *testing.T) {
	service := NewAuthService(testutil.NewTestAccess(1, 2), nil, nil, testutil.NewTestLogger())

	snap := service.Snapshot()
	snap.Users[99] = domain.UserEntry{}

	assert.False(t, service.IsRegistered(99))
}
