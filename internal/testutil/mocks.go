package testutil

import (
	"context"
	"sync"

	"carcamalbot/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockSessionRepository is a mock for SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Load(ctx context.Context, userID int64) (*domain.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// MockAccessRepository is a mock for AccessRepository
type MockAccessRepository struct {
	mock.Mock
}

func (m *MockAccessRepository) Load(ctx context.Context) (*domain.Access, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Access), args.Error(1)
}

func (m *MockAccessRepository) Persist(ctx context.Context, access *domain.Access) error {
	args := m.Called(ctx, access)
	return args.Error(0)
}

// MockChatResolver is a mock for domain.ChatResolver
type MockChatResolver struct {
	mock.Mock
}

func (m *MockChatResolver) ChatType(ctx context.Context, chatID int64) (string, error) {
	args := m.Called(ctx, chatID)
	return args.String(0), args.Error(1)
}

// MockDownloader is a mock for the audio downloader
type MockDownloader struct {
	mock.Mock
}

func (m *MockDownloader) DownloadAudio(ctx context.Context, url, dir string) (string, error) {
	args := m.Called(ctx, url, dir)
	return args.String(0), args.Error(1)
}

// MockFortune is a mock for the fortune teller
type MockFortune struct {
	mock.Mock
}

func (m *MockFortune) Fortune(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// Sent is one outbound message captured by FakeSender
type Sent struct {
	ChatID int64
	Reply  domain.Reply
	Audio  string
	Typing bool
}

// FakeSender records everything sent through it. Safe for concurrent use.
type FakeSender struct {
	mu   sync.Mutex
	sent []Sent
	// Err is returned from every call when set
	Err error
}

func (f *FakeSender) Send(_ context.Context, chatID int64, reply domain.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, Sent{ChatID: chatID, Reply: reply})
	return f.Err
}

func (f *FakeSender) SendAudio(_ context.Context, chatID int64, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, Sent{ChatID: chatID, Audio: path})
	return f.Err
}

func (f *FakeSender) Typing(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, Sent{ChatID: chatID, Typing: true})
	return f.Err
}

// Sent returns a copy of all captured messages
func (f *FakeSender) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sent, len(f.sent))
	copy(out, f.sent)
	return out
}

// Texts returns the text of every captured text message
func (f *FakeSender) Texts() []string {
	var texts []string
	for _, s := range f.Sent() {
		if !s.Typing && s.Audio == "" {
			texts = append(texts, s.Reply.Text)
		}
	}
	return texts
}

// Reset drops captured messages
func (f *FakeSender) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}
