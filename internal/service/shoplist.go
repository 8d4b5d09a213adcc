package service

import (
	"sync"
)

// ShopListService keeps a per-user shopping list in memory.
// It is independent from the groceries conversation and is lost on restart.
type ShopListService struct {
	mu    sync.Mutex
	lists map[int64]*shopList
}

type shopList struct {
	order []string
	items map[string]bool
}

// NewShopListService creates a new shop list service
func NewShopListService() *ShopListService {
	return &ShopListService{lists: make(map[int64]*shopList)}
}

// Add puts an item on the user's list; adding an item twice keeps one entry
func (s *ShopListService) Add(userID int64, item string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[userID]
	if !ok {
		l = &shopList{items: make(map[string]bool)}
		s.lists[userID] = l
	}
	if !l.items[item] {
		l.items[item] = true
		l.order = append(l.order, item)
	}
}

// Items returns the user's items in insertion order
func (s *ShopListService) Items(userID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[userID]
	if !ok {
		return nil
	}
	return append([]string(nil), l.order...)
}
