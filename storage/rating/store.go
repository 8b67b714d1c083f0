// Copyright 2025 corate Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rating

import (
	"sort"
	"sync"
	"time"

	"github.com/juju/errors"
)

var (
	ErrUserNotExist = errors.NotFoundf("user")
	ErrItemNotExist = errors.NotFoundf("item")
)

// Kind selects the entity-major orientation of the matrix.
type Kind string

const (
	KindUser Kind = "user"
	KindItem Kind = "item"
)

// Rating is a single explicit preference observation. Timestamp is ingestion
// metadata; the matrix itself keys on (user, item) only.
type Rating struct {
	UserId    string
	ItemId    string
	Value     float64
	Timestamp time.Time
}

// Pair is a co-rated observation: the counterpart id and both entities'
// values for it.
type Pair struct {
	Key string
	A   float64
	B   float64
}

// Store is an in-memory sparse rating matrix. Both user-major and item-major
// views are maintained so user-based and item-based algorithms run at the
// same cost. Absent entries mean unknown, never zero.
type Store struct {
	mu    sync.RWMutex
	min   float64
	max   float64
	users map[string]map[string]float64
	items map[string]map[string]float64
}

// NewStore creates a rating store accepting values in [min, max].
func NewStore(min, max float64) *Store {
	return &Store{
		min:   min,
		max:   max,
		users: make(map[string]map[string]float64),
		items: make(map[string]map[string]float64),
	}
}

// Range returns the accepted rating range.
func (s *Store) Range() (min, max float64) {
	return s.min, s.max
}

// Upsert inserts or overwrites the rating for (userId, itemId). Values
// outside the accepted range are rejected.
func (s *Store) Upsert(userId, itemId string, value float64) error {
	if value < s.min || value > s.max {
		return errors.NotValidf("rating value %v outside [%v, %v]", value, s.min, s.max)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[userId] == nil {
		s.users[userId] = make(map[string]float64)
	}
	if s.items[itemId] == nil {
		s.items[itemId] = make(map[string]float64)
	}
	s.users[userId][itemId] = value
	s.items[itemId][userId] = value
	return nil
}

// UserRatings returns a copy of the ratings given by userId, keyed by item.
func (s *Store) UserRatings(userId string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ratings, exist := s.users[userId]
	if !exist {
		return nil, ErrUserNotExist
	}
	return copyRatings(ratings), nil
}

// ItemRatings returns a copy of the ratings given to itemId, keyed by user.
func (s *Store) ItemRatings(itemId string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ratings, exist := s.items[itemId]
	if !exist {
		return nil, ErrItemNotExist
	}
	return copyRatings(ratings), nil
}

// Users returns all user ids in ascending order.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.users)
}

// Items returns all item ids in ascending order.
func (s *Store) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.items)
}

func (s *Store) CountUsers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Store) CountItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) CountRatings() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, ratings := range s.users {
		count += len(ratings)
	}
	return count
}

// UserView returns the user-major read view.
func (s *Store) UserView() View {
	return &view{store: s, kind: KindUser}
}

// ItemView returns the item-major read view.
func (s *Store) ItemView() View {
	return &view{store: s, kind: KindItem}
}

// ViewOf returns the view for the given orientation.
func (s *Store) ViewOf(kind Kind) View {
	if kind == KindItem {
		return s.ItemView()
	}
	return s.UserView()
}

// View is an entity-major read view of the matrix: entities are users in the
// user view and items in the item view, counterparts the other way around.
type View interface {
	Kind() Kind
	IDs() []string
	Count() int
	Ratings(id string) (map[string]float64, error)
}

type view struct {
	store *Store
	kind  Kind
}

func (v *view) Kind() Kind {
	return v.kind
}

func (v *view) IDs() []string {
	if v.kind == KindItem {
		return v.store.Items()
	}
	return v.store.Users()
}

func (v *view) Count() int {
	if v.kind == KindItem {
		return v.store.CountItems()
	}
	return v.store.CountUsers()
}

func (v *view) Ratings(id string) (map[string]float64, error) {
	if v.kind == KindItem {
		return v.store.ItemRatings(id)
	}
	return v.store.UserRatings(id)
}

// Intersect returns the co-rated pairs of two rating maps, iterating the
// smaller of the two so the cost is O(min(|a|, |b|)), never O(catalog).
func Intersect(a, b map[string]float64) []Pair {
	if len(b) < len(a) {
		pairs := Intersect(b, a)
		for i := range pairs {
			pairs[i].A, pairs[i].B = pairs[i].B, pairs[i].A
		}
		return pairs
	}
	pairs := make([]Pair, 0, len(a))
	for key, valueA := range a {
		if valueB, exist := b[key]; exist {
			pairs = append(pairs, Pair{Key: key, A: valueA, B: valueB})
		}
	}
	return pairs
}

func copyRatings(ratings map[string]float64) map[string]float64 {
	copied := make(map[string]float64, len(ratings))
	for key, value := range ratings {
		copied[key] = value
	}
	return copied
}

func sortedKeys(m map[string]map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
