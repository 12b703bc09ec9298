// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"context"
	"errors"
	"sync"
)

// ErrSubjectNotFound is returned by a SubjectStore lookup that finds nothing.
var ErrSubjectNotFound = errors.New("subject not found")

// SubjectStore persists Subjects. Lookups return ErrSubjectNotFound on a
// miss. When several subjects share an email or phone the oldest one is
// returned.
type SubjectStore interface {
	Get(ctx context.Context, subjectID string) (*Subject, error)
	FindByEmail(ctx context.Context, email string) (*Subject, error)
	FindByPhone(ctx context.Context, phone string) (*Subject, error)
	Insert(ctx context.Context, s *Subject) error
	Update(ctx context.Context, s *Subject) error
}

// MemoryStore is an in-process SubjectStore.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Subject
	byEmail map[string]string
	byPhone map[string]string
	order   []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Subject),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrSubjectNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*Subject, error) {
	return m.findBy(ctx, m.byEmail, email)
}

func (m *MemoryStore) FindByPhone(ctx context.Context, phone string) (*Subject, error) {
	return m.findBy(ctx, m.byPhone, phone)
}

func (m *MemoryStore) findBy(_ context.Context, index map[string]string, key string) (*Subject, error) {
	if key == "" {
		return nil, ErrSubjectNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := index[key]
	if !ok {
		return nil, ErrSubjectNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *MemoryStore) Insert(_ context.Context, s *Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[s.SubjectID]; exists {
		return errors.New("subject already exists")
	}
	m.byID[s.SubjectID] = s.Clone()
	m.order = append(m.order, s.SubjectID)
	m.index(s)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, s *Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[s.SubjectID]; !exists {
		return ErrSubjectNotFound
	}
	m.byID[s.SubjectID] = s.Clone()
	m.index(s)
	return nil
}

// index keeps the first subject seen for each key.
func (m *MemoryStore) index(s *Subject) {
	if s.CanonicalEmail != "" {
		if _, ok := m.byEmail[s.CanonicalEmail]; !ok {
			m.byEmail[s.CanonicalEmail] = s.SubjectID
		}
	}
	if s.CanonicalPhone != "" {
		if _, ok := m.byPhone[s.CanonicalPhone]; !ok {
			m.byPhone[s.CanonicalPhone] = s.SubjectID
		}
	}
}

// All returns every stored subject in insertion order.
func (m *MemoryStore) All() []*Subject {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Subject, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id].Clone())
	}
	return out
}

// Len returns the number of stored subjects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
