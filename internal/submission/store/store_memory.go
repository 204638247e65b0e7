package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"survey-gateway/internal/submission/models"
	"survey-gateway/pkg/platform/sentinel"
)

// InMemory keeps submissions in process memory. Create is an atomic
// insert-if-absent under the write lock, which gives the same uniqueness
// guarantee as the SQL primary key within one process.
type InMemory struct {
	mu          sync.RWMutex
	submissions map[string]*models.Submission
	order       []string
}

func NewInMemory() *InMemory {
	return &InMemory{submissions: make(map[string]*models.Submission)}
}

func (s *InMemory) FindBySubject(_ context.Context, subjectID string) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(sub), nil
}

func (s *InMemory) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[sub.SubjectID]; exists {
		return fmt.Errorf("create submission %s: %w", sub.SubjectID, sentinel.ErrConflict)
	}
	s.submissions[sub.SubjectID] = clone(sub)
	s.order = append(s.order, sub.SubjectID)
	return nil
}

// ListAll returns every submission ordered by submission time, then subject.
func (s *InMemory) ListAll(_ context.Context) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Submission, 0, len(s.order))
	for _, subjectID := range s.order {
		out = append(out, clone(s.submissions[subjectID]))
	}
	slices.SortStableFunc(out, compareSubmissions)
	return out, nil
}

func clone(sub *models.Submission) *models.Submission {
	c := *sub
	c.Answers = slices.Clone(sub.Answers)
	return &c
}

func compareSubmissions(a, b *models.Submission) int {
	if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
		return c
	}
	switch {
	case a.SubjectID < b.SubjectID:
		return -1
	case a.SubjectID > b.SubjectID:
		return 1
	}
	return 0
}
