package submissions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/domain/rules"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
)

type fakeModel struct {
	status      string
	title       string
	contentType string
	owner       *int64
	start       time.Time
	end         time.Time
	createdAt   time.Time
}

// memoryStore mirrors the transactional semantics of pgrepo.SubmissionRepo.
type memoryStore struct {
	mu          sync.Mutex
	nextSubID   int64
	nextModelID int64
	subs        map[int64]model.Submission
	models      map[model.ModelRef]*fakeModel
	creates     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		subs:   map[int64]model.Submission{},
		models: map[model.ModelRef]*fakeModel{},
	}
}

func (m *memoryStore) addModel(modelType enums.ModelType, status, contentType string, owner *int64) model.ModelRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextModelID++
	ref := model.ModelRef{Type: modelType, ID: m.nextModelID}
	m.models[ref] = &fakeModel{
		status:      status,
		title:       string(modelType) + " row",
		contentType: contentType,
		owner:       owner,
		start:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		end:         time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		createdAt:   time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	return ref
}

func (m *memoryStore) addSubmission(ref model.ModelRef, status enums.SubmissionStatus) model.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSubID++
	modelType, modelID := ref.Type, ref.ID
	submissionType, _ := rules.SubmissionTypeFor(ref.Type, m.models[ref].contentType)
	sub := model.Submission{ID: m.nextSubID, Type: submissionType, Status: status, ModelType: &modelType, ModelID: &modelID}
	m.subs[sub.ID] = sub
	return sub
}

func (m *memoryStore) modelStatus(ref model.ModelRef) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.models[ref]; ok {
		return row.status
	}
	return ""
}

func (m *memoryStore) submissionFor(ref model.ModelRef) (model.Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findByRef(ref)
}

func (m *memoryStore) findByRef(ref model.ModelRef) (model.Submission, bool) {
	for _, sub := range m.subs {
		if r, ok := sub.Ref(); ok && r == ref {
			return sub, true
		}
	}
	return model.Submission{}, false
}

func (m *memoryStore) Create(_ context.Context, in pgrepo.NewSubmission) (model.Submission, error) {
	modelType, _ := rules.ModelTypeFor(in.Type)
	contentType := ""
	if in.Article != nil {
		contentType = string(in.Article.ContentType)
	}
	owner := in.SubmittedBy
	ref := m.addModel(modelType, rules.PendingStatusFor(modelType), contentType, &owner)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	m.nextSubID++
	sub := model.Submission{
		ID:          m.nextSubID,
		Type:        in.Type,
		Status:      enums.SubmissionStatusPending,
		ModelType:   &ref.Type,
		ModelID:     &ref.ID,
		Title:       in.Title,
		SubmittedBy: &owner,
		CreatedAt:   in.Now,
		UpdatedAt:   in.Now,
	}
	m.subs[sub.ID] = sub
	return sub, nil
}

func (m *memoryStore) Get(_ context.Context, id int64) (model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return model.Submission{}, pgrepo.ErrSubmissionNotFound
	}
	return sub, nil
}

func (m *memoryStore) GetForSubmitter(ctx context.Context, id, userID int64) (model.Submission, error) {
	sub, err := m.Get(ctx, id)
	if err != nil {
		return model.Submission{}, err
	}
	if sub.SubmittedBy == nil || *sub.SubmittedBy != userID {
		return model.Submission{}, pgrepo.ErrSubmissionNotFound
	}
	return sub, nil
}

func (m *memoryStore) List(_ context.Context, filter pgrepo.SubmissionFilter) ([]model.Submission, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.Submission, 0)
	for _, sub := range m.subs {
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		if filter.Type != "" && sub.Type != filter.Type {
			continue
		}
		if filter.SubmittedBy > 0 && (sub.SubmittedBy == nil || *sub.SubmittedBy != filter.SubmittedBy) {
			continue
		}
		items = append(items, sub)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	total := len(items)
	if filter.Offset >= len(items) {
		return []model.Submission{}, total, nil
	}
	items = items[filter.Offset:]
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, total, nil
}

func (m *memoryStore) Decide(_ context.Context, d pgrepo.Decision) (model.Submission, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[d.SubmissionID]
	if !ok {
		return model.Submission{}, false, pgrepo.ErrSubmissionNotFound
	}

	switch rules.Transition(sub.Status, d.Target) {
	case rules.TransitionNoop:
		return sub, false, nil
	case rules.TransitionInvalid:
		return model.Submission{}, false, pgrepo.ErrInvalidTransition
	}

	ref, ok := sub.Ref()
	if !ok {
		return model.Submission{}, false, pgrepo.ErrModelMissing
	}
	row, ok := m.models[ref]
	if !ok {
		return model.Submission{}, false, pgrepo.ErrModelMissing
	}

	switch d.Target {
	case enums.SubmissionStatusApproved:
		row.status = rules.ApprovedStatusFor(ref.Type, row.start, row.end, d.Now)
	case enums.SubmissionStatusRejected:
		row.status = rules.RejectedStatusFor(ref.Type)
	default:
		row.status = rules.ReviewingStatusFor(ref.Type)
	}

	sub.Status = d.Target
	actor := d.ActorID
	sub.ReviewedBy = &actor
	if d.Target != enums.SubmissionStatusReviewing {
		now := d.Now
		sub.ReviewedAt = &now
		sub.Feedback = d.Feedback
	}
	m.subs[sub.ID] = sub
	return sub, true, nil
}

func (m *memoryStore) SetModelStatus(_ context.Context, ref model.ModelRef, status string, now time.Time) (pgrepo.ModelStatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.models[ref]
	if !ok {
		return pgrepo.ModelStatusChange{}, pgrepo.ErrModelNotFound
	}

	change := pgrepo.ModelStatusChange{Ref: ref, Previous: row.status, Status: status}
	row.status = status
	mapped := rules.SubmissionStatusFor(ref.Type, status)

	sub, ok := m.findByRef(ref)
	if !ok {
		return change, nil
	}
	next, changed := rules.ResyncStatus(sub.Status, mapped)
	if changed {
		sub.Status = next
		sub.UpdatedAt = now
		m.subs[sub.ID] = sub
	}
	change.Submission = &sub
	change.SubmissionChanged = changed
	return change, nil
}

func (m *memoryStore) DeleteModel(_ context.Context, ref model.ModelRef) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[ref]; !ok {
		return false, pgrepo.ErrModelNotFound
	}
	delete(m.models, ref)
	sub, ok := m.findByRef(ref)
	if ok {
		delete(m.subs, sub.ID)
	}
	return ok, nil
}

func (m *memoryStore) ModelSummary(_ context.Context, ref model.ModelRef) (pgrepo.ModelSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.models[ref]
	if !ok {
		return pgrepo.ModelSummary{}, pgrepo.ErrModelNotFound
	}
	return pgrepo.ModelSummary{Type: ref.Type, ID: ref.ID, Title: row.title, Status: row.status}, nil
}

func (m *memoryStore) ListUntracked(_ context.Context, modelType enums.ModelType, afterID int64, limit int) ([]model.ModelSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.ModelSnapshot, 0)
	for ref, row := range m.models {
		if ref.Type != modelType || ref.ID <= afterID {
			continue
		}
		if _, tracked := m.findByRef(ref); tracked {
			continue
		}
		items = append(items, model.ModelSnapshot{
			Type:        ref.Type,
			ID:          ref.ID,
			Status:      row.status,
			Title:       row.title,
			ContentType: row.contentType,
			OwnerID:     row.owner,
			CreatedAt:   row.createdAt,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memoryStore) InsertTracked(_ context.Context, sub model.Submission) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, _ := sub.Ref()
	if _, exists := m.findByRef(ref); exists {
		return false, nil
	}
	m.nextSubID++
	sub.ID = m.nextSubID
	m.subs[sub.ID] = sub
	return true, nil
}

func (m *memoryStore) ListTracked(_ context.Context, modelType enums.ModelType, afterID int64, limit int) ([]pgrepo.TrackedModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]pgrepo.TrackedModel, 0)
	for _, sub := range m.subs {
		ref, ok := sub.Ref()
		if !ok || ref.Type != modelType || sub.ID <= afterID {
			continue
		}
		row, ok := m.models[ref]
		if !ok {
			continue
		}
		items = append(items, pgrepo.TrackedModel{
			SubmissionID:     sub.ID,
			SubmissionStatus: sub.Status,
			ModelID:          ref.ID,
			ModelStatus:      row.status,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SubmissionID < items[j].SubmissionID })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memoryStore) ResyncStatus(_ context.Context, id int64, from, to enums.SubmissionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok || sub.Status != from {
		return false, nil
	}
	sub.Status = to
	m.subs[id] = sub
	return true, nil
}
