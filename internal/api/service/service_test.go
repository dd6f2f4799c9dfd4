package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/model"
)

// fakeStore is an in-memory Store with the same conditional-update semantics
// as the sqlx implementation. All mutating paths hold the mutex, so the
// concurrency tests exercise real interleavings.
type fakeStore struct {
	mu          sync.Mutex
	jobs        map[string]*model.Job
	assignments map[string]*model.Assignment // keyed by job id
	uploads     map[string]*model.Upload
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:        make(map[string]*model.Job),
		assignments: make(map[string]*model.Assignment),
		uploads:     make(map[string]*model.Upload),
	}
}

func (s *fakeStore) CreateJob(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.JobID] = &cp
	return nil
}

func (s *fakeStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *fakeStore) GetAssignment(ctx context.Context, jobID string) (*model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[jobID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) CreateAssignment(ctx context.Context, jobID, helperID string) (*model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.assignments[jobID]; exists {
		return nil, domain.ErrAlreadyAssigned
	}

	job, ok := s.jobs[jobID]
	if !ok || job.Status != domain.JobStatusOpen {
		return nil, domain.ErrJobNotAvailable
	}

	a := &model.Assignment{
		AssignmentID: uuid.New().String(),
		JobID:        jobID,
		HelperID:     helperID,
		CreatedAt:    time.Now(),
	}
	s.assignments[jobID] = a
	job.Status = domain.JobStatusAccepted

	cp := *a
	return &cp, nil
}

func (s *fakeStore) TransitionStatus(ctx context.Context, jobID string, from, to domain.JobStatus, now time.Time) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if job.Status != from {
		return nil, domain.ErrStaleStatus
	}

	job.Status = to
	job.UpdatedAt = now
	switch to {
	case domain.JobStatusInReview:
		t := now
		job.SubmittedAt = &t
	case domain.JobStatusCompleted:
		t := now
		job.CompletedAt = &t
	}

	cp := *job
	return &cp, nil
}

func (s *fakeStore) CountUploads(ctx context.Context, jobID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, u := range s.uploads {
		if u.JobID == jobID {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) InsertUpload(ctx context.Context, upload *model.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *upload
	s.uploads[upload.UploadID] = &cp
	return nil
}

func (s *fakeStore) GetUpload(ctx context.Context, uploadID string) (*model.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[uploadID]
	if !ok {
		return nil, domain.ErrUploadNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetUploadByKey(ctx context.Context, blobKey string) (*model.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.uploads {
		if u.BlobKey == blobKey {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUploadNotFound
}

func (s *fakeStore) DeleteUpload(ctx context.Context, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uploads[uploadID]; !ok {
		return domain.ErrUploadNotFound
	}
	delete(s.uploads, uploadID)
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) Publish(ctx context.Context, eventType, jobID, actorID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func requesterIdentity(subjectID string) domain.Identity {
	return domain.Identity{
		SubjectID:    subjectID,
		GrantedRoles: []domain.Role{domain.RoleRequester},
		ActiveRole:   domain.RoleRequester,
	}
}

func helperIdentity(subjectID string) domain.Identity {
	return domain.Identity{
		SubjectID:    subjectID,
		GrantedRoles: []domain.Role{domain.RoleHelper},
		ActiveRole:   domain.RoleHelper,
	}
}

func openJob(jobID, requesterID string) *model.Job {
	now := time.Now()
	return &model.Job{
		JobID:       jobID,
		RequesterID: requesterID,
		Title:       "Graduation ceremony",
		Location:    "City Hall",
		EventTime:   now.Add(48 * time.Hour),
		ContentType: "photos",
		PriceTier:   "standard",
		Status:      domain.JobStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
