package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/events"
)

// fakeConsumer consumes tokens at most once under a mutex, mirroring the
// atomic conditional update in the real token store.
type fakeConsumer struct {
	mu       sync.Mutex
	tokens   map[string]string // token -> bound job id
	consumed map[string]bool
}

func newFakeConsumer() *fakeConsumer {
	return &fakeConsumer{
		tokens:   make(map[string]string),
		consumed: make(map[string]bool),
	}
}

func (c *fakeConsumer) issue(token, jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[token] = jobID
}

func (c *fakeConsumer) Consume(ctx context.Context, tokenOrCode, claimantID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	jobID, ok := c.tokens[tokenOrCode]
	if !ok || c.consumed[tokenOrCode] {
		return "", false, nil
	}
	c.consumed[tokenOrCode] = true
	return jobID, true, nil
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeStore, *fakeConsumer, *fakePublisher) {
	t.Helper()
	store := newFakeStore()
	consumer := newFakeConsumer()
	publisher := &fakePublisher{}
	coord := NewCoordinator(consumer, store, publisher, slog.Default())
	return coord, store, consumer, publisher
}

func TestClaimSuccess(t *testing.T) {
	coord, store, consumer, publisher := newTestCoordinator(t)
	ctx := context.Background()

	job := openJob("job-1", "req-1")
	require.NoError(t, store.CreateJob(ctx, job))
	consumer.issue("tok-1", "job-1")

	assignment, err := coord.Claim(ctx, "job-1", "tok-1", "helper-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", assignment.JobID)
	assert.Equal(t, "helper-1", assignment.HelperID)
	assert.NotEmpty(t, assignment.AssignmentID)

	got, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusAccepted, got.Status)

	assert.Contains(t, publisher.published(), events.TypeJobClaimed)
}

func TestClaimInvalidToken(t *testing.T) {
	coord, store, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))

	_, err := coord.Claim(ctx, "job-1", "no-such-token", "helper-1")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestClaimTokenAlreadyUsed(t *testing.T) {
	coord, store, consumer, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))
	consumer.issue("tok-1", "job-1")

	_, err := coord.Claim(ctx, "job-1", "tok-1", "helper-1")
	require.NoError(t, err)

	_, err = coord.Claim(ctx, "job-1", "tok-1", "helper-2")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestClaimTokenJobMismatch(t *testing.T) {
	coord, store, consumer, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))
	require.NoError(t, store.CreateJob(ctx, openJob("job-2", "req-1")))
	consumer.issue("tok-2", "job-2")

	_, err := coord.Claim(ctx, "job-1", "tok-2", "helper-1")
	assert.ErrorIs(t, err, domain.ErrTokenJobMismatch)

	// Neither job gained an assignment from the mismatched claim.
	a, err := store.GetAssignment(ctx, "job-1")
	require.NoError(t, err)
	assert.Nil(t, a)
	a, err = store.GetAssignment(ctx, "job-2")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestClaimJobNotAvailable(t *testing.T) {
	coord, store, consumer, _ := newTestCoordinator(t)
	ctx := context.Background()

	job := openJob("job-1", "req-1")
	job.Status = domain.JobStatusCancelled
	require.NoError(t, store.CreateJob(ctx, job))
	consumer.issue("tok-1", "job-1")

	_, err := coord.Claim(ctx, "job-1", "tok-1", "helper-1")
	assert.ErrorIs(t, err, domain.ErrJobNotAvailable)
}

func TestClaimRaceExactlyOneWinner(t *testing.T) {
	coord, store, consumer, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))

	const claimants = 16
	for i := 0; i < claimants; i++ {
		consumer.issue(fmt.Sprintf("tok-%d", i), "job-1")
	}

	var wg sync.WaitGroup
	errs := make([]error, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = coord.Claim(ctx, "job-1", fmt.Sprintf("tok-%d", i), fmt.Sprintf("helper-%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		// Losers see either the status gate or the uniqueness backstop.
		assert.True(t,
			err == domain.ErrJobNotAvailable || err == domain.ErrAlreadyAssigned,
			"unexpected claim error: %v", err,
		)
	}
	assert.Equal(t, 1, winners)

	got, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusAccepted, got.Status)

	a, err := store.GetAssignment(ctx, "job-1")
	require.NoError(t, err)
	require.NotNil(t, a)
}
