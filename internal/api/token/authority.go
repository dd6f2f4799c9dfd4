// Package token issues, inspects, and consumes the single-use claim tokens
// that gate job assignment.
package token

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/model"
)

const (
	// DefaultTTL is the fixed expiry window for issued tokens.
	DefaultTTL = 15 * time.Minute

	tokenBytes   = 32 // 256 bits of entropy in the presented token
	shortCodeLen = 6

	issueAttempts = 3
)

// Inspection reason strings, surfaced verbatim to pre-flight UI checks.
const (
	ReasonNotFound        = "not found"
	ReasonExpired         = "expired"
	ReasonAlreadyUsed     = "already used"
	ReasonAlreadyAssigned = "already assigned"
	ReasonJobNotOpen      = "job is not open"
)

// Store is the persistence surface the authority needs. All mutation happens
// through ConsumeClaimToken, which must be a single atomic conditional update.
type Store interface {
	InsertClaimToken(ctx context.Context, t *model.ClaimToken) error
	// FindClaimToken resolves a token by digest or short code; it returns
	// domain.ErrTokenNotFound when neither matches.
	FindClaimToken(ctx context.Context, hash, code string) (*model.ClaimToken, error)
	// ConsumeClaimToken atomically marks the token consumed iff it exists, is
	// unexpired, unconsumed, and its job is OPEN with no assignment. It returns
	// the bound job id and ok=false when any check fails.
	ConsumeClaimToken(ctx context.Context, hash, code, claimantID string) (string, bool, error)
	// JobClaimState reports the job's status and whether an assignment exists.
	JobClaimState(ctx context.Context, jobID string) (domain.JobStatus, bool, error)
}

// Authority manages the claim-token lifecycle. Tokens are never stored in the
// clear: lookups go through an HMAC digest keyed with the server secret, so a
// leaked table cannot be replayed.
type Authority struct {
	store  Store
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthority creates an Authority. secret must be non-empty; ttl <= 0 falls
// back to DefaultTTL.
func NewAuthority(store Store, secret []byte, ttl time.Duration, logger *slog.Logger) (*Authority, error) {
	if len(secret) == 0 {
		return nil, errors.New("token signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Authority{
		store:  store,
		secret: secret,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Issued is the caller-visible result of issuing a token.
type Issued struct {
	Token     string
	ShortCode string
	ExpiresAt time.Time
}

// Issue creates a new claim token bound to jobID. Issuance never checks job
// status; callers gate issuance on the job not being terminal. A job may
// accumulate several outstanding tokens.
func (a *Authority) Issue(ctx context.Context, jobID string) (*Issued, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	tok := base64.RawURLEncoding.EncodeToString(raw)
	expiresAt := a.now().Add(a.ttl)

	// The short code is tiny, so regenerate on the rare collision.
	for attempt := 1; ; attempt++ {
		code, err := generateShortCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate short code: %w", err)
		}

		row := &model.ClaimToken{
			TokenID:   uuid.New().String(),
			JobID:     jobID,
			TokenHash: a.digest(tok),
			ShortCode: code,
			ExpiresAt: expiresAt,
			CreatedAt: a.now(),
		}

		err = a.store.InsertClaimToken(ctx, row)
		if err == nil {
			a.logger.Info("Claim token issued",
				slog.String("job_id", jobID),
				slog.String("token_id", row.TokenID),
				slog.Time("expires_at", expiresAt),
			)
			return &Issued{Token: tok, ShortCode: code, ExpiresAt: expiresAt}, nil
		}
		if !errors.Is(err, domain.ErrShortCodeCollision) || attempt >= issueAttempts {
			return nil, fmt.Errorf("failed to persist claim token: %w", err)
		}
	}
}

// Inspection is the read-only view of a token's current claimability.
type Inspection struct {
	Valid  bool
	JobID  string
	Reason string
}

// Inspect evaluates a token without mutating anything. Check order: existence,
// expiry, consumption, existing assignment, job OPEN; the first failure wins.
// The result may be stale by the time a claim runs; the authoritative path
// re-checks in Consume.
func (a *Authority) Inspect(ctx context.Context, tokenOrCode string) (*Inspection, error) {
	row, err := a.store.FindClaimToken(ctx, a.digest(tokenOrCode), tokenOrCode)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return &Inspection{Reason: ReasonNotFound}, nil
		}
		return nil, err
	}

	if a.now().After(row.ExpiresAt) {
		return &Inspection{Reason: ReasonExpired}, nil
	}
	if row.Consumed {
		return &Inspection{Reason: ReasonAlreadyUsed}, nil
	}

	status, assigned, err := a.store.JobClaimState(ctx, row.JobID)
	if err != nil {
		return nil, err
	}
	if assigned {
		return &Inspection{Reason: ReasonAlreadyAssigned}, nil
	}
	if status != domain.JobStatusOpen {
		return &Inspection{Reason: ReasonJobNotOpen}, nil
	}

	return &Inspection{Valid: true, JobID: row.JobID}, nil
}

// Consume re-runs the inspection checks as one atomic conditional update and,
// if all pass, permanently marks the token consumed by claimantID. It returns
// the bound job id, or ok=false on any failure without distinguishing why.
func (a *Authority) Consume(ctx context.Context, tokenOrCode, claimantID string) (string, bool, error) {
	jobID, ok, err := a.store.ConsumeClaimToken(ctx, a.digest(tokenOrCode), tokenOrCode, claimantID)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	a.logger.Info("Claim token consumed",
		slog.String("job_id", jobID),
		slog.String("claimant_id", claimantID),
	)
	return jobID, true, nil
}

// digest computes the keyed lookup digest for a presented token or code.
func (a *Authority) digest(tok string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(tok))
	return hex.EncodeToString(mac.Sum(nil))
}

// generateShortCode returns a crypto-random numeric code for manual entry.
func generateShortCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < shortCodeLen; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", shortCodeLen, n), nil
}
