package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/dwapor/storefront/internal/pkg/goerror"
	"github.com/dwapor/storefront/internal/verification/entity"
)

type key struct {
	username string
	purpose  entity.Purpose
}

// fakeDB mirrors the conditional statements of the PostgreSQL store under one mutex.
type fakeDB struct {
	mu          sync.Mutex
	otps        map[key]entity.OTP
	credentials map[string]string
	promotions  int

	errUpsert  error
	errFind    error
	errPromote error
	errExists  error
}

func newFakeDB() *fakeDB {
	return &fakeDB{otps: map[key]entity.OTP{}, credentials: map[string]string{}}
}

func (f *fakeDB) UpsertOTP(_ context.Context, rec entity.OTP, cutoff time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errUpsert != nil {
		return false, f.errUpsert
	}

	k := key{rec.Username, rec.Purpose}
	if cur, ok := f.otps[k]; ok && cur.SentAt != nil && cur.SentAt.After(cutoff) {
		return false, nil
	}
	f.otps[k] = rec
	return true, nil
}

func (f *fakeDB) FindOTP(_ context.Context, username string, purpose entity.Purpose) (*entity.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errFind != nil {
		return nil, f.errFind
	}

	rec, ok := f.otps[key{username, purpose}]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeDB) DeleteOTP(_ context.Context, username string, purpose entity.Purpose) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.otps, key{username, purpose})
	return nil
}

func (f *fakeDB) PromoteCredential(_ context.Context, rec entity.OTP, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errPromote != nil {
		return f.errPromote
	}

	k := key{rec.Username, rec.Purpose}
	cur, ok := f.otps[k]
	if !ok || cur.CodeDigest != rec.CodeDigest || !cur.SentAt.Equal(*rec.SentAt) || cur.HashedPassword == "" {
		return goerror.ErrNotFound
	}
	delete(f.otps, k)
	f.credentials[rec.Username] = cur.HashedPassword
	f.promotions++
	return nil
}

func (f *fakeDB) AccountExists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errExists != nil {
		return false, f.errExists
	}
	_, ok := f.credentials[username]
	return ok, nil
}

func (f *fakeDB) DeleteExpiredOTPs(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for k, rec := range f.otps {
		if rec.SentAt == nil || rec.SentAt.Before(before) {
			delete(f.otps, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) get(username string, purpose entity.Purpose) (entity.OTP, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.otps[key{username, purpose}]
	return rec, ok
}

type fakeCache struct {
	mu       sync.Mutex
	attempts map[key]int
	locked   map[key]bool
	err      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{attempts: map[key]int{}, locked: map[key]bool{}}
}

func (f *fakeCache) IsLocked(_ context.Context, username string, purpose entity.Purpose) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked[key{username, purpose}], f.err
}

func (f *fakeCache) RecordMismatch(_ context.Context, username string, purpose entity.Purpose, maxAttempts int, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}

	k := key{username, purpose}
	f.attempts[k]++
	if f.attempts[k] >= maxAttempts {
		f.locked[k] = true
		delete(f.attempts, k)
		return true, nil
	}
	return false, nil
}

func (f *fakeCache) ResetMismatches(_ context.Context, username string, purpose entity.Purpose) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attempts, key{username, purpose})
	return nil
}

type fakeDispatch struct {
	mu   sync.Mutex
	sent []CodeDispatch
	err  error
}

func (f *fakeDispatch) DispatchCode(_ context.Context, msg CodeDispatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeDispatch) last() CodeDispatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

// sequenceGenerator hands out codes in order and repeats the last one.
type sequenceGenerator struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (g *sequenceGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	code := g.codes[0]
	if len(g.codes) > 1 {
		g.codes = g.codes[1:]
	}
	return code, nil
}

func (g *sequenceGenerator) Length() int { return 6 }
