package local

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"network20-backend/internal/domain"
	"network20-backend/pkg/kvstore"
)

const (
	ProfilesKey    = "network20_profiles"
	CurrentUserKey = "network20_current_user"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

type Option func(*profileRepo)

// WithSerializedWrites makes every read-modify-write of the profile list
// exclusive within this process. Without it, concurrent writers can lose
// updates because each one rewrites the whole list.
func WithSerializedWrites() Option {
	return func(r *profileRepo) { r.mu = &sync.Mutex{} }
}

// WithClock overrides the time source used for timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(r *profileRepo) { r.now = now }
}

type profileRepo struct {
	kv  kvstore.Store
	now func() time.Time
	mu  *sync.Mutex
}

// NewProfileRepository keeps all profiles as one JSON array under
// ProfilesKey and the current-user pointer under CurrentUserKey.
func NewProfileRepository(kv kvstore.Store, opts ...Option) domain.LocalProfileRepository {
	r := &profileRepo{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *profileRepo) lock() func() {
	if r.mu == nil {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

// timestamp matches the millisecond ISO strings the mobile app writes.
func (r *profileRepo) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func (r *profileRepo) load(ctx context.Context) ([]domain.Profile, error) {
	raw, found, err := r.kv.Get(ctx, ProfilesKey)
	if err != nil {
		return nil, err
	}
	if !found || raw == "" {
		return []domain.Profile{}, nil
	}
	var profiles []domain.Profile
	if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
		return nil, fmt.Errorf("local: decode %s: %w", ProfilesKey, err)
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	return profiles, nil
}

func (r *profileRepo) save(ctx context.Context, profiles []domain.Profile) error {
	b, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("local: encode %s: %w", ProfilesKey, err)
	}
	return r.kv.Set(ctx, ProfilesKey, string(b))
}

func (r *profileRepo) List(ctx context.Context) ([]domain.Profile, error) {
	return r.load(ctx)
}

func (r *profileRepo) ListAvailable(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	available := []domain.Profile{}
	for _, p := range profiles {
		if p.IsAvailable {
			available = append(available, p)
		}
	}
	return available, nil
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	profiles, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].ID == id {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

func (r *profileRepo) Create(ctx context.Context, in domain.ProfileInsert) (*domain.Profile, error) {
	unlock := r.lock()
	defer unlock()

	profiles, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	id, err := r.generateID()
	if err != nil {
		return nil, err
	}
	now := r.timestamp()

	p := domain.NewProfile(in)
	p.ID = id
	p.UserID = nil
	p.CreatedAt = now
	p.UpdatedAt = now

	profiles = append([]domain.Profile{p}, profiles...)
	if err := r.save(ctx, profiles); err != nil {
		return nil, err
	}

	current, err := r.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if current == "" {
		if err := r.SetCurrentUserID(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *profileRepo) Update(ctx context.Context, id string, patch domain.ProfileUpdate) (*domain.Profile, error) {
	unlock := r.lock()
	defer unlock()

	profiles, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range profiles {
		if profiles[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil
	}

	p := profiles[idx]
	patch.Apply(&p)
	p.UpdatedAt = r.nextUpdatedAt(p.UpdatedAt)
	profiles[idx] = p

	if err := r.save(ctx, profiles); err != nil {
		return nil, err
	}
	return &p, nil
}

// nextUpdatedAt never returns a time at or before prev, so two writes in
// the same millisecond still order.
func (r *profileRepo) nextUpdatedAt(prev time.Time) time.Time {
	now := r.timestamp()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func (r *profileRepo) Delete(ctx context.Context, id string) (bool, error) {
	unlock := r.lock()
	defer unlock()

	profiles, err := r.load(ctx)
	if err != nil {
		return false, err
	}

	kept := make([]domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(profiles) {
		return false, nil
	}
	if err := r.save(ctx, kept); err != nil {
		return false, err
	}

	current, err := r.CurrentUserID(ctx)
	if err != nil {
		return true, err
	}
	if current == id {
		if err := r.kv.Remove(ctx, CurrentUserKey); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (r *profileRepo) Search(ctx context.Context, query string) ([]domain.Profile, error) {
	profiles, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	matches := []domain.Profile{}
	for i := range profiles {
		if profiles[i].Matches(query) {
			matches = append(matches, profiles[i])
		}
	}
	return matches, nil
}

func (r *profileRepo) CurrentUserID(ctx context.Context) (string, error) {
	id, found, err := r.kv.Get(ctx, CurrentUserKey)
	if err != nil || !found {
		return "", err
	}
	return id, nil
}

func (r *profileRepo) SetCurrentUserID(ctx context.Context, id string) error {
	if id == "" {
		return r.kv.Remove(ctx, CurrentUserKey)
	}
	return r.kv.Set(ctx, CurrentUserKey, id)
}

func (r *profileRepo) ClearAll(ctx context.Context) error {
	if err := r.kv.Remove(ctx, ProfilesKey); err != nil {
		return err
	}
	return r.kv.Remove(ctx, CurrentUserKey)
}

// generateID returns local_<unix-ms>_<7 base36 chars>.
func (r *profileRepo) generateID() (string, error) {
	suffix := make([]byte, 7)
	base := big.NewInt(int64(len(idAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("local: generate id: %w", err)
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return "local_" + strconv.FormatInt(r.now().UnixMilli(), 10) + "_" + string(suffix), nil
}
