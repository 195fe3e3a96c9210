package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/appforge/appforge-go/internal/model"
	"github.com/appforge/appforge-go/internal/repository"
)

// fakeRepo is an in-memory repository.UserRepository that enforces the
// same email/slug uniqueness the real store does. createHook, when set,
// runs before each insert and can inject constraint failures.
type fakeRepo struct {
	mu         sync.Mutex
	users      map[string]*model.User
	createHook func(u *model.User) error
	creates    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*model.User)}
}

func (f *fakeRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates++
	if f.createHook != nil {
		if err := f.createHook(user); err != nil {
			return err
		}
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if u.Slug == user.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeRepo) GetBySlug(_ context.Context, slug string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Slug == slug {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeRepo) SlugsWithPrefix(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var slugs []string
	for _, u := range f.users {
		if strings.HasPrefix(u.Slug, prefix) {
			slugs = append(slugs, u.Slug)
		}
	}
	return slugs, nil
}

func (f *fakeRepo) matches(u *model.User, filter repository.ListFilter) bool {
	if filter.Search == "" {
		return true
	}
	s := strings.ToLower(filter.Search)
	fields := []string{u.Email, u.Slug}
	if u.FirstName != nil {
		fields = append(fields, *u.FirstName)
	}
	if u.LastName != nil {
		fields = append(fields, *u.LastName)
	}
	for _, v := range fields {
		if strings.Contains(strings.ToLower(v), s) {
			return true
		}
	}
	return false
}

func (f *fakeRepo) List(_ context.Context, filter repository.ListFilter) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.User
	for _, u := range f.users {
		if f.matches(u, filter) {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if filter.Offset >= len(all) {
		return nil, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

func (f *fakeRepo) Count(_ context.Context, filter repository.ListFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, u := range f.users {
		if f.matches(u, filter) {
			total++
		}
	}
	return total, nil
}

func (f *fakeRepo) Update(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for id, u := range f.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	clone := *user
	clone.CreatedAt = stored.CreatedAt
	clone.UpdatedAt = time.Now()
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}
