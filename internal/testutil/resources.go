// Package testutil provides in-memory implementations of the storage and
// collaborator interfaces for package tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
)

// Resources is an in-memory resource.Repository.
type Resources struct {
	mu    sync.Mutex
	items map[string]*resource.Resource
}

func NewResources() *Resources {
	return &Resources{items: map[string]*resource.Resource{}}
}

// Add stores an active resource under a fixed id and returns it.
func (r *Resources) Add(id, name string, t resource.Type) *resource.Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := &resource.Resource{ID: id, Name: name, Type: t, IsActive: true, CreatedAt: time.Now().UTC()}
	r.items[id] = res
	return res
}

func (r *Resources) Create(_ context.Context, res *resource.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res.ID = uuid.NewString()
	res.IsActive = true
	res.CreatedAt = time.Now().UTC()
	cp := *res
	r.items[res.ID] = &cp
	return nil
}

func (r *Resources) GetByID(_ context.Context, id string) (*resource.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.items[id]
	if !ok {
		return nil, resource.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *Resources) List(_ context.Context, filter resource.Filter) ([]*resource.Resource, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*resource.Resource
	for _, res := range r.items {
		if filter.Type != "" && res.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && !res.IsActive {
			continue
		}
		cp := *res
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (r *Resources) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.items[id]
	if !ok {
		return resource.ErrNotFound
	}
	res.IsActive = active
	return nil
}

// Members is an in-memory member.Directory.
type Members struct {
	mu      sync.Mutex
	byEmail map[string]*member.Member
	// Err, when set, is returned by every lookup.
	Err error
}

func NewMembers(members ...member.Member) *Members {
	d := &Members{byEmail: map[string]*member.Member{}}
	for _, m := range members {
		d.Add(m)
	}
	return d
}

func (d *Members) Add(m member.Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.IsActive = true
	d.byEmail[strings.ToLower(m.Email)] = &m
}

func (d *Members) GetByEmail(_ context.Context, email string) (*member.Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	m, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, member.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (d *Members) Search(_ context.Context, query string, limit int) ([]*member.Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, member.ErrEmptyQuery
	}
	var out []*member.Member
	for _, m := range d.byEmail {
		if strings.Contains(strings.ToLower(m.Email), query) || strings.Contains(strings.ToLower(m.Name), query) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
