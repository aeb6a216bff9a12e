// Package resource is the generic REST repository every entity view uses:
// collection and item endpoints under one resource name, plus the shared
// confirm-and-delete action.
package resource

import (
	"context"
	"fmt"
	"strconv"

	"github.com/clinic/clinic-admin/internal/platform/apiclient"
)

// Client is the subset of *apiclient.Client the repository needs.
type Client interface {
	Get(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...apiclient.RequestOption) error
	Patch(ctx context.Context, path string, body, out any, opts ...apiclient.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
}

// Identifiable is implemented by every entity model.
type Identifiable interface {
	GetID() int64
}

// Repo reads and writes one resource collection of the clinic API.
type Repo[T any] struct {
	client Client
	name   string
}

func NewRepo[T any](client Client, name string) *Repo[T] {
	return &Repo[T]{client: client, name: name}
}

// Name returns the resource name, e.g. "doctors".
func (r *Repo[T]) Name() string { return r.name }

func (r *Repo[T]) collectionPath() string { return "/" + r.name }

func (r *Repo[T]) itemPath(id int64) string {
	return "/" + r.name + "/" + strconv.FormatInt(id, 10)
}

// List fetches the whole collection. A null body is an empty list.
func (r *Repo[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.client.Get(ctx, r.collectionPath(), &items); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *Repo[T]) Get(ctx context.Context, id int64) (T, error) {
	var item T
	if err := r.client.Get(ctx, r.itemPath(id), &item); err != nil {
		return item, fmt.Errorf("get %s %d: %w", r.name, id, err)
	}
	return item, nil
}

// Create posts draft to the collection and returns whatever the API echoes
// back (the zero value when the response has no body).
func (r *Repo[T]) Create(ctx context.Context, draft any) (T, error) {
	var created T
	if err := r.client.Post(ctx, r.collectionPath(), draft, &created); err != nil {
		return created, fmt.Errorf("create %s: %w", r.name, err)
	}
	return created, nil
}

// Update sends a partial update for id.
func (r *Repo[T]) Update(ctx context.Context, id int64, draft any) (T, error) {
	var updated T
	if err := r.client.Patch(ctx, r.itemPath(id), draft, &updated); err != nil {
		return updated, fmt.Errorf("update %s %d: %w", r.name, id, err)
	}
	return updated, nil
}

func (r *Repo[T]) Delete(ctx context.Context, id int64) error {
	if err := r.client.Delete(ctx, r.itemPath(id), nil); err != nil {
		return fmt.Errorf("delete %s %d: %w", r.name, id, err)
	}
	return nil
}
