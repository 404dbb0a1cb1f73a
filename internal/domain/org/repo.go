package org

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Principal, error)
	CreateOrganization(ctx context.Context, p *Principal) error
	EnsureAdmin(ctx context.Context, id string) error
	IsOrganization(ctx context.Context, id string) (bool, error)
	IsAdmin(ctx context.Context, id string) (bool, error)
	ListOrganizations(ctx context.Context, limit, offset int) ([]*Principal, int, error)
}
