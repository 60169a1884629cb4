package stickystate

import (
	"context"

	"stickybot/db"
)

// PostgresStateStore adapts the Postgres repository to the StateStore
// contract for deployments that keep sticky state in a shared database
// instead of a local file.
type PostgresStateStore struct {
	repo *db.PostgresStickyStateRepository
}

func NewPostgresStateStore(repo *db.PostgresStickyStateRepository) *PostgresStateStore {
	return &PostgresStateStore{repo: repo}
}

func (s *PostgresStateStore) Load(ctx context.Context) (map[string]string, error) {
	return s.repo.LoadMapping(ctx)
}

func (s *PostgresStateStore) Save(ctx context.Context, mapping map[string]string) error {
	return s.repo.SaveMapping(ctx, mapping)
}
