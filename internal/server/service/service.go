// Package service implements the ranking and game-statistics layer on
// top of the storage package.
package service

import (
	"github.com/martius-lab/teamproject-competition-server/internal/server/storage"
)

// Service coordinates user management, rankings, and game queries
type Service struct {
	store     *storage.Store
	jwtSecret []byte
}

// New creates a new service instance
func New(store *storage.Store, jwtSecret []byte) *Service {
	return &Service{
		store:     store,
		jwtSecret: jwtSecret,
	}
}

// StorageHealth reports the storage component status
func (s *Service) StorageHealth() string {
	if err := s.store.Ping(); err != nil {
		return "degraded"
	}
	return "ok"
}

// Close releases the underlying storage
func (s *Service) Close() error {
	return s.store.Close()
}
