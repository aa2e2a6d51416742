// Package repository holds the read-side queries and simple writes shared by
// services and handlers. Multi-row transactional mutations (bid commits,
// settlement) live in the services that own them.
package repository

import (
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying handle for services that run their own
// transactions.
func (r *Repository) DB() *gorm.DB {
	return r.db
}
