package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewHoldRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewHoldRepository(pool)
	assert.NotNil(t, repo)
}
