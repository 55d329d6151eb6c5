package db_test

import (
	"context"
	"testing"

	"procurement-backoffice/internal/db"

	"github.com/stretchr/testify/assert"
)

func TestNewPool_RejectsMissingOrMalformedURL(t *testing.T) {
	_, err := db.NewPool(context.Background(), "")
	assert.ErrorIs(t, err, db.ErrNoDatabaseURL)

	_, err = db.NewPool(context.Background(), "postgres://%zz")
	assert.ErrorContains(t, err, "unable to parse DATABASE_URL")
}
