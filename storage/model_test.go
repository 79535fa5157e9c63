package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type orderLine struct {
	ID string
}

func (o orderLine) PK() string { return o.ID }

type legacyRecord struct{}

func (l legacyRecord) PK() string   { return "x" }
func (l legacyRecord) Name() string { return "legacy" }

func TestName(t *testing.T) {
	assert.Equal(t, "order_lines", Name(orderLine{}))
	assert.Equal(t, "order_lines", Name(&orderLine{}))
	assert.Equal(t, "order_lines", Name([]orderLine{}))
	assert.Equal(t, "legacy", Name(legacyRecord{}), "Namer should override derived name")
}

func TestValidateReceiver(t *testing.T) {
	var nilModel *orderLine
	assert.ErrorIs(t, ValidateReceiver(nilModel), ErrNilModel)
	assert.NoError(t, ValidateReceiver(&orderLine{}))
}
