package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{notFoundf("project %d not found", 7), "not_found"},
		{fmt.Errorf("book: %w", invalidf("duration must be positive")), "invalid_request"},
		{forbiddenf("project PRJ-2026-00001 is COMPLETED"), "forbidden"},
		{fmt.Errorf("%w: machine LASER9", ErrNotFound), "not_found"},
		{errors.New("connection reset"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}

func TestKindErrorKeepsMessage(t *testing.T) {
	err := invalidf("unknown surcharge type %q", "MITTAG")
	assert.Equal(t, `unknown surcharge type "MITTAG"`, err.Error())
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "PRJ-2026-00001", formatDocumentNumber(DocTypeProject, 2026, 1))
	assert.Equal(t, "RE-2026-123456", formatDocumentNumber(DocTypeInvoice, 2026, 123456))
}
