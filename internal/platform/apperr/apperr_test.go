package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestKindOf_UnwrapsThroughFmtErrorf(t *testing.T) {
	err := fmt.Errorf("update cat: %w", NotFound("Cat not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "Cat not found", Message(err))
}

func TestKindOf_UnclassifiedIsStoreFailure(t *testing.T) {
	err := errors.New("connection reset")
	assert.Equal(t, KindStore, KindOf(err))
	assert.Equal(t, "internal error", Message(err))
}

func TestStore_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:5432: refused")
	err := Store(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal error", Message(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthenticated: http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindValidation:      http.StatusBadRequest,
		KindNotFound:        http.StatusNotFound,
		KindStore:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}

func TestFromValidation_AggregatesEveryField(t *testing.T) {
	var err error
	err = multierr.Append(err, errors.New("cat_name is required"))
	err = multierr.Append(err, errors.New("weight must be a number"))

	out := FromValidation(err)
	assert.Equal(t, KindValidation, KindOf(out))
	assert.Equal(t, "cat_name is required, weight must be a number", Message(out))

	assert.NoError(t, FromValidation(nil))
}
