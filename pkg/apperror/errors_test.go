package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	cause := errors.New("database error")
	e := Wrap(cause, CodeInternal, "failed to save todo")

	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, "failed to save todo: database error", e.Error())
	assert.ErrorIs(t, e, cause)
	assert.Nil(t, Wrap(nil, CodeInternal, "nothing"))
}

func TestIsByCode(t *testing.T) {
	err := fmt.Errorf("refresh: %w", Unauthorized("Token has expired"))

	assert.ErrorIs(t, err, Unauthorized(""))
	assert.NotErrorIs(t, err, Conflict(""))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:     http.StatusNotFound,
		CodeValidation:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeConflict:     http.StatusConflict,
		CodeInternal:     http.StatusInternalServerError,
		Code("ODD"):      http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, New(code, "x").HTTPStatus(), code)
	}
	var nilErr *Error
	assert.Equal(t, http.StatusOK, nilErr.HTTPStatus())
}

func TestFromHidesInternalDetail(t *testing.T) {
	e := From(errors.New("pq: connection refused"))

	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, InternalMessage, e.ClientMessage())

	c := From(Conflict("row changed"))
	assert.Equal(t, "row changed", c.ClientMessage())
	assert.Nil(t, From(nil))
}
