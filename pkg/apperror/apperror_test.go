package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Status(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{name: "validation", err: Validation("bad"), want: http.StatusBadRequest},
		{name: "not found", err: NotFound("holding"), want: http.StatusNotFound},
		{name: "conflict", err: Conflict("dup"), want: http.StatusConflict},
		{name: "locked", err: New(CodeAccountLocked, "locked"), want: http.StatusLocked},
		{name: "unknown code", err: New(Code("SOMETHING"), "x"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Status())
		})
	}
}

func TestAs_ThroughWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("get holding: %w", Internal("failed to load holding", cause))

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, CodeInternal, appErr.Code)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsCode(err, CodeInternal))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.Equal(t, "holding not found", NotFound("holding").Message)

	_, ok = As(cause)
	assert.False(t, ok)
}
