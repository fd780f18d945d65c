package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("create order: %w", Business("kitchen closed"))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindBusiness, kind)
	assert.True(t, IsBusiness(err))
	assert.False(t, IsValidation(err))
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
	assert.False(t, IsTransport(errors.New("boom")))
}

func TestTransport_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transport("ledger unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "ledger unreachable: connection refused", err.Error())
}

func TestError_MessageOnly(t *testing.T) {
	assert.Equal(t, ErrMsgCartEmpty, Validation(ErrMsgCartEmpty).Error())
	assert.Equal(t, "bad 3", Validationf("bad %d", 3).Error())
	assert.Equal(t, "VALIDATION", KindValidation.String())
	assert.Equal(t, "UNKNOWN", Kind(42).String())
}
