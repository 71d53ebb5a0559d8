package faults

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"configuration", Configf("standards", "housing.ZZ", "unknown state"), KindConfiguration},
		{"wrapped configuration", fmt.Errorf("evaluating: %w", Configf("standards", "k", "r")), KindConfiguration},
		{"extraction", &ExtractionError{Document: "a.pdf", Err: errors.New("boom")}, KindExtraction},
		{"validation", ValidationError{Locator: "a:p1:l2", Reason: "dup"}, KindValidation},
		{"cancelled", fmt.Errorf("%w: %w", ErrCancelled, context.Canceled), KindCancelled},
		{"other", errors.New("plain"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestExtractionErrorUnwrapsCause(t *testing.T) {
	err := &ExtractionError{Document: "jan.pdf", Page: 3, Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "extracting jan.pdf page 3: context deadline exceeded", err.Error())
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := Configf("standards", "housing.ZZ", "unknown state %q", "ZZ")

	assert.Equal(t, `configuration error in standards: housing.ZZ: unknown state "ZZ"`, err.Error())
	assert.False(t, KindConfiguration.Recoverable())
	assert.True(t, KindExtraction.Recoverable())
}
