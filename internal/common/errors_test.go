package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeafSentinelsWrapFamilies(t *testing.T) {
	tests := []struct {
		leaf, family error
	}{
		{ErrMissingConfig, ErrConfig},
		{ErrUnsupportedProvider, ErrLLM},
		{ErrLLMConnection, ErrLLM},
		{ErrLLMResponse, ErrLLM},
		{ErrLLMTimeout, ErrLLM},
		{ErrStateValidation, ErrValidation},
		{ErrSchemaValidation, ErrValidation},
		{ErrClassification, ErrAgent},
		{ErrExtraction, ErrAgent},
		{ErrStorage, ErrAgent},
		{ErrDatabaseConnection, ErrDatabase},
		{ErrQuery, ErrDatabase},
		{ErrNotFound, ErrDatabase},
		{ErrFileNotFound, ErrFile},
		{ErrFileRead, ErrFile},
		{ErrFileWrite, ErrFile},
		{ErrUnsupportedFileType, ErrFile},
		{ErrPromptLoad, ErrPrompt},
		{ErrPromptRender, ErrPrompt},
	}
	for _, tt := range tests {
		t.Run(tt.leaf.Error(), func(t *testing.T) {
			assert.ErrorIs(t, tt.leaf, tt.family)
		})
	}
}

func TestConstructorsKeepCause(t *testing.T) {
	cause := errors.New("disk on fire")

	err := NewDatabaseError("insert document", cause)
	assert.ErrorIs(t, err, ErrQuery)
	assert.ErrorIs(t, err, ErrDatabase)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeDatabase, err.Code)

	var appErr *AppError
	wrapped := fmt.Errorf("outer: %w", NewLLMResponseError("bad json", cause))
	assert.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, CodeLLM, appErr.Code)
	assert.ErrorIs(t, wrapped, ErrLLMResponse)

	nf := NewNotFoundError("document 3")
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.Contains(t, nf.Error(), "document 3")

	assert.Nil(t, WrapError(nil, "x"))
	assert.ErrorIs(t, WrapError(cause, "x"), cause)
}
