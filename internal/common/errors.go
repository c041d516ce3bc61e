package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes, one per family.
const (
	CodeConfig     = "CONFIG_ERROR"
	CodeLLM        = "LLM_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeAgent      = "AGENT_ERROR"
	CodeDatabase   = "DATABASE_ERROR"
	CodeFile       = "FILE_ERROR"
	CodePrompt     = "PROMPT_ERROR"
)

// Family sentinels.
var (
	ErrConfig     = errors.New("configuration error")
	ErrLLM        = errors.New("llm error")
	ErrValidation = errors.New("validation failed")
	ErrAgent      = errors.New("agent error")
	ErrDatabase   = errors.New("database error")
	ErrFile       = errors.New("file handling error")
	ErrPrompt     = errors.New("prompt error")
)

// Leaf sentinels; each wraps its family so errors.Is matches both.
var (
	ErrMissingConfig = fmt.Errorf("%w: missing config", ErrConfig)

	ErrUnsupportedProvider = fmt.Errorf("%w: unsupported provider", ErrLLM)
	ErrLLMConnection       = fmt.Errorf("%w: connection failed", ErrLLM)
	ErrLLMResponse         = fmt.Errorf("%w: invalid response", ErrLLM)
	ErrLLMTimeout          = fmt.Errorf("%w: timeout", ErrLLM)

	ErrStateValidation  = fmt.Errorf("%w: state is invalid", ErrValidation)
	ErrSchemaValidation = fmt.Errorf("%w: schema violation", ErrValidation)

	ErrClassification = fmt.Errorf("%w: classification failed", ErrAgent)
	ErrExtraction     = fmt.Errorf("%w: extraction failed", ErrAgent)
	ErrStorage        = fmt.Errorf("%w: storage failed", ErrAgent)

	ErrDatabaseConnection = fmt.Errorf("%w: connection failed", ErrDatabase)
	ErrQuery              = fmt.Errorf("%w: query failed", ErrDatabase)
	ErrNotFound           = fmt.Errorf("%w: record not found", ErrDatabase)

	ErrFileNotFound        = fmt.Errorf("%w: file not found", ErrFile)
	ErrFileRead            = fmt.Errorf("%w: read failed", ErrFile)
	ErrFileWrite           = fmt.Errorf("%w: write failed", ErrFile)
	ErrUnsupportedFileType = fmt.Errorf("%w: unsupported file type", ErrFile)

	ErrPromptLoad   = fmt.Errorf("%w: load failed", ErrPrompt)
	ErrPromptRender = fmt.Errorf("%w: render failed", ErrPrompt)
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// newLeaf joins the leaf sentinel with the underlying cause so callers can match either.
func newLeaf(code string, leaf error, message string, cause error) *AppError {
	if cause == nil {
		return NewAppError(code, message, leaf)
	}
	return NewAppError(code, message, fmt.Errorf("%w: %w", leaf, cause))
}

func NewConfigError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrConfig
	}
	return NewAppError(CodeConfig, message, cause)
}

func NewStateValidationError(message string) *AppError {
	return NewAppError(CodeValidation, message, ErrStateValidation)
}

func NewSchemaValidationError(message string, cause error) *AppError {
	return newLeaf(CodeValidation, ErrSchemaValidation, message, cause)
}

func NewLLMResponseError(message string, cause error) *AppError {
	return newLeaf(CodeLLM, ErrLLMResponse, message, cause)
}

func NewLLMConnectionError(message string, cause error) *AppError {
	return newLeaf(CodeLLM, ErrLLMConnection, message, cause)
}

func NewLLMTimeoutError(message string, cause error) *AppError {
	return newLeaf(CodeLLM, ErrLLMTimeout, message, cause)
}

func NewUnsupportedProviderError(provider string) *AppError {
	return NewAppError(CodeLLM, fmt.Sprintf("unsupported provider %q", provider), ErrUnsupportedProvider)
}

func NewClassificationError(message string, cause error) *AppError {
	return newLeaf(CodeAgent, ErrClassification, message, cause)
}

func NewExtractionError(message string, cause error) *AppError {
	return newLeaf(CodeAgent, ErrExtraction, message, cause)
}

func NewStorageError(message string, cause error) *AppError {
	return newLeaf(CodeAgent, ErrStorage, message, cause)
}

// NewDatabaseError wraps a failed database operation. The original cause stays reachable.
func NewDatabaseError(message string, cause error) *AppError {
	return newLeaf(CodeDatabase, ErrQuery, message, cause)
}

func NewDatabaseConnectionError(message string, cause error) *AppError {
	return newLeaf(CodeDatabase, ErrDatabaseConnection, message, cause)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(CodeDatabase, message, ErrNotFound)
}

func NewFileNotFoundError(path string, cause error) *AppError {
	return newLeaf(CodeFile, ErrFileNotFound, "file not found: "+path, cause)
}

func NewFileReadError(path string, cause error) *AppError {
	return newLeaf(CodeFile, ErrFileRead, "failed to read file: "+path, cause)
}

func NewFileWriteError(path string, cause error) *AppError {
	return newLeaf(CodeFile, ErrFileWrite, "failed to write file: "+path, cause)
}

func NewUnsupportedFileTypeError(path string) *AppError {
	return NewAppError(CodeFile, "unsupported file type for processing: "+path, ErrUnsupportedFileType)
}

func NewPromptLoadError(name string, cause error) *AppError {
	return newLeaf(CodePrompt, ErrPromptLoad, "failed to load prompt "+name, cause)
}

func NewPromptRenderError(name string, cause error) *AppError {
	return newLeaf(CodePrompt, ErrPromptRender, "failed to render prompt "+name, cause)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
