package workflow

import (
	"fmt"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
)

// Base carries the fields every stage sees. FilePath is empty when the text did
// not come from a file; DocumentID is set only by storage.
type Base struct {
	Text       string
	FilePath   string
	DocumentID *int64
}

// ClassificationState is the entry state of a run.
type ClassificationState struct {
	Base
	Prompt string
	Result *Classification
}

func NewClassificationState(text, filePath string, prompts Prompts) ClassificationState {
	return ClassificationState{
		Base:   Base{Text: text, FilePath: filePath},
		Prompt: prompts.For(StageClassification),
	}
}

// WithPrompt returns a copy using p, or the catalogue prompt when p is empty.
func (s ClassificationState) WithPrompt(p string, prompts Prompts) ClassificationState {
	if p == "" {
		p = prompts.For(StageClassification)
	}
	s.Prompt = p
	return s
}

func (s ClassificationState) WithResult(c Classification) ClassificationState {
	s.Result = &c
	return s
}

// ToStorage hands the state to storage without an extraction result.
func (s ClassificationState) ToStorage() StorageState {
	st := StorageState{base: s.Base}
	if s.Result != nil {
		c := *s.Result
		st.classification = &c
	}
	return st
}

// ExtractionState always carries a classification; use NewExtractionState.
type ExtractionState struct {
	base           Base
	stage          Stage
	prompt         string
	classification Classification
	result         Extraction
}

// NewExtractionState converts a classified state for the given extractor stage.
func NewExtractionState(cs ClassificationState, stage Stage, prompts Prompts) (ExtractionState, error) {
	if cs.Result == nil {
		return ExtractionState{}, common.NewStateValidationError("extraction state requires a classification result")
	}
	if !stage.IsExtractor() {
		return ExtractionState{}, common.NewStateValidationError(fmt.Sprintf("stage %q is not an extraction stage", stage))
	}
	return ExtractionState{
		base:           cs.Base,
		stage:          stage,
		prompt:         prompts.For(stage),
		classification: *cs.Result,
	}, nil
}

// Valid is false for the zero value.
func (s ExtractionState) Valid() bool { return s.stage != "" }

func (s ExtractionState) Base() Base                     { return s.base }
func (s ExtractionState) Text() string                   { return s.base.Text }
func (s ExtractionState) FilePath() string               { return s.base.FilePath }
func (s ExtractionState) Stage() Stage                   { return s.stage }
func (s ExtractionState) Prompt() string                 { return s.prompt }
func (s ExtractionState) Classification() Classification { return s.classification }
func (s ExtractionState) Extraction() Extraction         { return s.result }

func (s ExtractionState) Invoice() *InvoiceExtraction { return asInvoice(s.result) }
func (s ExtractionState) Note() *NoteExtraction       { return asNote(s.result) }
func (s ExtractionState) Result() *ResultExtraction   { return asResult(s.result) }

func (s ExtractionState) WithPrompt(p string) ExtractionState {
	if p != "" {
		s.prompt = p
	}
	return s
}

// WithExtraction attaches e. The variant must match the stage.
func (s ExtractionState) WithExtraction(e Extraction) (ExtractionState, error) {
	if e == nil {
		return s, common.NewStateValidationError("extraction result is nil")
	}
	want, _ := s.stage.Label()
	if e.Label() != want {
		return s, common.NewStateValidationError(
			fmt.Sprintf("%s result cannot be attached at stage %q", e.Label(), s.stage))
	}
	s.result = e
	return s, nil
}

func (s ExtractionState) ToStorage() StorageState {
	c := s.classification
	return StorageState{base: s.base, classification: &c, extraction: s.result}
}

// StorageState is the terminal state; storage fills in the document id.
type StorageState struct {
	base           Base
	classification *Classification
	extraction     Extraction
	outcome        constants.StorageOutcome
}

// NewStorageState builds a storage state directly, e.g. for reprocessing stored text.
func NewStorageState(base Base, classification *Classification, extraction Extraction) StorageState {
	return StorageState{base: base, classification: classification, extraction: extraction}
}

func (s StorageState) Base() Base                      { return s.base }
func (s StorageState) Text() string                    { return s.base.Text }
func (s StorageState) FilePath() string                { return s.base.FilePath }
func (s StorageState) Classification() *Classification { return s.classification }
func (s StorageState) Extraction() Extraction          { return s.extraction }
func (s StorageState) Outcome() constants.StorageOutcome {
	return s.outcome
}

func (s StorageState) DocumentID() (int64, bool) {
	if s.base.DocumentID == nil {
		return 0, false
	}
	return *s.base.DocumentID, true
}

func (s StorageState) Invoice() *InvoiceExtraction { return asInvoice(s.extraction) }
func (s StorageState) Note() *NoteExtraction       { return asNote(s.extraction) }
func (s StorageState) Result() *ResultExtraction   { return asResult(s.extraction) }

// FilenameParts resolves the (date, type) fragments for the canonical name.
// ok is false when the defaults had to be used.
func (s StorageState) FilenameParts() (date, docType string, ok bool) {
	if s.extraction != nil {
		date, docType = s.extraction.FilenameParts()
		return date, docType, true
	}
	var label constants.DocumentType
	if s.classification != nil {
		label = s.classification.Label
	}
	date, docType = DefaultFilenameParts(label)
	return date, docType, false
}

func (s StorageState) WithDocumentID(id int64, outcome constants.StorageOutcome) StorageState {
	s.base.DocumentID = &id
	s.outcome = outcome
	return s
}

func (s StorageState) WithOutcome(outcome constants.StorageOutcome) StorageState {
	s.outcome = outcome
	return s
}

func asInvoice(e Extraction) *InvoiceExtraction {
	v, _ := e.(*InvoiceExtraction)
	return v
}

func asNote(e Extraction) *NoteExtraction {
	v, _ := e.(*NoteExtraction)
	return v
}

func asResult(e Extraction) *ResultExtraction {
	v, _ := e.(*ResultExtraction)
	return v
}
