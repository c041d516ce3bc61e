package workflow

import "github.com/joseph-ayodele/document-assistant/constants"

// Stage names a node in the processing graph.
type Stage string

const (
	StageClassification   Stage = "classification"
	StageInvoiceExtractor Stage = "invoice-extractor"
	StageNoteExtractor    Stage = "note-extractor"
	StageResultExtractor  Stage = "result-extractor"
	StageStorage          Stage = "storage"
)

var extractorLabels = map[Stage]constants.DocumentType{
	StageInvoiceExtractor: constants.Invoice,
	StageNoteExtractor:    constants.Note,
	StageResultExtractor:  constants.Result,
}

// ExtractorStages lists the extraction stages in label order.
func ExtractorStages() []Stage {
	return []Stage{StageInvoiceExtractor, StageNoteExtractor, StageResultExtractor}
}

// Label reports which document type an extraction stage handles.
func (s Stage) Label() (constants.DocumentType, bool) {
	l, ok := extractorLabels[s]
	return l, ok
}

func (s Stage) IsExtractor() bool {
	_, ok := extractorLabels[s]
	return ok
}

// Prompts maps each LLM-backed stage to its system prompt.
type Prompts map[Stage]string

func (p Prompts) For(stage Stage) string {
	if p == nil {
		return ""
	}
	return p[stage]
}
