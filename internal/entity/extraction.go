package entity

type InvoiceExtraction struct {
	ID          int64
	DocumentID  int64
	Type        string
	Price       float64
	Date        string
	Description string
	Notes       *string
	Logs        []InvoiceLog
}

// InvoiceLog entries are ordered by id within their invoice.
type InvoiceLog struct {
	ID                  int64
	InvoiceExtractionID int64
	Log                 string
	Date                string
}

type NoteExtraction struct {
	ID         int64
	DocumentID int64
	Author     *string
	Date       *string
	Content    string
	Tags       []NoteTag
}

type NoteTag struct {
	ID               int64
	NoteExtractionID int64
	Tag              string
}

type ResultExtraction struct {
	ID           int64
	DocumentID   int64
	PatientName  *string
	OverallNotes *string
	TestResults  []TestResult
}

type TestResult struct {
	ID                 int64
	ResultExtractionID int64
	TestName           string
	Value              string
	Unit               *string
	ReferenceRange     *string
	Date               *string
	Notes              *string
}

// ExtractionDetail bundles whichever extraction record a document owns.
type ExtractionDetail struct {
	Document *Document
	Invoice  *InvoiceExtraction
	Note     *NoteExtraction
	Result   *ResultExtraction
}
