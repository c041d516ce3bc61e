package constants

import (
	"strings"
)

// DocumentType is the classification label assigned to a document.
type DocumentType string

const (
	Invoice DocumentType = "invoice"
	Note    DocumentType = "note"
	Result  DocumentType = "result"
)

var allDocumentTypes = []DocumentType{
	Invoice,
	Note,
	Result,
}

// DocumentTypes returns every known label in declaration order.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(allDocumentTypes))
	copy(out, allDocumentTypes)
	return out
}

func DocumentTypeStrings() []string {
	result := make([]string, len(allDocumentTypes))
	for i, t := range allDocumentTypes {
		result[i] = string(t)
	}
	return result
}

// ParseDocumentType trims and lower-cases input before matching it against the known labels.
func ParseDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, t := range allDocumentTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return "", false
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

var allConfidenceLevels = []ConfidenceLevel{ConfidenceHigh, ConfidenceMedium, ConfidenceLow}

func ConfidenceLevelStrings() []string {
	result := make([]string, len(allConfidenceLevels))
	for i, l := range allConfidenceLevels {
		result[i] = string(l)
	}
	return result
}

func ParseConfidenceLevel(input string) (ConfidenceLevel, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, l := range allConfidenceLevels {
		if normalized == string(l) {
			return l, true
		}
	}
	return "", false
}

// InvoiceType is the kind of receipt an invoice extraction describes.
type InvoiceType string

const (
	DoctorReceipt     InvoiceType = "doctor-receipt"
	StationeryReceipt InvoiceType = "stationery-receipt"
	FlatReceipt       InvoiceType = "flat-receipt"
	OtherReceipt      InvoiceType = "other"
)

var allInvoiceTypes = []InvoiceType{DoctorReceipt, StationeryReceipt, FlatReceipt, OtherReceipt}

func InvoiceTypeStrings() []string {
	result := make([]string, len(allInvoiceTypes))
	for i, t := range allInvoiceTypes {
		result[i] = string(t)
	}
	return result
}

// CanonicalizeInvoiceType maps loose model output onto a known invoice type.
// Unknown input falls back to OtherReceipt and reports false.
func CanonicalizeInvoiceType(input string) (InvoiceType, bool) {
	if input == "" {
		return OtherReceipt, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]InvoiceType{
		"receipt_from_doctor":    DoctorReceipt,
		"doctor_receipt":         DoctorReceipt,
		"doctor":                 DoctorReceipt,
		"receipt_for_stationery": StationeryReceipt,
		"stationery_receipt":     StationeryReceipt,
		"stationery":             StationeryReceipt,
		"receipt_for_flat":       FlatReceipt,
		"flat_receipt":           FlatReceipt,
		"flat":                   FlatReceipt,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	for _, t := range allInvoiceTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return OtherReceipt, false
}
