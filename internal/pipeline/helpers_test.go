package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-assistant/internal/llm"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

// scriptedLLM answers by schema name and counts calls per schema. With validate set it
// runs answers through the same schema validation the real providers apply.
type scriptedLLM struct {
	validate  bool
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     map[string]int
	requests  []llm.Request
}

func newScriptedLLM(responses map[string]string) *scriptedLLM {
	return &scriptedLLM{responses: responses, errs: map[string]error{}, calls: map[string]int{}}
}

func (s *scriptedLLM) Call(_ context.Context, req llm.Request) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[req.Schema.Name]++
	s.requests = append(s.requests, req)
	if err, ok := s.errs[req.Schema.Name]; ok {
		return nil, err
	}
	resp, ok := s.responses[req.Schema.Name]
	if !ok {
		return nil, errors.New("no scripted response for " + req.Schema.Name)
	}
	if s.validate {
		return llm.ValidateResponse(req.Schema, []byte(resp), nil)
	}
	return json.RawMessage(resp), nil
}

func (s *scriptedLLM) count(schema string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[schema]
}

const (
	classifyInvoice = `{"label":"invoice","confidence":{"level":"high","explanation":"shows a total"}}`
	classifyNote    = `{"label":"note","confidence":{"level":"medium","explanation":"personal memo"}}`
	classifyResult  = `{"label":"result","confidence":{"level":"low","explanation":"lab values"}}`

	invoiceGP = `{"type":"doctor-receipt","price":120.0,"date":"2023-10-01","description":"GP visit","logs":[{"log":"Extracted","date":"2023-10-01"}]}`
	noteMemo  = `{"author":"Ada","date":"2024-02-03","content":"buy milk","tags":["home","todo","home"]}`
	resultLab = `{"patient_name":"Bob","test_results":[{"test_name":"HbA1c","value":"5.4","unit":"%"}]}`
)

var testPrompts = workflow.Prompts{
	workflow.StageClassification:   "classify: {text}",
	workflow.StageInvoiceExtractor: "extract invoice",
	workflow.StageNoteExtractor:    "extract note",
	workflow.StageResultExtractor:  "extract result",
}

func writeInbox(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}
