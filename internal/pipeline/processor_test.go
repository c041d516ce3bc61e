package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/files"
	"github.com/joseph-ayodele/document-assistant/internal/llm"
	"github.com/joseph-ayodele/document-assistant/internal/reader"
	"github.com/joseph-ayodele/document-assistant/internal/repository"
	"github.com/joseph-ayodele/document-assistant/internal/testutil"
)

type harness struct {
	llm         *scriptedLLM
	docs        repository.DocumentRepository
	extractions repository.ExtractionRepository
	proc        *Processor
}

func newHarness(t *testing.T, responses map[string]string) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)
	scripted := newScriptedLLM(responses)
	scripted.validate = true
	h := &harness{
		llm:         scripted,
		docs:        repository.NewDocumentRepository(db, testutil.Logger()),
		extractions: repository.NewExtractionRepository(db, testutil.Logger()),
	}
	proc, err := Build(Deps{
		LLM:       h.llm,
		Prompts:   testPrompts,
		Documents: h.docs,
		Reader:    reader.NewAuto(nil, nil, reader.NewTextReader(), testutil.Logger()),
		Mover:     files.OSMover{},
		Logger:    testutil.Logger(),
	})
	require.NoError(t, err)
	h.proc = proc
	return h
}

func TestProcessor_ScenarioA_Invoice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, map[string]string{
		"classification":     classifyInvoice,
		"invoice_extraction": invoiceGP,
	})

	path := writeInbox(t, "gp.pdf", "GP visit 120.00")
	out, err := h.proc.Run(ctx, "GP visit 120.00", path)
	require.NoError(t, err)
	id, ok := out.DocumentID()
	require.True(t, ok)
	assert.Equal(t, constants.OutcomeStored, out.Outcome())

	n, err := h.docs.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	inv, err := h.extractions.GetInvoice(ctx, id)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, inv.Price, 1e-9)
	assert.Equal(t, string(constants.DoctorReceipt), inv.Type)
	require.Len(t, inv.Logs, 1)
	assert.Equal(t, "Extracted", inv.Logs[0].Log)
	assert.Equal(t, "2023-10-01", inv.Logs[0].Date)

	invoices, err := h.extractions.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestProcessor_ScenarioB_SameContentTwice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, map[string]string{
		"classification":     classifyInvoice,
		"invoice_extraction": invoiceGP,
	})

	first, err := h.proc.Run(ctx, "receipt", writeInbox(t, "r1.pdf", "identical"))
	require.NoError(t, err)
	second, err := h.proc.Run(ctx, "receipt", writeInbox(t, "r2.pdf", "identical"))
	require.NoError(t, err)

	id1, _ := first.DocumentID()
	id2, _ := second.DocumentID()
	assert.Equal(t, id1, id2)
	assert.Equal(t, constants.OutcomeDeduplicated, second.Outcome())

	n, err := h.docs.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessor_ScenarioC_NoteRoutesOnlyToNoteExtractor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, map[string]string{
		"classification":  classifyNote,
		"note_extraction": noteMemo,
	})

	out, err := h.proc.Run(ctx, "buy milk", writeInbox(t, "memo.txt", "buy milk"))
	require.NoError(t, err)

	assert.Equal(t, 1, h.llm.count("note_extraction"))
	assert.Zero(t, h.llm.count("invoice_extraction"))
	assert.Zero(t, h.llm.count("result_extraction"))

	require.NotNil(t, out.Note())
	assert.Nil(t, out.Invoice())
	assert.Nil(t, out.Result())

	id, _ := out.DocumentID()
	note, err := h.extractions.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", note.Content)
	assert.Len(t, note.Tags, 2)

	doc, err := h.docs.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, doc.RenamedPath)
	assert.Contains(t, *doc.RenamedPath, "_note_2024-02-03_")
}

func TestProcessor_ResultDocument(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, map[string]string{
		"classification":    classifyResult,
		"result_extraction": resultLab,
	})

	out, err := h.proc.Run(ctx, "HbA1c 5.4%", writeInbox(t, "lab.pdf", "lab"))
	require.NoError(t, err)
	id, _ := out.DocumentID()

	res, err := h.extractions.GetResult(ctx, id)
	require.NoError(t, err)
	require.Len(t, res.TestResults, 1)
	require.NotNil(t, res.TestResults[0].Unit)
	assert.Equal(t, "%", *res.TestResults[0].Unit)
}

func TestProcessor_WithoutFilePathSkipsStorage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, map[string]string{
		"classification":  classifyNote,
		"note_extraction": noteMemo,
	})

	out, err := h.proc.Run(ctx, "buy milk", "")
	require.NoError(t, err)
	assert.Equal(t, constants.OutcomeSkipped, out.Outcome())
	assert.NotNil(t, out.Note())

	n, err := h.docs.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessor_StageErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("classification", func(t *testing.T) {
		h := newHarness(t, map[string]string{"classification": `{"label":"poem","confidence":{"level":"high","explanation":"x"}}`})
		_, err := h.proc.Run(ctx, "roses are red", writeInbox(t, "p.txt", "roses"))
		assert.ErrorIs(t, err, common.ErrClassification)
		assert.ErrorIs(t, err, common.ErrLLMResponse)
		assert.Zero(t, h.llm.count("note_extraction"))
	})

	t.Run("extraction", func(t *testing.T) {
		h := newHarness(t, map[string]string{"classification": classifyInvoice, "invoice_extraction": `"oops"`})
		path := writeInbox(t, "r.pdf", "x")
		_, err := h.proc.Run(ctx, "receipt", path)
		assert.ErrorIs(t, err, common.ErrExtraction)
		assert.ErrorIs(t, err, common.ErrLLMResponse)

		n, cErr := h.docs.Count(ctx, "")
		require.NoError(t, cErr)
		assert.Zero(t, n)
		assert.FileExists(t, path)
	})

	t.Run("storage", func(t *testing.T) {
		h := newHarness(t, map[string]string{"classification": classifyInvoice, "invoice_extraction": invoiceGP})
		_, err := h.proc.Run(ctx, "receipt", filepath.Join(t.TempDir(), "vanished.pdf"))
		assert.ErrorIs(t, err, common.ErrStorage)
		assert.ErrorIs(t, err, common.ErrFileNotFound)
	})
}

func TestProcessor_ProcessFile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, map[string]string{
		"classification":  classifyNote,
		"note_extraction": noteMemo,
	})

	path := writeInbox(t, "memo.txt", "  remember the milk \n")
	out, err := h.proc.ProcessFile(ctx, path)
	require.NoError(t, err)
	id, ok := out.DocumentID()
	require.True(t, ok)

	doc, err := h.docs.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, doc.TextContent)
	assert.Equal(t, "remember the milk", *doc.TextContent)
	assert.NoFileExists(t, path)

	_, err = h.proc.ProcessFile(ctx, filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, common.ErrFileNotFound)

	unsupported := writeInbox(t, "sheet.docx", "x")
	_, err = h.proc.ProcessFile(ctx, unsupported)
	assert.ErrorIs(t, err, common.ErrUnsupportedFileType)
	_, statErr := os.Stat(unsupported)
	assert.NoError(t, statErr)
}

func TestProcessor_RunIDIsSharedAcrossStages(t *testing.T) {
	scripted := newScriptedLLM(map[string]string{
		"classification":  classifyNote,
		"note_extraction": noteMemo,
	})
	var seen []string
	capture := llm.CapabilityFunc(func(ctx context.Context, req llm.Request) (json.RawMessage, error) {
		seen = append(seen, common.RunIDFromContext(ctx))
		return scripted.Call(ctx, req)
	})
	proc, err := Build(Deps{LLM: capture, Prompts: testPrompts, Logger: testutil.Logger()})
	require.NoError(t, err)

	_, err = proc.Run(common.WithRunID(context.Background(), "job-7"), "buy milk", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"job-7", "job-7"}, seen)

	seen = nil
	_, err = proc.Run(context.Background(), "buy milk", "")
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0])
	assert.Equal(t, seen[0], seen[1])
}
