package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/testutil"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

type namedStage workflow.Stage

func (n namedStage) Stage() workflow.Stage { return workflow.Stage(n) }

func (n namedStage) Extract(_ context.Context, s workflow.ExtractionState) (workflow.ExtractionState, error) {
	return s, nil
}

func allStages() []ExtractStage {
	return []ExtractStage{
		namedStage(workflow.StageInvoiceExtractor),
		namedStage(workflow.StageNoteExtractor),
		namedStage(workflow.StageResultExtractor),
	}
}

func TestGraph_ExhaustiveRouting(t *testing.T) {
	g, err := NewGraph(DefaultRoutes(), allStages()...)
	require.NoError(t, err)

	seen := map[workflow.Stage]bool{}
	for _, label := range constants.DocumentTypes() {
		st, err := g.Route(label)
		require.NoError(t, err, label)
		assert.True(t, st.IsExtractor())
		assert.False(t, seen[st], "two labels share %s", st)
		seen[st] = true

		_, ok := g.Extractor(st)
		assert.True(t, ok)
		assert.Equal(t, []workflow.Stage{workflow.StageStorage}, g.Successors(st))
	}
	assert.ElementsMatch(t, workflow.ExtractorStages(), g.Successors(workflow.StageClassification))
	assert.Empty(t, g.Successors(workflow.StageStorage))

	_, err = g.Route("recipe")
	assert.ErrorIs(t, err, common.ErrStateValidation)
}

func TestNewGraph_RejectsIncompleteDefinitions(t *testing.T) {
	missingRoute := DefaultRoutes()
	delete(missingRoute, constants.Result)

	crossed := DefaultRoutes()
	crossed[constants.Note] = workflow.StageResultExtractor

	unknownLabel := DefaultRoutes()
	unknownLabel["recipe"] = workflow.StageNoteExtractor

	tests := []struct {
		name       string
		routes     map[constants.DocumentType]workflow.Stage
		extractors []ExtractStage
	}{
		{name: "label without route", routes: missingRoute, extractors: allStages()},
		{name: "route to the wrong extractor", routes: crossed, extractors: allStages()},
		{name: "route for unknown label", routes: unknownLabel, extractors: allStages()},
		{name: "missing extractor", routes: DefaultRoutes(), extractors: allStages()[:2]},
		{name: "duplicate extractor", routes: DefaultRoutes(), extractors: append(allStages(), namedStage(workflow.StageNoteExtractor))},
		{name: "storage is not an extractor", routes: DefaultRoutes(), extractors: append(allStages(), namedStage(workflow.StageStorage))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGraph(tt.routes, tt.extractors...)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, common.ErrConfig)
		})
	}
}

func TestBuild_WiresEveryExtractor(t *testing.T) {
	p, err := Build(Deps{LLM: newScriptedLLM(nil), Prompts: testPrompts, Logger: testutil.Logger()})
	require.NoError(t, err)
	for _, st := range workflow.ExtractorStages() {
		x, ok := p.graph.Extractor(st)
		require.True(t, ok)
		assert.Equal(t, st, x.Stage())
	}
}
