package pipeline

import (
	"fmt"
	"slices"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

// DefaultRoutes sends each label to its own extractor.
func DefaultRoutes() map[constants.DocumentType]workflow.Stage {
	return map[constants.DocumentType]workflow.Stage{
		constants.Invoice: workflow.StageInvoiceExtractor,
		constants.Note:    workflow.StageNoteExtractor,
		constants.Result:  workflow.StageResultExtractor,
	}
}

// Graph is the fixed processing shape: classification fans out to exactly one
// extractor per label and every extractor converges on storage.
type Graph struct {
	routes     map[constants.DocumentType]workflow.Stage
	extractors map[workflow.Stage]ExtractStage
	edges      map[workflow.Stage][]workflow.Stage
}

// NewGraph checks the routing table against the label enum and the registered extractors.
// A label without a route, a route to a missing extractor or an extractor nothing routes to
// is a construction error.
func NewGraph(routes map[constants.DocumentType]workflow.Stage, extractors ...ExtractStage) (*Graph, error) {
	g := &Graph{
		routes:     make(map[constants.DocumentType]workflow.Stage, len(routes)),
		extractors: make(map[workflow.Stage]ExtractStage, len(extractors)),
		edges:      make(map[workflow.Stage][]workflow.Stage),
	}
	for _, x := range extractors {
		st := x.Stage()
		if !st.IsExtractor() {
			return nil, graphError("%q is not an extraction stage", st)
		}
		if _, dup := g.extractors[st]; dup {
			return nil, graphError("extractor for %q registered twice", st)
		}
		g.extractors[st] = x
	}

	for label, st := range routes {
		if _, ok := constants.ParseDocumentType(string(label)); !ok {
			return nil, graphError("route for unknown label %q", label)
		}
		g.routes[label] = st
	}

	for _, label := range constants.DocumentTypes() {
		st, ok := g.routes[label]
		if !ok {
			return nil, graphError("label %q has no route", label)
		}
		if handled, _ := st.Label(); handled != label {
			return nil, graphError("label %q routed to %q", label, st)
		}
		if _, ok := g.extractors[st]; !ok {
			return nil, graphError("label %q routed to %q but no extractor is registered", label, st)
		}
		if !slices.Contains(g.edges[workflow.StageClassification], st) {
			g.edges[workflow.StageClassification] = append(g.edges[workflow.StageClassification], st)
		}
		g.edges[st] = []workflow.Stage{workflow.StageStorage}
	}

	for st := range g.extractors {
		if _, reachable := g.edges[st]; !reachable {
			return nil, graphError("extractor %q is unreachable", st)
		}
	}
	slices.Sort(g.edges[workflow.StageClassification])
	return g, nil
}

// Route maps a classification label onto its extraction stage.
func (g *Graph) Route(label constants.DocumentType) (workflow.Stage, error) {
	st, ok := g.routes[label]
	if !ok {
		return "", common.NewStateValidationError(fmt.Sprintf("no route for label %q", label))
	}
	return st, nil
}

// Extractor returns the node registered for stage.
func (g *Graph) Extractor(stage workflow.Stage) (ExtractStage, bool) {
	x, ok := g.extractors[stage]
	return x, ok
}

// Successors lists the outgoing edges of stage. Storage has none.
func (g *Graph) Successors(stage workflow.Stage) []workflow.Stage {
	return slices.Clone(g.edges[stage])
}

func graphError(format string, args ...any) error {
	return common.NewConfigError("invalid processing graph: "+fmt.Sprintf(format, args...), nil)
}
