package decompose

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/ltikhonov/primordia/internal/coherence"
	"github.com/ltikhonov/primordia/internal/model"
)

// Linked decomposes graph-shaped data: {nodes,edges} or
// {vertices,links} objects, or a flat subject-predicate-object triple
// list. All input forms normalize to one node/edge model before factor
// extraction, so recompose always yields the {nodes,edges} shape.
//
// Graph traversal is iterative throughout; adversarially deep or
// cyclic graphs cannot exhaust the stack.
type Linked struct{}

// NewLinked returns the linked-data algorithm.
func NewLinked() *Linked { return &Linked{} }

func (a *Linked) Domain() model.Domain { return model.DomainLinked }

type graphNode struct {
	id    string
	attrs map[string]any
}

type graphEdge struct {
	source string
	target string
	label  string
	attrs  map[string]any
}

type graph struct {
	nodes []graphNode
	edges []graphEdge
	meta  map[string]any
}

func (a *Linked) Decompose(input any) (*model.Decomposition, error) {
	g, err := parseGraph(input)
	if err != nil {
		return nil, err
	}

	directed := g.directed()
	cyclic := g.cyclic()
	components := g.components()

	factors := []model.PrimeFactor{
		model.NewFactor("structure", map[string]any{
			"nodeCount": float64(len(g.nodes)),
			"edgeCount": float64(len(g.edges)),
			"directed":  directed,
			"cyclic":    cyclic,
		}, model.DomainLinked),
	}

	for _, n := range g.nodes {
		value := map[string]any{"id": n.id}
		if len(n.attrs) > 0 {
			value["attributes"] = n.attrs
		}
		factors = append(factors, model.NewFactor("node:"+n.id, value, model.DomainLinked))
	}
	for i, e := range g.edges {
		value := map[string]any{
			"index":  float64(i),
			"source": e.source,
			"target": e.target,
		}
		if e.label != "" {
			value["label"] = e.label
		}
		if len(e.attrs) > 0 {
			value["attributes"] = e.attrs
		}
		factors = append(factors, model.NewFactor(fmt.Sprintf("edge:%d", i), value, model.DomainLinked))
	}
	if len(g.meta) > 0 {
		factors = append(factors, model.NewFactor("metadata", g.meta, model.DomainLinked))
	}

	sizes := make([]any, len(components))
	for i, s := range components {
		sizes[i] = float64(s)
	}
	factors = append(factors, model.NewFactor("connectivity", map[string]any{
		"componentCount": float64(len(components)),
		"componentSizes": sizes,
	}, model.DomainLinked))

	if hubs, maxDeg, avgDeg := g.hubs(); len(hubs) > 0 {
		ids := make([]any, len(hubs))
		for i, h := range hubs {
			ids[i] = h
		}
		factors = append(factors, model.NewFactor("centrality", map[string]any{
			"hubs":          ids,
			"maxDegree":     float64(maxDeg),
			"averageDegree": avgDeg,
		}, model.DomainLinked))
	}

	return &model.Decomposition{
		Factors:            factors,
		Method:             model.MethodTag(model.DomainLinked),
		UniquenessProofRef: uniquenessRef(factors),
	}, nil
}

// Recompose rebuilds the normalized {nodes,edges} form. Inputs that
// arrived as vertices/links aliases or triple lists come back in this
// shape; the inversion is structural, not byte-level.
func (a *Linked) Recompose(d *model.Decomposition) (any, error) {
	if !methodMatches(d, model.DomainLinked) {
		return nil, invalidDecompositionf("method %q is not a linked-data decomposition", d.Method)
	}
	if _, err := requireFactor(d, "structure"); err != nil {
		return nil, err
	}

	nodes := make([]any, 0)
	for _, f := range d.FactorsWithPrefix("node:") {
		m := f.ValueMap()
		node := map[string]any{"id": m["id"]}
		if attrs, ok := m["attributes"].(map[string]any); ok {
			for k, v := range attrs {
				node[k] = v
			}
		}
		nodes = append(nodes, node)
	}

	edgeFactors := d.FactorsWithPrefix("edge:")
	sort.SliceStable(edgeFactors, func(i, j int) bool {
		li, _ := asNumber(edgeFactors[i].ValueMap()["index"])
		lj, _ := asNumber(edgeFactors[j].ValueMap()["index"])
		return li < lj
	})
	edges := make([]any, 0)
	for _, f := range edgeFactors {
		m := f.ValueMap()
		edge := map[string]any{"source": m["source"], "target": m["target"]}
		if label, ok := m["label"].(string); ok && label != "" {
			edge["label"] = label
		}
		if attrs, ok := m["attributes"].(map[string]any); ok {
			for k, v := range attrs {
				if k != "source" && k != "target" && k != "label" {
					edge[k] = v
				}
			}
		}
		edges = append(edges, edge)
	}

	out := map[string]any{"nodes": nodes, "edges": edges}
	if f := d.Factor("metadata"); f != nil {
		out["metadata"] = f.ValueMap()
	}
	return out, nil
}

// Canonical renumbers nodes to position-stable n0, n1, ... ids and
// remaps edges accordingly; node attributes are dropped from the
// canonical form. Metrics are recomputed from the rebuilt graph rather
// than trusted from factor payloads.
func (a *Linked) Canonical(d *model.Decomposition) (*model.CanonicalRepresentation, error) {
	raw, err := a.Recompose(d)
	if err != nil {
		return nil, err
	}
	g, err := parseGraph(raw)
	if err != nil {
		return nil, invalidDecompositionf("factors do not describe a graph: %v", err)
	}

	rename := make(map[string]string, len(g.nodes))
	nodeIDs := make([]any, len(g.nodes))
	for i, n := range g.nodes {
		id := "n" + strconv.Itoa(i)
		rename[n.id] = id
		nodeIDs[i] = id
	}
	edges := make([]any, len(g.edges))
	for i, e := range g.edges {
		edge := map[string]any{
			"source": rename[e.source],
			"target": rename[e.target],
		}
		if e.label != "" {
			edge["label"] = e.label
		}
		edges[i] = edge
	}
	value := normalizeValue(map[string]any{"nodes": nodeIDs, "edges": edges})

	return &model.CanonicalRepresentation{
		Kind:               string(model.DomainLinked),
		Value:              value,
		CoherenceNorm:      graphNorm(g),
		MinimalityProofRef: minimalityRef(value),
	}, nil
}

// graphNorm blends connectivity, edge density and acyclicity. An empty
// graph scores 1.0 by convention.
func graphNorm(g *graph) float64 {
	n := len(g.nodes)
	if n == 0 {
		return 1.0
	}
	componentTerm := 1.0 / float64(len(g.components()))

	densityTerm := 1.0
	if maxPossible := n * (n - 1) / 2; maxPossible > 0 {
		densityTerm = float64(len(g.edges)) / float64(maxPossible)
		if densityTerm > 1 {
			densityTerm = 1
		}
	}

	cycleTerm := 1.0
	if g.cyclic() {
		cycleTerm = 0.7
	}

	return coherence.Clamp01(0.4*componentTerm + 0.3*densityTerm + 0.3*cycleTerm)
}

// parseGraph normalizes any accepted input form into the internal
// node/edge model. Edge endpoints that were never declared as nodes are
// appended as bare nodes so traversal sees the whole graph.
func parseGraph(input any) (*graph, error) {
	if s, ok := input.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil, invalidInputf("string input is not valid JSON: %v", err)
		}
		input = parsed
	}
	input = normalizeValue(input)

	switch t := input.(type) {
	case []any:
		return parseTriples(t)
	case map[string]any:
		return parseNodeEdgeObject(t)
	default:
		return nil, invalidInputf("linked-data decomposition requires a graph object or triple list, got %T", input)
	}
}

func parseNodeEdgeObject(m map[string]any) (*graph, error) {
	nodesRaw, ok := m["nodes"].([]any)
	if !ok {
		nodesRaw, ok = m["vertices"].([]any)
	}
	if !ok {
		return nil, invalidInputf("graph object has no nodes or vertices list")
	}
	edgesRaw, ok := m["edges"].([]any)
	if !ok {
		edgesRaw, _ = m["links"].([]any)
	}

	g := &graph{}
	seen := make(map[string]bool)
	for i, raw := range nodesRaw {
		node, err := parseNode(raw, i)
		if err != nil {
			return nil, err
		}
		if seen[node.id] {
			continue
		}
		seen[node.id] = true
		g.nodes = append(g.nodes, node)
	}

	for i, raw := range edgesRaw {
		edge, err := parseEdge(raw, i)
		if err != nil {
			return nil, err
		}
		g.edges = append(g.edges, edge)
		for _, endpoint := range []string{edge.source, edge.target} {
			if !seen[endpoint] {
				seen[endpoint] = true
				g.nodes = append(g.nodes, graphNode{id: endpoint})
			}
		}
	}

	if meta, ok := m["metadata"].(map[string]any); ok {
		g.meta = meta
	}
	return g, nil
}

func parseTriples(list []any) (*graph, error) {
	g := &graph{}
	seen := make(map[string]bool)
	addNode := func(id string) {
		if !seen[id] {
			seen[id] = true
			g.nodes = append(g.nodes, graphNode{id: id})
		}
	}

	for i, raw := range list {
		var s, p, o string
		switch t := raw.(type) {
		case []any:
			if len(t) != 3 {
				return nil, invalidInputf("triple %d has %d elements, want 3", i, len(t))
			}
			s, p, o = scalarID(t[0]), scalarID(t[1]), scalarID(t[2])
		case map[string]any:
			var ok bool
			if s, ok = t["subject"].(string); !ok {
				return nil, invalidInputf("triple %d has no subject", i)
			}
			p, _ = t["predicate"].(string)
			if o, ok = t["object"].(string); !ok {
				return nil, invalidInputf("triple %d has no object", i)
			}
		default:
			return nil, invalidInputf("triple %d is %T, want array or object", i, raw)
		}
		addNode(s)
		addNode(o)
		g.edges = append(g.edges, graphEdge{source: s, target: o, label: p})
	}
	return g, nil
}

func parseNode(raw any, index int) (graphNode, error) {
	switch t := raw.(type) {
	case map[string]any:
		id, ok := t["id"]
		var nodeID string
		if ok {
			nodeID = scalarID(id)
		} else {
			nodeID = "node-" + strconv.Itoa(index)
		}
		attrs := make(map[string]any)
		for k, v := range t {
			if k != "id" {
				attrs[k] = v
			}
		}
		if len(attrs) == 0 {
			attrs = nil
		}
		return graphNode{id: nodeID, attrs: attrs}, nil
	case []any:
		return graphNode{}, invalidInputf("node %d is a list; want an id or object", index)
	default:
		return graphNode{id: scalarID(t)}, nil
	}
}

func parseEdge(raw any, index int) (graphEdge, error) {
	switch t := raw.(type) {
	case map[string]any:
		source, ok := firstString(t, "source", "from", "subject")
		if !ok {
			return graphEdge{}, invalidInputf("edge %d has no source", index)
		}
		target, ok := firstString(t, "target", "to", "object")
		if !ok {
			return graphEdge{}, invalidInputf("edge %d has no target", index)
		}
		label, _ := firstString(t, "label", "predicate")
		attrs := make(map[string]any)
		for k, v := range t {
			switch k {
			case "source", "from", "subject", "target", "to", "object", "label", "predicate":
			default:
				attrs[k] = v
			}
		}
		if len(attrs) == 0 {
			attrs = nil
		}
		return graphEdge{source: source, target: target, label: label, attrs: attrs}, nil
	case []any:
		switch len(t) {
		case 2:
			return graphEdge{source: scalarID(t[0]), target: scalarID(t[1])}, nil
		case 3:
			return graphEdge{source: scalarID(t[0]), label: scalarID(t[1]), target: scalarID(t[2])}, nil
		default:
			return graphEdge{}, invalidInputf("edge %d has %d elements, want 2 or 3", index, len(t))
		}
	default:
		return graphEdge{}, invalidInputf("edge %d is %T, want object or pair", index, raw)
	}
}

func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return scalarID(v), true
		}
	}
	return "", false
}

// scalarID renders a scalar as a node identifier.
func scalarID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// directed reports false as soon as any edge has a reverse twin.
func (g *graph) directed() bool {
	pairs := make(map[[2]string]bool, len(g.edges))
	for _, e := range g.edges {
		pairs[[2]string{e.source, e.target}] = true
	}
	for _, e := range g.edges {
		if pairs[[2]string{e.target, e.source}] {
			return false
		}
	}
	return true
}

// cyclic runs an iterative depth-first search over the directed
// adjacency, tracking the in-progress path: an edge back into the
// current path is a cycle.
func (g *graph) cyclic() bool {
	adj := g.adjacency(false)

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))

	type frame struct {
		id   string
		next int
	}
	for _, start := range g.nodes {
		if color[start.id] != white {
			continue
		}
		stack := []frame{{id: start.id}}
		color[start.id] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := adj[top.id]
			if top.next < len(children) {
				child := children[top.next]
				top.next++
				switch color[child] {
				case gray:
					return true
				case white:
					color[child] = gray
					stack = append(stack, frame{id: child})
				}
				continue
			}
			color[top.id] = black
			stack = stack[:len(stack)-1]
		}
	}
	return false
}

// components returns connected-component sizes over the undirected
// view, largest first, via breadth-first search.
func (g *graph) components() []int {
	adj := g.adjacency(true)
	visited := make(map[string]bool, len(g.nodes))

	var sizes []int
	for _, start := range g.nodes {
		if visited[start.id] {
			continue
		}
		size := 0
		queue := []string{start.id}
		visited[start.id] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			size++
			for _, next := range adj[id] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		sizes = append(sizes, size)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return sizes
}

// hubs returns nodes whose degree exceeds 1.5x the average, in node
// order.
func (g *graph) hubs() ([]string, int, float64) {
	if len(g.nodes) == 0 || len(g.edges) == 0 {
		return nil, 0, 0
	}
	degree := make(map[string]int, len(g.nodes))
	for _, e := range g.edges {
		degree[e.source]++
		degree[e.target]++
	}
	avg := 2 * float64(len(g.edges)) / float64(len(g.nodes))

	var hubs []string
	maxDeg := 0
	for _, n := range g.nodes {
		d := degree[n.id]
		if d > maxDeg {
			maxDeg = d
		}
		if float64(d) > 1.5*avg {
			hubs = append(hubs, n.id)
		}
	}
	return hubs, maxDeg, avg
}

// adjacency builds the id -> neighbor list map; undirected mode adds
// the reverse of every edge.
func (g *graph) adjacency(undirected bool) map[string][]string {
	adj := make(map[string][]string, len(g.nodes))
	for _, e := range g.edges {
		adj[e.source] = append(adj[e.source], e.target)
		if undirected {
			adj[e.target] = append(adj[e.target], e.source)
		}
	}
	return adj
}
