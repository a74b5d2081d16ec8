package graph

import (
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/dm/meshtop-go/internal/format"
)

// Generate converts decorated telemetry into a rendering-ready Model
// under the given params. Visibility filters apply before any element
// materializes: out-of-mesh nodes and their edges are dropped unless
// ShowOutOfMesh is set, virtual-service markers surface only with
// ShowVirtualServices, and security labels only with ShowSecurity.
//
// Generation is deterministic. Identical DecoratedData and QueryParams
// yield identical node and edge ordering: nodes sort by (parent box,
// kind, id) and edges by (source, target), and every id derives from
// identity fields alone.
func Generate(data DecoratedData, params QueryParams) Model {
	g := newGenerator(params, len(data.Nodes), len(data.Edges))

	for _, n := range data.Nodes {
		g.addTelemetryNode(n)
	}
	for _, e := range data.Edges {
		g.addEdge(e)
	}
	g.reclassifyInjected()
	if params.BoxByCluster || params.BoxByNamespace {
		g.box()
	}
	g.applyLabels()
	g.sortElements()

	log.WithFields(log.Fields{
		"nodes": len(g.nodes),
		"edges": len(g.edges),
	}).Debug("generated graph model")

	return Model{
		Nodes: g.nodes,
		Edges: g.edges,
		Config: Config{
			GraphType: params.GraphType,
			Duration:  params.Duration,
			Timestamp: data.Timestamp,
		},
	}
}

type generator struct {
	params QueryParams

	nodes       []Node
	byID        map[string]int
	wireToModel map[string]string
	injected    map[string]bool

	edges       []Edge
	edgeIndex   map[[2]string]int
	edgeWeights []float64
}

func newGenerator(params QueryParams, nodeCap, edgeCap int) *generator {
	return &generator{
		params:      params,
		nodes:       make([]Node, 0, nodeCap),
		byID:        make(map[string]int, nodeCap),
		wireToModel: make(map[string]string, nodeCap),
		injected:    make(map[string]bool),
		edges:       make([]Edge, 0, edgeCap),
		edgeIndex:   make(map[[2]string]int, edgeCap),
		edgeWeights: make([]float64, 0, edgeCap),
	}
}

func (g *generator) appendNode(n Node) {
	g.byID[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
}

// addTelemetryNode materializes one decorated telemetry node, folding
// duplicates of the same derived id into a single node.
func (g *generator) addTelemetryNode(dn DecoratedNode) {
	raw := dn.Raw
	if raw.IsOutOfMesh && !g.params.ShowOutOfMesh {
		return
	}
	id, kind := nodeID(raw)
	g.wireToModel[raw.ID] = id

	if i, ok := g.byID[id]; ok {
		exist := &g.nodes[i]
		exist.Traffic.Add(dn.Traffic)
		exist.Health = classify(exist.Traffic)
		exist.OutOfMesh = exist.OutOfMesh || raw.IsOutOfMesh
		exist.HasVirtualService = exist.HasVirtualService || (raw.HasVS && g.params.ShowVirtualServices)
		return
	}

	g.appendNode(Node{
		ID:                id,
		Kind:              kind,
		Cluster:           orUnknown(raw.Cluster),
		Namespace:         orUnknown(raw.Namespace),
		Workload:          raw.Workload,
		App:               raw.App,
		Version:           raw.Version,
		Service:           raw.Service,
		Health:            dn.Health,
		Traffic:           dn.Traffic,
		OutOfMesh:         raw.IsOutOfMesh,
		HasVirtualService: raw.HasVS && g.params.ShowVirtualServices,
	})
}

// addEdge resolves an edge's endpoints to model nodes and records it,
// splitting through an injected service node when requested. Edges
// whose endpoints did not materialize are dropped.
func (g *generator) addEdge(dec DecoratedEdge) {
	srcID, okSrc := g.wireToModel[dec.Raw.Source]
	tgtID, okTgt := g.wireToModel[dec.Raw.Target]
	if !okSrc || !okTgt {
		log.WithFields(log.Fields{
			"source": dec.Raw.Source,
			"target": dec.Raw.Target,
		}).Warn("dropping edge with unresolved endpoint")
		return
	}

	if g.params.InjectServiceNodes {
		if svcID, ok := g.injectionTarget(dec, tgtID); ok {
			g.recordEdge(srcID, svcID, dec)
			g.recordEdge(svcID, tgtID, dec)
			svc := &g.nodes[g.byID[svcID]]
			svc.Traffic.Add(dec.Traffic)
			return
		}
	}
	g.recordEdge(srcID, tgtID, dec)
}

// injectionTarget returns the service node an edge routes through,
// creating it on first use. Injection applies only when the edge names
// a destination service and the target is not itself a service node.
func (g *generator) injectionTarget(dec DecoratedEdge, tgtID string) (string, bool) {
	svc := dec.Raw.DestService
	if svc == "" {
		return "", false
	}
	tgt := g.nodes[g.byID[tgtID]]
	if tgt.Kind == KindService {
		return "", false
	}
	ns := dec.Raw.DestServiceNamespace
	if ns == "" {
		ns = tgt.Namespace
	}
	id := serviceNodeID(tgt.Cluster, ns, svc)
	if _, ok := g.byID[id]; !ok {
		g.appendNode(Node{
			ID:        id,
			Kind:      KindService,
			Cluster:   tgt.Cluster,
			Namespace: orUnknown(ns),
			Service:   svc,
		})
		g.injected[id] = true
	}
	return id, true
}

// recordEdge accumulates traffic onto the (source, target) edge,
// creating it on first use. Repeated contributions sum their rates;
// response time and mTLS share average weighted by traffic.
func (g *generator) recordEdge(source, target string, dec DecoratedEdge) {
	key := [2]string{source, target}
	w := dec.Traffic.RequestRate + dec.Traffic.TCPRate
	if i, ok := g.edgeIndex[key]; ok {
		e := &g.edges[i]
		prev := g.edgeWeights[i]
		e.ResponseTime = weightedMean(e.ResponseTime, prev, dec.ResponseTime, w)
		e.MTLSPercent = weightedMean(e.MTLSPercent, prev, dec.MTLSPercent, w)
		e.Traffic.Add(dec.Traffic)
		e.Health = classify(e.Traffic)
		g.edgeWeights[i] += w
		return
	}
	g.edgeIndex[key] = len(g.edges)
	g.edgeWeights = append(g.edgeWeights, w)
	g.edges = append(g.edges, Edge{
		Source:       source,
		Target:       target,
		Traffic:      dec.Traffic,
		Health:       classify(dec.Traffic),
		ResponseTime: dec.ResponseTime,
		MTLSPercent:  dec.MTLSPercent,
	})
}

// reclassifyInjected recomputes health for service nodes created by
// injection once all their inbound traffic has accumulated.
func (g *generator) reclassifyInjected() {
	for id := range g.injected {
		n := &g.nodes[g.byID[id]]
		n.Health = classify(n.Traffic)
	}
}

// box creates grouping nodes per cluster and namespace and assigns
// ordinary nodes their enclosing box. With both flags set, namespace
// boxes nest inside cluster boxes.
func (g *generator) box() {
	count := len(g.nodes)
	for i := 0; i < count; i++ {
		n := g.nodes[i]
		if g.params.BoxByCluster {
			g.ensureBox(clusterBoxID(n.Cluster), BoxCluster, n.Cluster, "", "")
		}
		if g.params.BoxByNamespace {
			parent := ""
			if g.params.BoxByCluster {
				parent = clusterBoxID(n.Cluster)
			}
			g.ensureBox(namespaceBoxID(n.Cluster, n.Namespace), BoxNamespace, n.Cluster, n.Namespace, parent)
		}
	}
	for i := 0; i < count; i++ {
		n := &g.nodes[i]
		if g.params.BoxByNamespace {
			n.Parent = namespaceBoxID(n.Cluster, n.Namespace)
		} else {
			n.Parent = clusterBoxID(n.Cluster)
		}
	}
}

func (g *generator) ensureBox(id string, box BoxType, cluster, namespace, parent string) {
	if _, ok := g.byID[id]; ok {
		return
	}
	g.appendNode(Node{
		ID:        id,
		Kind:      KindBox,
		Box:       box,
		Cluster:   orUnknown(cluster),
		Namespace: namespace,
		Parent:    parent,
	})
}

// applyLabels builds edge label values for the requested modes only.
// Modes without a value for a given edge are omitted.
func (g *generator) applyLabels() {
	if len(g.params.EdgeLabels) == 0 {
		return
	}
	for i := range g.edges {
		e := &g.edges[i]
		labels := make(map[EdgeLabelMode]string, len(g.params.EdgeLabels))
		for _, mode := range g.params.EdgeLabels {
			if v := g.labelValue(e, mode); v != "" {
				labels[mode] = v
			}
		}
		if len(labels) > 0 {
			e.Labels = labels
		}
	}
}

func (g *generator) labelValue(e *Edge, mode EdgeLabelMode) string {
	switch mode {
	case EdgeLabelTrafficRate:
		return rateLabel(e.Traffic, g.params.TrafficRates)
	case EdgeLabelResponseTime:
		if e.ResponseTime <= 0 {
			return ""
		}
		return format.FormatLatency(e.ResponseTime)
	case EdgeLabelSecurity:
		if !g.params.ShowSecurity || e.MTLSPercent <= 0 {
			return ""
		}
		return format.FormatPercent(e.MTLSPercent)
	default:
		return ""
	}
}

// rateLabel combines the requested rate kinds into one composite
// value: request rates sum across http/grpc, tcp throughput appends
// separately.
func rateLabel(t Traffic, kinds []TrafficRateKind) string {
	var req, tcp float64
	var wantReq, wantTCP bool
	for _, k := range kinds {
		switch k {
		case RateHTTP:
			req += t.HTTPRate
			wantReq = true
		case RateGRPC:
			req += t.GRPCRate
			wantReq = true
		case RateTCP:
			tcp += t.TCPRate
			wantTCP = true
		}
	}
	parts := make([]string, 0, 2)
	if wantReq && req > 0 {
		parts = append(parts, format.FormatRate(req))
	}
	if wantTCP && tcp > 0 {
		parts = append(parts, format.FormatBytesRate(tcp))
	}
	return strings.Join(parts, " ")
}

func kindRank(k NodeKind) int {
	switch k {
	case KindBox:
		return 0
	case KindApp:
		return 1
	case KindService:
		return 2
	case KindWorkload:
		return 3
	default:
		return 4
	}
}

func (g *generator) sortElements() {
	sort.Slice(g.nodes, func(i, j int) bool {
		a, b := g.nodes[i], g.nodes[j]
		if a.Parent != b.Parent {
			return a.Parent < b.Parent
		}
		if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
			return ra < rb
		}
		return a.ID < b.ID
	})
	sort.Slice(g.edges, func(i, j int) bool {
		a, b := g.edges[i], g.edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Target < b.Target
	})
}
