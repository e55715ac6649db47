package workflow

// NodeID identifies a node in the resume workflow graph.
type NodeID int

// Workflow nodes in topology order.
const (
	NodeRetrieval NodeID = iota + 1
	NodeDraft
	NodeReview
	NodeRetryPrep
	NodeQuestions
	NodeFinalize
)

// EntryNode is where every run starts.
const EntryNode = NodeRetrieval

var nodeNames = map[NodeID]string{
	NodeRetrieval: "retrieval",
	NodeDraft:     "draft",
	NodeReview:    "review",
	NodeRetryPrep: "retry-prep",
	NodeQuestions: "questions",
	NodeFinalize:  "finalize",
}

// fixedEdges holds the single successor of every node except review, whose
// successor comes from the router, and finalize, which is terminal.
var fixedEdges = map[NodeID]NodeID{
	NodeRetrieval: NodeDraft,
	NodeDraft:     NodeReview,
	NodeRetryPrep: NodeDraft,
	NodeQuestions: NodeFinalize,
}

// String returns the node's graph key.
func (n NodeID) String() string {
	if name, ok := nodeNames[n]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether n is one of the workflow nodes.
func (n NodeID) Valid() bool {
	_, ok := nodeNames[n]
	return ok
}

// Terminal reports whether n has no outgoing edge.
func (n NodeID) Terminal() bool {
	return n == NodeFinalize
}

// Successor returns the fixed successor of n. It returns false for review
// (routed) and finalize (terminal).
func (n NodeID) Successor() (NodeID, bool) {
	next, ok := fixedEdges[n]
	return next, ok
}

// Nodes returns every node in topology order.
func Nodes() []NodeID {
	return []NodeID{
		NodeRetrieval,
		NodeDraft,
		NodeReview,
		NodeRetryPrep,
		NodeQuestions,
		NodeFinalize,
	}
}

// ParseNodeID maps a graph key back to its NodeID.
func ParseNodeID(key string) (NodeID, bool) {
	for id, name := range nodeNames {
		if name == key {
			return id, true
		}
	}
	return 0, false
}
