package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// GraphOverlay contains editor state to highlight on the graph.
type GraphOverlay struct {
	Selected []string
	Focus    string
}

// Options tunes the export.
type Options struct {
	// Expand renders the subgraph of each composite node inline, recursively.
	Expand bool
	// Overlay, when set, styles selected and focused nodes.
	Overlay *GraphOverlay
}

// GenerateMermaid produces a Mermaid flowchart of a graph.
// Node shapes follow the node role:
// - Composite: [[Subroutine]]
// - Source (no inputs): ([Stadium])
// - Default: [Rectangle]
// Groups become Mermaid subgraphs. Connections are labelled with the port
// names they join.
func GenerateMermaid(state domain.GraphState, opts Options) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	writeGraph(&sb, state, "", "    ", opts)

	if opts.Overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef selected fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range opts.Overlay.Selected {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s selected;\n", safeID))
			}
		}
		if opts.Overlay.Focus != "" {
			sb.WriteString(fmt.Sprintf("    class %s focus;\n", sanitizeMermaidID(opts.Overlay.Focus)))
		}
	}
	return sb.String()
}

// writeGraph emits one graph level. Ids are prefixed so that nodes of
// different subgraphs never collide once expanded.
func writeGraph(sb *strings.Builder, state domain.GraphState, prefix, indent string, opts Options) {
	grouped := make(map[string]bool)
	for _, g := range state.NodeGroups {
		sb.WriteString(fmt.Sprintf("%ssubgraph %s[\"%s\"]\n", indent, sanitizeMermaidID(prefix+g.ID), label(g.Title, g.ID)))
		for _, id := range g.ChildNodes {
			if n, ok := state.Node(id); ok {
				grouped[id] = true
				writeNode(sb, *n, prefix, indent+"    ", opts)
			}
		}
		sb.WriteString(indent + "end\n")
	}
	for _, n := range state.Nodes {
		if !grouped[n.ID] {
			writeNode(sb, n, prefix, indent, opts)
		}
	}

	ports := make(map[string]string)
	for _, n := range state.Nodes {
		for _, p := range n.Ports() {
			ports[p.ID] = p.Name
		}
	}
	for _, c := range state.Connections {
		from := sanitizeMermaidID(prefix + c.SourceNodeID)
		to := sanitizeMermaidID(prefix + c.TargetNodeID)
		arrow := "-->"
		if name := edgeLabel(ports[c.SourcePortID], ports[c.TargetPortID]); name != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", name)
		}
		sb.WriteString(fmt.Sprintf("%s%s %s %s\n", indent, from, arrow, to))
	}
}

func writeNode(sb *strings.Builder, n domain.Node, prefix, indent string, opts Options) {
	safeID := sanitizeMermaidID(prefix + n.ID)

	if n.IsComposite() && opts.Expand && n.Subgraph != nil {
		sb.WriteString(fmt.Sprintf("%ssubgraph %s[\"%s\"]\n", indent, safeID, label(n.Title, n.ID)))
		writeGraph(sb, *n.Subgraph, prefix+n.ID+"/", indent+"    ", opts)
		sb.WriteString(indent + "end\n")
		return
	}

	opener, closer := "[", "]"
	switch {
	case n.IsComposite():
		opener, closer = "[[", "]]" // Subroutine
	case len(n.FixedInputs) == 0 && len(n.DynamicInputs) == 0:
		opener, closer = "([", "])" // Stadium
	}
	sb.WriteString(fmt.Sprintf("%s%s%s\"%s\"%s\n", indent, safeID, opener, label(n.Title, n.ID), closer))
}

func edgeLabel(from, to string) string {
	switch {
	case from == "" && to == "":
		return ""
	case from == to:
		return escape(from)
	}
	return escape(from) + " → " + escape(to)
}

func label(title, id string) string {
	if title == "" {
		return escape(id)
	}
	return escape(title)
}

func escape(s string) string {
	// Double quotes would close the Mermaid label.
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
