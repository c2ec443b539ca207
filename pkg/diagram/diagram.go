// Package diagram generates visual diagrams from flow versions.
// Supports Mermaid flowchart and ASCII formats.
package diagram

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/flowlens/pkg/flow"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// Generate produces a diagram string from a flow version.
func Generate(v *flow.Version, format Format) (string, error) {
	if v == nil || v.Trigger == nil {
		return "", fmt.Errorf("nil flow version")
	}
	switch format {
	case FormatMermaid:
		return generateMermaid(v), nil
	case FormatASCII:
		return generateASCII(v), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// --- Mermaid flowchart ---

func generateMermaid(v *flow.Version) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	trig := v.Trigger
	b.WriteString(fmt.Sprintf("    %s([%s %s])\n",
		safeID(trig.Name), triggerIcon(trig.Type), escMermaid(title(trig.Name, trig.DisplayName))))

	writeMermaidChain(&b, trig.NextAction, safeID(trig.Name), "")
	return b.String()
}

// writeMermaidChain emits one linear chain. Loop bodies become
// subgraphs; the edge into the body is dashed and labelled per
// iteration, the successor edge labelled done.
func writeMermaidChain(b *strings.Builder, a *flow.Action, fromID, edgeLabel string) {
	for ; a != nil; a = a.NextAction {
		id := safeID(a.Name)
		b.WriteString("    " + nodeDefinition(a) + "\n")
		if edgeLabel != "" {
			b.WriteString(fmt.Sprintf("    %s -->|%q| %s\n", fromID, edgeLabel, id))
		} else {
			b.WriteString(fmt.Sprintf("    %s --> %s\n", fromID, id))
		}
		edgeLabel = ""

		if a.IsLoop() && a.FirstLoopAction != nil {
			sub := "body_" + id
			b.WriteString(fmt.Sprintf("    subgraph %s [\" \"]\n", sub))
			writeMermaidBody(b, a.FirstLoopAction)
			b.WriteString("    end\n")
			b.WriteString(fmt.Sprintf("    %s -.->|\"each iteration\"| %s\n", id, safeID(a.FirstLoopAction.Name)))
			if a.NextAction != nil {
				edgeLabel = "done"
			}
		}
		fromID = id
	}
}

// writeMermaidBody emits the nodes and edges of a loop body without the
// incoming edge (the caller draws that).
func writeMermaidBody(b *strings.Builder, a *flow.Action) {
	for ; a != nil; a = a.NextAction {
		b.WriteString("        " + nodeDefinition(a) + "\n")
		if a.IsLoop() && a.FirstLoopAction != nil {
			writeMermaidBody(b, a.FirstLoopAction)
			b.WriteString(fmt.Sprintf("        %s -.-> %s\n", safeID(a.Name), safeID(a.FirstLoopAction.Name)))
		}
		if a.NextAction != nil {
			b.WriteString(fmt.Sprintf("        %s --> %s\n", safeID(a.Name), safeID(a.NextAction.Name)))
		}
	}
}

// --- ASCII ---

func generateASCII(v *flow.Version) string {
	var b strings.Builder

	name := v.DisplayName
	if name == "" {
		name = v.ID
	}

	nodes := flow.Steps(v.Trigger)
	if len(nodes) == 0 {
		b.WriteString(name + " (empty)\n")
		return b.String()
	}

	// Uniform box width so boxes and connectors align at every depth.
	const indent = 4
	const depthStep = 4
	boxWidth := uniformBoxWidth(nodes, name)
	pad := strings.Repeat(" ", indent)

	// Header — same width as depth-0 boxes, name centered.
	header := centerPad(name, boxWidth)
	mid := boxWidth / 2
	b.WriteString(pad + "╔" + strings.Repeat("═", boxWidth) + "╗\n")
	b.WriteString(pad + "║" + header + "║\n")
	b.WriteString(pad + "╚" + strings.Repeat("═", mid) + "╤" + strings.Repeat("═", boxWidth-mid-1) + "╝\n")

	for _, n := range nodes {
		left := indent + n.Depth*depthStep
		connCol := left + 1 + boxWidth/2
		b.WriteString(strings.Repeat(" ", connCol) + "│\n")
		writeASCIIBox(&b, n, left, boxWidth)
	}
	return b.String()
}

func uniformBoxWidth(nodes []flow.StepNode, name string) int {
	w := 22
	if nw := runewidth.StringWidth(name) + 4; nw > w {
		w = nw
	}
	for _, n := range nodes {
		content := " " + nodeIcon(n) + " " + title(n.Name, n.DisplayName) + " "
		if cw := runewidth.StringWidth(content); cw > w {
			w = cw
		}
	}
	return w
}

// centerPad centers s in a field of width display cells, measured with
// runewidth so wide glyphs keep the borders aligned.
func centerPad(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	left := (width - sw) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-sw-left)
}

func writeASCIIBox(b *strings.Builder, n flow.StepNode, left, boxWidth int) {
	content := " " + nodeIcon(n) + " " + title(n.Name, n.DisplayName) + " "
	cw := runewidth.StringWidth(content)
	pad := strings.Repeat(" ", left)
	mid := boxWidth / 2

	b.WriteString(pad + "┌" + strings.Repeat("─", mid) + "┴" + strings.Repeat("─", boxWidth-mid-1) + "┐\n")
	b.WriteString(pad + "│" + content + strings.Repeat(" ", boxWidth-cw) + "│\n")
	b.WriteString(pad + "└" + strings.Repeat("─", boxWidth) + "┘\n")
}

// --- node helpers ---

func title(name, displayName string) string {
	if displayName != "" {
		return displayName
	}
	return name
}

func nodeIcon(n flow.StepNode) string {
	if n.Type == "" {
		return "▶" // trigger
	}
	return actionIcon(n.Type)
}

func actionIcon(t flow.ActionType) string {
	switch t {
	case flow.ActionCode:
		return "λ"
	case flow.ActionHTTP:
		return "⇄"
	case flow.ActionTool:
		return "🔧"
	case flow.ActionLoop:
		return "⟳"
	}
	return "○"
}

func triggerIcon(t flow.TriggerType) string {
	switch t {
	case flow.TriggerWebhook:
		return "⚡"
	case flow.TriggerSchedule:
		return "⏰"
	case flow.TriggerManual:
		return "▶"
	}
	return "▶"
}

func nodeDefinition(a *flow.Action) string {
	id := safeID(a.Name)
	label := escMermaid(title(a.Name, a.DisplayName))
	icon := actionIcon(a.Type)

	switch a.Type {
	case flow.ActionLoop:
		return fmt.Sprintf(`%s{{"%s %s"}}`, id, icon, label)
	case flow.ActionTool:
		return fmt.Sprintf(`%s[/"%s %s"/]`, id, icon, label)
	default:
		return fmt.Sprintf(`%s["%s %s"]`, id, icon, label)
	}
}

func safeID(id string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return r.Replace(id)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}
