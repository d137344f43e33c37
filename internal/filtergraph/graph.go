package filtergraph

import (
	"strconv"
	"strings"

	"github.com/backmassage/vidconv/internal/spec"
)

// Node aliases used when a watermark is overlaid.
const (
	AliasBackground = "bg"
	AliasWatermark  = "wm"
)

// Node is one labelled sub-chain: the input label, its expressions in
// order, and the alias its output is published under.
type Node struct {
	Input string
	Exprs []string
	Alias string
}

// ref returns the label later chains use to consume this node: its alias
// when it has expressions, the raw input label otherwise.
func (n Node) ref() string {
	if len(n.Exprs) > 0 && n.Alias != "" {
		return "[" + n.Alias + "]"
	}
	return "[" + n.Input + "]"
}

func (n Node) render() string {
	s := "[" + n.Input + "]" + strings.Join(n.Exprs, ",")
	if n.Alias != "" {
		s += "[" + n.Alias + "]"
	}
	return s
}

// Graph is the composed video filter graph: a background node, an
// optional watermark node joined to it by an overlay edge, and a suffix
// applied to the joined result.
type Graph struct {
	background Node
	watermark  *Node
	position   string
	suffix     []string
	output     string
}

// Request carries everything Compose needs. Width and Height are the
// resolved output size; zero skips scaling.
type Request struct {
	Input       string // Primary video input label, e.g. "0:0".
	Deinterlace bool
	Width       int
	Height      int
	ScaleFlags  string // Defaults to bicubic.

	Watermark        *spec.Watermark
	WatermarkInput   string  // e.g. "1:v".
	ExpectedDuration float64 // Seconds; anchors the watermark fade-out.

	// Suffix runs last on the video, after any overlay (hwupload).
	Suffix []string
	// Output names the final pad ("vout"); empty leaves it unlabelled.
	Output string
}

// Compose builds the graph for one encode.
func Compose(r Request) *Graph {
	g := &Graph{
		background: Node{Input: r.Input},
		suffix:     r.Suffix,
		output:     r.Output,
	}

	if r.Deinterlace {
		g.background.Exprs = append(g.background.Exprs, Deinterlace)
	}
	if r.Width > 0 && r.Height > 0 {
		g.background.Exprs = append(g.background.Exprs, Scale(r.Width, r.Height, r.ScaleFlags))
	}

	if w := r.Watermark; w != nil {
		g.background.Alias = AliasBackground
		g.watermark = &Node{
			Input: r.WatermarkInput,
			Exprs: watermarkChain(w, r.ExpectedDuration),
			Alias: AliasWatermark,
		}
		g.position = w.Position()
	}
	return g
}

// Deinterlace is the yadif expression used for interlaced sources.
const Deinterlace = "yadif=mode=send_frame:parity=auto:deint=interlaced"

// Scale returns the scale expression for a fixed output size.
func Scale(w, h int, flags string) string {
	if flags == "" {
		flags = "bicubic"
	}
	return "scale=w=" + strconv.Itoa(w) + ":h=" + strconv.Itoa(h) + ":flags=" + flags
}

// watermarkChain returns scale, opacity, fade-in and fade-out expressions
// in that order, skipping the unset ones.
func watermarkChain(w *spec.Watermark, expected float64) []string {
	var exprs []string
	if w.Scale != "" {
		exprs = append(exprs, "scale="+w.Scale)
	}
	if w.Opacity > 0 && w.Opacity < 1 {
		exprs = append(exprs, "format=rgba,colorchannelmixer=aa="+num(w.Opacity))
	}
	if w.FadeIn > 0 {
		exprs = append(exprs, "fade=t=in:st=0:d="+num(w.FadeIn)+":alpha=1")
	}
	if w.FadeOut > 0 {
		start := max(expected-w.FadeOut, 0)
		exprs = append(exprs, "fade=t=out:st="+num(start)+":d="+num(w.FadeOut)+":alpha=1")
	}
	return exprs
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Empty reports whether the graph has nothing to do.
func (g *Graph) Empty() bool {
	return g.watermark == nil && len(g.background.Exprs) == 0 && len(g.suffix) == 0
}

// Output returns the final pad name, or "" when unlabelled.
func (g *Graph) Output() string {
	if g.Empty() {
		return ""
	}
	return g.output
}

// Nodes returns the graph's nodes, background first.
func (g *Graph) Nodes() []Node {
	nodes := []Node{g.background}
	if g.watermark != nil {
		nodes = append(nodes, *g.watermark)
	}
	return nodes
}

// String renders the graph in -filter_complex syntax.
//
// Without a watermark:  [in]e1,e2[out]  (bare "e1,e2" when unlabelled)
// With a watermark:     [in]e1[bg];[wmIn]w1[wm];[bg][wm]overlay=pos:shortest=1[out]
func (g *Graph) String() string {
	if g.Empty() {
		return ""
	}
	out := ""
	if g.output != "" {
		out = "[" + g.output + "]"
	}

	if g.watermark == nil {
		exprs := append(append([]string(nil), g.background.Exprs...), g.suffix...)
		if out == "" {
			return strings.Join(exprs, ",")
		}
		return "[" + g.background.Input + "]" + strings.Join(exprs, ",") + out
	}

	var parts []string
	for _, n := range g.Nodes() {
		if len(n.Exprs) > 0 {
			parts = append(parts, n.render())
		}
	}
	join := g.background.ref() + g.watermark.ref() + "overlay=" + g.position + ":shortest=1"
	for _, s := range g.suffix {
		join += "," + s
	}
	parts = append(parts, join+out)
	return strings.Join(parts, ";")
}
