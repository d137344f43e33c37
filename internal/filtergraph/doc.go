// Package filtergraph composes the video filter graph of an encode: the
// deinterlace and scale chain on the primary video and an optional image
// watermark joined to it by an overlay edge.
//
// Nodes are keyed by input label. Sub-chains with no expressions are
// dropped and the overlay then reads the raw label.
package filtergraph
