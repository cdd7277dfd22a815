package cfg

import (
	"strconv"
	"strings"
)

// Dump renders a method one node per line, in the spirit of an assembly
// listing: id, kind, operands, then successors.
func Dump(m *Method) string {
	var builder strings.Builder
	builder.WriteString(m.Symbol)
	builder.WriteString("(")
	for i, p := range m.Params {
		if i > 0 {
			builder.WriteString(", ")
		}
		if p.Nullability != Unannotated {
			builder.WriteString("@" + p.Nullability.String() + " ")
		}
		if p.Type != "" {
			builder.WriteString(p.Type + " ")
		}
		builder.WriteString(p.Name)
	}
	builder.WriteString(")")
	if len(m.Throws) > 0 {
		builder.WriteString(" throws ")
		builder.WriteString(strings.Join(m.Throws, ", "))
	}
	builder.WriteString("\n")
	for _, n := range m.Nodes {
		builder.WriteString(n.String())
		if n.Line > 0 {
			builder.WriteString(" @")
			builder.WriteString(strconv.Itoa(n.Line))
		}
		if n.Region >= 0 {
			builder.WriteString(" [r")
			builder.WriteString(strconv.Itoa(n.Region))
			builder.WriteString("]")
		}
		for _, e := range m.Successors(n) {
			builder.WriteString(" ")
			builder.WriteString(e.Kind.String())
			builder.WriteString(":")
			builder.WriteString(strconv.Itoa(int(e.To)))
		}
		builder.WriteString("\n")
	}
	for _, r := range m.Regions {
		builder.WriteString("region ")
		builder.WriteString(strconv.Itoa(r.ID))
		if r.Parent >= 0 {
			builder.WriteString(" in ")
			builder.WriteString(strconv.Itoa(r.Parent))
		}
		for _, c := range r.Catches {
			builder.WriteString(" catch(")
			builder.WriteString(strings.Join(c.Types, "|"))
			builder.WriteString("):")
			builder.WriteString(strconv.Itoa(int(c.Handler)))
		}
		if r.Finally != NoNode {
			builder.WriteString(" finally:")
			builder.WriteString(strconv.Itoa(int(r.Finally)))
		}
		builder.WriteString("\n")
	}
	return builder.String()
}
