// Package pprint renders an ast.Node two ways: Verbatim reproduces the
// exact source text a node was parsed from (the round-trip half of
// invariant 1 in pkg/ast), and Tree dumps the node's structure field by
// field for debugging and the `-ast` mode of cmd/shparse.
package pprint

import (
	"fmt"
	"io"
	"reflect"
	"strconv"

	"posh.sh/pkg/ast"
)

const indentInc = 2

// Verbatim writes n's exact source text to w, unchanged. Since every node
// carries its own source span (Base.Text), this is never more than a
// field read — there is no separate unparse/emit step to keep in sync
// with the grammar.
func Verbatim(w io.Writer, n ast.Node) error {
	_, err := io.WriteString(w, n.SourceText())
	return err
}

// Tree writes a structural dump of n to w: one line per node, indented by
// nesting depth, with the node's non-child fields printed inline and each
// child field or child slice recursed into below it.
func Tree(w io.Writer, n ast.Node) {
	treeRec(n, w, 0)
}

type namedField struct {
	name  string
	value any
}

var nodeType = reflect.TypeOf((*ast.Node)(nil)).Elem()

func treeRec(n ast.Node, wr io.Writer, indent int) {
	if n == nil {
		return
	}
	nv := reflect.ValueOf(n)
	if nv.Kind() == reflect.Ptr {
		if nv.IsNil() {
			return
		}
		nv = nv.Elem()
	}
	nt := nv.Type()

	var children []namedField
	var childSlices []namedField
	var props []namedField

	for i := 0; i < nt.NumField(); i++ {
		f := nt.Field(i)
		if f.Anonymous {
			continue // embedded ast.Base: plumbing, not a property
		}
		fv := nv.Field(i)
		ft := f.Type

		if ft.Kind() == reflect.Slice && ft.Elem().Implements(nodeType) {
			childSlices = append(childSlices, namedField{f.Name, fv.Interface()})
			continue
		}
		if ft.Implements(nodeType) {
			if (ft.Kind() == reflect.Interface || ft.Kind() == reflect.Ptr) && fv.IsNil() {
				continue
			}
			children = append(children, namedField{f.Name, fv.Interface()})
			continue
		}
		props = append(props, namedField{f.Name, fv.Interface()})
	}

	fmt.Fprintf(wr, "%*s%s", indent, "", nt.Name())
	for _, p := range props {
		v := p.value
		if s, ok := v.(string); ok {
			v = compactQuote(s)
		}
		fmt.Fprintf(wr, " %s=%v", p.name, v)
	}
	fmt.Fprintln(wr)

	for _, c := range children {
		treeRec(c.value.(ast.Node), wr, indent+indentInc)
	}
	for _, cs := range childSlices {
		items := reflect.ValueOf(cs.value)
		for i := 0; i < items.Len(); i++ {
			item, ok := items.Index(i).Interface().(ast.Node)
			if !ok {
				continue
			}
			treeRec(item, wr, indent+indentInc)
		}
	}
}

const maxQuoteLen = 24

func compactQuote(text string) string {
	if len(text) > maxQuoteLen {
		text = text[:maxQuoteLen-3] + "..."
	}
	return strconv.Quote(text)
}
