// fastview implements a builder pattern for simple server-side views:
// given an input data model, convert it to a view-model, and multiplex that
// view-model to one or more views, each of which emits element updates for the client.
package fastview

import (
	"html/template"
)

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attrib keys or 'textContent', values are the strings to which these are set.
	// Example: ('fill','red') means set attribute 'fill' to red. 'textContent' is reserved:
	// ('textContent','-1.90') means set ele.textContent to -1.90.
	Ops []Op
}

// Op is a key and value. For example an html attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// TextContent is the reserved op key for replacing an element's text.
const TextContent = "textContent"

// ViewComponent is a server side view: Parse adds its initial form to a page template,
// and Updates is the chan by which its ele-updates are published.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse adds the view's template definition to the parent, inheriting its func-map,
	// and returns the name of the defined template.
	Parse(*template.Template) (string, error)
}
