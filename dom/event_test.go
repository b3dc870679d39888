package dom_test

import (
	"testing"

	"github.com/delaneyj/domparty/dom"
	"github.com/stretchr/testify/assert"
)

func TestDispatchBubbles(t *testing.T) {
	outer := dom.NewElement("div")
	inner := dom.NewElement("button")
	outer.AppendChild(inner)

	var order []string
	inner.AddEventListener("click", func(ev *dom.Event) {
		order = append(order, "inner")
		assert.Same(t, inner, ev.Target)
	})
	outer.AddEventListener("click", func(ev *dom.Event) {
		order = append(order, "outer")
		assert.Same(t, inner, ev.Target)
	})

	inner.Dispatch(&dom.Event{Type: "click"})
	assert.Equal(t, []string{"inner", "outer"}, order)
}

func TestStopPropagation(t *testing.T) {
	outer := dom.NewElement("div")
	inner := dom.NewElement("button")
	outer.AppendChild(inner)

	outerHits := 0
	inner.AddEventListener("click", func(ev *dom.Event) { ev.StopPropagation() })
	outer.AddEventListener("click", func(*dom.Event) { outerHits++ })

	inner.Dispatch(&dom.Event{Type: "click"})
	assert.Equal(t, 0, outerHits)
}

func TestRemoveDetachesExactRegistration(t *testing.T) {
	el := dom.NewElement("button")

	hits := map[string]int{}
	h := func(name string) dom.EventHandler {
		return func(*dom.Event) { hits[name]++ }
	}
	removeA := el.AddEventListener("click", h("a"))
	el.AddEventListener("click", h("b"))
	assert.Equal(t, 2, el.ListenerCount("click"))

	removeA()
	removeA() // second call is a no-op
	assert.Equal(t, 1, el.ListenerCount("click"))

	el.Dispatch(&dom.Event{Type: "click"})
	assert.Equal(t, 0, hits["a"])
	assert.Equal(t, 1, hits["b"])
}

func TestDispatchCarriesData(t *testing.T) {
	el := dom.NewElement("input")
	var got any
	el.AddEventListener("input", func(ev *dom.Event) { got = ev.Data })

	el.Dispatch(&dom.Event{Type: "input", Data: "typed"})
	assert.Equal(t, "typed", got)
}
