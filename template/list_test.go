package template_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/delaneyj/domparty/dom"
	"github.com/delaneyj/domparty/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemTpl = template.Define(`<li>`, `</li>`)

func renderList(t *testing.T, r *template.Renderer, root *dom.Element, vs []any) {
	t.Helper()
	require.NoError(t, r.Render(listTpl.Bind(vs), root))
}

func listEl(root *dom.Element) *dom.Element {
	return root.FirstChild().(*dom.Element)
}

// itemNodes skips the slot's anchor text node at position zero.
func itemNodes(ul *dom.Element) []dom.Node {
	return ul.Children()[1:]
}

func TestListAppendReusesExistingNodes(t *testing.T) {
	r := template.NewRenderer()
	root := dom.NewElement("div")

	renderList(t, r, root, []any{itemTpl.Bind(1), itemTpl.Bind(2), itemTpl.Bind(3)})
	ul := listEl(root)
	assert.Equal(t, `<li>1</li><li>2</li><li>3</li>`, ul.InnerHTML())

	kept := append([]dom.Node(nil), itemNodes(ul)...)
	r.ResetStats()

	renderList(t, r, root, []any{itemTpl.Bind(1), itemTpl.Bind(2), itemTpl.Bind(3), itemTpl.Bind(4)})
	assert.Equal(t, `<li>1</li><li>2</li><li>3</li><li>4</li>`, ul.InnerHTML())
	assert.Equal(t, 0, r.Stats().ItemsMutated, "prefix entries untouched")
	assert.Equal(t, 1, r.Stats().InstanceBuilds, "exactly one new entry built")
	for i, n := range kept {
		assert.Same(t, n, itemNodes(ul)[i], "existing nodes keep their identity")
	}
}

func TestListSingleEntryUpdateInPlace(t *testing.T) {
	r := template.NewRenderer()
	root := dom.NewElement("div")

	renderList(t, r, root, []any{itemTpl.Bind("a"), itemTpl.Bind("b"), itemTpl.Bind("c")})
	ul := listEl(root)
	second := itemNodes(ul)[1]
	r.ResetStats()

	renderList(t, r, root, []any{itemTpl.Bind("a"), itemTpl.Bind("B"), itemTpl.Bind("c")})
	assert.Equal(t, `<li>a</li><li>B</li><li>c</li>`, ul.InnerHTML())
	assert.Equal(t, 1, r.Stats().ItemsMutated)
	assert.Equal(t, 0, r.Stats().InstanceBuilds)
	assert.Same(t, second, itemNodes(ul)[1])
}

func TestListTruncation(t *testing.T) {
	r := template.NewRenderer()
	root := dom.NewElement("div")

	renderList(t, r, root, []any{itemTpl.Bind(1), itemTpl.Bind(2), itemTpl.Bind(3)})
	ul := listEl(root)

	renderList(t, r, root, []any{itemTpl.Bind(1)})
	assert.Equal(t, `<li>1</li>`, ul.InnerHTML())

	renderList(t, r, root, nil)
	assert.Equal(t, ``, ul.InnerHTML())
}

func TestListPrimitiveEntries(t *testing.T) {
	r := template.NewRenderer()
	root := dom.NewElement("div")

	renderList(t, r, root, []any{1, 2, 3})
	ul := listEl(root)
	assert.Equal(t, `123`, ul.InnerHTML())

	second := itemNodes(ul)[1].(*dom.Text)
	r.ResetStats()
	renderList(t, r, root, []any{1, 20, 3})
	assert.Equal(t, `1203`, ul.InnerHTML())
	assert.Same(t, second, itemNodes(ul)[1], "primitive entries reuse their text node")
	assert.Equal(t, 1, r.Stats().ItemsMutated)
}

func TestListIdenticalRenderCommitsNothing(t *testing.T) {
	r := template.NewRenderer()
	root := dom.NewElement("div")

	renderList(t, r, root, []any{itemTpl.Bind(1), itemTpl.Bind(2)})
	before := r.Stats()
	renderList(t, r, root, []any{itemTpl.Bind(1), itemTpl.Bind(2)})
	assert.Equal(t, before, r.Stats())
}

func bulkValues(n int) []any {
	vs := make([]any, n)
	for i := range vs {
		vs[i] = itemTpl.Bind(i)
	}
	return vs
}

func TestBulkPathForLargeHomogeneousLists(t *testing.T) {
	r := template.NewRenderer()
	root := dom.NewElement("div")

	renderList(t, r, root, bulkValues(300))
	ul := listEl(root)
	assert.Equal(t, 1, r.Stats().BulkReplaces)
	assert.Equal(t, 0, r.Stats().InstanceBuilds, "bulk entries are serialized, not instantiated")

	lis := 0
	for _, n := range ul.Children() {
		if el, ok := n.(*dom.Element); ok && el.Tag == "li" {
			lis++
		}
	}
	assert.Equal(t, 300, lis)
	assert.True(t, strings.HasPrefix(ul.InnerHTML(), `<li>0</li><li>1</li>`))
}

func TestBulkThenSparseUpdateGoesPerIndex(t *testing.T) {
	r := template.NewRenderer()
	root := dom.NewElement("div")

	vs := bulkValues(300)
	renderList(t, r, root, vs)
	r.ResetStats()

	// same length, one change: the in-place algorithm is cheaper than a
	// second full rewrite
	vs2 := bulkValues(300)
	vs2[7] = itemTpl.Bind(-1)
	renderList(t, r, root, vs2)

	assert.Equal(t, 0, r.Stats().BulkReplaces)
	assert.Equal(t, 1, r.Stats().ItemsMutated)
	ul := listEl(root)
	assert.Contains(t, ul.InnerHTML(), `<li>-1</li>`)
}

func TestBulkEscapesValues(t *testing.T) {
	r := template.NewRenderer()
	root := dom.NewElement("div")

	vs := make([]any, 300)
	for i := range vs {
		vs[i] = itemTpl.Bind("<script>" + fmt.Sprint(i))
	}
	renderList(t, r, root, vs)

	ul := listEl(root)
	assert.NotContains(t, ul.InnerHTML(), "<script>")
	assert.Contains(t, ul.InnerHTML(), "&lt;script&gt;0")
}

// idlePump collects deferred steps and lets the test run them one at a time.
type idlePump struct {
	queue []func()
}

func (p *idlePump) schedule(step func()) {
	p.queue = append(p.queue, step)
}

func (p *idlePump) runOne() bool {
	if len(p.queue) == 0 {
		return false
	}
	step := p.queue[0]
	p.queue = p.queue[1:]
	step()
	return true
}

func (p *idlePump) drain() {
	for p.runOne() {
	}
}

func TestSlicedRenderingStreamsAcrossIdleSteps(t *testing.T) {
	pump := &idlePump{}
	r := template.NewRenderer(template.WithIdle(pump.schedule))
	root := dom.NewElement("div")

	renderList(t, r, root, bulkValues(5000))
	ul := listEl(root)
	assert.Empty(t, itemNodes(ul), "nothing rendered before the first idle step")

	require.True(t, pump.runOne())
	first := len(itemNodes(ul))
	assert.Greater(t, first, 0)
	assert.Less(t, first, 5000)

	pump.drain()
	assert.Equal(t, 5000, len(itemNodes(ul)))
	assert.Equal(t, 5, r.Stats().SliceSteps)
}

func TestSlicedRenderingCancelledBySupersedingUpdate(t *testing.T) {
	pump := &idlePump{}
	r := template.NewRenderer(template.WithIdle(pump.schedule))
	root := dom.NewElement("div")

	renderList(t, r, root, bulkValues(5000))
	require.True(t, pump.runOne())

	// a new small list supersedes the in-flight job
	renderList(t, r, root, []any{itemTpl.Bind("only")})
	pump.drain()

	ul := listEl(root)
	assert.Equal(t, `<li>only</li>`, ul.InnerHTML(), "stale chunks never land")
}

func TestDescriptorSwapCancelsSliceJob(t *testing.T) {
	pump := &idlePump{}
	r := template.NewRenderer(template.WithIdle(pump.schedule))
	root := dom.NewElement("div")

	renderList(t, r, root, bulkValues(5000))
	require.True(t, pump.runOne())
	assert.Equal(t, 1, r.Stats().SliceSteps)

	// a render with a different descriptor discards the instance; the
	// in-flight job must not keep stepping into the dead subtree
	require.NoError(t, r.Render(greetTpl.Bind("x"), root))
	pump.drain()

	assert.Equal(t, 1, r.Stats().SliceSteps)
	assert.Equal(t, `<p>Hello, x!</p>`, root.InnerHTML())
}

func TestReleaseCancelsSliceJob(t *testing.T) {
	pump := &idlePump{}
	r := template.NewRenderer(template.WithIdle(pump.schedule))
	root := dom.NewElement("div")

	renderList(t, r, root, bulkValues(5000))
	r.Release(root)
	pump.drain()

	assert.Empty(t, root.Children())
}
