package report

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeKeys(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "r.html"), "t")
	require.NoError(t, err)

	f := r.CreateFeature("Checkout")
	sc := f.CreateNode(KindScenario, "Complete purchase")
	st := sc.CreateNode(StepKind("When"), "I finish the order")

	assert.Equal(t, Key{Feature: "Checkout"}, f.Key)
	assert.Equal(t, Key{Feature: "Checkout", Scenario: "Complete purchase"}, sc.Key)
	assert.Equal(t, sc.Key, st.Key)
	assert.Equal(t, KindWhen, st.Kind)
	assert.NotEqual(t, sc.ID, st.ID)
}

func TestStatusPropagates(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "r.html"), "t")
	require.NoError(t, err)

	f := r.CreateFeature("Login")
	ok := f.CreateNode(KindScenario, "ok")
	ok.CreateNode(KindGiven, "fine").Log("all good")
	bad := f.CreateNode(KindScenario, "bad")
	bad.CreateNode(KindThen, "broken").Fail("expected x")

	assert.Equal(t, StatusPass, ok.Status())
	assert.Equal(t, StatusFail, bad.Status())
	assert.Equal(t, StatusFail, f.Status())

	assert.Equal(t, Stats{Features: 1, Scenarios: 2, Passed: 1, Failed: 1}, r.Stats())
}

func TestStepKind(t *testing.T) {
	assert.Equal(t, KindGiven, StepKind("Given"))
	assert.Equal(t, KindThen, StepKind("Then"))
	assert.Equal(t, KindAnd, StepKind("But"))
	assert.Equal(t, KindAnd, StepKind("*"))
}

func TestFailedIndexRejectsDuplicates(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "r.html"), "t")
	require.NoError(t, err)
	f := r.CreateFeature("F")

	a := f.CreateNode(KindScenario, "S1").CreateNode(KindWhen, "x")
	b := f.CreateNode(KindScenario, "S1").CreateNode(KindWhen, "y")

	idx := NewFailedIndex()
	require.NoError(t, idx.Add(a))
	assert.ErrorIs(t, idx.Add(b), ErrDuplicateNode)

	got, ok := idx.Lookup("F", "S1")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = idx.Lookup("F", "S2")
	assert.False(t, ok)
	assert.Equal(t, 1, idx.Len())
}

func TestFlushWritesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "Report.html")
	r, err := New(path, "Demo shop")
	require.NoError(t, err)

	f := r.CreateFeature("Cart")
	st := f.CreateNode(KindScenario, "Remove item").CreateNode(KindThen, "the cart is empty")
	st.CodeBlock("Clicking remove ```inline```")
	st.Fail("cart still has 1 item")
	st.Screenshot("aGVsbG8=")
	st.Markdown("**AI Summary**\n\n<script>alert(1)</script>")

	require.NoError(t, r.Flush())
	assert.ErrorIs(t, r.Flush(), ErrAlreadyFlushed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Remove item")
	assert.Contains(t, html, "cart still has 1 item")
	assert.Contains(t, html, "data:image/png;base64,aGVsbG8=")
	assert.Contains(t, html, "<strong>AI Summary</strong>")
	assert.Contains(t, html, "<pre><code>")
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestConcurrentFeatureCreation(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "r.html"), "t")
	require.NoError(t, err)
	f := r.CreateFeature("F")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.CreateNode(KindScenario, "s").CreateNode(KindGiven, "g").Log("x")
		}()
	}
	wg.Wait()
	assert.Len(t, f.Children(), 20)
}

func TestWriteSummary(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "r.html"), "t")
	require.NoError(t, err)
	f := r.CreateFeature("Inventory")
	f.CreateNode(KindScenario, "sort").CreateNode(KindThen, "sorted").Fail("unsorted")

	var buf bytes.Buffer
	r.WriteSummary(&buf)
	out := buf.String()
	assert.Contains(t, out, "Inventory")
	assert.Contains(t, out, "TOTAL")
	assert.NotContains(t, out, "Total")
}

func TestFence(t *testing.T) {
	assert.Equal(t, "```\nabc\n```\n", fence("abc"))
	assert.Equal(t, "`````\na ```` b\n`````\n", fence("a ```` b"))
}
