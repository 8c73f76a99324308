package arbor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

// --- Constructor defaults ---

func TestNewLayerDefaults(t *testing.T) {
	n := NewLayer("group")
	assertNodeDefaults(t, n, "group", KindLayer)
	if n.Content() != nil {
		t.Errorf("Content = %v, want nil", n.Content())
	}
}

func TestNewSolidLayerDefaults(t *testing.T) {
	n := NewSolidLayer("bg", 40, 20, ColorBlack)
	assertNodeDefaults(t, n, "bg", KindSolid)
	w, h := n.Solid().Size()
	if w != 40 || h != 20 {
		t.Errorf("Size = (%v, %v), want (40, 20)", w, h)
	}
	if n.Shape() != nil || n.TextBlock() != nil || n.Bitmap() != nil {
		t.Error("solid layer exposes accessors of another kind")
	}
}

func TestNewTextLayerDefaults(t *testing.T) {
	n := NewTextLayer("label", "hello", DefaultFont(), 16)
	assertNodeDefaults(t, n, "label", KindText)
	if got := n.TextBlock().Text(); got != "hello" {
		t.Errorf("Text = %q, want %q", got, "hello")
	}
}

func TestNodeIDsUnique(t *testing.T) {
	a, b := NewLayer("a"), NewLayer("b")
	if a.ID == b.ID {
		t.Errorf("IDs collide: %d", a.ID)
	}
}

func assertNodeDefaults(t *testing.T, n *Node, name string, kind NodeKind) {
	t.Helper()
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name != name {
		t.Errorf("Name = %q, want %q", n.Name, name)
	}
	if n.Kind() != kind {
		t.Errorf("Kind = %v, want %v", n.Kind(), kind)
	}
	if n.Alpha() != 1 {
		t.Errorf("Alpha = %v, want 1", n.Alpha())
	}
	if !n.Visible() {
		t.Error("Visible should be true")
	}
	if n.BlendMode() != BlendNormal {
		t.Errorf("BlendMode = %v, want normal", n.BlendMode())
	}
	if n.Parent() != nil || n.NumChildren() != 0 {
		t.Error("new node should have no parent or children")
	}
	if n.Matrix() != IdentityMatrix3D {
		t.Errorf("Matrix = %v, want identity", n.Matrix())
	}
}

func TestFactorySettings(t *testing.T) {
	f := NewFactory(Settings{EdgeAntialiasing: false, GroupOpacity: true})
	n := f.NewSolidLayer("s", 10, 10, ColorWhite)
	if n.EdgeAntialiasing() {
		t.Error("EdgeAntialiasing should follow the factory")
	}
	if !n.GroupOpacity() {
		t.Error("GroupOpacity should follow the factory")
	}

	d := NewLayer("d")
	if d.EdgeAntialiasing() != DefaultSettings().EdgeAntialiasing {
		t.Error("package constructors should use the process settings")
	}
}

func TestSetDefaultSettings(t *testing.T) {
	defer ResetDefaultSettings()
	SetDefaultSettings(Settings{GroupOpacity: true})
	if !NewLayer("g").GroupOpacity() {
		t.Error("NewLayer should pick up the process settings")
	}
	ResetDefaultSettings()
	if CurrentSettings() != DefaultSettings() {
		t.Errorf("CurrentSettings = %+v, want defaults", CurrentSettings())
	}
}

// --- Setters ---

func TestSetAlphaClamps(t *testing.T) {
	n := NewLayer("n")
	n.SetAlpha(2)
	if n.Alpha() != 1 {
		t.Errorf("Alpha = %v, want 1", n.Alpha())
	}
	n.SetAlpha(-1)
	if n.Alpha() != 0 {
		t.Errorf("Alpha = %v, want 0", n.Alpha())
	}
}

func TestFiltersAndStyles(t *testing.T) {
	n := NewLayer("n")
	blur := NewBlurFilter(2)
	n.AddFilter(blur)
	n.AddFilter(NewColorMatrixFilter())
	if len(n.Filters()) != 2 {
		t.Fatalf("Filters = %d, want 2", len(n.Filters()))
	}
	if !n.RemoveFilter(blur) {
		t.Error("RemoveFilter should report success")
	}
	if n.RemoveFilter(blur) {
		t.Error("RemoveFilter of a missing filter should fail")
	}
	n.SetStyles(NewStrokeStyle(1, ColorBlack))
	n.AddStyle(NewDropShadowStyle(0, 2, 2, ColorBlack))
	if len(n.Styles()) != 2 {
		t.Errorf("Styles = %d, want 2", len(n.Styles()))
	}
}

func TestScrollRectCopied(t *testing.T) {
	n := NewLayer("n")
	r := Rect{X: 5, Y: 5, Width: 10, Height: 10}
	n.SetScrollRect(&r)
	r.Width = 100
	if got := n.ScrollRect(); got == nil || got.Width != 10 {
		t.Errorf("ScrollRect = %v, want a copy with Width 10", got)
	}
	n.SetScrollRect(nil)
	if n.ScrollRect() != nil {
		t.Error("ScrollRect should clear")
	}
}

// --- Tree structure ---

func TestAddChildSetsParent(t *testing.T) {
	p, c := NewLayer("p"), NewLayer("c")
	if !p.AddChild(c) {
		t.Fatal("AddChild failed")
	}
	if c.Parent() != p {
		t.Error("Parent not set")
	}
	if c.Root() != p {
		t.Errorf("Root = %q, want p", c.Root().Name)
	}
	if p.NumChildren() != 1 || p.ChildAt(0) != c {
		t.Error("child list not updated")
	}
}

func TestAddChildReparents(t *testing.T) {
	a, b, c := NewLayer("a"), NewLayer("b"), NewLayer("c")
	a.AddChild(c)
	b.AddChild(c)
	if a.NumChildren() != 0 {
		t.Error("old parent still holds the child")
	}
	if c.Parent() != b {
		t.Error("child not moved to the new parent")
	}
}

func TestAddChildRejectsCycle(t *testing.T) {
	a, b, c := NewLayer("a"), NewLayer("b"), NewLayer("c")
	a.AddChild(b)
	b.AddChild(c)
	if c.AddChild(a) {
		t.Error("adding an ancestor as child should fail")
	}
	if a.AddChild(a) {
		t.Error("adding a node to itself should fail")
	}
	if a.Parent() != nil {
		t.Error("rejected add changed the tree")
	}
}

func TestAddChildRejectsRoot(t *testing.T) {
	dl := NewDisplayList(NewRecordingBackend())
	p := NewLayer("p")
	if p.AddChild(dl.Root()) {
		t.Error("a DisplayList root cannot become a child")
	}
}

func TestAddChildAt(t *testing.T) {
	p := NewLayer("p")
	a, b, c := NewLayer("a"), NewLayer("b"), NewLayer("c")
	p.AddChild(a)
	p.AddChild(c)
	p.AddChildAt(b, 1)
	if diff := cmp.Diff([]string{"a", "b", "c"}, names(p.Children())); diff != "" {
		t.Errorf("children (-want +got):\n%s", diff)
	}
	if p.AddChildAt(NewLayer("x"), -1) {
		t.Error("negative index should fail")
	}
	d := NewLayer("d")
	p.AddChildAt(d, 99)
	if p.ChildIndex(d) != 3 {
		t.Errorf("index past the end should append, got %d", p.ChildIndex(d))
	}
}

func TestAddChildAtMovesExistingChild(t *testing.T) {
	p := NewLayer("p")
	a, b, c := NewLayer("a"), NewLayer("b"), NewLayer("c")
	p.AddChild(a)
	p.AddChild(b)
	p.AddChild(c)
	p.AddChildAt(a, 99)
	if diff := cmp.Diff([]string{"b", "c", "a"}, names(p.Children())); diff != "" {
		t.Errorf("children (-want +got):\n%s", diff)
	}
}

func TestChildIndexAndSetChildIndex(t *testing.T) {
	p := NewLayer("p")
	a, b, c := NewLayer("a"), NewLayer("b"), NewLayer("c")
	p.AddChild(a)
	p.AddChild(b)
	p.AddChild(c)

	if got := p.ChildIndex(c); got != 2 {
		t.Errorf("ChildIndex(c) = %d, want 2", got)
	}
	if got := p.ChildIndex(NewLayer("x")); got != -1 {
		t.Errorf("ChildIndex(stranger) = %d, want -1", got)
	}

	if !p.SetChildIndex(c, 0) {
		t.Fatal("SetChildIndex failed")
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, names(p.Children())); diff != "" {
		t.Errorf("after move to front (-want +got):\n%s", diff)
	}
	p.SetChildIndex(c, 2)
	if diff := cmp.Diff([]string{"a", "b", "c"}, names(p.Children())); diff != "" {
		t.Errorf("after move to back (-want +got):\n%s", diff)
	}
	if p.SetChildIndex(a, 3) {
		t.Error("out of range index should fail")
	}
}

func TestRemoveChildren(t *testing.T) {
	p := NewLayer("p")
	for _, name := range []string{"a", "b", "c", "d"} {
		p.AddChild(NewLayer(name))
	}
	removed := p.RemoveChildren(1, 3)
	if diff := cmp.Diff([]string{"b", "c"}, names(removed)); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "d"}, names(p.Children())); diff != "" {
		t.Errorf("remaining (-want +got):\n%s", diff)
	}
	for _, r := range removed {
		if r.Parent() != nil {
			t.Errorf("%s still has a parent", r.Name)
		}
		if r.IsDisposed() {
			t.Errorf("%s should not be disposed", r.Name)
		}
	}
	if got := p.RemoveChildren(5, 9); got != nil {
		t.Errorf("empty range removed %v", names(got))
	}
	p.RemoveAllChildren()
	if p.NumChildren() != 0 {
		t.Errorf("NumChildren = %d after RemoveAllChildren", p.NumChildren())
	}
}

func TestRemoveChildAt(t *testing.T) {
	p := NewLayer("p")
	a := NewLayer("a")
	p.AddChild(a)
	if p.RemoveChildAt(3) != nil {
		t.Error("out of range RemoveChildAt should return nil")
	}
	if p.RemoveChildAt(0) != a {
		t.Error("RemoveChildAt returned the wrong child")
	}
	if p.RemoveChild(a) {
		t.Error("RemoveChild of a non-child should fail")
	}
}

func TestReplaceChild(t *testing.T) {
	p := NewLayer("p")
	a, b, c := NewLayer("a"), NewLayer("b"), NewLayer("c")
	p.AddChild(a)
	p.AddChild(b)
	if !p.ReplaceChild(a, c) {
		t.Fatal("ReplaceChild failed")
	}
	if diff := cmp.Diff([]string{"c", "b"}, names(p.Children())); diff != "" {
		t.Errorf("children (-want +got):\n%s", diff)
	}
	if a.Parent() != nil {
		t.Error("replaced child still has a parent")
	}

	// Swapping in a sibling keeps the slot of the replaced child.
	if !p.ReplaceChild(b, c) {
		t.Fatal("ReplaceChild with a sibling failed")
	}
	if diff := cmp.Diff([]string{"c"}, names(p.Children())); diff != "" {
		t.Errorf("children (-want +got):\n%s", diff)
	}

	if p.ReplaceChild(c, p) {
		t.Error("replacing with the parent itself should fail")
	}
}

func TestChildByNameAndContains(t *testing.T) {
	p, a, b := NewLayer("p"), NewLayer("a"), NewLayer("b")
	p.AddChild(a)
	a.AddChild(b)
	if p.ChildByName("a") != a {
		t.Error("ChildByName(a) failed")
	}
	if p.ChildByName("b") != nil {
		t.Error("ChildByName should only look at direct children")
	}
	if !p.Contains(b) || !p.Contains(p) {
		t.Error("Contains should include descendants and self")
	}
	if b.Contains(p) {
		t.Error("a descendant does not contain its ancestor")
	}
}

func TestAttachedFollowsRoot(t *testing.T) {
	dl := NewDisplayList(NewRecordingBackend())
	g, leaf := NewLayer("g"), NewLayer("leaf")
	g.AddChild(leaf)
	if leaf.Attached() {
		t.Error("detached subtree reports attached")
	}
	dl.Root().AddChild(g)
	if leaf.DisplayList() != dl {
		t.Error("leaf should reach the display list through the root")
	}
	g.RemoveFromParent()
	if leaf.Attached() || leaf.Root() != g {
		t.Error("removal should make g the top of its own tree")
	}
}

// --- Dispose ---

func TestDisposeSubtree(t *testing.T) {
	p, c, gc := NewLayer("p"), NewLayer("c"), NewLayer("gc")
	p.AddChild(c)
	c.AddChild(gc)
	c.Dispose()
	if !c.IsDisposed() || !gc.IsDisposed() {
		t.Error("Dispose should recurse")
	}
	if p.NumChildren() != 0 {
		t.Error("disposed child still linked to its parent")
	}
	if c.ID != 0 {
		t.Errorf("ID = %d after dispose, want 0", c.ID)
	}
	if p.AddChild(c) {
		t.Error("a disposed node cannot be re-added")
	}
}

func TestDisposeRootIgnored(t *testing.T) {
	dl := NewDisplayList(NewRecordingBackend())
	dl.Root().Dispose()
	if dl.Root().IsDisposed() {
		t.Error("a DisplayList root cannot be disposed")
	}
}

func TestDisposeReleasesMaskLinks(t *testing.T) {
	owner, m := NewLayer("owner"), NewSolidLayer("m", 10, 10, ColorBlack)
	owner.SetMask(m)
	m.Dispose()
	if owner.Mask() != nil {
		t.Error("owner still references a disposed mask")
	}
}
