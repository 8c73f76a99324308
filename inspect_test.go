package arbor

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var ignoreIDs = cmpopts.IgnoreFields(LayerInfo{}, "ID")

func TestInspect(t *testing.T) {
	p := NewLayer("p")
	p.SetBlendMode(BlendScreen)
	s := NewSolidLayer("s", 20, 20, colorRed)
	s.SetPosition(10, 5)
	s.AddFilter(NewBlurFilter(1))
	p.AddChild(s)

	want := LayerInfo{
		Name:    "p",
		Kind:    "layer",
		Visible: true,
		Alpha:   1,
		Blend:   "screen",
		Bounds:  Rect{X: 7, Y: 2, Width: 26, Height: 26},
		Children: []LayerInfo{{
			Name:    "s",
			Kind:    "solid",
			Content: "solid",
			Visible: true,
			Alpha:   1,
			Bounds:  Rect{X: 7, Y: 2, Width: 26, Height: 26},
			Filters: 1,
		}},
	}
	if diff := cmp.Diff(want, p.Inspect(), ignoreIDs); diff != "" {
		t.Errorf("Inspect (-want +got):\n%s", diff)
	}
}

func TestInspectMask(t *testing.T) {
	p := NewLayer("p")
	n := NewSolidLayer("n", 10, 10, colorRed)
	m := NewSolidLayer("m", 5, 5, colorRed)
	p.AddChild(n)
	p.AddChild(m)
	n.SetMask(m)
	n.SetMaskType(MaskContour)

	info := p.Inspect()
	if len(info.Children) != 1 {
		t.Fatalf("children = %d, want the mask left out", len(info.Children))
	}
	got := info.Children[0]
	if got.Mask == nil || got.Mask.Name != "m" || got.MaskType != "contour" {
		t.Errorf("mask info = %+v, %q", got.Mask, got.MaskType)
	}
}

func TestDumpTree(t *testing.T) {
	p := NewLayer("p")
	p.AddChild(NewSolidLayer("s", 4, 4, colorRed))
	var buf bytes.Buffer
	if err := p.DumpTree(&buf); err != nil {
		t.Fatalf("DumpTree: %v", err)
	}
	var back LayerInfo
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(p.Inspect(), back); diff != "" {
		t.Errorf("decoded tree (-want +got):\n%s", diff)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  \"")) {
		t.Error("output is not indented")
	}
}

func TestCacheInfoEmpty(t *testing.T) {
	dl := NewDisplayList(NewRecordingBackend(), WithRenderMode(RenderPartial))
	got := dl.CacheInfo()
	if diff := cmp.Diff(CacheInfo{Mode: "partial"}, got); diff != "" {
		t.Errorf("CacheInfo (-want +got):\n%s", diff)
	}
}
