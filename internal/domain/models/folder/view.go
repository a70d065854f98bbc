package folder

import (
	"fmt"
	"strings"
	"time"
)

// ViewLayout is the content kind of a view. Each layout is served by one content handler.
type ViewLayout string

const (
	LayoutDocument ViewLayout = "document"
	LayoutGrid     ViewLayout = "grid"
	LayoutBoard    ViewLayout = "board"
	LayoutCalendar ViewLayout = "calendar"
)

// ParseViewLayout normalises a layout name
func ParseViewLayout(s string) (ViewLayout, error) {
	switch l := ViewLayout(strings.ToLower(strings.TrimSpace(s))); l {
	case LayoutDocument, LayoutGrid, LayoutBoard, LayoutCalendar:
		return l, nil
	default:
		return "", fmt.Errorf("unknown view layout %q", s)
	}
}

func (l ViewLayout) String() string { return string(l) }

// View is a single node of the workspace tree.
// ParentViewID is either another view id or the id of the owning workspace (top level).
type View struct {
	ID           string     `json:"id"`
	ParentViewID string     `json:"parent_view_id"`
	Name         string     `json:"name"`
	Desc         string     `json:"desc"`
	Layout       ViewLayout `json:"layout"`
	Children     []string   `json:"children"` // ordered child view ids
	CreatedAt    time.Time  `json:"created_at"`
}

// Clone returns a deep copy so snapshots never leak their internal slices
func (v View) Clone() View {
	v.Children = append([]string(nil), v.Children...)
	return v
}

// ViewNode is the notification/API shape of a view: the view plus its
// non-trashed direct children. Children of children are never populated.
type ViewNode struct {
	ID           string     `json:"id"`
	ParentViewID string     `json:"parent_view_id"`
	Name         string     `json:"name"`
	Desc         string     `json:"desc"`
	Layout       ViewLayout `json:"layout"`
	CreatedAt    time.Time  `json:"created_at"`
	ChildViews   []ViewNode `json:"child_views"`
}

// NewViewNode annotates a view with its child views (one level deep)
func NewViewNode(view View, children []View) ViewNode {
	node := viewNodeOf(view)
	node.ChildViews = make([]ViewNode, 0, len(children))
	for _, child := range children {
		node.ChildViews = append(node.ChildViews, viewNodeOf(child))
	}
	return node
}

func viewNodeOf(v View) ViewNode {
	return ViewNode{
		ID:           v.ID,
		ParentViewID: v.ParentViewID,
		Name:         v.Name,
		Desc:         v.Desc,
		Layout:       v.Layout,
		CreatedAt:    v.CreatedAt,
		ChildViews:   []ViewNode{},
	}
}

// ViewUpdate carries the optional fields of an in-place update. Nil means "leave as is".
type ViewUpdate struct {
	Name   *string
	Desc   *string
	Layout *ViewLayout
}

// Apply writes the present fields onto v
func (u ViewUpdate) Apply(v *View) {
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Desc != nil {
		v.Desc = *u.Desc
	}
	if u.Layout != nil {
		v.Layout = *u.Layout
	}
}

// Empty reports whether no field is set
func (u ViewUpdate) Empty() bool {
	return u.Name == nil && u.Desc == nil && u.Layout == nil
}
