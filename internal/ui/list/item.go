package list

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// Placeholder is the marker rendered for rows that are not loaded yet.
const Placeholder = "…"

// Item is a row of the list that can render itself to a given width.
type Item interface {
	Render(width int) string
}

// Focusable is an optional interface for items that change appearance when
// selected in a focused list.
type Focusable interface {
	SetFocused(focused bool)
}

// Styles holds the styles items are rendered with.
type Styles struct {
	Normal      lipgloss.Style
	Selected    lipgloss.Style
	Placeholder lipgloss.Style
}

// DefaultStyles returns the styles used by the session.
func DefaultStyles() Styles {
	return Styles{
		Normal:      lipgloss.NewStyle().PaddingLeft(2),
		Selected:    lipgloss.NewStyle().PaddingLeft(1).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("#6B50FF")).Foreground(lipgloss.Color("#F1EFEF")).Bold(true),
		Placeholder: lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("#605F6B")).Faint(true),
	}
}

// StringItem is a single string, truncated or wrapped to the list width.
type StringItem struct {
	content string
	wrap    bool
	focused bool

	style      *lipgloss.Style
	focusStyle *lipgloss.Style
}

// NewStringItem returns an item that truncates content to the list width.
func NewStringItem(content string) *StringItem {
	return &StringItem{content: content}
}

// NewWrappingStringItem returns an item that wraps content to the list width.
func NewWrappingStringItem(content string) *StringItem {
	return &StringItem{content: content, wrap: true}
}

// WithStyles sets the style used normally and when focused.
func (s *StringItem) WithStyles(style, focusStyle lipgloss.Style) *StringItem {
	s.style = &style
	s.focusStyle = &focusStyle
	return s
}

// Content returns the raw content of the item.
func (s *StringItem) Content() string {
	return s.content
}

// SetFocused implements Focusable.
func (s *StringItem) SetFocused(focused bool) {
	s.focused = focused
}

// Render implements Item.
func (s *StringItem) Render(width int) string {
	style := s.style
	if s.focused && s.focusStyle != nil {
		style = s.focusStyle
	}

	contentWidth := width
	if style != nil {
		contentWidth -= style.GetHorizontalFrameSize()
	}

	content := s.content
	if contentWidth > 0 {
		if s.wrap {
			content = lipgloss.Wrap(content, contentWidth, "")
		} else {
			lines := strings.Split(content, "\n")
			for i, ln := range lines {
				lines[i] = ansi.Truncate(ln, contentWidth, "…")
			}
			content = strings.Join(lines, "\n")
		}
	}

	if style != nil {
		return style.Render(content)
	}
	return content
}

// PlaceholderItem stands in for a row whose page has not been loaded.
type PlaceholderItem struct {
	style *lipgloss.Style
}

// NewPlaceholderItem returns a placeholder rendered with style.
func NewPlaceholderItem(style lipgloss.Style) *PlaceholderItem {
	return &PlaceholderItem{style: &style}
}

// Render implements Item.
func (p *PlaceholderItem) Render(int) string {
	if p == nil || p.style == nil {
		return Placeholder
	}
	return p.style.Render(Placeholder)
}

func isPlaceholder(it Item) bool {
	_, ok := it.(*PlaceholderItem)
	return ok
}
