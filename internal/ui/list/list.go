// Package list is a virtual-scrolling text list. Its rows are slots that
// are bound to items lazily, through a Binder, when they are first rendered.
// The list implements the structural update calls of diff.Updater so that a
// presentation adapter can keep it in step with a changing data set.
package list

import (
	"slices"
	"strings"

	"github.com/charmbracelet/x/exp/ordered"
)

// Binder returns the item for the slot at index. It is called from the
// goroutine that owns the list.
type Binder func(index int) Item

// List represents a list of slots that are lazily bound and rendered. Items
// are stacked vertically from top to bottom.
type List struct {
	// Viewport size
	width, height int

	slots []Item // nil means unbound
	bind  Binder

	// Gap between items (0 or less means no gap)
	gap int

	// Focus and selection state
	focused     bool
	selectedIdx int // The current selected index -1 means no selection

	// offsetIdx is the index of the first visible item in the viewport.
	offsetIdx int
	// offsetLine is the number of lines of the item at offsetIdx that are
	// scrolled out of view (above the viewport).
	// It must always be >= 0.
	offsetLine int

	// binds counts Binder calls, for diagnostics.
	binds int

	// renderCallbacks is a list of callbacks to apply when rendering items.
	renderCallbacks []func(idx, selectedIdx int, item Item) Item
}

// renderedItem holds the rendered content and height of an item.
type renderedItem struct {
	content string
	height  int
}

// New creates a list whose slots are bound through bind. A nil bind renders
// every slot as a placeholder.
func New(bind Binder) *List {
	return &List{
		bind:        bind,
		selectedIdx: -1,
	}
}

// NewWithItems creates a list holding already bound items.
func NewWithItems(items ...Item) *List {
	l := New(nil)
	l.slots = slices.Clone(items)
	return l
}

// RegisterRenderCallback registers a callback to be called when rendering
// items. This can be used to modify items before they are rendered.
func (l *List) RegisterRenderCallback(cb func(idx, selectedIdx int, item Item) Item) {
	l.renderCallbacks = append(l.renderCallbacks, cb)
}

// SetSize sets the size of the list viewport.
func (l *List) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// SetGap sets the gap between items.
func (l *List) SetGap(gap int) {
	l.gap = gap
}

// Width returns the width of the list viewport.
func (l *List) Width() int {
	return l.width
}

// Height returns the height of the list viewport.
func (l *List) Height() int {
	return l.height
}

// Len returns the number of slots in the list.
func (l *List) Len() int {
	return len(l.slots)
}

// Bound returns how many slots currently hold an item.
func (l *List) Bound() int {
	var n int
	for _, it := range l.slots {
		if it != nil {
			n++
		}
	}
	return n
}

// Binds returns how many times the Binder has been called.
func (l *List) Binds() int {
	return l.binds
}

// InsertAt adds an unbound slot at index.
func (l *List) InsertAt(index int) {
	index = ordered.Clamp(index, 0, len(l.slots))
	l.slots = slices.Insert(l.slots, index, Item(nil))

	if l.selectedIdx >= index {
		l.selectedIdx++
	}
	if l.offsetIdx > index {
		l.offsetIdx++
	}
}

// RemoveAt removes the slot at index.
func (l *List) RemoveAt(index int) {
	if index < 0 || index >= len(l.slots) {
		return
	}
	l.slots = slices.Delete(l.slots, index, index+1)

	// Adjust selection if needed
	if l.selectedIdx == index {
		l.selectedIdx = min(index, len(l.slots)-1)
	} else if l.selectedIdx > index {
		l.selectedIdx--
	}

	// Adjust offset if needed
	if l.offsetIdx > index {
		l.offsetIdx--
	} else if l.offsetIdx == index && l.offsetIdx >= len(l.slots) {
		l.offsetIdx = max(0, len(l.slots)-1)
		l.offsetLine = 0
	}
}

// MoveTo moves the slot at from so that it ends up at to. The selection
// follows the moved slot.
func (l *List) MoveTo(from, to int) {
	if from < 0 || from >= len(l.slots) || to < 0 || to >= len(l.slots) || from == to {
		return
	}
	it := l.slots[from]
	l.slots = slices.Delete(l.slots, from, from+1)
	l.slots = slices.Insert(l.slots, to, it)

	switch {
	case l.selectedIdx == from:
		l.selectedIdx = to
	case from < l.selectedIdx && l.selectedIdx <= to:
		l.selectedIdx--
	case to <= l.selectedIdx && l.selectedIdx < from:
		l.selectedIdx++
	}
}

// ChangeAt unbinds the slot at index so it is bound again on next render.
func (l *List) ChangeAt(index int) {
	if index < 0 || index >= len(l.slots) {
		return
	}
	l.slots[index] = nil
}

// Reset replaces the list with n unbound slots.
func (l *List) Reset(n int) {
	l.slots = make([]Item, max(0, n))
	l.selectedIdx = min(l.selectedIdx, len(l.slots)-1)
	l.offsetIdx = max(0, min(l.offsetIdx, len(l.slots)-1))
	l.offsetLine = 0
}

// item binds the slot at idx if needed and returns its item. Placeholders
// are not kept, so the slot is asked for again on the next render.
func (l *List) item(idx int) Item {
	if it := l.slots[idx]; it != nil {
		return it
	}
	var it Item
	if l.bind != nil {
		l.binds++
		it = l.bind(idx)
	}
	if it == nil {
		return &PlaceholderItem{}
	}
	if !isPlaceholder(it) {
		l.slots[idx] = it
	}
	return it
}

// getItem renders and returns the item at the given index.
func (l *List) getItem(idx int) renderedItem {
	if idx < 0 || idx >= len(l.slots) {
		return renderedItem{}
	}

	item := l.item(idx)
	for _, cb := range l.renderCallbacks {
		if it := cb(idx, l.selectedIdx, item); it != nil {
			item = it
		}
	}

	if focusable, isFocusable := item.(Focusable); isFocusable {
		focusable.SetFocused(l.focused && idx == l.selectedIdx)
	}

	rendered := item.Render(l.width)
	rendered = strings.TrimRight(rendered, "\n")
	return renderedItem{
		content: rendered,
		height:  max(1, countLines(rendered)),
	}
}

// ScrollToIndex scrolls the list to the given item index.
func (l *List) ScrollToIndex(index int) {
	l.offsetIdx = ordered.Clamp(index, 0, max(0, len(l.slots)-1))
	l.offsetLine = 0
}

// ScrollBy scrolls the list by the given number of lines.
func (l *List) ScrollBy(lines int) {
	if len(l.slots) == 0 || lines == 0 {
		return
	}

	if lines > 0 {
		// Find the last item that can sit at the top of the viewport while
		// the list still fills it.
		var totalLines int
		var lastItemIdx int
		for i := len(l.slots) - 1; i >= 0; i-- {
			item := l.getItem(i)
			totalLines += item.height
			if l.gap > 0 && i < len(l.slots)-1 {
				totalLines += l.gap
			}
			if totalLines > l.height-1 {
				lastItemIdx = i
				break
			}
		}

		var item renderedItem
		l.offsetLine += lines
		for {
			item = l.getItem(l.offsetIdx)
			totalHeight := item.height
			if l.gap > 0 {
				totalHeight += l.gap
			}

			if l.offsetIdx >= lastItemIdx || l.offsetLine < totalHeight {
				break
			}

			l.offsetLine -= totalHeight
			l.offsetIdx++
		}

		if l.offsetLine >= item.height {
			l.offsetLine = item.height
		}
		if l.offsetIdx == lastItemIdx {
			// Never scroll past the bottom.
			l.offsetLine = min(l.offsetLine, max(0, totalLines-l.height))
		}
	} else {
		l.offsetLine += lines // lines is negative
		for l.offsetLine < 0 {
			if l.offsetIdx <= 0 {
				l.ScrollToTop()
				break
			}

			l.offsetIdx--
			prevItem := l.getItem(l.offsetIdx)
			totalHeight := prevItem.height
			if l.gap > 0 {
				totalHeight += l.gap
			}
			l.offsetLine += totalHeight
		}
	}
}

// VisibleItemIndices finds the range of items that are visible in the viewport.
// This is used for checking if selected item is in view.
func (l *List) VisibleItemIndices() (startIdx, endIdx int) {
	if len(l.slots) == 0 {
		return 0, 0
	}

	startIdx = l.offsetIdx
	currentIdx := startIdx
	visibleHeight := -l.offsetLine

	for currentIdx < len(l.slots) {
		item := l.getItem(currentIdx)
		visibleHeight += item.height
		if l.gap > 0 {
			visibleHeight += l.gap
		}

		if visibleHeight >= l.height {
			break
		}
		currentIdx++
	}

	endIdx = min(currentIdx, len(l.slots)-1)
	return startIdx, endIdx
}

// Render renders the list and returns the visible lines. Only the slots in
// view are bound.
func (l *List) Render() string {
	if len(l.slots) == 0 {
		return ""
	}

	var lines []string
	currentIdx := l.offsetIdx
	currentOffset := l.offsetLine

	linesNeeded := l.height

	for linesNeeded > 0 && currentIdx < len(l.slots) {
		item := l.getItem(currentIdx)
		itemLines := strings.Split(item.content, "\n")
		itemHeight := len(itemLines)

		if currentOffset >= 0 && currentOffset < itemHeight {
			lines = append(lines, itemLines[currentOffset:]...)
			// Gaps go between items; the trailing one is trimmed below.
			for range l.gap {
				lines = append(lines, "")
			}
		} else {
			// offsetLine starts in the gap
			gapRemaining := l.gap - (currentOffset - itemHeight)
			for range max(0, gapRemaining) {
				lines = append(lines, "")
			}
		}

		linesNeeded = l.height - len(lines)
		currentIdx++
		currentOffset = 0
	}

	if len(lines) > l.height {
		lines = lines[:l.height]
	}
	if currentIdx >= len(l.slots) {
		for len(lines) > 0 && lines[len(lines)-1] == "" && l.gap > 0 {
			lines = lines[:len(lines)-1]
		}
	}

	return strings.Join(lines, "\n")
}

// Focus sets the focus state of the list.
func (l *List) Focus() {
	l.focused = true
}

// Blur removes the focus state from the list.
func (l *List) Blur() {
	l.focused = false
}

// Focused reports whether the list is focused.
func (l *List) Focused() bool {
	return l.focused
}

// ScrollToTop scrolls the list to the top.
func (l *List) ScrollToTop() {
	l.offsetIdx = 0
	l.offsetLine = 0
}

// ScrollToBottom scrolls the list to the bottom.
func (l *List) ScrollToBottom() {
	if len(l.slots) == 0 {
		return
	}

	var totalHeight int
	for i := len(l.slots) - 1; i >= 0; i-- {
		item := l.getItem(i)
		totalHeight += item.height
		if l.gap > 0 && i < len(l.slots)-1 {
			totalHeight += l.gap
		}
		if totalHeight >= l.height {
			l.offsetIdx = i
			l.offsetLine = totalHeight - l.height
			return
		}
	}
	// All items fit in the viewport
	l.ScrollToTop()
}

// ScrollToSelected scrolls the list so the selected item is in view.
func (l *List) ScrollToSelected() {
	if l.selectedIdx < 0 || l.selectedIdx >= len(l.slots) {
		return
	}

	startIdx, endIdx := l.VisibleItemIndices()
	if l.selectedIdx < startIdx || (l.selectedIdx == startIdx && l.offsetLine > 0) {
		l.offsetIdx = l.selectedIdx
		l.offsetLine = 0
	} else if l.selectedIdx > endIdx {
		// Scroll so that the selected item is at the bottom
		var totalHeight int
		for i := l.selectedIdx; i >= 0; i-- {
			item := l.getItem(i)
			totalHeight += item.height
			if l.gap > 0 && i < l.selectedIdx {
				totalHeight += l.gap
			}
			if totalHeight >= l.height {
				l.offsetIdx = i
				l.offsetLine = totalHeight - l.height
				return
			}
		}
		l.ScrollToTop()
	}
}

// SelectedItemInView returns whether the selected item is currently in view.
func (l *List) SelectedItemInView() bool {
	if l.selectedIdx < 0 || l.selectedIdx >= len(l.slots) {
		return false
	}
	startIdx, endIdx := l.VisibleItemIndices()
	return l.selectedIdx >= startIdx && l.selectedIdx <= endIdx
}

// SetSelected sets the selected item index. Out of bounds indices clear the
// selection.
func (l *List) SetSelected(index int) {
	if index < 0 || index >= len(l.slots) {
		l.selectedIdx = -1
	} else {
		l.selectedIdx = index
	}
}

// Selected returns the index of the currently selected item. It returns -1 if
// no item is selected.
func (l *List) Selected() int {
	return l.selectedIdx
}

// SelectPrev selects the previous item in the list.
// It returns whether the selection changed.
func (l *List) SelectPrev() bool {
	if l.selectedIdx > 0 {
		l.selectedIdx--
		return true
	}
	return false
}

// SelectNext selects the next item in the list.
// It returns whether the selection changed.
func (l *List) SelectNext() bool {
	if l.selectedIdx < len(l.slots)-1 {
		l.selectedIdx++
		return true
	}
	return false
}

// SelectFirst selects the first item in the list.
func (l *List) SelectFirst() bool {
	if len(l.slots) > 0 {
		l.selectedIdx = 0
		return true
	}
	return false
}

// SelectLast selects the last item in the list.
func (l *List) SelectLast() bool {
	if len(l.slots) > 0 {
		l.selectedIdx = len(l.slots) - 1
		return true
	}
	return false
}

// ItemAt returns the item at the given index, binding it if needed.
func (l *List) ItemAt(index int) Item {
	if index < 0 || index >= len(l.slots) {
		return nil
	}
	return l.item(index)
}

// ItemIndexAtPosition returns the item at the given viewport-relative y
// coordinate and the y offset within that item. It returns -1, -1 if no
// item is found.
func (l *List) ItemIndexAtPosition(y int) (itemIdx int, itemY int) {
	if y < 0 || y >= l.height {
		return -1, -1
	}

	currentIdx := l.offsetIdx
	currentLine := -l.offsetLine

	for currentIdx < len(l.slots) && currentLine < l.height {
		item := l.getItem(currentIdx)
		itemEndLine := currentLine + item.height

		if y >= currentLine && y < itemEndLine {
			return currentIdx, y - currentLine
		}

		currentLine = itemEndLine
		if l.gap > 0 {
			currentLine += l.gap
		}
		currentIdx++
	}

	return -1, -1
}

// countLines counts the number of lines in a string.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
