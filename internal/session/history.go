package session

// ImageHistory is the linear version history of generated images with an
// undo cursor. The cursor is -1 (no image yet) or a valid index. Appending
// after an undo truncates the undone branch first: history is a line, not a
// tree, and there is deliberately no redo. Not safe for concurrent use.
type ImageHistory struct {
	entries [][]byte
	cursor  int
}

func NewImageHistory() *ImageHistory {
	return &ImageHistory{cursor: -1}
}

// Current returns the image at the cursor, or nil when there is none.
func (h *ImageHistory) Current() []byte {
	if h.cursor < 0 {
		return nil
	}
	return h.entries[h.cursor]
}

func (h *ImageHistory) HasCurrent() bool {
	return h.cursor >= 0
}

// Push truncates everything beyond the cursor, appends img, and moves the
// cursor to the new last index.
func (h *ImageHistory) Push(img []byte) {
	h.entries = append(h.entries[:h.cursor+1], img)
	h.cursor = len(h.entries) - 1
}

// Undo moves the cursor back one entry. It only decrements; entries are
// never removed here. A no-op at cursor 0 or -1.
func (h *ImageHistory) Undo() bool {
	if h.cursor <= 0 {
		return false
	}
	h.cursor--
	return true
}

func (h *ImageHistory) CanUndo() bool {
	return h.cursor > 0
}

func (h *ImageHistory) Cursor() int {
	return h.cursor
}

func (h *ImageHistory) Len() int {
	return len(h.entries)
}

// Reset clears the sequence and returns the cursor to -1.
func (h *ImageHistory) Reset() {
	h.entries = nil
	h.cursor = -1
}
