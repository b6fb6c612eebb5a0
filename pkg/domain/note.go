package domain

// Default sticky note geometry and colors.
const (
	DefaultNoteWidth  = 200.0
	DefaultNoteHeight = 150.0
)

// NoteStyle describes how a sticky note is painted.
type NoteStyle struct {
	BackgroundColor string  `json:"background_color"`
	TextColor       string  `json:"text_color"`
	FontSize        float64 `json:"font_size"`
}

// DefaultNoteStyle is applied to newly created notes.
var DefaultNoteStyle = NoteStyle{
	BackgroundColor: "#fff9c4",
	TextColor:       "#333333",
	FontSize:        14,
}

// StickyNote is a free-standing annotation on the canvas.
type StickyNote struct {
	ID       string    `json:"id"`
	Content  string    `json:"content"`
	Position Position  `json:"position"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Style    NoteStyle `json:"style"`
}

// Clone returns a copy of the note. Notes hold no reference types,
// so a value copy is already deep.
func (n StickyNote) Clone() StickyNote {
	return n
}
