package models

// DrillableItem is one character and the pinyin expected for it.
// An empty Pinyin marks punctuation, which is never drilled.
type DrillableItem struct {
	Character string `json:"character"`
	Pinyin    string `json:"pinyin"`
}

// IsPunctuation reports whether the item completes without being drilled
func (d DrillableItem) IsPunctuation() bool {
	return d.Pinyin == ""
}

// Sentence is the unit of progression: an ordered group of items plus a gloss
type Sentence struct {
	Lesson      string          `json:"lesson"`
	Translation string          `json:"def"`
	Words       []DrillableItem `json:"words"`
	ID          string          `json:"id"`
}

// DrillableCount returns the number of non-punctuation items
func (s Sentence) DrillableCount() int {
	n := 0
	for _, w := range s.Words {
		if !w.IsPunctuation() {
			n++
		}
	}
	return n
}

// Text joins the characters of the sentence
func (s Sentence) Text() string {
	text := ""
	for _, w := range s.Words {
		text += w.Character
	}
	return text
}
