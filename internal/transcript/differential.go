package transcript

import "github.com/joss/ddx/internal/feed"

// DiffItem is one ranked candidate diagnosis. Rank is its position.
type DiffItem struct {
	Diagnosis   string `json:"diagnosis"`
	Probability string `json:"probability"`
}

// Differential is the latest leading-hypothesis snapshot.
type Differential struct {
	Items   []DiffItem `json:"items"`
	RawText string     `json:"raw_text"`
}

// Tracker holds at most one differential snapshot.
type Tracker struct {
	latest *Differential
}

// NewTracker creates a tracker with no snapshot.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Apply replaces the snapshot wholesale with the one carried by c. Anything
// other than a differential classification is ignored.
func (t *Tracker) Apply(c feed.Classification) bool {
	if c.Kind != feed.KindDifferential || len(c.Pairs) == 0 {
		return false
	}
	items := make([]DiffItem, len(c.Pairs))
	for i, p := range c.Pairs {
		items[i] = DiffItem{Diagnosis: p.Label, Probability: p.Probability}
	}
	t.latest = &Differential{Items: items, RawText: c.Text}
	return true
}

// Latest returns a copy of the current snapshot, or nil.
func (t *Tracker) Latest() *Differential {
	if t.latest == nil {
		return nil
	}
	d := &Differential{
		Items:   append([]DiffItem(nil), t.latest.Items...),
		RawText: t.latest.RawText,
	}
	return d
}

// Reset drops the snapshot.
func (t *Tracker) Reset() {
	t.latest = nil
}
