package core

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Label is a disease name with optional remediation advice.
type Label struct {
	Name     string
	Solution string
}

// Picker returns an index in [0, n).
type Picker func(n int) int

// LabelTable is the fixed sampling universe for predictions. It is immutable
// after construction and safe for concurrent use.
type LabelTable struct {
	labels []Label
	pick   Picker
}

// DefaultLabels returns the built-in disease table.
func DefaultLabels() []LabelConfig {
	return []LabelConfig{
		{Name: "Apple Scab", Solution: "Apply fungicides like Captan or Mancozeb. Ensure proper sanitation and pruning."},
		{Name: "Black Rot", Solution: "Remove and destroy infected fruits and branches. Use fungicide sprays during growing season."},
		{Name: "Cedar Apple Rust", Solution: "Use resistant varieties and apply fungicides like myclobutanil or mancozeb."},
		{Name: "Leaf Blight", Solution: "Avoid overhead watering. Use fungicides like chlorothalonil."},
		{Name: "Black rot", Solution: "Prune affected areas and apply copper-based fungicides."},
		{Name: "Mosaic virus", Solution: "Remove infected plants. Control insects like aphids which spread the virus."},
		{Name: "Leaf spot wilt", Solution: "Remove infected leaves. Apply neem oil or appropriate fungicides."},
		{Name: "Subterranean clover stunt", Solution: "Remove infected plants and control aphid population with insecticides."},
	}
}

// NewLabelTable builds a table from the configured labels. A nil picker
// selects uniformly with math/rand/v2.
func NewLabelTable(labels []LabelConfig, pick Picker) (*LabelTable, error) {
	if err := validateLabels(labels); err != nil {
		return nil, err
	}
	if pick == nil {
		pick = rand.IntN
	}

	table := &LabelTable{
		labels: make([]Label, 0, len(labels)),
		pick:   pick,
	}
	for _, label := range labels {
		table.labels = append(table.labels, Label{Name: label.Name, Solution: label.Solution})
	}
	return table, nil
}

// Random selects one label independent of any input.
func (table *LabelTable) Random() (Label, error) {
	if len(table.labels) == 0 {
		return Label{}, errors.New("label table is empty")
	}
	i := table.pick(len(table.labels))
	if i < 0 || i >= len(table.labels) {
		return Label{}, fmt.Errorf("picker returned index %d outside [0, %d)", i, len(table.labels))
	}
	return table.labels[i], nil
}

// Names returns the label names in table order.
func (table *LabelTable) Names() []string {
	names := make([]string, len(table.labels))
	for i, label := range table.labels {
		names[i] = label.Name
	}
	return names
}

func (table *LabelTable) Len() int {
	return len(table.labels)
}
