package checks

import "testing"

func TestDimensionCheck_Run(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		width   int
		height  int
		wantErr bool
	}{
		{name: "No bounds", params: map[string]any{}, width: 2, height: 2},
		{name: "Within bounds", params: map[string]any{"minWidth": 2, "maxWidth": 10, "maxHeight": 10}, width: 4, height: 4},
		{name: "Too narrow", params: map[string]any{"minWidth": 5}, width: 4, height: 4, wantErr: true},
		{name: "Too tall", params: map[string]any{"maxHeight": 3}, width: 2, height: 4, wantErr: true},
		{name: "Float params from YAML", params: map[string]any{"maxWidth": float64(3)}, width: 4, height: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := NewDimensionCheck(tt.params)
			if err != nil {
				t.Fatalf("Failed to create check: %v", err)
			}
			err = check.Run(createTestPNG(t, tt.width, tt.height))
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewDimensionCheck_InvalidParams(t *testing.T) {
	tests := []map[string]any{
		{"minWidth": -1},
		{"minWidth": 10, "maxWidth": 5},
		{"minHeight": 10, "maxHeight": 5},
	}
	for _, params := range tests {
		if _, err := NewDimensionCheck(params); err == nil {
			t.Errorf("Expected error for params %v", params)
		}
	}
}

func TestDimensionCheck_RejectsMarkup(t *testing.T) {
	check, err := NewDimensionCheck(map[string]any{"minWidth": 1})
	if err != nil {
		t.Fatalf("Failed to create check: %v", err)
	}
	if err := check.Run([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)); err == nil {
		t.Error("Expected markup without a raster header to fail")
	}
}
