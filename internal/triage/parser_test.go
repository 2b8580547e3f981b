package triage

import "testing"

func TestParseItems(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "plain array",
			content: `[{"id":"a","subject":"x","timestamp":"2026-03-02T10:00:00Z"}]`,
			wantIDs: []string{"a"},
		},
		{
			name: "fenced block with prose",
			content: "Here is the export:\n```json\n" +
				`[{"id":"a","timestamp":"2026-03-02T10:00:00Z"},{"id":"b","timestamp":"2026-03-02T11:00:00Z"}]` +
				"\n```\nThanks",
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "brackets inside strings",
			content: `note: [{"id":"a","content":"see ] and [ here","timestamp":"2026-03-02T10:00:00Z"}]`,
			wantIDs: []string{"a"},
		},
		{
			name:    "no array",
			content: "nothing to see",
			wantErr: true,
		},
		{
			name:    "invalid json",
			content: `[{"id": }]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ParseItems(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != len(tt.wantIDs) {
				t.Fatalf("expected %d items, got %d", len(tt.wantIDs), len(items))
			}
			for i, id := range tt.wantIDs {
				if items[i].ID != id {
					t.Errorf("item %d: expected id %s, got %s", i, id, items[i].ID)
				}
			}
		})
	}
}

func TestParseItemsMissingFields(t *testing.T) {
	items, err := ParseItems(`[{"id":"a","timestamp":"2026-03-02T10:00:00Z"},{"id":"b"}]`)
	if err != nil {
		t.Fatalf("expected incomplete items to decode, got %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	classified, err := ClassifyAllAt(items, DefaultSettings(), testNow)
	if !IsInputError(err) {
		t.Fatalf("expected input error from classification, got %v", err)
	}
	if len(classified) != 1 || classified[0].Item.ID != "a" {
		t.Errorf("expected only item a classified, got %+v", classified)
	}
	te, _ := AsError(err)
	if te.Details["item_id"] != "b" {
		t.Errorf("expected item_id b, got %v", te.Details["item_id"])
	}
}
