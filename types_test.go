package shopagent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInstructionSteps(t *testing.T) {
	tests := []struct {
		name  string
		steps []string
		want  Instructions
	}{
		{
			name:  "plain steps get numbered",
			steps: []string{"Cook pasta", "Add sauce"},
			want:  "1. Cook pasta\n2. Add sauce",
		},
		{
			name:  "already numbered steps join unmodified",
			steps: []string{"1. Boil water", "2. Add salt"},
			want:  "1. Boil water\n2. Add salt",
		},
		{
			name:  "step prefix counts as numbered",
			steps: []string{"Step 1: preheat oven", "Step 2: mix batter"},
			want:  "Step 1: preheat oven\nStep 2: mix batter",
		},
		{
			name:  "numbering detected past the first step",
			steps: []string{"Gather ingredients", "2. Chop onions", "Simmer"},
			want:  "Gather ingredients\n2. Chop onions\nSimmer",
		},
		{
			name:  "empty list falls back to placeholder",
			steps: []string{},
			want:  PlaceholderInstructions,
		},
		{
			name:  "single step",
			steps: []string{"Toss everything together"},
			want:  "1. Toss everything together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeInstructionSteps(tt.steps)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstructionsUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Instructions
		wantErr bool
	}{
		{
			name:    "string passes through",
			payload: `{"instructions": "Mix and bake."}`,
			want:    "Mix and bake.",
		},
		{
			name:    "list of steps gets joined",
			payload: `{"instructions": ["Cook pasta", "Add sauce"]}`,
			want:    "1. Cook pasta\n2. Add sauce",
		},
		{
			name:    "null becomes placeholder",
			payload: `{"instructions": null}`,
			want:    PlaceholderInstructions,
		},
		{
			name:    "empty string becomes placeholder",
			payload: `{"instructions": "   "}`,
			want:    PlaceholderInstructions,
		},
		{
			name:    "object is rejected",
			payload: `{"instructions": {"step": 1}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst struct {
				Instructions Instructions `json:"instructions"`
			}
			err := json.Unmarshal([]byte(tt.payload), &dst)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dst.Instructions)
		})
	}
}

func TestRecipeIsValid(t *testing.T) {
	tests := []struct {
		name   string
		recipe Recipe
		want   bool
	}{
		{
			name:   "complete recipe",
			recipe: Recipe{Name: "Chili", Ingredients: []string{"beans"}, Servings: 4},
			want:   true,
		},
		{
			name:   "blank name",
			recipe: Recipe{Name: "  ", Ingredients: []string{"beans"}},
			want:   false,
		},
		{
			name:   "no ingredients",
			recipe: Recipe{Name: "Chili"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.recipe.IsValid())
		})
	}
}

func TestLineItemIsValid(t *testing.T) {
	assert.True(t, (&LineItem{Name: "Rice", Price: 2.99}).IsValid())
	assert.True(t, (&LineItem{Name: "Free sample", Price: 0}).IsValid())
	assert.False(t, (&LineItem{Name: "", Price: 2.99}).IsValid())
	assert.False(t, (&LineItem{Name: "Rice", Price: -1}).IsValid())
}
