package directive

import (
	"reflect"
	"testing"
)

func TestExtractBracedPayload(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "payload with prose around it",
			input:  `prefix {"a": {"b":1}} suffix`,
			want:   `{"a": {"b":1}}`,
			wantOK: true,
		},
		{
			name:   "bare payload",
			input:  `{"image":"a cave"}`,
			want:   `{"image":"a cave"}`,
			wantOK: true,
		},
		{
			name:   "unbalanced input",
			input:  `{a: 1`,
			wantOK: false,
		},
		{
			name:   "no braces at all",
			input:  `I cannot comply.`,
			wantOK: false,
		},
		{
			name:   "stray closing brace before payload",
			input:  `} noise {"x":1}`,
			want:   `{"x":1}`,
			wantOK: true,
		},
		{
			name:   "only first top-level payload is returned",
			input:  `{"x":1} and {"y":2}`,
			want:   `{"x":1}`,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractBracedPayload(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ExtractBracedPayload(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractBracedPayload(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *ScenarioDirective
		wantErr bool
	}{
		{
			name:  "well formed directive",
			input: `{"image":"a torch","answer":"You see a torch.","score":1,"action":"add_to_inventory","item":"torch","location":"Cave"}`,
			want: &ScenarioDirective{
				Image:    "a torch",
				Answer:   "You see a torch.",
				Score:    1,
				Action:   ActionAddToInventory,
				Items:    []string{"torch"},
				Location: "Cave",
			},
		},
		{
			name:  "single quotes and python booleans",
			input: `Sure, here you go: {'image': 'a dragon', 'answer': 'It stares at you.', 'score': -3, 'action': 'no_action', 'item': None, 'location': 'Lair'}`,
			want: &ScenarioDirective{
				Image:    "a dragon",
				Answer:   "It stares at you.",
				Score:    -3,
				Action:   ActionNone,
				Location: "Lair",
			},
		},
		{
			name:  "item list",
			input: `{"image":"chest","answer":"Loot!","score":2,"action":"add_to_inventory","item":["rope","lantern"],"location":"Vault"}`,
			want: &ScenarioDirective{
				Image:    "chest",
				Answer:   "Loot!",
				Score:    2,
				Action:   ActionAddToInventory,
				Items:    []string{"rope", "lantern"},
				Location: "Vault",
			},
		},
		{
			name:  "score as numeric string",
			input: `{"image":"cliff","score":"5","location":"Ridge"}`,
			want: &ScenarioDirective{
				Image:    "cliff",
				Answer:   "cliff", // falls back to image
				Score:    5,
				Action:   ActionNone,
				Location: "Ridge",
			},
		},
		{
			name:  "missing optional fields take defaults",
			input: `{"image":"a quiet meadow"}`,
			want: &ScenarioDirective{
				Image:  "a quiet meadow",
				Answer: "a quiet meadow",
				Action: ActionNone,
			},
		},
		{
			name:  "unknown action degrades to no_action",
			input: `{"image":"mist","answer":"...","action":"teleport_item"}`,
			want: &ScenarioDirective{
				Image:  "mist",
				Answer: "...",
				Action: ActionNone,
			},
		},
		{
			name:  "no_items placeholder yields empty list",
			input: `{"image":"road","answer":"Onward.","action":"no_action","item":"[no_items]"}`,
			want: &ScenarioDirective{
				Image:  "road",
				Answer: "Onward.",
				Action: ActionNone,
			},
		},
		{
			name:  "bracketed string item list",
			input: `{"image":"camp","answer":"You pack up.","action":"remove_from_inventory","item":"[rope, lantern]"}`,
			want: &ScenarioDirective{
				Image:  "camp",
				Answer: "You pack up.",
				Action: ActionRemoveFromInventory,
				Items:  []string{"rope", "lantern"},
			},
		},
		{
			name:    "no braces",
			input:   "I cannot comply.",
			wantErr: true,
		},
		{
			name:    "unbalanced braces",
			input:   `{"image": "broken`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %+v", tt.input, got)
				}
				pf, ok := err.(*ParseFailure)
				if !ok {
					t.Fatalf("Parse(%q) error type = %T, want *ParseFailure", tt.input, err)
				}
				if pf.RawText != tt.input {
					t.Errorf("ParseFailure.RawText = %q, want %q", pf.RawText, tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseListInto(t *testing.T) {
	input := `Here is your inventory: [{"name":"Rope", "description":"Sturdy hemp."}, {'name': 'Lantern', 'description': 'Dented but working.'},]`

	var items []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := ParseListInto(input, &items); err != nil {
		t.Fatalf("ParseListInto() unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ParseListInto() parsed %d items, want 2", len(items))
	}
	if items[0].Name != "Rope" || items[1].Name != "Lantern" {
		t.Errorf("ParseListInto() names = %q, %q", items[0].Name, items[1].Name)
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		in   any
		def  bool
		want bool
	}{
		{true, false, true},
		{false, true, false},
		{"true", false, true},
		{"False", true, false},
		{"yes", false, true},
		{nil, true, true},
		{42.0, false, false},
	}
	for _, tt := range tests {
		if got := CoerceBool(tt.in, tt.def); got != tt.want {
			t.Errorf("CoerceBool(%v, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		raw  string
		want ActionKind
	}{
		{"use_inventory_item", ActionUseItem},
		{"ADD_TO_INVENTORY", ActionAddToInventory},
		{" remove_from_inventory ", ActionRemoveFromInventory},
		{"no_action", ActionNone},
		{"summon_demon", ActionNone},
		{"", ActionNone},
	}
	for _, tt := range tests {
		if got := ParseAction(tt.raw); got != tt.want {
			t.Errorf("ParseAction(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
