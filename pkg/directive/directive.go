package directive

import "strings"

// ActionKind is the inventory action requested by a scenario directive.
type ActionKind string

const (
	ActionNone                ActionKind = "no_action"
	ActionUseItem             ActionKind = "use_inventory_item"
	ActionAddToInventory      ActionKind = "add_to_inventory"
	ActionRemoveFromInventory ActionKind = "remove_from_inventory"
)

// ParseAction maps a raw action token to an ActionKind.
// Unknown values degrade to ActionNone rather than failing the turn.
func ParseAction(raw string) ActionKind {
	switch ActionKind(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionUseItem:
		return ActionUseItem
	case ActionAddToInventory:
		return ActionAddToInventory
	case ActionRemoveFromInventory:
		return ActionRemoveFromInventory
	default:
		return ActionNone
	}
}

// ScenarioDirective is the structured payload extracted from one
// generation turn. Only Image is required by downstream consumers;
// every other field has a documented default.
type ScenarioDirective struct {
	Image    string     `json:"image"`
	Answer   string     `json:"answer"`
	Score    int        `json:"score"`
	Action   ActionKind `json:"action"`
	Items    []string   `json:"items"`
	Location string     `json:"location"` // empty means "keep current location"
}

// ParseFailure is returned when no directive could be recovered from
// the model output. It carries the raw text so callers can log it.
type ParseFailure struct {
	RawText string
	Reason  string
}

func (e *ParseFailure) Error() string {
	return "directive parse failed: " + e.Reason
}
