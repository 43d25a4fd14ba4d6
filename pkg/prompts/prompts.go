// Package prompts holds every prompt template the engine sends to the
// text model. Keeping them in one place makes the expected output
// formats easy to audit against the directive parser.
package prompts

import (
	"fmt"
	"strings"
)

// TurnReminder is appended to the outgoing user message every turn so
// the model keeps emitting parseable directives even deep into a session.
const TurnReminder = `Adhere to the established game environment, location, and narrative. ` +
	`Choose an action for inventory items: no_action, use_inventory_item, add_to_inventory, remove_from_inventory. ` +
	`On request, list the actual inventory. Your "answer" must be immersive, like a role playing game master. ` +
	`Respond with the next scenario formatted as: {"image":"Image Description", "answer":"Adventure content and next question", "score":-10-10, "action":"choose from above", "item":"[no_items or item names]", "location":"Current Location"}`

// SummarizeInstruction asks the model to conclude the session so far.
// The result seeds the post-compaction history and item-use reasoning.
const SummarizeInstruction = `Your task is now to conclude the previous happenings in the following format: {"summary":"Summary of all previous events", "location":"Current Location"}`

// SummaryAck is the system acknowledgment seeded after a history reset.
const SummaryAck = `Thank you. I am awaiting input to continue your adventure.`

const itemGenSystem = `I am a role playing game inventory generator, and my task is to generate a single item. ` +
	`I will provide the item name and description in the format: {"name": "Item Name", "description": "Item Description"}.`

const useItemSystem = `I am a role playing game inventory keeper, and my task is to make use of the item in the scenario presented by the user. ` +
	`I must decide the action's consequence and the item's fate.`

const selfPlaySystem = `I am a role playing player character, and will take action based on the input. ` +
	`I will always answer with a single string emulating user input reacting to situations in a role playing game.`

// SystemPrompt renders the rolling system message. It embeds the
// current location, inventory and summary, and restates the directive
// format so the model never drifts from it.
func SystemPrompt(location string, inventory []string, summary string) string {
	if location == "" {
		location = "Unknown"
	}
	if summary == "" {
		summary = "None"
	}
	inv := "Empty"
	if len(inventory) > 0 {
		inv = strings.Join(inventory, ", ")
	}
	return fmt.Sprintf(`I am a role playing game master tasked with maintaining a consistent game environment and narrative flow. `+
		`I will score user actions based on their relevance and effectiveness within the current environment. `+
		`I ensure that all interactions with objects are realistic and adhere to the environment. `+
		`Choices regarding the usage of inventory items must be context-sensitive, ensuring no random environment shifts unless narratively justified. `+
		`The current location is %s, the inventory contains: %s, the current situation is: %s. `+
		`I will always provide an action choice from: no_action, use_inventory_item, add_to_inventory, remove_from_inventory. `+
		`I must respond with the next scenario formatted as: {"image":"portrait of a sorcerer, highly detailed, photorealistic", "answer":"Adventure content and next question", "score":-10-10, "action":"no_action", "item":"[no_items]", "location":"Current Location"}`,
		location, inv, summary)
}

// TurnSuffix is appended to the most recent message before generation,
// restating location and inventory alongside the format reminder.
func TurnSuffix(location string, inventory []string) string {
	return fmt.Sprintf(" We are currently in %s and our inventory contains: [%s] %s",
		location, strings.Join(inventory, ", "), TurnReminder)
}

// SummaryHandoff quotes a generated summary into the first user
// message of a freshly reset history.
func SummaryHandoff(summary string) string {
	return "Here is a summary of everything that happened so far: " + summary
}

// ItemGen builds the one-shot request for generating a single
// inventory item by name hint.
func ItemGen(nameHint string) (system, user string) {
	return itemGenSystem, fmt.Sprintf(`You must provide the name and description for the item %s. `+
		`You must answer in the format: {"name": "Item Name", "description": "Item Description"}`, nameHint)
}

// UseItem builds the one-shot request deciding the effect of using an
// item and whether it survives the use.
func UseItem(name, actionContext string) (system, user string) {
	return useItemSystem, fmt.Sprintf(`Let's use %s for: %s. What happens to the item? `+
		`You must answer in the format: {"effect": "description of what happens", "keep_item": true or false}`, name, actionContext)
}

// StartItems builds the request for a full starting inventory.
func StartItems(maxSlots int) (system, user string) {
	system = fmt.Sprintf(`I am a role playing game inventory generator, and my first task is to fill a %d slot inventory with objects. `+
		`I must answer in the following format: [{"name":"Item Name", "description":"Item Description"}, ...]`, maxSlots)
	return system, "Generate the starting list of objects."
}

// SelfPlay builds the request for a synthetic user action when the
// player is idle.
func SelfPlay(lastScenario string) (system, user string) {
	if lastScenario == "" {
		lastScenario = "no scenario known yet"
	}
	return selfPlaySystem, fmt.Sprintf(`Generate a plausible action based on the scenario: %s `+
		`You must answer with a single string emulating the next user input.`, lastScenario)
}
