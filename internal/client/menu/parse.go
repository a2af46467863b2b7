package menu

import (
	"encoding/json"
	"strconv"
)

// Item is one node of the menu tree. Sibling order is the server's order.
type Item struct {
	ID      string `json:"id"`
	Menu    string `json:"menu"`
	Submenu []Item `json:"submenu,omitempty"`
}

const unknownLabel = "Unknown"

type rawItem struct {
	ID      any       `json:"id"`
	Menu    any       `json:"menu"`
	Submenu []rawItem `json:"submenu"`
}

// ParseMenuData builds the tree from the menu root document: the root's
// submenu array becomes the top level. Malformed input yields no items.
func ParseMenuData(data string) []Item {
	items, _ := parseMenu(data)
	return items
}

func parseMenu(data string) ([]Item, error) {
	var root rawItem
	if err := json.Unmarshal([]byte(data), &root); err != nil {
		return []Item{}, err
	}
	if root.Submenu == nil {
		return []Item{}, nil
	}
	return convertItems(root.Submenu), nil
}

func convertItems(raw []rawItem) []Item {
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		it := Item{
			ID:   scalar(r.ID),
			Menu: scalar(r.Menu),
		}
		if it.Menu == "" {
			it.Menu = unknownLabel
		}
		if r.Submenu != nil {
			it.Submenu = convertItems(r.Submenu)
		}
		items = append(items, it)
	}
	return items
}

// scalar renders a string or number; anything else, and zero values,
// become "".
func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}
