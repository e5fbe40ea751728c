package content

import "encoding/json"

// Dashboard is a named collection of card placements. ID is instance-local.
type Dashboard struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Dashcards   []Dashcard `json:"dashcards"`
}

// Dashcard is one placement of a card on a dashboard. ID is the placement
// identifier assigned by the instance; it is opaque and not portable. CardID
// is nil for virtual cards (text boxes, headings) that show no query.
type Dashcard struct {
	ID                    int64          `json:"id"`
	CardID                *int64         `json:"card_id"`
	Row                   int            `json:"row"`
	Col                   int            `json:"col"`
	SizeX                 int            `json:"size_x"`
	SizeY                 int            `json:"size_y"`
	VisualizationSettings map[string]any `json:"visualization_settings,omitempty"`
	ParameterMappings     []any          `json:"parameter_mappings,omitempty"`
}

// UnmarshalJSON accepts both the current "dashcards" key and the legacy
// "ordered_cards" key older Metabase versions emit.
func (d *Dashboard) UnmarshalJSON(data []byte) error {
	type alias Dashboard
	aux := struct {
		*alias
		OrderedCards []Dashcard `json:"ordered_cards"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if d.Dashcards == nil && aux.OrderedCards != nil {
		d.Dashcards = aux.OrderedCards
	}
	return nil
}

// CardIDs returns the ids of every card the dashboard's layout references,
// in placement order. Virtual cards contribute nothing.
func (d Dashboard) CardIDs() []int64 {
	var ids []int64
	for _, dc := range d.Dashcards {
		if dc.CardID != nil {
			ids = append(ids, *dc.CardID)
		}
	}
	return ids
}
