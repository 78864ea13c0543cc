package loot

import "github.com/radurbae/onepercent/internal/model"

// Entry is a droppable cosmetic.
type Entry struct {
	Type        model.ItemType
	Name        string
	Rarity      model.Rarity
	Description string
}

// Key returns the composite ownership key of the entry.
func (e Entry) Key() string {
	return Key(e.Type, e.Name)
}

// DefaultCatalog lists every cosmetic that can drop from quest completions.
// Order is significant: candidate selection indexes into it.
var DefaultCatalog = []Entry{
	// Titles
	{Type: model.ItemTitle, Name: "Early Riser", Rarity: model.RarityCommon, Description: "Showed up before the day did"},
	{Type: model.ItemTitle, Name: "Consistent", Rarity: model.RarityCommon, Description: "One percent at a time"},
	{Type: model.ItemTitle, Name: "Pathfinder", Rarity: model.RarityUncommon, Description: "Found the small step that works"},
	{Type: model.ItemTitle, Name: "Iron Will", Rarity: model.RarityRare, Description: "Did it anyway"},
	{Type: model.ItemTitle, Name: "Shadow Monarch", Rarity: model.RarityEpic, Description: "Rose from rank E"},
	{Type: model.ItemTitle, Name: "The One Percent", Rarity: model.RarityLegendary, Description: "Compounded into someone new"},

	// Badges
	{Type: model.ItemBadge, Name: "Bronze Seal", Rarity: model.RarityCommon, Description: "A first mark of effort"},
	{Type: model.ItemBadge, Name: "Silver Seal", Rarity: model.RarityUncommon, Description: "Effort, repeated"},
	{Type: model.ItemBadge, Name: "Gold Seal", Rarity: model.RarityRare, Description: "Effort, refined"},
	{Type: model.ItemBadge, Name: "Crimson Sigil", Rarity: model.RarityEpic, Description: "Carved in the dungeon"},
	{Type: model.ItemBadge, Name: "Crown Sigil", Rarity: model.RarityLegendary, Description: "Worn by the relentless"},

	// Themes
	{Type: model.ItemTheme, Name: "Slate", Rarity: model.RarityCommon, Description: "Quiet grey"},
	{Type: model.ItemTheme, Name: "Forest", Rarity: model.RarityUncommon, Description: "Deep greens"},
	{Type: model.ItemTheme, Name: "Midnight Blue", Rarity: model.RarityRare, Description: "Late-night focus"},
	{Type: model.ItemTheme, Name: "Ember", Rarity: model.RarityEpic, Description: "Slow-burning orange"},
	{Type: model.ItemTheme, Name: "Aurora", Rarity: model.RarityLegendary, Description: "Shifting northern light"},

	// Frames
	{Type: model.ItemFrame, Name: "Plain Frame", Rarity: model.RarityCommon, Description: "Simple border"},
	{Type: model.ItemFrame, Name: "Runed Frame", Rarity: model.RarityUncommon, Description: "Etched runes"},
	{Type: model.ItemFrame, Name: "Gilded Frame", Rarity: model.RarityRare, Description: "Gold leaf edges"},
	{Type: model.ItemFrame, Name: "Void Frame", Rarity: model.RarityEpic, Description: "Edges that swallow light"},
	{Type: model.ItemFrame, Name: "Celestial Frame", Rarity: model.RarityLegendary, Description: "Stars at every corner"},
}

var rarityColors = map[model.Rarity]string{
	model.RarityCommon:    "#9ca3af",
	model.RarityUncommon:  "#22c55e",
	model.RarityRare:      "#3b82f6",
	model.RarityEpic:      "#a855f7",
	model.RarityLegendary: "#f59e0b",
}

// RarityColor returns the display color for a rarity.
func RarityColor(r model.Rarity) string {
	if c, ok := rarityColors[r]; ok {
		return c
	}
	return rarityColors[model.RarityCommon]
}
