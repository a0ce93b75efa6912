package model

// Built-in attribute keys, as used in backups and exports.
const (
	AttrShotValue        = "shotValue"
	AttrContestLevel     = "contestLevel"
	AttrShotCreationType = "shotCreationType"
	AttrDefenseType      = "defenseType"
	AttrShotType         = "shotType"
	AttrPostMove         = "postMove"
)

// Attribute describes a built-in categorical attribute of a shot.
type Attribute struct {
	Key     string
	Label   string
	Options []string
}

// BuiltinAttributes lists the built-in attributes in reporting order.
var BuiltinAttributes = []Attribute{
	{Key: AttrShotValue, Label: "Shot Value", Options: []string{"2", "3"}},
	{Key: AttrContestLevel, Label: "Contest Level", Options: []string{"Uncontested", "Mid-Contest", "Contested"}},
	{Key: AttrShotCreationType, Label: "Shot Creation", Options: []string{"Catch and shoot", "Off the dribble", "Pump Fake", "O-board"}},
	{Key: AttrDefenseType, Label: "Defense Type", Options: []string{"Man/Zone", "Transition/Halfcourt"}},
	{Key: AttrShotType, Label: "Shot Type", Options: []string{"Floater", "Hook", "Fadeaway", "Jumpshot", "Tip in", "Runner", "Post-up"}},
	{Key: AttrPostMove, Label: "Post Move", Options: []string{"Pin", "Face up", "Right-shoulder", "Left-shoulder"}},
}

// LookupAttribute returns the built-in attribute with the given key.
func LookupAttribute(key string) (Attribute, bool) {
	for _, attr := range BuiltinAttributes {
		if attr.Key == key {
			return attr, true
		}
	}
	return Attribute{}, false
}

// HasOption reports whether value is one of the attribute's options.
func (a Attribute) HasOption(value string) bool {
	for _, opt := range a.Options {
		if opt == value {
			return true
		}
	}
	return false
}
