package types

// EntityType classifies an extracted divination entity. The set is closed:
// extraction never produces a type outside this list.
type EntityType string

const (
	PlanetEntity   EntityType = "planet"
	SignEntity     EntityType = "sign"
	HouseEntity    EntityType = "house"
	AspectEntity   EntityType = "aspect"
	ElementEntity  EntityType = "element"
	StemEntity     EntityType = "stem"
	BranchEntity   EntityType = "branch"
	TenGodEntity   EntityType = "ten_god"
	ShinsalEntity  EntityType = "shinsal"
	TransitEntity  EntityType = "transit"
	TarotEntity    EntityType = "tarot"
	HexagramEntity EntityType = "hexagram"
)

// Entity is a normalized domain entity recognized in user text or chart facts.
// Two entities are the same iff their (Type, Normalized) pairs are equal.
type Entity struct {
	Text       string                 `json:"text"`
	Type       EntityType             `json:"type"`
	Normalized string                 `json:"normalized"`
	Confidence float64                `json:"confidence"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Key returns the identity key used for deduplication.
func (e Entity) Key() string {
	return string(e.Type) + ":" + e.Normalized
}

// Relation is a typed triple between two recognized entities. Labels include
// "in", aspect names ("conjunction", "trine", ...) and saju role names.
type Relation struct {
	Source Entity `json:"source"`
	Label  string `json:"label"`
	Target Entity `json:"target"`
}
