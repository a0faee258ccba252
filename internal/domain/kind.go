package domain

import "strings"

// KindInfo is the display category and icon for a hazard kind.
type KindInfo struct {
	Category string `json:"category"`
	Icon     string `json:"icon"`
}

// GenericKind is returned for kinds with no entry in the lookup table.
var GenericKind = KindInfo{Category: "alert", Icon: "⚠️"}

// knownKinds is checked in order; the first substring match wins.
var knownKinds = []struct {
	match string
	info  KindInfo
}{
	{"heat", KindInfo{Category: "heat", Icon: "🌡️"}},
	{"storm", KindInfo{Category: "storm", Icon: "⛈️"}},
	{"flood", KindInfo{Category: "flood", Icon: "🌊"}},
	{"wind", KindInfo{Category: "wind", Icon: "💨"}},
	{"snow", KindInfo{Category: "snow", Icon: "❄️"}},
	{"fire", KindInfo{Category: "fire", Icon: "🔥"}},
}

// LookupKind resolves a free-form kind such as "heat" or "Heat Risk".
func LookupKind(kind string) KindInfo {
	lower := strings.ToLower(kind)
	for _, k := range knownKinds {
		if strings.Contains(lower, k.match) {
			return k.info
		}
	}
	return GenericKind
}
