package host

import "sort"

// AssetMeta is the decoded meta document of an asset. It is kept as a generic
// map so that saving it back preserves fields the engine does not know about.
type AssetMeta map[string]any

// Importer returns the importer name recorded in the meta.
func (m AssetMeta) Importer() string {
	s, _ := m["importer"].(string)
	return s
}

// UUID returns the uuid recorded in the meta.
func (m AssetMeta) UUID() string {
	s, _ := m["uuid"].(string)
	return s
}

// UserData returns the importer user data, or nil when absent.
func (m AssetMeta) UserData() map[string]any {
	ud, _ := m["userData"].(map[string]any)
	return ud
}

// EnsureUserData returns the user data, creating it when absent.
func (m AssetMeta) EnsureUserData() map[string]any {
	ud := m.UserData()
	if ud == nil {
		ud = map[string]any{}
		m["userData"] = ud
	}
	return ud
}

// SubMeta returns the first sub-meta (by key order) handled by importer.
func (m AssetMeta) SubMeta(importer string) (AssetMeta, bool) {
	subs, _ := m["subMetas"].(map[string]any)
	keys := make([]string, 0, len(subs))
	for k := range subs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		sub, ok := subs[k].(map[string]any)
		if !ok {
			continue
		}
		if AssetMeta(sub).Importer() == importer {
			return AssetMeta(sub), true
		}
	}
	return nil, false
}
