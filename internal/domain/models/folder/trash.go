package folder

import "time"

// TrashRecord marks a view as logically deleted
type TrashRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// TrashInfo is a trash record annotated with the trashed view's name
type TrashInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TrashIDs returns the set of trashed view ids
func TrashIDs(records []TrashInfo) map[string]struct{} {
	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.ID] = struct{}{}
	}
	return ids
}
