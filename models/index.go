package models

// Index represents an indexing-related message emitted to the search worker.
type Index struct {
	EntityType string `json:"entity_type"`
	Method     string `json:"method"` // POST, PUT, DELETE
	EntityId   string `json:"entity_id"`
	ItemName   string `json:"item_name,omitempty"`
}
