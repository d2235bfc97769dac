package domain

// Storage is a warehouse with a fixed capacity. The set of storages is seeded
// once at initialization and never shrinks.
type Storage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
	CurrentLoad int    `json:"current_load"`
}

// Remaining returns the unused capacity.
func (s Storage) Remaining() int {
	return s.Capacity - s.CurrentLoad
}

// Item is a quantity of a named product held by exactly one storage.
// ID is the primary identity; (Name, StorageID) is a secondary lookup key
// used for merge-on-add and moves.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
	StorageID string `json:"storage_id"`
	Category  string `json:"category,omitempty"`
}

// ItemCreate is the payload for adding items to a storage.
type ItemCreate struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Category string `json:"category"`
}

// ItemUpdate is a partial patch; nil fields are left untouched. Setting
// StorageID relocates the whole item to another storage.
type ItemUpdate struct {
	Name      *string `json:"name"`
	Count     *int    `json:"count"`
	Category  *string `json:"category"`
	StorageID *string `json:"storage_id"`
}

// MoveRequest transfers part or all of a product's count between storages.
type MoveRequest struct {
	Name  string `json:"name"`
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}
