package storage

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"depot-api/domain"
)

type inventoryDoc struct {
	Storages []domain.Storage         `json:"storages"`
	Items    map[string][]domain.Item `json:"items"`
}

// Inventory is the item/storage ledger, persisted as
// {"storages": [...], "items": {storage_id: [...]}}. Every committed
// operation keeps each storage's current_load equal to the sum of its item
// counts and within capacity.
type Inventory struct {
	path string

	mu  sync.RWMutex
	doc *inventoryDoc
}

// OpenInventory loads the inventory document at path, creating an empty one
// when the file does not exist yet.
func OpenInventory(path string) (*Inventory, error) {
	doc := &inventoryDoc{}
	existed, err := loadJSON(path, doc)
	if err != nil {
		return nil, err
	}
	if doc.Items == nil {
		doc.Items = map[string][]domain.Item{}
	}
	inv := &Inventory{path: path, doc: doc}
	if !existed {
		if err := atomicWriteJSON(path, doc); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func (inv *Inventory) clone() *inventoryDoc {
	next := &inventoryDoc{
		Storages: make([]domain.Storage, len(inv.doc.Storages)),
		Items:    make(map[string][]domain.Item, len(inv.doc.Items)),
	}
	copy(next.Storages, inv.doc.Storages)
	for id, items := range inv.doc.Items {
		cp := make([]domain.Item, len(items))
		copy(cp, items)
		next.Items[id] = cp
	}
	return next
}

// commit persists next and swaps it in. Callers hold the write lock.
func (inv *Inventory) commit(next *inventoryDoc) error {
	if err := atomicWriteJSON(inv.path, next); err != nil {
		return err
	}
	inv.doc = next
	return nil
}

func (d *inventoryDoc) storage(id string) *domain.Storage {
	for i := range d.Storages {
		if d.Storages[i].ID == id {
			return &d.Storages[i]
		}
	}
	return nil
}

// findByID locates an item by its opaque id, scanning storages in seed order.
func (d *inventoryDoc) findByID(id string) (storageID string, index int, ok bool) {
	for _, st := range d.Storages {
		for i, item := range d.Items[st.ID] {
			if item.ID == id {
				return st.ID, i, true
			}
		}
	}
	return "", 0, false
}

func (d *inventoryDoc) findByName(storageID, name string) (int, bool) {
	for i, item := range d.Items[storageID] {
		if item.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (d *inventoryDoc) removeItem(storageID string, index int) {
	items := d.Items[storageID]
	d.Items[storageID] = append(items[:index], items[index+1:]...)
	if len(d.Items[storageID]) == 0 {
		delete(d.Items, storageID)
	}
}

// InitStorages seeds count storages of the given capacity when the ledger is
// empty. The storage set is fixed for the lifetime of the document.
func (inv *Inventory) InitStorages(count, capacity int) error {
	if count <= 0 || capacity <= 0 {
		return fmt.Errorf("storage count and capacity must be positive: %w", ErrInvalid)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if len(inv.doc.Storages) > 0 {
		return nil
	}
	next := inv.clone()
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("storage_%d", i)
		next.Storages = append(next.Storages, domain.Storage{
			ID:       id,
			Name:     fmt.Sprintf("Storage %d", i),
			Location: fmt.Sprintf("Location %d", i),
			Capacity: capacity,
		})
	}
	return inv.commit(next)
}

// Storages returns a snapshot of all storages.
func (inv *Inventory) Storages() []domain.Storage {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]domain.Storage, len(inv.doc.Storages))
	copy(out, inv.doc.Storages)
	return out
}

// AddItem puts count units of a named product into a storage. An existing
// item with the same name absorbs the quantity instead of a duplicate being
// created; either way the storage's load grows by exactly count.
func (inv *Inventory) AddItem(storageID string, c domain.ItemCreate) (domain.Item, error) {
	if c.Name == "" {
		return domain.Item{}, fmt.Errorf("item name required: %w", ErrInvalid)
	}
	if c.Count <= 0 {
		return domain.Item{}, fmt.Errorf("item count must be positive: %w", ErrInvalid)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	st := inv.doc.storage(storageID)
	if st == nil {
		return domain.Item{}, fmt.Errorf("storage %q: %w", storageID, ErrNotFound)
	}
	if st.CurrentLoad+c.Count > st.Capacity {
		return domain.Item{}, fmt.Errorf("storage %q: load %d + %d exceeds capacity %d: %w",
			storageID, st.CurrentLoad, c.Count, st.Capacity, ErrCapacityExceeded)
	}
	next := inv.clone()
	var item domain.Item
	if i, ok := next.findByName(storageID, c.Name); ok {
		next.Items[storageID][i].Count += c.Count
		item = next.Items[storageID][i]
	} else {
		item = domain.Item{
			ID:        uuid.NewString(),
			Name:      c.Name,
			Count:     c.Count,
			StorageID: storageID,
			Category:  c.Category,
		}
		next.Items[storageID] = append(next.Items[storageID], item)
	}
	next.storage(storageID).CurrentLoad += c.Count
	if err := inv.commit(next); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

// Items returns a snapshot of the items held by one storage.
func (inv *Inventory) Items(storageID string) ([]domain.Item, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	if inv.doc.storage(storageID) == nil {
		return nil, fmt.Errorf("storage %q: %w", storageID, ErrNotFound)
	}
	items := inv.doc.Items[storageID]
	out := make([]domain.Item, len(items))
	copy(out, items)
	return out, nil
}

// AllItems returns a snapshot of every item across all storages, in storage
// seed order.
func (inv *Inventory) AllItems() []domain.Item {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	var out []domain.Item
	for _, st := range inv.doc.Storages {
		out = append(out, inv.doc.Items[st.ID]...)
	}
	return out
}

// UpdateItem applies the non-nil fields of patch to the item with the given
// id. Patching count adjusts the owning storage's load by the delta; a count
// of zero removes the item. Patching storage_id relocates the full quantity.
func (inv *Inventory) UpdateItem(id string, patch domain.ItemUpdate) (domain.Item, error) {
	if patch.Count != nil && *patch.Count < 0 {
		return domain.Item{}, fmt.Errorf("item count must not be negative: %w", ErrInvalid)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	srcID, idx, ok := inv.doc.findByID(id)
	if !ok {
		return domain.Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	cur := inv.doc.Items[srcID][idx]
	updated := cur
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Category != nil {
		updated.Category = *patch.Category
	}
	if patch.Count != nil {
		updated.Count = *patch.Count
	}

	if patch.StorageID != nil && *patch.StorageID != srcID {
		return inv.relocateLocked(srcID, idx, cur, updated, *patch.StorageID)
	}

	delta := updated.Count - cur.Count
	st := inv.doc.storage(srcID)
	if delta > 0 && st.CurrentLoad+delta > st.Capacity {
		return domain.Item{}, fmt.Errorf("storage %q: load %d + %d exceeds capacity %d: %w",
			srcID, st.CurrentLoad, delta, st.Capacity, ErrCapacityExceeded)
	}
	next := inv.clone()
	if updated.Count == 0 {
		next.removeItem(srcID, idx)
	} else {
		next.Items[srcID][idx] = updated
	}
	next.storage(srcID).CurrentLoad += delta
	if err := inv.commit(next); err != nil {
		return domain.Item{}, err
	}
	return updated, nil
}

// relocateLocked moves the whole (possibly count-patched) item to another
// storage. Total load across the two storages is conserved.
func (inv *Inventory) relocateLocked(srcID string, idx int, cur, updated domain.Item, destID string) (domain.Item, error) {
	if updated.Count == 0 {
		return domain.Item{}, fmt.Errorf("cannot relocate an empty item: %w", ErrInvalid)
	}
	dest := inv.doc.storage(destID)
	if dest == nil {
		return domain.Item{}, fmt.Errorf("storage %q: %w", destID, ErrNotFound)
	}
	if dest.CurrentLoad+updated.Count > dest.Capacity {
		return domain.Item{}, fmt.Errorf("storage %q: load %d + %d exceeds capacity %d: %w",
			destID, dest.CurrentLoad, updated.Count, dest.Capacity, ErrCapacityExceeded)
	}
	next := inv.clone()
	next.removeItem(srcID, idx)
	next.storage(srcID).CurrentLoad -= cur.Count

	updated.StorageID = destID
	var out domain.Item
	if i, ok := next.findByName(destID, updated.Name); ok {
		next.Items[destID][i].Count += updated.Count
		out = next.Items[destID][i]
	} else {
		next.Items[destID] = append(next.Items[destID], updated)
		out = updated
	}
	next.storage(destID).CurrentLoad += updated.Count
	if err := inv.commit(next); err != nil {
		return domain.Item{}, err
	}
	return out, nil
}

// MoveItem transfers count units of a named product from one storage to
// another. A partial move leaves the remainder at the source; moving the last
// unit removes the source item. The destination merges by name.
func (inv *Inventory) MoveItem(name, fromID, toID string, count int) (domain.Item, error) {
	if count <= 0 {
		return domain.Item{}, fmt.Errorf("move count must be positive: %w", ErrInvalid)
	}
	if fromID == toID {
		return domain.Item{}, fmt.Errorf("source and destination storages are the same: %w", ErrInvalid)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.doc.storage(fromID) == nil {
		return domain.Item{}, fmt.Errorf("storage %q: %w", fromID, ErrNotFound)
	}
	dest := inv.doc.storage(toID)
	if dest == nil {
		return domain.Item{}, fmt.Errorf("storage %q: %w", toID, ErrNotFound)
	}
	idx, ok := inv.doc.findByName(fromID, name)
	if !ok {
		return domain.Item{}, fmt.Errorf("item %q in storage %q: %w", name, fromID, ErrNotFound)
	}
	src := inv.doc.Items[fromID][idx]
	if count > src.Count {
		return domain.Item{}, fmt.Errorf("item %q: %d available, %d requested: %w",
			name, src.Count, count, ErrInsufficientQuantity)
	}
	if dest.CurrentLoad+count > dest.Capacity {
		return domain.Item{}, fmt.Errorf("storage %q: load %d + %d exceeds capacity %d: %w",
			toID, dest.CurrentLoad, count, dest.Capacity, ErrCapacityExceeded)
	}
	next := inv.clone()
	if src.Count == count {
		next.removeItem(fromID, idx)
	} else {
		next.Items[fromID][idx].Count -= count
	}
	next.storage(fromID).CurrentLoad -= count

	var out domain.Item
	if i, ok := next.findByName(toID, name); ok {
		next.Items[toID][i].Count += count
		out = next.Items[toID][i]
	} else {
		out = domain.Item{
			ID:        uuid.NewString(),
			Name:      name,
			Count:     count,
			StorageID: toID,
			Category:  src.Category,
		}
		next.Items[toID] = append(next.Items[toID], out)
	}
	next.storage(toID).CurrentLoad += count
	if err := inv.commit(next); err != nil {
		return domain.Item{}, err
	}
	return out, nil
}

// DeleteItem removes an item and releases its quantity from the owning
// storage. Deleting the same id twice fails the second time.
func (inv *Inventory) DeleteItem(id string) (domain.Item, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	srcID, idx, ok := inv.doc.findByID(id)
	if !ok {
		return domain.Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	removed := inv.doc.Items[srcID][idx]
	next := inv.clone()
	next.removeItem(srcID, idx)
	next.storage(srcID).CurrentLoad -= removed.Count
	if err := inv.commit(next); err != nil {
		return domain.Item{}, err
	}
	return removed, nil
}
