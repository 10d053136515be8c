package conversation

import (
	"sync"

	"github.com/google/uuid"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/audiobuf"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
)

// Log is the ordered, append-only conversation item store for one session.
// Items are mutated in place for status transitions (e.g. a function_call
// moving from in_progress to completed) but never reordered; Delete is the
// only way an item leaves the log (Truncate shortens an item's audio and
// transcript but keeps the item).
//
// Grounded on pkg/orchestrator.ConversationSession's mutex-protected slice,
// generalized from a flat []Message to the tagged-union Item type the wire
// protocol requires.
type Log struct {
	mu    sync.Mutex
	items []Item
	index map[string]int // item id -> position in items
}

// NewLog returns an empty conversation log.
func NewLog() *Log {
	return &Log{index: make(map[string]int)}
}

// Append adds item after the item identified by previousItemID ("" means
// "at the end"), minting an id if the caller left one blank. Returns the
// stored item (with its final id).
func (l *Log) Append(item Item, previousItemID string) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if item.ID == "" {
		item.ID = "item_" + uuid.NewString()
	}
	if _, exists := l.index[item.ID]; exists {
		return Item{}, event.NewProtocolError(event.ErrInvalidItem, "item %s already exists", item.ID)
	}
	if err := l.validateItem(item); err != nil {
		return Item{}, err
	}

	pos := len(l.items)
	if previousItemID != "" {
		p, ok := l.index[previousItemID]
		if !ok {
			return Item{}, event.NewProtocolError(event.ErrItemNotFound, "previous_item_id %s not found", previousItemID)
		}
		pos = p + 1
	}

	l.insertAt(pos, item.clone())
	return item, nil
}

// Get returns a copy of the item with the given id.
func (l *Log) Get(itemID string) (Item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.index[itemID]
	if !ok {
		return Item{}, false
	}
	return l.items[pos].clone(), true
}

// Update replaces the item with the given id in place, preserving its
// position. Used for in-progress -> completed status transitions as a
// response streams.
func (l *Log) Update(item Item) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.index[item.ID]
	if !ok {
		return event.NewProtocolError(event.ErrItemNotFound, "item %s not found", item.ID)
	}
	l.items[pos] = item.clone()
	return nil
}

// Truncate clips a message item's audio content at audioEndMs and shortens
// its transcript to the proportional prefix estimated to correspond to the
// audio kept — used when the user barges in over assistant speech still
// playing out.
func (l *Log) Truncate(itemID string, contentIndex int, audioEndMs int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.index[itemID]
	if !ok {
		return event.NewProtocolError(event.ErrItemNotFound, "item %s not found", itemID)
	}
	it := &l.items[pos]
	if it.Type != ItemMessage || contentIndex < 0 || contentIndex >= len(it.Content) {
		return event.NewProtocolError(event.ErrInvalidItem, "item %s has no content part %d", itemID, contentIndex)
	}
	part := &it.Content[contentIndex]
	if part.Type != ContentAudio {
		return event.NewProtocolError(event.ErrInvalidItem, "item %s content part %d is not audio", itemID, contentIndex)
	}
	bytesPerMs := int(audiobuf.BytesPerMs())
	cut := audioEndMs * bytesPerMs
	if cut < len(part.Audio) {
		totalMs := len(part.Audio) / bytesPerMs
		part.Audio = part.Audio[:cut]
		if part.Transcript != "" && totalMs > 0 {
			prefix := len(part.Transcript) * audioEndMs / totalMs
			if prefix < 0 {
				prefix = 0
			}
			if prefix > len(part.Transcript) {
				prefix = len(part.Transcript)
			}
			part.Transcript = part.Transcript[:prefix]
		}
	}
	return nil
}

// Delete removes an item from the log. Deleting a function_call whose
// function_call_output still exists is rejected with item_referenced,
// matching spec §3's referential-integrity invariant; deleting a
// function_call_output is not checked.
func (l *Log) Delete(itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.index[itemID]
	if !ok {
		return event.NewProtocolError(event.ErrItemNotFound, "item %s not found", itemID)
	}
	target := l.items[pos]
	if target.Type == ItemFunctionCall {
		for _, it := range l.items {
			if it.Type == ItemFunctionCallOutput && it.CallID == target.CallID {
				return event.NewProtocolError(event.ErrItemReferenced, "function_call %s is referenced by its output", itemID)
			}
		}
	}
	l.removeAt(pos)
	return nil
}

// Items returns a snapshot of the log in order.
func (l *Log) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Item, len(l.items))
	for i, it := range l.items {
		out[i] = it.clone()
	}
	return out
}

func (l *Log) insertAt(pos int, item Item) {
	l.items = append(l.items, Item{})
	copy(l.items[pos+1:], l.items[pos:])
	l.items[pos] = item
	l.reindex()
}

func (l *Log) removeAt(pos int) {
	delete(l.index, l.items[pos].ID)
	l.items = append(l.items[:pos], l.items[pos+1:]...)
	l.reindex()
}

func (l *Log) reindex() {
	for i, it := range l.items {
		l.index[it.ID] = i
	}
}

// validateItem checks item against the invariants of its type. l.mu is
// already held by the caller (Append).
func (l *Log) validateItem(item Item) error {
	switch item.Type {
	case ItemMessage:
		if len(item.Content) != 1 {
			return event.NewProtocolError(event.ErrInvalidItem, "message item must have exactly one content part, got %d", len(item.Content))
		}
	case ItemFunctionCall:
		if item.CallID == "" || item.Name == "" {
			return event.NewProtocolError(event.ErrInvalidItem, "function_call item requires call_id and name")
		}
	case ItemFunctionCallOutput:
		if item.CallID == "" {
			return event.NewProtocolError(event.ErrInvalidItem, "function_call_output item requires call_id")
		}
		found := false
		for _, it := range l.items {
			if it.Type == ItemFunctionCall && it.CallID == item.CallID {
				found = true
				break
			}
		}
		if !found {
			return event.NewProtocolError(event.ErrItemReferenced, "function_call_output references unknown call_id %s", item.CallID)
		}
	default:
		return event.NewProtocolError(event.ErrInvalidItem, "unknown item type %q", item.Type)
	}
	return nil
}
