package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// NoteStore keeps per-order free-text notes as append-only lists in the
// Adapter, independent of the cart lifecycle.
type NoteStore struct {
	adapter Adapter
}

func NewNoteStore(adapter Adapter) *NoteStore {
	return &NoteStore{adapter: adapter}
}

func noteKey(orderID string) string {
	return "order_notes:" + orderID
}

// Append adds a note to the order's list.
func (s *NoteStore) Append(ctx context.Context, orderID, note string) error {
	notes, err := s.List(ctx, orderID)
	if err != nil {
		return err
	}
	notes = append(notes, note)
	raw, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("marshal notes: %w", err)
	}
	return s.adapter.Set(ctx, noteKey(orderID), string(raw))
}

// List returns the order's notes, oldest first.
func (s *NoteStore) List(ctx context.Context, orderID string) ([]string, error) {
	raw, ok, err := s.adapter.Get(ctx, noteKey(orderID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	var notes []string
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		return nil, fmt.Errorf("unmarshal notes: %w", err)
	}
	return notes, nil
}
