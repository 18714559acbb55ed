package cart

import (
	"context"
	"encoding/json"
	"time"

	"tiffinbox/internal/domain"
	"tiffinbox/internal/storage"
)

// persistLoop writes the cart and order context to durable storage
// after each mutation signal. Signals coalesce, so rapid mutations may
// skip intermediate snapshots; the final state always lands because
// the last mutation re-arms the channel. Write failures are logged and
// never propagate to mutators.
func (s *Store) persistLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.persistCh:
			s.persistOnce()
		case <-s.quit:
			select {
			case <-s.persistCh:
				s.persistOnce()
			default:
			}
			return
		}
	}
}

func (s *Store) persistOnce() {
	lines, octx := s.Snapshot()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(lines) == 0 && octx == (domain.OrderContext{}) {
		if err := s.adapter.Remove(ctx, storage.KeyCart); err != nil {
			s.logger.Printf("warn: remove cart snapshot: %v", err)
		}
		if err := s.adapter.Remove(ctx, storage.KeyCartContext); err != nil {
			s.logger.Printf("warn: remove cart context snapshot: %v", err)
		}
		return
	}

	if raw, err := json.Marshal(lines); err != nil {
		s.logger.Printf("warn: marshal cart snapshot: %v", err)
	} else if err := s.adapter.Set(ctx, storage.KeyCart, string(raw)); err != nil {
		s.logger.Printf("warn: persist cart snapshot: %v", err)
	}

	if raw, err := json.Marshal(octx); err != nil {
		s.logger.Printf("warn: marshal cart context: %v", err)
	} else if err := s.adapter.Set(ctx, storage.KeyCartContext, string(raw)); err != nil {
		s.logger.Printf("warn: persist cart context: %v", err)
	}
}

// Restore loads the persisted cart and order context, if any, and
// re-derives line images from the restored meal window. Missing or
// corrupt snapshots leave the store empty.
func (s *Store) Restore(ctx context.Context) error {
	var lines []domain.CartLineItem
	if raw, ok, err := s.adapter.Get(ctx, storage.KeyCart); err != nil {
		return err
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &lines); err != nil {
			s.logger.Printf("warn: discarding corrupt cart snapshot: %v", err)
			lines = nil
		}
	}

	var octx domain.OrderContext
	if raw, ok, err := s.adapter.Get(ctx, storage.KeyCartContext); err != nil {
		return err
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &octx); err != nil {
			s.logger.Printf("warn: discarding corrupt cart context: %v", err)
			octx = domain.OrderContext{}
		}
	}

	s.mu.Lock()
	s.lines = lines
	s.octx = octx
	for i := range s.lines {
		if s.lines[i].Quantity < 1 {
			s.lines[i].Quantity = 1
		}
		s.lines[i].ImageURL = displayImageURL(octx.MealWindow)
	}
	s.clampVoucherLocked()
	s.mu.Unlock()
	return nil
}
