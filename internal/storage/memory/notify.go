package memory

import "context"

// WatchVisits subscribes to visit writes until ctx is done.
func (s *Store) WatchVisits(ctx context.Context) (<-chan struct{}, error) {
	return s.notifier.Subscribe(ctx), nil
}
