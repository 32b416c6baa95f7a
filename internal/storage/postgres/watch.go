package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

var errStoreClosed = errors.New("store closed")

// WatchVisits registers a subscriber on the store's visit listener until ctx
// is done. The first subscriber opens the listener connection; it stays open
// until Close or until it fails, in which case every subscription is closed
// and the next WatchVisits reconnects.
func (s *Store) WatchVisits(ctx context.Context) (<-chan struct{}, error) {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()

	if err := s.ensureListenerLocked(ctx); err != nil {
		return nil, err
	}
	return s.notifier.Subscribe(ctx), nil
}

func (s *Store) ensureListenerLocked(ctx context.Context) error {
	if s.closed {
		return errStoreClosed
	}
	if s.stopListen != nil {
		return nil
	}

	conn, err := pgx.ConnectConfig(ctx, s.listenConfig.Copy())
	if err != nil {
		return fmt.Errorf("open listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+visitsChannel); err != nil {
		closeConn(conn)
		return fmt.Errorf("listen %s: %w", visitsChannel, err)
	}

	listenCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.stopListen, s.listenDone = stop, done
	go s.listen(listenCtx, conn, done)
	return nil
}

func (s *Store) listen(ctx context.Context, conn *pgx.Conn, done chan struct{}) {
	defer close(done)
	defer closeConn(conn)

	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("watch visits: %v", err)
			break
		}
		s.notifier.Publish()
	}

	s.listenMu.Lock()
	if s.listenDone == done {
		s.stopListen()
		s.stopListen, s.listenDone = nil, nil
	}
	s.notifier.DropAll()
	s.listenMu.Unlock()
}

func closeConn(conn *pgx.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = conn.Close(ctx)
}
