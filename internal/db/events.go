package db

import "context"

// InsertDomainEvent appends a business event for audit and replay.
func (s *Store) InsertDomainEvent(ctx context.Context, topic string, payload []byte) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO domain_events (topic, payload) VALUES ($1, $2)`, topic, payload)
	return err
}

// ListDomainEvents returns recent events newest first.
func (s *Store) ListDomainEvents(ctx context.Context, limit int) ([]DomainEvent, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, topic, payload, created_at
		FROM domain_events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []DomainEvent
	for rows.Next() {
		var e DomainEvent
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
