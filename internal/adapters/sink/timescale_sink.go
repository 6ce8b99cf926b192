package sink

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/netcriptus/raiden-services/internal/domain"
	"github.com/netcriptus/raiden-services/internal/ports"
)

// TimescaleSink exports charted points to a Postgres/Timescale table. Rows are only
// written, the dashboard never reads them back.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
	sessionID string
}

func NewTimescaleSink(db *sql.DB, table, sessionID string) *TimescaleSink {
	return &TimescaleSink{db: db, tableName: table, sessionID: sessionID}
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

func (t *TimescaleSink) Push(u domain.Update) error {
	if len(u.Points) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t.tableName)
	b.WriteString(" (session_id, metric_key, ts, value, tick) VALUES ")

	args := make([]any, 0, len(u.Points)*5)
	for i, p := range u.Points {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5))
		args = append(args,
			t.sessionID,
			p.Key,
			p.Timestamp,
			p.Value,
			u.Tick,
		)
	}

	// idempotent per session, key and synthetic timestamp
	b.WriteString(" ON CONFLICT (session_id, metric_key, ts) DO NOTHING")

	_, err := t.db.Exec(b.String(), args...)
	return err
}

var _ ports.Sink = (*TimescaleSink)(nil)
