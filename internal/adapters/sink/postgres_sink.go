package sink

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/amareshkumar/telemetryhub/internal/domain"
	"github.com/amareshkumar/telemetryhub/internal/ports"
)

// PostgresSink stores samples and status transitions in Postgres (or
// Timescale). Sample inserts are idempotent via the (seq, ts) unique
// key; status inserts append a row on every call.
type PostgresSink struct {
	db          *sql.DB
	sampleTable string
	statusTable string
}

func NewPostgresSink(db *sql.DB, sampleTable, statusTable string) *PostgresSink {
	return &PostgresSink{db: db, sampleTable: sampleTable, statusTable: statusTable}
}

func (p *PostgresSink) Name() string { return "postgres" }

func (p *PostgresSink) PushSample(s domain.TelemetrySample) error {
	return p.WriteBatch([]domain.TelemetrySample{s})
}

// WriteBatch inserts several samples in a single statement.
func (p *PostgresSink) WriteBatch(samples []domain.TelemetrySample) error {
	if len(samples) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(p.sampleTable)
	b.WriteString(" (seq, ts, value, unit) VALUES ")

	args := make([]any, 0, len(samples)*4)
	for i, s := range samples {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4))
		args = append(args, s.SequenceID, s.Timestamp, s.Value, s.Unit)
	}

	b.WriteString(" ON CONFLICT (seq, ts) DO NOTHING")

	_, err := p.db.Exec(b.String(), args...)
	return err
}

func (p *PostgresSink) PushStatus(state domain.DeviceState) error {
	query := fmt.Sprintf("INSERT INTO %s (state, ts) VALUES ($1,$2)", p.statusTable)
	_, err := p.db.Exec(query, state.String(), time.Now())
	return err
}

var _ ports.Sink = (*PostgresSink)(nil)
