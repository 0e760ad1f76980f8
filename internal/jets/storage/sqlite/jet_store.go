package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/jetreco/internal/jets/l1inputs"
	"github.com/banshee-data/jetreco/internal/jets/l4pileup"
	"github.com/banshee-data/jetreco/internal/jets/pipeline"
)

// EventRecord is one persisted producer pass.
type EventRecord struct {
	EventID    string   `json:"event_id"`
	Run        uint64   `json:"run"`
	Event      uint64   `json:"event"`
	Instance   string   `json:"instance"`
	JetType    string   `json:"jet_type"`
	Corrected  bool     `json:"corrected"`
	Trace      string   `json:"trace"`
	Rho        *float64 `json:"rho,omitempty"`
	RhoSigma   *float64 `json:"rho_sigma,omitempty"`
	Candidates int      `json:"candidates"`
	Staged     int      `json:"staged"`
	Dropped    int      `json:"dropped"`
}

// JetRecord is one persisted jet. Specific holds the full typed record
// as JSON.
type JetRecord struct {
	JetID        string                `json:"jet_id"`
	EventID      string                `json:"event_id"`
	Position     int                   `json:"position"`
	P4           l1inputs.FourMomentum `json:"p4"`
	Pt           float64               `json:"pt"`
	Eta          float64               `json:"eta"`
	Phi          float64               `json:"phi"`
	Area         *float64              `json:"area,omitempty"`
	PileupEnergy float64               `json:"pileup_energy"`
	Vertex       l1inputs.Point        `json:"vertex"`
	Specific     json.RawMessage       `json:"specific"`
	Constituents []int                 `json:"constituents"`
}

// JetStore writes producer output to SQLite.
type JetStore struct {
	db *sql.DB
}

var _ pipeline.Sink = (*JetStore)(nil)

// NewJetStore creates a new JetStore.
func NewJetStore(db *sql.DB) *JetStore {
	return &JetStore{db: db}
}

// Put stores the products of one event in a single transaction. A
// previous pass for the same run, event and instance is replaced.
func (s *JetStore) Put(instance string, p *pipeline.Products) error {
	if p == nil {
		return fmt.Errorf("nil products")
	}
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		if err := putProducts(tx, instance, p); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func putProducts(tx *sql.Tx, instance string, p *pipeline.Products) error {
	if _, err := tx.Exec(`DELETE FROM jet_events WHERE run = ? AND event = ? AND instance = ?`,
		p.Event.Run, p.Event.Event, instance); err != nil {
		return fmt.Errorf("delete previous event: %w", err)
	}

	eventID := uuid.New().String()
	var rho, rhoSigma interface{}
	if p.Rho != nil {
		rho, rhoSigma = p.Rho.Rho, p.Rho.Sigma
	}
	_, err := tx.Exec(`
		INSERT INTO jet_events (
			event_id, run, event, instance, jet_type, corrected, trace,
			rho, rho_sigma, candidates, staged, dropped
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		eventID, p.Event.Run, p.Event.Event, instance, p.JetType.String(),
		p.Trace.Corrected(), p.Trace.String(),
		rho, rhoSigma, p.Stage.Candidates, p.Stage.Staged, p.DroppedBySubtraction,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	for pos, rec := range p.Jets {
		c := rec.Common()
		specific, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal jet %d: %w", pos, err)
		}
		var area interface{}
		if c.HasArea {
			area = c.Area
		}
		jetID := uuid.New().String()
		_, err = tx.Exec(`
			INSERT INTO jets (
				jet_id, event_id, position, px, py, pz, e, pt, eta, phi,
				area, pileup_energy, vx, vy, vz, specific
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			jetID, eventID, pos, c.P4.Px, c.P4.Py, c.P4.Pz, c.P4.E,
			c.P4.Pt(), c.P4.Eta(), c.P4.Phi(),
			area, c.PileupEnergy, c.Vertex.X, c.Vertex.Y, c.Vertex.Z, string(specific),
		)
		if err != nil {
			return fmt.Errorf("insert jet %d: %w", pos, err)
		}
		for i, ref := range c.Constituents {
			if _, err := tx.Exec(`INSERT INTO jet_constituents (jet_id, position, ref) VALUES (?, ?, ?)`,
				jetID, i, int(ref)); err != nil {
				return fmt.Errorf("insert constituent %d of jet %d: %w", i, pos, err)
			}
		}
	}

	if p.Pedestal == nil {
		return nil
	}
	for _, r := range p.Pedestal.All() {
		_, err := tx.Exec(`
			INSERT INTO ring_stats (event_id, ieta, orphans, towers, sum_e, sum_e2, mean, sigma)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			eventID, r.Ieta, r.Count, r.Towers, r.SumE, r.SumE2, r.Mean, r.Sigma,
		)
		if err != nil {
			return fmt.Errorf("insert ring %d: %w", r.Ieta, err)
		}
	}
	return nil
}

const eventColumns = `event_id, run, event, instance, jet_type, corrected, trace,
	rho, rho_sigma, candidates, staged, dropped`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row scanner) (*EventRecord, error) {
	var e EventRecord
	var rho, rhoSigma sql.NullFloat64
	err := row.Scan(&e.EventID, &e.Run, &e.Event, &e.Instance, &e.JetType, &e.Corrected, &e.Trace,
		&rho, &rhoSigma, &e.Candidates, &e.Staged, &e.Dropped)
	if err != nil {
		return nil, err
	}
	if rho.Valid {
		e.Rho = &rho.Float64
	}
	if rhoSigma.Valid {
		e.RhoSigma = &rhoSigma.Float64
	}
	return &e, nil
}

// ListEvents returns the stored events of instance, ordered by run and
// event number. An empty instance lists every instance.
func (s *JetStore) ListEvents(instance string) ([]*EventRecord, error) {
	rows, err := s.db.Query(`
		SELECT `+eventColumns+`
		FROM jet_events
		WHERE ? = '' OR instance = ?
		ORDER BY run, event, instance`, instance, instance)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []*EventRecord
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetEvent returns the stored pass of instance for one event.
func (s *JetStore) GetEvent(instance string, id pipeline.EventID) (*EventRecord, error) {
	row := s.db.QueryRow(`
		SELECT `+eventColumns+`
		FROM jet_events
		WHERE run = ? AND event = ? AND instance = ?`, id.Run, id.Event, instance)
	e, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("event %s of %s not found", id, instance)
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return e, nil
}

// Jets returns the jets of a stored event in production order.
func (s *JetStore) Jets(eventID string) ([]*JetRecord, error) {
	rows, err := s.db.Query(`
		SELECT jet_id, event_id, position, px, py, pz, e, pt, eta, phi,
		       area, pileup_energy, vx, vy, vz, specific
		FROM jets
		WHERE event_id = ?
		ORDER BY position`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query jets: %w", err)
	}
	defer rows.Close()

	var jets []*JetRecord
	for rows.Next() {
		var j JetRecord
		var area sql.NullFloat64
		var specific string
		err := rows.Scan(&j.JetID, &j.EventID, &j.Position,
			&j.P4.Px, &j.P4.Py, &j.P4.Pz, &j.P4.E, &j.Pt, &j.Eta, &j.Phi,
			&area, &j.PileupEnergy, &j.Vertex.X, &j.Vertex.Y, &j.Vertex.Z, &specific)
		if err != nil {
			return nil, fmt.Errorf("scan jet: %w", err)
		}
		if area.Valid {
			j.Area = &area.Float64
		}
		j.Specific = json.RawMessage(specific)
		jets = append(jets, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, j := range jets {
		if j.Constituents, err = s.constituents(j.JetID); err != nil {
			return nil, err
		}
	}
	return jets, nil
}

func (s *JetStore) constituents(jetID string) ([]int, error) {
	rows, err := s.db.Query(`SELECT ref FROM jet_constituents WHERE jet_id = ? ORDER BY position`, jetID)
	if err != nil {
		return nil, fmt.Errorf("query constituents: %w", err)
	}
	defer rows.Close()

	refs := []int{}
	for rows.Next() {
		var ref int
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan constituent: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// RingStats returns the pedestal of a stored event, ieta ascending. It is
// empty for uncorrected passes.
func (s *JetStore) RingStats(eventID string) ([]l4pileup.RingStats, error) {
	rows, err := s.db.Query(`
		SELECT ieta, orphans, towers, sum_e, sum_e2, mean, sigma
		FROM ring_stats
		WHERE event_id = ?
		ORDER BY ieta`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query ring stats: %w", err)
	}
	defer rows.Close()

	var stats []l4pileup.RingStats
	for rows.Next() {
		var r l4pileup.RingStats
		if err := rows.Scan(&r.Ieta, &r.Count, &r.Towers, &r.SumE, &r.SumE2, &r.Mean, &r.Sigma); err != nil {
			return nil, fmt.Errorf("scan ring stats: %w", err)
		}
		stats = append(stats, r)
	}
	return stats, rows.Err()
}

// DeleteEvent removes a stored event and everything attached to it.
func (s *JetStore) DeleteEvent(eventID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM jet_events WHERE event_id = ?`, eventID)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("event %s not found", eventID)
		}
		return nil
	})
}
