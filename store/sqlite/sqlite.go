/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements engine.NodeStore and engine.EntryStore using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  hierarchy_nodes: Node records; the tree is rebuilt in memory via
                   engine.BuildTree on every read path
  revenue_entries: Entry records including the frozen snapshot columns

WRITE DISCIPLINE:
  - Entry snapshot columns are write-once: the UPDATE is guarded by
    "owner_rate_snapshot IS NULL" so a second capture changes nothing
  - Status transitions are guarded by "status = 'submitted'" so terminal
    states stay immutable at the database level too

DECIMALS:
  Money and rate values are stored as TEXT and parsed back through
  shopspring/decimal. Never floats - billing figures round-trip exactly.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/provision.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/provision-engine/engine"
)

// Store implements engine.NodeStore and engine.EntryStore using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Organizational hierarchy
	CREATE TABLE IF NOT EXISTS hierarchy_nodes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		parent_id TEXT,
		node_type TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		bank_rate TEXT NOT NULL,
		insurance_rate TEXT NOT NULL,
		real_estate_rate TEXT NOT NULL,
		career_level TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_parent
		ON hierarchy_nodes(parent_id);

	-- Revenue entries, including write-once snapshot columns
	CREATE TABLE IF NOT EXISTS revenue_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		category TEXT NOT NULL,
		provision_amount TEXT NOT NULL,
		net_revenue TEXT NOT NULL,
		vat_revenue TEXT NOT NULL,
		gross_revenue TEXT NOT NULL,
		tip_provider_id TEXT,
		tip_provider_name TEXT,
		tip_provider_percent TEXT,
		status TEXT NOT NULL,
		owner_rate_snapshot TEXT,
		manager_rate_snapshot TEXT,
		snapshot_owner_id TEXT,
		snapshot_owner_name TEXT,
		snapshot_manager_id TEXT,
		snapshot_manager_name TEXT,
		snapshot_captured_at TEXT,
		entry_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_employee
		ON revenue_entries(employee_id);
	CREATE INDEX IF NOT EXISTS idx_entries_category
		ON revenue_entries(category);
	CREATE INDEX IF NOT EXISTS idx_entries_status
		ON revenue_entries(status);
	CREATE INDEX IF NOT EXISTS idx_entries_date
		ON revenue_entries(entry_date);
	CREATE INDEX IF NOT EXISTS idx_entries_tip_provider
		ON revenue_entries(tip_provider_id) WHERE tip_provider_id IS NOT NULL;
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// NODE STORE
// =============================================================================

func (s *Store) SaveNode(ctx context.Context, n *engine.HierarchyNode) error {
	var parentID sql.NullString
	if n.ParentID != nil {
		parentID = sql.NullString{String: string(*n.ParentID), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hierarchy_nodes
			(id, name, parent_id, node_type, sort_order, bank_rate, insurance_rate, real_estate_rate, career_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			parent_id = excluded.parent_id,
			node_type = excluded.node_type,
			sort_order = excluded.sort_order,
			bank_rate = excluded.bank_rate,
			insurance_rate = excluded.insurance_rate,
			real_estate_rate = excluded.real_estate_rate,
			career_level = excluded.career_level`,
		string(n.ID), n.Name, parentID, string(n.Type), n.Order,
		n.BankRate.Value.String(), n.InsuranceRate.Value.String(), n.RealEstateRate.Value.String(),
		n.CareerLevel,
	)
	return err
}

func (s *Store) ListNodes(ctx context.Context) ([]*engine.HierarchyNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, parent_id, node_type, sort_order, bank_rate, insurance_rate, real_estate_rate, career_level
		FROM hierarchy_nodes
		ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*engine.HierarchyNode
	for rows.Next() {
		var (
			n           engine.HierarchyNode
			parentID    sql.NullString
			careerLevel sql.NullString
			nodeType    string
			bank        string
			ins         string
			realEstate  string
		)
		if err := rows.Scan(&n.ID, &n.Name, &parentID, &nodeType, &n.Order, &bank, &ins, &realEstate, &careerLevel); err != nil {
			return nil, err
		}
		if parentID.Valid {
			pid := engine.NodeID(parentID.String)
			n.ParentID = &pid
		}
		n.Type = engine.NodeType(nodeType)
		n.BankRate = engine.MustParsePercent(bank)
		n.InsuranceRate = engine.MustParsePercent(ins)
		n.RealEstateRate = engine.MustParsePercent(realEstate)
		n.CareerLevel = careerLevel.String
		nodes = append(nodes, &n)
	}
	return nodes, rows.Err()
}

func (s *Store) DeleteNode(ctx context.Context, id engine.NodeID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hierarchy_nodes WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return engine.ErrNodeNotFound
	}
	return nil
}

// =============================================================================
// ENTRY STORE
// =============================================================================

const entryColumns = `id, employee_id, category, provision_amount, net_revenue, vat_revenue, gross_revenue,
	tip_provider_id, tip_provider_name, tip_provider_percent, status,
	owner_rate_snapshot, manager_rate_snapshot,
	snapshot_owner_id, snapshot_owner_name, snapshot_manager_id, snapshot_manager_name, snapshot_captured_at,
	entry_date, created_at`

func (s *Store) SaveEntry(ctx context.Context, e *engine.RevenueEntry) error {
	var tipID, tipName, tipPercent sql.NullString
	if e.TipProvider != nil {
		tipID = sql.NullString{String: e.TipProvider.ID, Valid: true}
		tipName = sql.NullString{String: e.TipProvider.Name, Valid: true}
		tipPercent = sql.NullString{String: e.TipProvider.Percent.Value.String(), Valid: true}
	}

	var ownerRate, managerRate, snapOwnerID, snapOwnerName, snapManagerID, snapManagerName, snapCapturedAt sql.NullString
	if e.OwnerRateSnapshot != nil {
		ownerRate = sql.NullString{String: e.OwnerRateSnapshot.Value.String(), Valid: true}
	}
	if e.ManagerRateSnapshot != nil {
		managerRate = sql.NullString{String: e.ManagerRateSnapshot.Value.String(), Valid: true}
	}
	if e.HierarchySnapshot != nil {
		snapOwnerID = sql.NullString{String: string(e.HierarchySnapshot.OwnerID), Valid: true}
		snapOwnerName = sql.NullString{String: e.HierarchySnapshot.OwnerName, Valid: true}
		if e.HierarchySnapshot.ManagerID != "" {
			snapManagerID = sql.NullString{String: string(e.HierarchySnapshot.ManagerID), Valid: true}
			snapManagerName = sql.NullString{String: e.HierarchySnapshot.ManagerName, Valid: true}
		}
		snapCapturedAt = sql.NullString{String: e.HierarchySnapshot.CapturedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revenue_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), string(e.EmployeeID), string(e.Category),
		e.ProvisionAmount.Value.String(), e.NetRevenue.Value.String(), e.VatRevenue.Value.String(), e.GrossRevenue.Value.String(),
		tipID, tipName, tipPercent, string(e.Status),
		ownerRate, managerRate,
		snapOwnerID, snapOwnerName, snapManagerID, snapManagerName, snapCapturedAt,
		e.EntryDate.UTC().Format(time.RFC3339), e.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetEntry(ctx context.Context, id engine.EntryID) (*engine.RevenueEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM revenue_entries WHERE id = ?`, string(id))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrEntryNotFound
	}
	return e, err
}

func (s *Store) ListEntries(ctx context.Context, filter engine.EntryFilter) ([]*engine.RevenueEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM revenue_entries WHERE 1=1`
	var args []any

	if filter.EmployeeID != nil {
		query += ` AND employee_id = ?`
		args = append(args, string(*filter.EmployeeID))
	}
	if filter.Category != nil {
		query += ` AND category = ?`
		args = append(args, string(*filter.Category))
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	if filter.TipProviderID != nil {
		query += ` AND tip_provider_id = ?`
		args = append(args, *filter.TipProviderID)
	}
	if filter.From != nil {
		query += ` AND entry_date >= ?`
		args = append(args, filter.From.UTC().Format(time.RFC3339))
	}
	if filter.To != nil {
		query += ` AND entry_date <= ?`
		args = append(args, filter.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY entry_date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*engine.RevenueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id engine.EntryID, status engine.EntryStatus) error {
	if !status.Valid() || status == engine.StatusSubmitted {
		return engine.ErrInvalidStatus
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE revenue_entries SET status = ?
		WHERE id = ? AND status = 'submitted'`,
		string(status), string(id))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Missing or already terminal; distinguish for the caller.
		if _, err := s.GetEntry(ctx, id); err != nil {
			return err
		}
		return engine.ErrStatusFinal
	}
	return nil
}

func (s *Store) SaveSnapshot(ctx context.Context, id engine.EntryID, owner engine.Percent, manager *engine.Percent, hs engine.HierarchySnapshot) error {
	var managerRate, snapManagerID, snapManagerName sql.NullString
	if manager != nil {
		managerRate = sql.NullString{String: manager.Value.String(), Valid: true}
	}
	if hs.ManagerID != "" {
		snapManagerID = sql.NullString{String: string(hs.ManagerID), Valid: true}
		snapManagerName = sql.NullString{String: hs.ManagerName, Valid: true}
	}

	// Write-once: a second capture is a no-op.
	res, err := s.db.ExecContext(ctx, `
		UPDATE revenue_entries SET
			owner_rate_snapshot = ?,
			manager_rate_snapshot = ?,
			snapshot_owner_id = ?,
			snapshot_owner_name = ?,
			snapshot_manager_id = ?,
			snapshot_manager_name = ?,
			snapshot_captured_at = ?
		WHERE id = ? AND owner_rate_snapshot IS NULL`,
		owner.Value.String(), managerRate,
		string(hs.OwnerID), hs.OwnerName, snapManagerID, snapManagerName,
		hs.CapturedAt.UTC().Format(time.RFC3339),
		string(id))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the entry is missing (error) or it already carries a
		// snapshot (idempotent success).
		if _, err := s.GetEntry(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*engine.RevenueEntry, error) {
	var (
		e                              engine.RevenueEntry
		category, status               string
		provision, net, vat, gross     string
		tipID, tipName, tipPercent     sql.NullString
		ownerRate, managerRate         sql.NullString
		snapOwnerID, snapOwnerName     sql.NullString
		snapManagerID, snapManagerName sql.NullString
		snapCapturedAt                 sql.NullString
		entryDate, createdAt           string
	)

	if err := row.Scan(
		&e.ID, &e.EmployeeID, &category, &provision, &net, &vat, &gross,
		&tipID, &tipName, &tipPercent, &status,
		&ownerRate, &managerRate,
		&snapOwnerID, &snapOwnerName, &snapManagerID, &snapManagerName, &snapCapturedAt,
		&entryDate, &createdAt,
	); err != nil {
		return nil, err
	}

	e.Category = engine.CategoryType(category)
	e.Status = engine.EntryStatus(status)
	e.ProvisionAmount = engine.MustParseMoney(provision)
	e.NetRevenue = engine.MustParseMoney(net)
	e.VatRevenue = engine.MustParseMoney(vat)
	e.GrossRevenue = engine.MustParseMoney(gross)

	if tipID.Valid {
		e.TipProvider = &engine.TipProvider{
			ID:      tipID.String,
			Name:    tipName.String,
			Percent: engine.MustParsePercent(tipPercent.String),
		}
	}

	if ownerRate.Valid {
		rate := engine.MustParsePercent(ownerRate.String)
		e.OwnerRateSnapshot = &rate
	}
	if managerRate.Valid {
		rate := engine.MustParsePercent(managerRate.String)
		e.ManagerRateSnapshot = &rate
	}
	if snapOwnerID.Valid {
		hs := &engine.HierarchySnapshot{
			OwnerID:   engine.NodeID(snapOwnerID.String),
			OwnerName: snapOwnerName.String,
		}
		if snapManagerID.Valid {
			hs.ManagerID = engine.NodeID(snapManagerID.String)
			hs.ManagerName = snapManagerName.String
		}
		if snapCapturedAt.Valid {
			if t, err := time.Parse(time.RFC3339, snapCapturedAt.String); err == nil {
				hs.CapturedAt = t
			}
		}
		e.HierarchySnapshot = hs
	}

	if t, err := time.Parse(time.RFC3339, entryDate); err == nil {
		e.EntryDate = t
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		e.CreatedAt = t
	}
	return &e, nil
}
