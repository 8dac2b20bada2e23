// Package store keeps node inventories in sqlite. One row per occupied slot;
// transfers run in a single transaction so a crash never strands items
// between nodes.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"itemgrid.ai/internal/protocol"
)

type NodeDef struct {
	ID      string
	Slots   int
	CanList bool
	CanPush bool
	CanPull bool
}

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id       TEXT PRIMARY KEY,
	slots    INTEGER NOT NULL,
	can_list INTEGER NOT NULL,
	can_push INTEGER NOT NULL,
	can_pull INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS stacks (
	node_id   TEXT NOT NULL REFERENCES nodes(id),
	slot      INTEGER NOT NULL,
	item      TEXT NOT NULL,
	count     INTEGER NOT NULL,
	max_count INTEGER NOT NULL,
	PRIMARY KEY (node_id, slot)
);
`

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer; the hub serializes sessions anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// EnsureNode registers a node, updating slot count and capabilities for an
// existing one. Inventory rows survive re-registration.
func (s *Store) EnsureNode(ctx context.Context, n NodeDef) error {
	if n.ID == "" {
		return fmt.Errorf("empty node id")
	}
	if n.Slots <= 0 {
		return fmt.Errorf("node %s: slots must be positive", n.ID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, slots, can_list, can_push, can_pull)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slots = excluded.slots,
			can_list = excluded.can_list,
			can_push = excluded.can_push,
			can_pull = excluded.can_pull`,
		n.ID, n.Slots, b2i(n.CanList), b2i(n.CanPush), b2i(n.CanPull))
	return err
}

func (s *Store) Nodes(ctx context.Context) ([]protocol.NodeRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, can_list, can_push, can_pull FROM nodes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []protocol.NodeRef
	for rows.Next() {
		var n protocol.NodeRef
		var l, p, u int
		if err := rows.Scan(&n.ID, &l, &p, &u); err != nil {
			return nil, err
		}
		n.CanList, n.CanPush, n.CanPull = l != 0, p != 0, u != 0
		out = append(out, n)
	}
	return out, rows.Err()
}

// Node returns one node's definition.
func (s *Store) Node(ctx context.Context, id string) (NodeDef, error) {
	var n NodeDef
	var l, p, u int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, slots, can_list, can_push, can_pull FROM nodes WHERE id = ?`, id).
		Scan(&n.ID, &n.Slots, &l, &p, &u)
	if err == sql.ErrNoRows {
		return NodeDef{}, fmt.Errorf("no such node %s", id)
	}
	if err != nil {
		return NodeDef{}, err
	}
	n.CanList, n.CanPush, n.CanPull = l != 0, p != 0, u != 0
	return n, nil
}

func (s *Store) HasNode(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Stacks snapshots a node's occupied slots in slot order.
func (s *Store) Stacks(ctx context.Context, nodeID string) ([]protocol.ItemStack, error) {
	ok, err := s.HasNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no such node %s", nodeID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, item, count, max_count FROM stacks
		 WHERE node_id = ? AND count > 0 ORDER BY slot`, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []protocol.ItemStack
	for rows.Next() {
		var st protocol.ItemStack
		if err := rows.Scan(&st.Slot, &st.Item, &st.Count, &st.MaxCount); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SetStack seeds or overwrites one slot. Count 0 clears the slot.
func (s *Store) SetStack(ctx context.Context, nodeID string, st protocol.ItemStack) error {
	if st.Count <= 0 {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM stacks WHERE node_id = ? AND slot = ?`, nodeID, st.Slot)
		return err
	}
	if st.MaxCount <= 0 {
		st.MaxCount = 64
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stacks (node_id, slot, item, count, max_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(node_id, slot) DO UPDATE SET
			item = excluded.item,
			count = excluded.count,
			max_count = excluded.max_count`,
		nodeID, st.Slot, st.Item, st.Count, st.MaxCount)
	return err
}

// Transfer moves up to count units out of (srcNode, slot) into dstNode,
// filling partial stacks of the same item first and then empty slots, and
// returns how many units actually fit. Zero moved is not an error.
func (s *Store) Transfer(ctx context.Context, srcNode string, slot int, dstNode string, count int) (int, error) {
	if srcNode == dstNode {
		return 0, fmt.Errorf("cannot transfer within %s", srcNode)
	}
	if count <= 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var dstSlots int
	if err := tx.QueryRowContext(ctx,
		`SELECT slots FROM nodes WHERE id = ?`, dstNode).Scan(&dstSlots); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("no such node %s", dstNode)
		}
		return 0, err
	}

	var item string
	var srcCount, maxCount int
	err = tx.QueryRowContext(ctx,
		`SELECT item, count, max_count FROM stacks WHERE node_id = ? AND slot = ?`,
		srcNode, slot).Scan(&item, &srcCount, &maxCount)
	if err == sql.ErrNoRows || (err == nil && srcCount <= 0) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	want := min(count, srcCount)

	// Occupancy map of the destination.
	rows, err := tx.QueryContext(ctx,
		`SELECT slot, item, count, max_count FROM stacks WHERE node_id = ? ORDER BY slot`, dstNode)
	if err != nil {
		return 0, err
	}
	type dstSlot struct {
		slot, count, max int
		item             string
	}
	occupied := map[int]dstSlot{}
	var partial []dstSlot
	for rows.Next() {
		var d dstSlot
		if err := rows.Scan(&d.slot, &d.item, &d.count, &d.max); err != nil {
			rows.Close()
			return 0, err
		}
		occupied[d.slot] = d
		if d.item == item && d.count < d.max {
			partial = append(partial, d)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	moved := 0
	for _, d := range partial {
		if moved >= want {
			break
		}
		n := min(want-moved, d.max-d.count)
		if _, err := tx.ExecContext(ctx,
			`UPDATE stacks SET count = count + ? WHERE node_id = ? AND slot = ?`,
			n, dstNode, d.slot); err != nil {
			return 0, err
		}
		moved += n
	}
	for sl := 0; sl < dstSlots && moved < want; sl++ {
		if _, taken := occupied[sl]; taken {
			continue
		}
		n := min(want-moved, maxCount)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stacks (node_id, slot, item, count, max_count)
			VALUES (?, ?, ?, ?, ?)`,
			dstNode, sl, item, n, maxCount); err != nil {
			return 0, err
		}
		moved += n
	}

	if moved > 0 {
		if srcCount-moved <= 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM stacks WHERE node_id = ? AND slot = ?`, srcNode, slot); err != nil {
				return 0, err
			}
		} else if _, err := tx.ExecContext(ctx,
			`UPDATE stacks SET count = count - ? WHERE node_id = ? AND slot = ?`,
			moved, srcNode, slot); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return moved, nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
