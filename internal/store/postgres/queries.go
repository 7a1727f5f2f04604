package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/oakhamlabs/waypost/internal/model"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func querySetOverride(ctx context.Context, db executor, name string, status model.Status) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO overrides (name, status, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET status = $2, updated_at = NOW()`,
		name, string(status),
	)
	return err
}

func queryClearOverride(ctx context.Context, db executor, name string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM overrides WHERE name = $1`, name)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func queryListOverrides(ctx context.Context, db executor) (map[string]model.Status, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, status FROM overrides`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[string]model.Status)
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, err
		}
		overrides[name] = model.Status(status)
	}
	return overrides, rows.Err()
}

func querySaveVirtualNode(ctx context.Context, db executor, v *model.VirtualNode) error {
	children, err := json.Marshal(v.ChildNames)
	if err != nil {
		return fmt.Errorf("marshal child names: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO virtual_nodes (name, parent_name, child_names, collapsed, comment, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (name) DO UPDATE SET
			parent_name = $2,
			child_names = $3,
			collapsed = $4,
			comment = $5,
			updated_at = NOW()`,
		v.Name, v.ParentName, children, v.Collapsed, v.Comment,
	)
	return err
}

func queryDeleteVirtualNode(ctx context.Context, db executor, name string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM virtual_nodes WHERE name = $1`, name)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func queryListVirtualNodes(ctx context.Context, db executor) ([]*model.VirtualNode, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, parent_name, child_names, collapsed, comment
		FROM virtual_nodes
		ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVirtualNodes(rows)
}

func querySetComment(ctx context.Context, db executor, name, comment string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO comments (name, comment, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET comment = $2, updated_at = NOW()`,
		name, comment,
	)
	return err
}

func queryClearComment(ctx context.Context, db executor, name string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM comments WHERE name = $1`, name)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func queryListComments(ctx context.Context, db executor) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, comment FROM comments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make(map[string]string)
	for rows.Next() {
		var name, comment string
		if err := rows.Scan(&name, &comment); err != nil {
			return nil, err
		}
		comments[name] = comment
	}
	return comments, rows.Err()
}

// checkAffected maps a zero-row result to sql.ErrNoRows so callers can
// distinguish idempotent no-ops.
func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
