package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/oakhamlabs/waypost/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanVirtualNode scans a single row into a model.VirtualNode. The row must
// contain name, parent_name, child_names, collapsed, comment in that order.
func scanVirtualNode(row scannable) (*model.VirtualNode, error) {
	var v model.VirtualNode
	var (
		parentName sql.NullString
		children   []byte
		comment    sql.NullString
	)

	err := row.Scan(&v.Name, &parentName, &children, &v.Collapsed, &comment)
	if err != nil {
		return nil, err
	}

	v.ParentName = parentName.String
	v.Comment = comment.String
	if len(children) > 0 {
		if err := json.Unmarshal(children, &v.ChildNames); err != nil {
			return nil, fmt.Errorf("unmarshal child names for %q: %w", v.Name, err)
		}
	}
	return &v, nil
}

// scanVirtualNodes scans multiple rows into a slice of model.VirtualNode pointers.
func scanVirtualNodes(rows *sql.Rows) ([]*model.VirtualNode, error) {
	var nodes []*model.VirtualNode
	for rows.Next() {
		v, err := scanVirtualNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}
