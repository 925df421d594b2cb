package scope

import (
	"fmt"
	"strings"
)

// CompileSQL turns a predicate into a WHERE fragment plus its arguments.
// columns maps logical field names (FieldCity etc.) to the adapter's column
// names. Values are lowercased and compared against LOWER(col) so matching
// stays case-insensitive; empty columns can never match an IN list, which is
// what excludes orders without a resolved shipping location.
func CompileSQL(p Predicate, columns map[string]string) (string, []interface{}) {
	switch node := p.(type) {
	case FieldIn:
		col, ok := columns[node.Field]
		if !ok || len(node.Values) == 0 {
			return "1=0", nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(node.Values)), ",")
		args := make([]interface{}, 0, len(node.Values))
		for _, v := range node.Values {
			args = append(args, strings.ToLower(v))
		}
		return fmt.Sprintf("LOWER(%s) IN (%s)", col, placeholders), args
	case And:
		return compileJoin(node.Preds, " AND ", columns)
	case Or:
		return compileJoin(node.Preds, " OR ", columns)
	}
	return "1=0", nil
}

func compileJoin(preds []Predicate, sep string, columns map[string]string) (string, []interface{}) {
	if len(preds) == 0 {
		return "1=0", nil
	}
	clauses := make([]string, 0, len(preds))
	var args []interface{}
	for _, p := range preds {
		clause, a := CompileSQL(p, columns)
		clauses = append(clauses, clause)
		args = append(args, a...)
	}
	return "(" + strings.Join(clauses, sep) + ")", args
}
