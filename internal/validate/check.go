// Package validate runs post-build data-quality checks over the mart and
// intermediate relations. Checks never abort already-built units; every check
// runs and the report carries per-check violation counts.
package validate

import (
	"fmt"
	"strings"
)

// Kind selects the check's query shape.
type Kind string

const (
	KindUnique         Kind = "unique"
	KindNotNull        Kind = "not_null"
	KindRelationship   Kind = "relationship"
	KindAcceptedValues Kind = "accepted_values"
	KindExpression     Kind = "expression"
)

// Check is one data-quality assertion against a relation. For expression
// checks, Expression is the violation predicate: rows matching it count as
// violations.
type Check struct {
	Name     string
	Relation string
	Kind     Kind
	Column   string

	// Relationship target.
	ToRelation string
	ToColumn   string

	// Accepted value set; nulls are not violations.
	Values []string

	Expression string
}

func (c Check) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("check name is required")
	}
	if strings.TrimSpace(c.Relation) == "" {
		return fmt.Errorf("check %s: relation is required", c.Name)
	}
	switch c.Kind {
	case KindUnique, KindNotNull:
		if c.Column == "" {
			return fmt.Errorf("check %s: column is required", c.Name)
		}
	case KindRelationship:
		if c.Column == "" || c.ToRelation == "" || c.ToColumn == "" {
			return fmt.Errorf("check %s: column, to_relation and to_column are required", c.Name)
		}
	case KindAcceptedValues:
		if c.Column == "" || len(c.Values) == 0 {
			return fmt.Errorf("check %s: column and values are required", c.Name)
		}
	case KindExpression:
		if strings.TrimSpace(c.Expression) == "" {
			return fmt.Errorf("check %s: expression is required", c.Name)
		}
	default:
		return fmt.Errorf("check %s: unknown kind %q", c.Name, c.Kind)
	}
	return nil
}

// violationSQL renders the COUNT query whose result is the number of
// violating rows.
func (c Check) violationSQL() string {
	switch c.Kind {
	case KindUnique:
		return fmt.Sprintf(
			"SELECT COUNT(*) FROM (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1) duplicates",
			c.Column, c.Relation, c.Column)
	case KindNotNull:
		return fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE %s IS NULL",
			c.Relation, c.Column)
	case KindRelationship:
		return fmt.Sprintf(
			"SELECT COUNT(*) FROM %s src LEFT JOIN %s dst ON src.%s = dst.%s "+
				"WHERE src.%s IS NOT NULL AND dst.%s IS NULL",
			c.Relation, c.ToRelation, c.Column, c.ToColumn, c.Column, c.ToColumn)
	case KindAcceptedValues:
		quoted := make([]string, len(c.Values))
		for i, v := range c.Values {
			quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		return fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s NOT IN (%s)",
			c.Relation, c.Column, c.Column, strings.Join(quoted, ", "))
	default: // expression
		return fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE %s",
			c.Relation, c.Expression)
	}
}
