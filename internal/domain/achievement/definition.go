package achievement

import (
	"github.com/ejfett4/guildhub/internal/domain/shared"
)

// EvaluateFunc performs a definition-specific evaluation on an achievement
// instance: it may move the progress counter in either direction based on
// arbitrary inputs and returns the achieved goals afterwards. Definitions
// without one fall back to returning the current achieved list unchanged.
type EvaluateFunc func(a *Achievement, args ...any) []Goal

// Definition is the immutable template for one category of trackable
// progress. Its identity is the unique Name; the GoalSet is shared by
// reference with every Achievement instance, so goal edits apply
// retroactively to existing instances.
type Definition struct {
	name     string
	category string
	keywords map[string]struct{}
	goals    *GoalSet
	evaluate EvaluateFunc
}

// DefinitionOption configures a Definition at construction.
type DefinitionOption func(*Definition)

// WithKeywords attaches filter keywords to the definition.
func WithKeywords(keywords ...string) DefinitionOption {
	return func(d *Definition) {
		for _, k := range keywords {
			d.keywords[k] = struct{}{}
		}
	}
}

// WithGoals sets the definition's goal set. Without it the definition starts
// with an empty set.
func WithGoals(goals *GoalSet) DefinitionOption {
	return func(d *Definition) {
		if goals != nil {
			d.goals = goals
		}
	}
}

// WithEvaluate sets the definition-specific evaluate function.
func WithEvaluate(fn EvaluateFunc) DefinitionOption {
	return func(d *Definition) { d.evaluate = fn }
}

// NewDefinition creates a definition. Name and category are required; a
// missing category is a validation error because the tracker refuses
// category-less registrations.
func NewDefinition(name, category string, opts ...DefinitionOption) (*Definition, error) {
	if name == "" {
		return nil, shared.NewDomainError("achievement", "NewDefinition", shared.ErrEmptyValue,
			"definition name is required")
	}
	if category == "" {
		return nil, shared.NewDomainError("achievement", "NewDefinition", shared.ErrValidation,
			"definition \""+name+"\" must specify a category")
	}

	d := &Definition{
		name:     name,
		category: category,
		keywords: make(map[string]struct{}),
		goals:    NewGoalSet(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Name returns the definition's unique name.
func (d *Definition) Name() string { return d.name }

// Category returns the definition's category.
func (d *Definition) Category() string { return d.category }

// Keywords returns the definition's keywords in unspecified order.
func (d *Definition) Keywords() []string {
	out := make([]string, 0, len(d.keywords))
	for k := range d.keywords {
		out = append(out, k)
	}
	return out
}

// HasKeyword reports whether the definition carries the keyword.
func (d *Definition) HasKeyword(keyword string) bool {
	_, ok := d.keywords[keyword]
	return ok
}

// Goals returns the definition's shared goal set.
func (d *Definition) Goals() *GoalSet { return d.goals }

// NewInstance creates a progress instance bound to this definition,
// starting at the given level (0 for fresh subjects, a stored value when
// rehydrating persisted state).
func (d *Definition) NewInstance(current int) *Achievement {
	return &Achievement{def: d, current: current}
}
