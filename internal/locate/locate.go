// Package locate finds the list of business records inside a captured forest of
// arbitrarily nested values.
package locate

import (
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/company-extractor/internal/logging"
	"github.com/jonathan/company-extractor/internal/types"
)

// Stage identifies which heuristic produced a result.
type Stage string

const (
	// StagePrimary matched a list whose first element carries a name-like key
	StagePrimary Stage = "primary"
	// StageFallback picked the largest list of mappings in the forest
	StageFallback Stage = "fallback"
	// StageDecoded matched after decoding a string-encoded JSON tree
	StageDecoded Stage = "decoded"
)

// nameKeys are the case-folded keys that mark a list as a record list.
var nameKeys = map[string]struct{}{
	"name":    {},
	"title":   {},
	"nom":     {},
	"company": {},
}

// Result holds the located record list and how it was found.
type Result struct {
	Records []types.Value
	Stage   Stage
	// Tree is the forest index of the tree that contained the list.
	Tree int
}

// Locate searches the forest for the record list. It runs three full passes in
// order: the primary name-key match, the largest-uniform-list fallback, then
// the primary match against string trees decoded as JSON. It returns a
// *NotFoundError when every pass comes up empty.
func Locate(forest []types.Value) (*Result, error) {
	return New(nil).Locate(forest)
}

// Locator runs the search and reports stage decisions to a logger.
type Locator struct {
	logger *zap.Logger
}

// New creates a Locator. A nil logger disables logging.
func New(logger *zap.Logger) *Locator {
	return &Locator{logger: logging.OrNop(logger)}
}

// Locate is the logging variant of the package-level Locate.
func (l *Locator) Locate(forest []types.Value) (*Result, error) {
	for i, tree := range forest {
		if found, ok := findPrimary(tree); ok {
			l.logger.Debug("record list found",
				zap.String("stage", string(StagePrimary)),
				zap.Int("tree", i),
				zap.Int("records", len(found)))
			return &Result{Records: found, Stage: StagePrimary, Tree: i}, nil
		}
	}

	l.logger.Info("no name-keyed list found, inspecting for large arrays of mappings",
		zap.Int("forest_size", len(forest)))

	best := candidate{tree: -1}
	for i, tree := range forest {
		c := largestUniform(tree)
		if c.size > best.size {
			best = c
			best.tree = i
		}
	}
	if best.size > 0 {
		l.logger.Info("record list found",
			zap.String("stage", string(StageFallback)),
			zap.Int("tree", best.tree),
			zap.Int("records", best.size))
		return &Result{Records: best.items, Stage: StageFallback, Tree: best.tree}, nil
	}

	for i, tree := range forest {
		s, ok := tree.Str()
		if !ok {
			continue
		}
		decoded, err := types.DecodeString(s)
		if err != nil {
			continue
		}
		if found, ok := findPrimary(decoded); ok {
			l.logger.Info("record list found",
				zap.String("stage", string(StageDecoded)),
				zap.Int("tree", i),
				zap.Int("records", len(found)))
			return &Result{Records: found, Stage: StageDecoded, Tree: i}, nil
		}
	}

	return nil, &NotFoundError{ForestSize: len(forest)}
}

// IsRecordList reports whether v is a non-empty sequence whose first element
// is a mapping with at least one name-like key. Only the first element is inspected.
func IsRecordList(v types.Value) bool {
	items := v.Items()
	if len(items) == 0 || !items[0].IsMapping() {
		return false
	}
	for _, m := range items[0].Members() {
		if _, ok := nameKeys[strings.ToLower(m.Key)]; ok {
			return true
		}
	}
	return false
}

// findPrimary is a depth-first pre-order search for the first record list.
func findPrimary(v types.Value) ([]types.Value, bool) {
	switch v.Kind() {
	case types.KindSequence:
		if IsRecordList(v) {
			return v.Items(), true
		}
		for _, item := range v.Items() {
			if found, ok := findPrimary(item); ok {
				return found, true
			}
		}
	case types.KindMapping:
		for _, m := range v.Members() {
			if found, ok := findPrimary(m.Value); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// candidate is the best uniform list seen in a subtree.
type candidate struct {
	items []types.Value
	size  int
	tree  int
}

// largestUniform returns the largest non-empty sequence of mappings in v's
// subtree. Ties keep the candidate met first in pre-order.
func largestUniform(v types.Value) candidate {
	var best candidate
	consider := func(c candidate) {
		if c.size > best.size {
			best = c
		}
	}

	switch v.Kind() {
	case types.KindSequence:
		if isUniform(v) {
			consider(candidate{items: v.Items(), size: v.Len()})
		}
		for _, item := range v.Items() {
			consider(largestUniform(item))
		}
	case types.KindMapping:
		for _, m := range v.Members() {
			consider(largestUniform(m.Value))
		}
	}
	return best
}

func isUniform(v types.Value) bool {
	items := v.Items()
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.IsMapping() {
			return false
		}
	}
	return true
}
