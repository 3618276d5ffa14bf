// Package diff generates a migration from two flat string catalogs.
package diff

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ifrcgo/translatte/catalog"
	"github.com/ifrcgo/translatte/keyset"
	"github.com/ifrcgo/translatte/migration"
)

// ErrNotBaseline is returned when a merged migration chain contains anything
// but add actions and therefore cannot stand for the current strings.
var ErrNotBaseline = errors.New("merged migrations are not a pure catalog")

// Item is a source-language string.
type Item struct {
	Namespace string
	Key       string
	Value     string
}

// ID returns "namespace:key".
func (i Item) ID() string {
	return keyset.Concat(i.Namespace, i.Key)
}

// Baseline converts a fully merged migration chain into the list of strings
// it describes.
func Baseline(actions []migration.Action) ([]Item, error) {
	items := make([]Item, 0, len(actions))
	for _, a := range actions {
		if a.Kind != migration.KindAdd {
			return nil, fmt.Errorf("%w: found %s", ErrNotBaseline, a)
		}
		items = append(items, Item{Namespace: a.Namespace, Key: a.Key, Value: a.Value})
	}
	return items, nil
}

func sameValue(l, r Item) bool {
	return catalog.Hash(l.Value) == catalog.Hash(r.Value)
}

// Generate computes the actions turning previous into current.
//
// Items are classified in passes, each working on what the previous pass
// left over: unchanged, value update, namespace rename, key rename. What is
// left of current is added and what is left of previous is removed.
func Generate(previous, current []Item) []migration.Action {
	var actions []migration.Action

	unchanged := keyset.Match(previous, current, Item.ID, sameValue)

	valueUpdates := keyset.Match(unchanged.Left, unchanged.Right, Item.ID,
		func(l, r Item) bool { return !sameValue(l, r) })
	for _, p := range valueUpdates.Pairs {
		prev, cur := p[0], p[1]
		actions = append(actions, migration.Update(prev.Namespace, prev.Key, migration.UpdateOptions{
			NewValue: migration.Ptr(cur.Value),
		}))
	}

	namespaceRenames := keyset.Match(valueUpdates.Left, valueUpdates.Right,
		func(i Item) string { return keyset.Concat(i.Key, catalog.Hash(i.Value)) },
		func(l, r Item) bool { return l.Namespace != r.Namespace })
	for _, p := range namespaceRenames.Pairs {
		prev, cur := p[0], p[1]
		actions = append(actions, migration.Update(prev.Namespace, prev.Key, migration.UpdateOptions{
			NewNamespace: migration.Ptr(cur.Namespace),
		}))
	}

	keyRenames := keyset.Match(namespaceRenames.Left, namespaceRenames.Right,
		func(i Item) string { return keyset.Concat(i.Namespace, catalog.Hash(i.Value)) },
		func(l, r Item) bool { return l.Key != r.Key })
	for _, p := range keyRenames.Pairs {
		prev, cur := p[0], p[1]
		actions = append(actions, migration.Update(prev.Namespace, prev.Key, migration.UpdateOptions{
			NewKey: migration.Ptr(cur.Key),
		}))
	}

	for _, cur := range keyRenames.Right {
		actions = append(actions, migration.Add(cur.Namespace, cur.Key, cur.Value))
	}
	for _, prev := range keyRenames.Left {
		actions = append(actions, migration.Remove(prev.Namespace, prev.Key))
	}

	Sort(actions)
	return actions
}

// Sort orders actions by namespace, action name and key.
func Sort(actions []migration.Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Key < b.Key
	})
}
