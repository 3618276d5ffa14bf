// Package merge folds a chain of migrations into one equivalent migration.
//
// Each step looks up the actions of the next migration at the place the
// accumulated actions left the string (their target identity) and combines
// the two:
//
//	prev \ next  add          remove       update
//	add          conflict     (dropped)    add at new identity
//	remove       update       remove       conflict
//	update       conflict     remove       composed update
//
// A place can hold a removed string and a live one renamed onto it. The live
// action is the one combined; the remove is kept as is.
package merge

import (
	"fmt"

	"github.com/ifrcgo/translatte/migration"
)

// ConflictError reports two actions that cannot follow each other.
type ConflictError struct {
	Prev   migration.Action
	Next   migration.Action
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot merge %q after %q: %s", e.Next.String(), e.Prev.String(), e.Reason)
}

// slotState is the outcome for one action of the previous list. An action
// without a slot is kept unchanged.
type slotState int

const (
	slotReplaced slotState = iota
	slotTombstoned
)

type slot struct {
	state  slotState
	action migration.Action
}

// positionedSlot is the slot for the previous action at pos.
type positionedSlot struct {
	pos int
	slot
}

// ordered indexes actions by key. A key may hold several actions, listed by
// position.
type ordered struct {
	actions []migration.Action
	at      map[string][]int
}

func index(actions []migration.Action, keyOf func(migration.Action) string) ordered {
	o := ordered{actions: actions, at: make(map[string][]int, len(actions))}
	for i, a := range actions {
		k := keyOf(a)
		o.at[k] = append(o.at[k], i)
	}
	return o
}

// find returns the position of the action holding the string at k: the last
// add or update, or else the last remove. A remove and a rename onto the
// removed place can share k; the rename holds the live string.
func (o ordered) find(k string) (int, bool) {
	positions := o.at[k]
	if len(positions) == 0 {
		return 0, false
	}
	for i := len(positions) - 1; i >= 0; i-- {
		if o.actions[positions[i]].Kind != migration.KindRemove {
			return positions[i], true
		}
	}
	return positions[len(positions)-1], true
}

func (o ordered) has(k string) bool {
	return len(o.at[k]) > 0
}

// Merge folds migrations, oldest first, into a single action list.
func Merge(files []migration.File) ([]migration.Action, []migration.Diagnostic, error) {
	acc := []migration.Action{}
	var diags []migration.Diagnostic

	for i, f := range files {
		next, d, err := Pair(acc, f.Actions)
		if err != nil {
			return nil, nil, fmt.Errorf("migration %d of %d: %w", i+1, len(files), err)
		}
		acc = next
		diags = append(diags, d...)
	}
	return acc, diags, nil
}

// Pair merges the actions of next into prev.
//
// Only the first action of next on a string is combined with prev. Later
// actions on the same string belong to the same migration and are kept in
// order after it.
//
// The result lists prev's actions in order, replaced or dropped where next
// touched them, followed by the remaining actions of next.
func Pair(prev, next []migration.Action) ([]migration.Action, []migration.Diagnostic, error) {
	prevIdx := index(prev, migration.Action.Target)
	nextIdx := index(next, migration.Action.Identity)

	var diags []migration.Diagnostic
	slots := make(map[int]slot)
	tail := make([]migration.Action, 0, len(next))
	seen := make(map[string]bool, len(next))

	for _, n := range next {
		k := n.Identity()
		first := !seen[k]
		seen[k] = true

		pos, ok := prevIdx.find(k)
		if !first || !ok {
			tail = append(tail, n)
			continue
		}

		res, d, err := combine(k, prev[pos], pos, n, prevIdx, nextIdx)
		if err != nil {
			return nil, nil, err
		}
		if d != nil {
			diags = append(diags, *d)
		}
		for _, r := range res {
			slots[r.pos] = r.slot
		}
	}

	out := make([]migration.Action, 0, len(prev)+len(tail))
	for i, a := range prev {
		s, ok := slots[i]
		if !ok {
			out = append(out, a)
			continue
		}
		if s.state == slotReplaced {
			out = append(out, s.action)
		}
	}
	out = append(out, tail...)

	if err := checkUniqueAdds(out); err != nil {
		return nil, nil, err
	}
	return out, diags, nil
}

func combine(k string, p migration.Action, pos int, n migration.Action, prevIdx, nextIdx ordered) ([]positionedSlot, *migration.Diagnostic, error) {
	conflict := func(reason string) ([]positionedSlot, *migration.Diagnostic, error) {
		return nil, nil, &ConflictError{Prev: p, Next: n, Reason: reason}
	}
	replace := func(a migration.Action) []positionedSlot {
		return []positionedSlot{{pos: pos, slot: slot{state: slotReplaced, action: a}}}
	}
	restore := func(removed migration.Action, value string) (migration.Action, *migration.Diagnostic) {
		restored := migration.Update(removed.Namespace, removed.Key, migration.UpdateOptions{NewValue: migration.Ptr(value)})
		return restored, &migration.Diagnostic{
			Code:    migration.DiagRestoredAfterRemove,
			Action:  restored,
			Message: "string removed and added again; merged into a value update that keeps the removed string's translations",
		}
	}

	switch p.Kind {
	case migration.KindAdd:
		switch n.Kind {
		case migration.KindAdd:
			return conflict("string is added twice")
		case migration.KindRemove:
			return []positionedSlot{{pos: pos, slot: slot{state: slotTombstoned}}}, nil, nil
		case migration.KindUpdate:
			value := p.Value
			if n.NewValue != nil {
				value = *n.NewValue
			}
			target := n.Target()
			if target != k {
				occupantPos, found := prevIdx.find(target)
				if found && !nextIdx.has(target) {
					occupant := prevIdx.actions[occupantPos]
					if occupant.Kind != migration.KindRemove {
						return conflict(fmt.Sprintf("%q already exists", target))
					}
					// The new string takes the place of one removed earlier.
					restored, d := restore(occupant, value)
					return []positionedSlot{
						{pos: pos, slot: slot{state: slotTombstoned}},
						{pos: occupantPos, slot: slot{state: slotReplaced, action: restored}},
					}, d, nil
				}
			}
			return replace(migration.Add(n.TargetNamespace(), n.TargetKey(), value)), nil, nil
		}

	case migration.KindRemove:
		switch n.Kind {
		case migration.KindAdd:
			restored, d := restore(p, n.Value)
			return replace(restored), d, nil
		case migration.KindRemove:
			return replace(p), nil, nil
		case migration.KindUpdate:
			return conflict("string was removed")
		}

	case migration.KindUpdate:
		switch n.Kind {
		case migration.KindAdd:
			return conflict("string was updated")
		case migration.KindRemove:
			return replace(migration.Remove(p.Namespace, p.Key)), nil, nil
		case migration.KindUpdate:
			return replace(migration.Update(p.Namespace, p.Key, migration.UpdateOptions{
				NewNamespace: prefer(n.NewNamespace, p.NewNamespace),
				NewKey:       prefer(n.NewKey, p.NewKey),
				NewValue:     prefer(n.NewValue, p.NewValue),
			})), nil, nil
		}
	}

	return conflict("unknown action")
}

func prefer(next, prev *string) *string {
	if next != nil {
		return next
	}
	return prev
}

// checkUniqueAdds rejects results in which two adds create the same string.
func checkUniqueAdds(actions []migration.Action) error {
	seen := make(map[string]migration.Action)
	for _, a := range actions {
		if a.Kind != migration.KindAdd {
			continue
		}
		if first, ok := seen[a.Identity()]; ok {
			return &ConflictError{Prev: first, Next: a, Reason: fmt.Sprintf("%q would exist twice", a.Identity())}
		}
		seen[a.Identity()] = a
	}
	return nil
}
