// Package migration defines the migration action model, the ordering of
// migration files and the on-disk migration store.
//
// A migration file is a JSON object:
//
//	{
//	    "parent": "000003-1700000000000.json",
//	    "actions": [
//	        { "action": "add", "namespace": "login", "key": "header", "value": "Login" },
//	        { "action": "remove", "namespace": "login", "key": "footer" },
//	        { "action": "update", "namespace": "login", "key": "submit", "newKey": "login-button" }
//	    ]
//	}
package migration

import (
	"encoding/json"
	"fmt"

	"github.com/ifrcgo/translatte/keyset"
)

// Kind discriminates migration actions.
type Kind string

const (
	KindAdd    Kind = "add"
	KindRemove Kind = "remove"
	KindUpdate Kind = "update"
)

// Action is a single catalog mutation.
//
// Which fields are meaningful depends on Kind:
//   - add:    Namespace, Key, Value
//   - remove: Namespace, Key
//   - update: Namespace, Key and at least one of NewNamespace, NewKey,
//     NewValue. A nil pointer means "no change on this axis".
type Action struct {
	Kind         Kind
	Namespace    string
	Key          string
	Value        string
	NewNamespace *string
	NewKey       *string
	NewValue     *string
}

// UpdateOptions lists the axes an update changes.
type UpdateOptions struct {
	NewNamespace *string
	NewKey       *string
	NewValue     *string
}

// Add builds an add action.
func Add(namespace, key, value string) Action {
	return Action{Kind: KindAdd, Namespace: namespace, Key: key, Value: value}
}

// Remove builds a remove action.
func Remove(namespace, key string) Action {
	return Action{Kind: KindRemove, Namespace: namespace, Key: key}
}

// Update builds an update action.
func Update(namespace, key string, opts UpdateOptions) Action {
	return Action{
		Kind:         KindUpdate,
		Namespace:    namespace,
		Key:          key,
		NewNamespace: opts.NewNamespace,
		NewKey:       opts.NewKey,
		NewValue:     opts.NewValue,
	}
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// Identity returns "namespace:key" of the string the action operates on.
func (a Action) Identity() string {
	return keyset.Concat(a.Namespace, a.Key)
}

// Target returns "namespace:key" of the string after the action. It differs
// from Identity only for renaming updates.
func (a Action) Target() string {
	return keyset.Concat(a.TargetNamespace(), a.TargetKey())
}

// TargetNamespace is NewNamespace for updates that move the string, the
// current namespace otherwise.
func (a Action) TargetNamespace() string {
	if a.Kind == KindUpdate && a.NewNamespace != nil {
		return *a.NewNamespace
	}
	return a.Namespace
}

// TargetKey is NewKey for updates that rename the key, the current key
// otherwise.
func (a Action) TargetKey() string {
	if a.Kind == KindUpdate && a.NewKey != nil {
		return *a.NewKey
	}
	return a.Key
}

// Validate checks that only the fields of the action's variant are set.
func (a Action) Validate() error {
	if a.Namespace == "" || a.Key == "" {
		return fmt.Errorf("%s action %q: namespace and key are required", a.Kind, a.Identity())
	}

	switch a.Kind {
	case KindAdd:
		if a.NewNamespace != nil || a.NewKey != nil || a.NewValue != nil {
			return fmt.Errorf("add action %q: newNamespace, newKey and newValue are not allowed", a.Identity())
		}
	case KindRemove:
		if a.Value != "" || a.NewNamespace != nil || a.NewKey != nil || a.NewValue != nil {
			return fmt.Errorf("remove action %q: only namespace and key are allowed", a.Identity())
		}
	case KindUpdate:
		if a.NewNamespace == nil && a.NewKey == nil && a.NewValue == nil {
			return fmt.Errorf("update action %q: one of newNamespace, newKey or newValue is required", a.Identity())
		}
		if a.NewNamespace != nil && *a.NewNamespace == "" {
			return fmt.Errorf("update action %q: newNamespace must not be empty", a.Identity())
		}
		if a.NewKey != nil && *a.NewKey == "" {
			return fmt.Errorf("update action %q: newKey must not be empty", a.Identity())
		}
	default:
		return fmt.Errorf("unknown action %q on %q", a.Kind, a.Identity())
	}
	return nil
}

// String renders the action for log output.
func (a Action) String() string {
	switch a.Kind {
	case KindAdd:
		return fmt.Sprintf("add %s = %q", a.Identity(), a.Value)
	case KindRemove:
		return fmt.Sprintf("remove %s", a.Identity())
	case KindUpdate:
		s := "update " + a.Identity()
		if a.NewNamespace != nil || a.NewKey != nil {
			s += " -> " + a.Target()
		}
		if a.NewValue != nil {
			s += fmt.Sprintf(" = %q", *a.NewValue)
		}
		return s
	}
	return fmt.Sprintf("%s %s", a.Kind, a.Identity())
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

type addJSON struct {
	Action    Kind   `json:"action"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

type removeJSON struct {
	Action    Kind   `json:"action"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

type updateJSON struct {
	Action       Kind    `json:"action"`
	Namespace    string  `json:"namespace"`
	Key          string  `json:"key"`
	NewNamespace *string `json:"newNamespace,omitempty"`
	NewKey       *string `json:"newKey,omitempty"`
	NewValue     *string `json:"newValue,omitempty"`
}

// rawJSON is the decoding superset; "value" on an update is legacy and dropped.
type rawJSON struct {
	Action       Kind    `json:"action"`
	Namespace    string  `json:"namespace"`
	Key          string  `json:"key"`
	Value        *string `json:"value"`
	NewNamespace *string `json:"newNamespace"`
	NewKey       *string `json:"newKey"`
	NewValue     *string `json:"newValue"`
}

// MarshalJSON emits only the fields of the action's variant.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case KindAdd:
		return json.Marshal(addJSON{a.Kind, a.Namespace, a.Key, a.Value})
	case KindRemove:
		return json.Marshal(removeJSON{a.Kind, a.Namespace, a.Key})
	case KindUpdate:
		return json.Marshal(updateJSON{a.Kind, a.Namespace, a.Key, a.NewNamespace, a.NewKey, a.NewValue})
	}
	return nil, fmt.Errorf("unknown action %q", a.Kind)
}

// UnmarshalJSON decodes and validates an action.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw rawJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	act := Action{Kind: raw.Action, Namespace: raw.Namespace, Key: raw.Key}
	switch raw.Action {
	case KindAdd:
		if raw.Value == nil {
			return fmt.Errorf("add action %q: value is required", act.Identity())
		}
		act.Value = *raw.Value
		if raw.NewNamespace != nil || raw.NewKey != nil || raw.NewValue != nil {
			return fmt.Errorf("add action %q: newNamespace, newKey and newValue are not allowed", act.Identity())
		}
	case KindUpdate:
		act.NewNamespace = raw.NewNamespace
		act.NewKey = raw.NewKey
		act.NewValue = raw.NewValue
	case KindRemove:
		if raw.Value != nil {
			return fmt.Errorf("remove action %q: value is not allowed", act.Identity())
		}
	}

	if err := act.Validate(); err != nil {
		return err
	}
	*a = act
	return nil
}
