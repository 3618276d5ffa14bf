package apply

import (
	"github.com/ifrcgo/translatte/catalog"
	"github.com/ifrcgo/translatte/migration"
)

// pass applies one migration to one language.
//
// old is the language's rows before the migration and is never written to.
// Writes go to deltas; a key present in deltas is claimed by this pass.
// added marks the deltas created by add actions. Retired keys are
// tombstoned unless claimed.
type pass struct {
	lang       string
	source     bool
	old        map[string]catalog.Entry
	server     map[string]catalog.Entry
	deltas     map[string]catalog.Entry
	added      map[string]bool
	tombstones map[string]bool
	diags      []migration.Diagnostic
}

func newPass(lang string, source bool, old, server map[string]catalog.Entry) *pass {
	return &pass{
		lang:       lang,
		source:     source,
		old:        old,
		server:     server,
		deltas:     make(map[string]catalog.Entry),
		added:      make(map[string]bool),
		tombstones: make(map[string]bool),
	}
}

func (p *pass) claimed(id string) bool {
	_, ok := p.deltas[id]
	return ok
}

func (p *pass) write(e catalog.Entry) {
	id := e.ID()
	p.deltas[id] = e
	delete(p.tombstones, id)
}

// lookup finds the row an action operates on. Rows from before the pass
// win over rows written by it, so renames inside one migration read the
// original values. Of the rows written by the pass only added ones are
// visible; fromPass reports such a row.
func (p *pass) lookup(id string) (e catalog.Entry, fromPass bool, ok bool) {
	if e, ok := p.old[id]; ok && !p.tombstones[id] {
		return e, false, true
	}
	if e, ok := p.deltas[id]; ok && p.added[id] {
		return e, true, true
	}
	return catalog.Entry{}, false, false
}

// retire drops the row at id after its string moved elsewhere.
func (p *pass) retire(id string, fromPass bool) {
	if fromPass {
		delete(p.deltas, id)
		delete(p.added, id)
		return
	}
	if !p.claimed(id) {
		p.tombstones[id] = true
	}
}

func (p *pass) warn(code string, a migration.Action, msg string) {
	p.diags = append(p.diags, migration.Diagnostic{Code: code, Language: p.lang, Action: a, Message: msg})
}

func (p *pass) run(a migration.Action) {
	switch a.Kind {
	case migration.KindAdd:
		p.add(a)
	case migration.KindRemove:
		p.remove(a)
	case migration.KindUpdate:
		p.update(a)
	}
}

func (p *pass) add(a migration.Action) {
	id := catalog.ID(a.Namespace, a.Key, p.lang)
	if p.claimed(id) {
		p.warn(migration.DiagDuplicateAdd, a, "string already added by this migration")
		return
	}

	if !p.source {
		if s, ok := p.server[id]; ok {
			p.write(catalog.Entry{Namespace: a.Namespace, Key: a.Key, Language: p.lang, Value: s.Value, Hash: s.Hash})
			p.added[id] = true
		}
		return
	}

	hash := catalog.Hash(a.Value)
	if e, ok := p.old[id]; ok && !p.tombstones[id] {
		if e.Hash != hash {
			p.warn(migration.DiagConflictingAdd, a, "string already exists with a different value")
			return
		}
		p.warn(migration.DiagDuplicateAdd, a, "string already exists")
	}
	p.write(catalog.Entry{Namespace: a.Namespace, Key: a.Key, Language: p.lang, Value: a.Value, Hash: hash})
	p.added[id] = true
}

func (p *pass) remove(a migration.Action) {
	id := catalog.ID(a.Namespace, a.Key, p.lang)
	if p.claimed(id) {
		return
	}
	p.tombstones[id] = true
}

func (p *pass) update(a migration.Action) {
	oldID := catalog.ID(a.Namespace, a.Key, p.lang)
	newID := catalog.ID(a.TargetNamespace(), a.TargetKey(), p.lang)

	prev, fromPass, ok := p.lookup(oldID)
	if !p.source {
		if s, found := p.server[oldID]; found {
			prev, fromPass, ok = s, false, true
		}
	}
	if !ok {
		if p.source {
			p.warn(migration.DiagMissingUpdateTarget, a, "string does not exist")
		}
		return
	}

	if newID != oldID && p.claimed(newID) {
		p.warn(migration.DiagDuplicateUpdateTarget, a, "target already written by this migration")
		return
	}

	next := catalog.Entry{
		Namespace: a.TargetNamespace(),
		Key:       a.TargetKey(),
		Language:  p.lang,
		Value:     prev.Value,
		Hash:      prev.Hash,
	}
	if p.source && a.NewValue != nil {
		next.Value = *a.NewValue
		next.Hash = catalog.Hash(next.Value)
	}

	if newID != oldID {
		p.retire(oldID, fromPass)
	}
	p.write(next)
}

// layer returns the language's rows after the pass.
func (p *pass) layer() []catalog.Entry {
	out := make([]catalog.Entry, 0, len(p.old)+len(p.deltas))
	for id, e := range p.old {
		if p.tombstones[id] {
			continue
		}
		if _, ok := p.deltas[id]; ok {
			continue
		}
		out = append(out, e)
	}
	for _, e := range p.deltas {
		out = append(out, e)
	}
	return out
}
