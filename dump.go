package beacon

import (
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/beacon/identity"
	"github.com/dshills/beacon/meta"
)

// Dump renders obj's listener registry as a JSON document mirroring the
// registry's shape: event name to target set, target token to action
// set, method token to slot. An event nulled by a negative probe
// appears as JSON null and a tombstoned slot as {"live": false}. Keys
// are sorted, so output is stable for a given set of tokens.
func (d *Dispatcher) Dump(obj any) (string, error) {
	if obj == nil {
		return "", ErrNilObject
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	doc := "{}"
	var err error
	set := func(path string, value any) {
		if err == nil {
			doc, err = sjson.Set(doc, path, value)
		}
	}

	set("object", string(d.ids.For(obj)))
	if err == nil {
		doc, err = sjson.SetRaw(doc, "listeners", "{}")
	}

	ls, _ := d.store.Path(obj, keyListeners).(meta.Map)
	for _, ek := range sortedKeys(ls) {
		name, ok := ek.StringValue()
		if !ok {
			continue
		}
		epath := "listeners." + gjson.Escape(name)

		v := ls[ek]
		if v == nil {
			set(epath, nil)
			continue
		}
		ts, ok := v.(meta.Map)
		if !ok {
			continue
		}
		if err == nil {
			doc, err = sjson.SetRaw(doc, epath, "{}")
		}
		for _, tk := range sortedKeys(ts) {
			as, ok := ts[tk].(meta.Map)
			if !ok {
				continue
			}
			tpath := epath + "." + gjson.Escape(string(tk))
			for _, mk := range sortedKeys(as) {
				spath := tpath + "." + gjson.Escape(string(mk))
				if act, live := liveAction(as[mk]); live {
					set(spath+".live", true)
					set(spath+".method", act.method.String())
					if act.transform != nil {
						set(spath+".transform", true)
					}
				} else {
					set(spath+".live", false)
				}
			}
		}
	}
	return doc, err
}

// sortedKeys returns m's keys minus the ownership tag, sorted.
func sortedKeys(m meta.Map) []identity.Token {
	keys := make([]identity.Token, 0, len(m))
	m.Range(func(k identity.Token, _ any) bool {
		keys = append(keys, k)
		return true
	})
	slices.Sort(keys)
	return keys
}
