package store

import (
	"encoding/json"
	"sort"
	"strings"
)

// Summary describes a schedule change in terms the operator cares about:
// which screens entered the rotation, which left, and which had their
// top-level entries reshaped.
func Summary(oldDoc, newDoc map[string]any) string {
	oldSig := screenSignatures(oldDoc)
	newSig := screenSignatures(newDoc)

	var added, changed, removed []string
	for id := range newSig {
		if _, ok := oldSig[id]; !ok {
			added = append(added, id)
		}
	}
	for id, sig := range oldSig {
		nsig, ok := newSig[id]
		if !ok {
			removed = append(removed, id)
			continue
		}
		if !equalStrings(sig, nsig) {
			changed = append(changed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(changed)
	sort.Strings(removed)

	var parts []string
	if len(added) > 0 {
		parts = append(parts, "added "+strings.Join(added, ", "))
	}
	if len(changed) > 0 {
		parts = append(parts, "changed "+strings.Join(changed, ", "))
	}
	if len(removed) > 0 {
		parts = append(parts, "removed "+strings.Join(removed, ", "))
	}
	if len(parts) == 0 {
		return "no screen changes"
	}
	return strings.Join(parts, "; ")
}

// screenSignatures indexes the serialized top-level entries of a document's
// sequence by every screen id they mention, so reshaping an entry shows up
// as a change on each screen involved.
func screenSignatures(doc map[string]any) map[string][]string {
	sig := map[string][]string{}
	list, ok := doc["sequence"].([]any)
	if !ok {
		return sig
	}
	for _, elem := range list {
		blob, err := json.Marshal(elem)
		if err != nil {
			continue
		}
		ids := map[string]struct{}{}
		collectIDs(elem, ids)
		for id := range ids {
			sig[id] = append(sig[id], string(blob))
		}
	}
	for id := range sig {
		sort.Strings(sig[id])
	}
	return sig
}

// collectIDs gathers every screen id mentioned anywhere inside a raw entry.
// Frequency numbers fall through untouched.
func collectIDs(raw any, into map[string]struct{}) {
	switch v := raw.(type) {
	case string:
		into[v] = struct{}{}
	case []any:
		for _, c := range v {
			collectIDs(c, into)
		}
	case map[string]any:
		for _, c := range v {
			collectIDs(c, into)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
