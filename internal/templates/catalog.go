// Package templates holds the stage-keyed message format catalog. The
// progression core never interprets format content; it only supplies the
// stage and score/flag snapshot used for selection.
package templates

import (
	"fmt"
	"hash/fnv"

	"github.com/rapport/internal/progression"
)

// Catalog maps each stage to its message format variations.
type Catalog struct {
	formats map[progression.Stage][]string
}

// NewCatalog builds a catalog from explicit format lists. Stages absent
// from the map fall back to the defaults.
func NewCatalog(formats map[progression.Stage][]string) *Catalog {
	merged := defaultFormats()
	for stage, list := range formats {
		if len(list) > 0 {
			merged[stage] = list
		}
	}
	return &Catalog{formats: merged}
}

// Pick selects a format variation for the snapshot's stage. Selection is
// deterministic: the same snapshot always picks the same variation, so
// retried requests render identically.
func (c *Catalog) Pick(snap progression.Snapshot) (string, error) {
	list, ok := c.formats[snap.Stage]
	if !ok || len(list) == 0 {
		return "", fmt.Errorf("no formats for stage %s", snap.Stage)
	}

	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%d", snap.SessionID, snap.Stage, snap.ConsecutiveMeaningful)
	return list[int(h.Sum32())%len(list)], nil
}

// Stages returns the stages the catalog can serve.
func (c *Catalog) Stages() []progression.Stage {
	out := make([]progression.Stage, 0, len(c.formats))
	for _, s := range progression.AllStages() {
		if len(c.formats[s]) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// defaultFormats is the built-in placeholder catalog. Deployments replace
// these through configuration; the engine treats them as opaque strings.
func defaultFormats() map[progression.Stage][]string {
	return map[progression.Stage][]string{
		progression.StageInitial: {
			"light opener with an open question",
			"shared-interest remark with a follow-up question",
			"friendly observation about the last message",
		},
		progression.StageBuilding: {
			"personal disclosure inviting one in return",
			"callback to an earlier detail with a deeper question",
			"supportive reflection on a shared topic",
		},
		progression.StageCommitted: {
			"future-oriented plan referencing shared history",
			"direct expression of attachment",
		},
		progression.StageTerminal: {
			"maintenance check-in",
		},
	}
}
