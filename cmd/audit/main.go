// Command audit filters and summarizes the zstd audit logs a server wrote.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "tilecraft.ai/internal/persistence/log"
	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/world"
)

func main() {
	var (
		dataDir   = flag.String("data", "./data/worlds/world_1", "world data directory (holds audit/)")
		configDir = flag.String("configs", "", "config directory, to print item names in the summary (optional)")
		actor     = flag.Uint("actor", 0, "only entries by this actor id")
		action    = flag.String("action", "", "only this action (MOVE, DAMAGE, ...)")
		item      = flag.Uint("item", 0, "only entries touching this item type")
		fromTick  = flag.Uint64("from_tick", 0, "start tick (inclusive)")
		toTick    = flag.Uint64("to_tick", 0, "stop tick (inclusive, 0 = no limit)")
		summary   = flag.Bool("summary", false, "print counts instead of entries")
	)
	flag.Parse()

	files, err := persistlog.AuditFiles(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list audit files:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no audit files found in", filepath.Join(*dataDir, "audit"))
		os.Exit(1)
	}

	var items *catalogs.ItemCatalog
	if *configDir != "" {
		cats, err := catalogs.Load(*configDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load catalogs:", err)
			os.Exit(1)
		}
		items = &cats.Items
	}

	f := filter{
		Actor:    uint32(*actor),
		Action:   strings.ToUpper(strings.TrimSpace(*action)),
		Item:     uint16(*item),
		FromTick: *fromTick,
		ToTick:   *toTick,
	}
	var sum *tally
	if *summary {
		sum = newTally()
	}
	if err := scan(files, f, os.Stdout, sum); err != nil {
		fmt.Fprintln(os.Stderr, "audit:", err)
		os.Exit(1)
	}
	if sum != nil {
		sum.print(os.Stdout, items)
	}
}

type filter struct {
	Actor    uint32
	Action   string
	Item     uint16
	FromTick uint64
	ToTick   uint64
}

func (f filter) match(e world.AuditEntry) bool {
	switch {
	case f.Actor != 0 && e.Actor != f.Actor:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.Item != 0 && e.Item != f.Item:
		return false
	case e.Tick < f.FromTick:
		return false
	case f.ToTick != 0 && e.Tick > f.ToTick:
		return false
	}
	return true
}

// scan streams matching entries as JSONL to out, or into sum when it is set.
// Ticks restart with the server, so every file is read in full.
func scan(files []string, f filter, out io.Writer, sum *tally) error {
	enc := json.NewEncoder(out)
	var werr error
	for _, path := range files {
		err := persistlog.ReadAudit(path, func(e world.AuditEntry) bool {
			if !f.match(e) {
				return true
			}
			if sum != nil {
				sum.add(e)
				return true
			}
			werr = enc.Encode(e)
			return werr == nil
		})
		if err != nil {
			return err
		}
		if werr != nil {
			return werr
		}
	}
	return nil
}

type tally struct {
	total    int
	byAction map[string]int
	byItem   map[uint16]int
}

func newTally() *tally {
	return &tally{byAction: map[string]int{}, byItem: map[uint16]int{}}
}

func (t *tally) add(e world.AuditEntry) {
	t.total++
	t.byAction[e.Action]++
	if e.Item != 0 {
		t.byItem[e.Item]++
	}
}

func (t *tally) print(w io.Writer, items *catalogs.ItemCatalog) {
	fmt.Fprintf(w, "entries=%d\n", t.total)

	actions := make([]string, 0, len(t.byAction))
	for a := range t.byAction {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	for _, a := range actions {
		fmt.Fprintf(w, "action %-10s %d\n", a, t.byAction[a])
	}

	ids := make([]uint16, 0, len(t.byItem))
	for id := range t.byItem {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		name := ""
		if items != nil {
			if def, ok := items.Get(id); ok {
				name = def.Name
			}
		}
		fmt.Fprintf(w, "item %5d %-20s %d\n", id, name, t.byItem[id])
	}
}
