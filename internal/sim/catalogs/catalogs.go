package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Catalogs struct {
	Items ItemCatalog
}

// Group is the item category. Ground and splash items are placed by tile
// topology; containers and charged items get their own flow in transforms.
type Group string

const (
	GroupNormal    Group = "normal"
	GroupGround    Group = "ground"
	GroupContainer Group = "container"
	GroupSplash    Group = "splash"
	GroupFluid     Group = "fluid"
	GroupCharges   Group = "charges"
)

type FloorChange string

const (
	FloorChangeNone FloorChange = ""
	FloorChangeDown FloorChange = "down"
	FloorChangeUp   FloorChange = "up"
)

const DefaultMaxStack = 100

type ItemDef struct {
	ID       uint16 `json:"id"`
	ClientID uint16 `json:"client_id,omitempty"`
	Name     string `json:"name"`
	Group    Group  `json:"group,omitempty"`

	Stackable bool `json:"stackable,omitempty"`
	MaxStack  int  `json:"max_stack,omitempty"`

	// AlwaysOnTop items are drawn above creatures (doors, walls, borders).
	// TopOrder breaks ties among them.
	AlwaysOnTop bool `json:"always_on_top,omitempty"`
	TopOrder    int  `json:"top_order,omitempty"`

	NotMovable       bool `json:"not_movable,omitempty"`
	Pickupable       bool `json:"pickupable,omitempty"`
	NotTransformable bool `json:"not_transformable,omitempty"`
	BlockSolid       bool `json:"block_solid,omitempty"`

	DecayTo    uint16 `json:"decay_to,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Charges    int    `json:"charges,omitempty"`

	Weight   int    `json:"weight,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
	Worth    int64  `json:"worth,omitempty"`
	Slot     string `json:"slot,omitempty"`

	FloorChange FloorChange `json:"floor_change,omitempty"`
}

func (d ItemDef) IsGround() bool    { return d.Group == GroupGround }
func (d ItemDef) IsContainer() bool { return d.Group == GroupContainer }
func (d ItemDef) IsSplash() bool    { return d.Group == GroupSplash }
func (d ItemDef) IsFluid() bool     { return d.Group == GroupFluid }
func (d ItemDef) HasCharges() bool  { return d.Group == GroupCharges || d.Charges > 0 }
func (d ItemDef) Movable() bool     { return !d.NotMovable }

// HasSubType reports whether the count field carries meaning beyond 1.
func (d ItemDef) HasSubType() bool {
	return d.Stackable || d.IsFluid() || d.IsSplash() || d.HasCharges()
}

func (d ItemDef) IsCurrency() bool { return d.Worth > 0 && d.Stackable }

type ItemCatalog struct {
	Defs map[uint16]ItemDef
	// ByName maps lower-case names for scripts and tooling.
	ByName map[string]uint16
	// Currency lists currency item ids by descending worth.
	Currency []uint16
	Digest   string
}

func (c *ItemCatalog) Get(id uint16) (ItemDef, bool) {
	d, ok := c.Defs[id]
	return d, ok
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	cat, err := NewItemCatalog(defs)
	if err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	cat.Digest = sha256Hex(raw)
	*out = cat
	return nil
}

// NewItemCatalog validates defs and builds the lookup tables.
func NewItemCatalog(defs []ItemDef) (ItemCatalog, error) {
	out := ItemCatalog{
		Defs:   make(map[uint16]ItemDef, len(defs)),
		ByName: make(map[string]uint16, len(defs)),
	}
	for _, d := range defs {
		if d.ID == 0 {
			return ItemCatalog{}, fmt.Errorf("item %q: id 0 is reserved", d.Name)
		}
		if _, dup := out.Defs[d.ID]; dup {
			return ItemCatalog{}, fmt.Errorf("item %d: duplicate id", d.ID)
		}
		if d.Group == "" {
			d.Group = GroupNormal
		}
		switch d.Group {
		case GroupNormal, GroupGround, GroupContainer, GroupSplash, GroupFluid, GroupCharges:
		default:
			return ItemCatalog{}, fmt.Errorf("item %d: unknown group %q", d.ID, d.Group)
		}
		if d.ClientID == 0 {
			d.ClientID = d.ID
		}
		if d.Stackable {
			if d.MaxStack == 0 {
				d.MaxStack = DefaultMaxStack
			}
			if d.MaxStack < 1 || d.MaxStack > 0xFF {
				return ItemCatalog{}, fmt.Errorf("item %d: max_stack %d out of range", d.ID, d.MaxStack)
			}
		} else {
			d.MaxStack = 1
		}
		if d.IsContainer() && d.Capacity <= 0 {
			return ItemCatalog{}, fmt.Errorf("item %d: container without capacity", d.ID)
		}
		if d.IsContainer() && d.Stackable {
			return ItemCatalog{}, fmt.Errorf("item %d: stackable container", d.ID)
		}
		if d.DurationMs < 0 || d.Weight < 0 || d.Worth < 0 || d.Charges < 0 {
			return ItemCatalog{}, fmt.Errorf("item %d: negative attribute", d.ID)
		}
		if d.Worth > 0 && !d.Stackable {
			return ItemCatalog{}, fmt.Errorf("item %d: currency must be stackable", d.ID)
		}
		switch d.FloorChange {
		case FloorChangeNone, FloorChangeDown, FloorChangeUp:
		default:
			return ItemCatalog{}, fmt.Errorf("item %d: unknown floor_change %q", d.ID, d.FloorChange)
		}
		out.Defs[d.ID] = d
		if d.Name != "" {
			out.ByName[strings.ToLower(d.Name)] = d.ID
		}
	}
	for id, d := range out.Defs {
		if d.DecayTo != 0 {
			if d.DecayTo == id {
				return ItemCatalog{}, fmt.Errorf("item %d: decays into itself", id)
			}
			if _, ok := out.Defs[d.DecayTo]; !ok {
				return ItemCatalog{}, fmt.Errorf("item %d: decay_to %d is not defined", id, d.DecayTo)
			}
		}
		if d.IsCurrency() {
			out.Currency = append(out.Currency, id)
		}
	}
	sort.Slice(out.Currency, func(i, j int) bool {
		a, b := out.Defs[out.Currency[i]], out.Defs[out.Currency[j]]
		if a.Worth != b.Worth {
			return a.Worth > b.Worth
		}
		return a.ID < b.ID
	})
	return out, nil
}
