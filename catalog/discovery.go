package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/joshuapare/romkit/rom/addrspace"
)

// Validation records who validated a discovery, and when.
type Validation struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

// Discovery is one catalogued fact about the image.
type Discovery struct {
	ID                string
	Category          Category
	Name              string
	Description       string
	Address           *addrspace.Address // required unless the category is behavior
	Size              int                // bytes covered from Address
	Tags              []string
	Confidence        Confidence
	Validated         bool
	Validation        *Validation
	RelatedIDs        []string
	Dependencies      []string
	PreviousVersionID string
	Source            string // who or what produced the discovery
	CreatedAt         time.Time
	Payload           Payload
}

// Range returns the covered range, or false for discoveries without an
// address.
func (d Discovery) Range() (start, end addrspace.Address, ok bool) {
	if d.Address == nil {
		return 0, 0, false
	}
	return *d.Address, *d.Address + addrspace.Address(d.Size), true
}

// Contains reports whether a falls in the discovery's range.
func (d Discovery) Contains(a addrspace.Address) bool {
	start, end, ok := d.Range()
	return ok && start <= a && a < end
}

func (d Discovery) String() string {
	if d.Address != nil {
		return fmt.Sprintf("%s [%s] %q at %s+%d (%s)", d.ID, d.Category, d.Name, *d.Address, d.Size, d.Confidence)
	}
	return fmt.Sprintf("%s [%s] %q (%s)", d.ID, d.Category, d.Name, d.Confidence)
}

// Clone returns a deep copy.
func (d Discovery) Clone() Discovery {
	c := d
	c.Address = clonePtr(d.Address)
	c.Tags = cloneStrings(d.Tags)
	c.Validation = clonePtr(d.Validation)
	c.RelatedIDs = cloneStrings(d.RelatedIDs)
	c.Dependencies = cloneStrings(d.Dependencies)
	c.Payload = nil
	if !isNilPayload(d.Payload) {
		c.Payload = d.Payload.clone()
	}
	return c
}

// discoveryJSON is the wire form. Payload is decoded separately once the
// category is known.
type discoveryJSON struct {
	ID                string             `json:"id"`
	Category          Category           `json:"category"`
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	Address           *addrspace.Address `json:"address,omitempty"`
	Size              int                `json:"size,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	Confidence        Confidence         `json:"confidence"`
	Validated         bool               `json:"validated"`
	Validation        *Validation        `json:"validation,omitempty"`
	RelatedIDs        []string           `json:"related_ids,omitempty"`
	Dependencies      []string           `json:"dependencies,omitempty"`
	PreviousVersionID string             `json:"previous_version_id,omitempty"`
	Source            string             `json:"source,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	Payload           json.RawMessage    `json:"payload,omitempty"`
}

func (d Discovery) MarshalJSON() ([]byte, error) {
	w := discoveryJSON{
		ID:                d.ID,
		Category:          d.Category,
		Name:              d.Name,
		Description:       d.Description,
		Address:           d.Address,
		Size:              d.Size,
		Tags:              d.Tags,
		Confidence:        d.Confidence,
		Validated:         d.Validated,
		Validation:        d.Validation,
		RelatedIDs:        d.RelatedIDs,
		Dependencies:      d.Dependencies,
		PreviousVersionID: d.PreviousVersionID,
		Source:            d.Source,
		CreatedAt:         d.CreatedAt,
	}
	if !isNilPayload(d.Payload) {
		if d.Payload.Category() != d.Category {
			return nil, fmt.Errorf("discovery %s: %s payload on %s discovery", d.ID, d.Payload.Category(), d.Category)
		}
		raw, err := json.Marshal(d.Payload)
		if err != nil {
			return nil, fmt.Errorf("discovery %s payload: %w", d.ID, err)
		}
		w.Payload = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes strictly: unknown fields are errors, and the
// payload must only carry fields of the discovery's own category.
func (d *Discovery) UnmarshalJSON(data []byte) error {
	var w discoveryJSON
	if err := decodeStrict(data, &w); err != nil {
		return err
	}
	out := Discovery{
		ID:                w.ID,
		Category:          w.Category,
		Name:              w.Name,
		Description:       w.Description,
		Address:           w.Address,
		Size:              w.Size,
		Tags:              w.Tags,
		Confidence:        w.Confidence,
		Validated:         w.Validated,
		Validation:        w.Validation,
		RelatedIDs:        w.RelatedIDs,
		Dependencies:      w.Dependencies,
		PreviousVersionID: w.PreviousVersionID,
		Source:            w.Source,
		CreatedAt:         w.CreatedAt,
	}
	if len(w.Payload) > 0 && !bytes.Equal(w.Payload, []byte("null")) {
		p, err := newPayload(w.Category)
		if err != nil {
			return fmt.Errorf("discovery %s: %w", w.ID, err)
		}
		if err := decodeStrict(w.Payload, p); err != nil {
			return fmt.Errorf("discovery %s %s payload: %w", w.ID, w.Category, err)
		}
		out.Payload = p
	}
	*d = out
	return nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}
