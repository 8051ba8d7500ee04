package patch

import (
	"fmt"
	"time"

	"github.com/joshuapare/romkit/rom/addrspace"
)

// WriteReport records one applied byte write.
type WriteReport struct {
	Address   addrspace.Address `json:"address"`
	Original  byte              `json:"original"`
	New       byte              `json:"new"`
	Timestamp time.Time         `json:"timestamp"`
}

func (r WriteReport) String() string {
	return fmt.Sprintf("%s: 0x%02X -> 0x%02X", r.Address, r.Original, r.New)
}
