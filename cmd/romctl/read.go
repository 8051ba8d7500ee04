package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/romkit/rom/addrspace"
)

func init() {
	cmd := newReadCmd()
	cmd.Flags().AddFlagSet(imageFlags())
	rootCmd.AddCommand(cmd)
}

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <rom> <address> [count]",
		Short: "Read bytes from an image",
		Long: `The read command prints count bytes (default 1) starting at address.
Addresses are image offsets (0x274F4) or bus addresses ($84:F4F4).

Example:
  romctl read alttp.sfc 0x274F4
  romctl read alttp.sfc '$84:F4F4' 16`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(args)
		},
	}
	return cmd
}

func runRead(args []string) error {
	eng, err := openImage(args[0])
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	a, err := parseTarget(eng.Space(), args[1])
	if err != nil {
		return err
	}
	count := 1
	if len(args) == 3 {
		if count, err = strconv.Atoi(args[2]); err != nil {
			return fmt.Errorf("invalid count %q: %w", args[2], err)
		}
	}
	data, err := eng.ReadBytes(a, count)
	if err != nil {
		return err
	}

	if jsonOut {
		vals := make([]int, len(data))
		for i, b := range data {
			vals[i] = int(b)
		}
		return printJSON(map[string]any{"address": a, "bytes": vals})
	}
	printHexDump(eng.Space(), a, data)
	return nil
}

// printHexDump prints 16 bytes per line, prefixed with the image offset
// and, where one exists, the bus address.
func printHexDump(space *addrspace.Space, start addrspace.Address, data []byte) {
	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		a := start + addrspace.Address(off)
		var sb strings.Builder
		for _, b := range data[off:end] {
			fmt.Fprintf(&sb, " %02X", b)
		}
		if bus, err := space.ToBus(a); err == nil {
			printInfo("%s %s:%s\n", a, bus, sb.String())
		} else {
			printInfo("%s:%s\n", a, sb.String())
		}
	}
}
