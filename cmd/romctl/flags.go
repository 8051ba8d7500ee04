package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/joshuapare/romkit/catalog"
	"github.com/joshuapare/romkit/rom/addrspace"
	"github.com/joshuapare/romkit/rom/backup"
	"github.com/joshuapare/romkit/rom/patch"
)

// Shared flag values. Each flag set below binds to these, so commands that
// add the same set share one value.
var (
	mappingName string
	regionsPath string

	backupDir       string
	compressionName string

	catalogPath string
)

// imageFlags selects how an image is loaded.
func imageFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("image", pflag.ContinueOnError)
	fs.StringVar(&mappingName, "mapping", "", "Force the mapping: lorom, hirom or exhirom (default: detect)")
	fs.StringVar(&regionsPath, "regions", "", "JSONC region map replacing the default regions")
	return fs
}

// storeFlags locates the backup store.
func storeFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("store", pflag.ContinueOnError)
	fs.StringVar(&backupDir, "backup-dir", "", "Backup directory (default from config)")
	fs.StringVar(&compressionName, "compression", "", "Backup compression: zstd, lz4 or none (default from config)")
	return fs
}

// catalogFlags locates the catalog file.
func catalogFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("catalog", pflag.ContinueOnError)
	fs.StringVar(&catalogPath, "catalog", "", "Catalog file (default from config)")
	return fs
}

func parseMapping(s string) (addrspace.Mapping, error) {
	switch strings.ToLower(s) {
	case "lorom":
		return addrspace.LoROM, nil
	case "hirom":
		return addrspace.HiROM, nil
	case "exhirom":
		return addrspace.ExHiROM, nil
	default:
		return 0, fmt.Errorf("unknown mapping %q (want lorom, hirom or exhirom)", s)
	}
}

// openImage loads the image at path with the image flags applied.
func openImage(path string) (*patch.Engine, error) {
	opts := []patch.Option{patch.WithLogger(logr())}
	if mappingName != "" {
		m, err := parseMapping(mappingName)
		if err != nil {
			return nil, err
		}
		opts = append(opts, patch.WithMapping(m))
	}

	regions := regionsPath
	if regions == "" {
		regions = settings().Regions
	}
	if regions != "" {
		f, err := os.Open(regions)
		if err != nil {
			return nil, fmt.Errorf("open region map: %w", err)
		}
		defer f.Close()
		list, err := addrspace.LoadRegions(f)
		if err != nil {
			return nil, err
		}
		opts = append(opts, patch.WithRegions(list...))
	}

	printVerbose("Opening image: %s\n", path)
	return patch.Load(path, opts...)
}

// openBackups opens the backup store for eng.
func openBackups(eng *patch.Engine) (*backup.Manager, error) {
	dir := backupDir
	if dir == "" {
		dir = settings().Backup.Dir
	}
	comp := settings().Compression()
	if compressionName != "" {
		c, err := backup.ParseCompression(compressionName)
		if err != nil {
			return nil, err
		}
		comp = c
	}
	store, err := backup.NewStore(dir, comp)
	if err != nil {
		return nil, err
	}
	printVerbose("Backup store: %s (%s)\n", dir, comp)
	return backup.OpenManager(eng, store, backup.WithLogger(logr()))
}

// openCatalog opens the catalog file against space.
func openCatalog(space *addrspace.Space) (*catalog.Catalog, error) {
	path := catalogPath
	if path == "" {
		path = settings().Catalog.Path
	}
	printVerbose("Catalog: %s\n", path)
	return catalog.Open(path, space, catalog.WithLogger(logr()))
}

// parseTarget reads an image offset ("0x274F4", "274F4h", "160500") or a
// bus address ("$04:F4F4") translated through space.
func parseTarget(space *addrspace.Space, s string) (addrspace.Address, error) {
	if strings.HasPrefix(strings.TrimSpace(s), "$") {
		b, err := addrspace.ParseBusAddress(s)
		if err != nil {
			return 0, err
		}
		return space.FromBus(b)
	}
	return addrspace.ParseAddress(s)
}

// parseValues reads byte values. Out-of-range values are passed through
// so the engine reports them.
func parseValues(args []string) ([]int, error) {
	vals := make([]int, len(args))
	for i, s := range args {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", s, err)
		}
		vals[i] = int(v)
	}
	return vals, nil
}
