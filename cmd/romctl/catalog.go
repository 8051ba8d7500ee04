package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/romkit/catalog"
	"github.com/joshuapare/romkit/rom/addrspace"
	"github.com/joshuapare/romkit/rom/patch"
)

func init() {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Record and query discoveries about an image",
		Long: `The catalog commands manage the discovery catalog of an image: memory
locations, routines, tables, text and other findings, each with a
confidence level and a version history.`,
	}
	for _, sub := range []*cobra.Command{
		newCatalogAddCmd(),
		newCatalogShowCmd(),
		newCatalogFindCmd(),
		newCatalogSearchCmd(),
		newCatalogHistoryCmd(),
		newCatalogRelatedCmd(),
		newCatalogPromoteCmd(),
		newCatalogStatsCmd(),
	} {
		sub.Flags().AddFlagSet(imageFlags())
		sub.Flags().AddFlagSet(catalogFlags())
		cmd.AddCommand(sub)
	}
	rootCmd.AddCommand(cmd)
}

// catalog add flags
var (
	addID          string
	addCategory    string
	addName        string
	addDescription string
	addAddress     string
	addSize        int
	addTags        []string
	addConfidence  string
	addRelated     []string
	addSource      string
	addPayload     string
	addSupersedes  string
)

func newCatalogAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <rom>",
		Short: "Add a discovery",
		Long: `The add command records a new discovery. The id defaults to the next
free id of the category. The payload is category-specific JSON; fields
of other categories are rejected. With --supersedes the discovery is
added as the new version of an existing one.

Example:
  romctl catalog add alttp.sfc --category memory --name "Link health" \
    --address 0x274F4 --size 2 --tags player,health \
    --payload '{"data_type": "u16", "max": 160}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogAdd(args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addID, "id", "", "Discovery id (default: next free id)")
	f.StringVar(&addCategory, "category", "", "Category, e.g. memory, routine, table")
	f.StringVar(&addName, "name", "", "Short name")
	f.StringVar(&addDescription, "description", "", "Description")
	f.StringVar(&addAddress, "address", "", "Start address (offset or $BB:OOOO)")
	f.IntVar(&addSize, "size", 0, "Bytes covered from --address")
	f.StringSliceVar(&addTags, "tags", nil, "Comma-separated tags")
	f.StringVar(&addConfidence, "confidence", "experimental", "Confidence level")
	f.StringSliceVar(&addRelated, "related", nil, "Related discovery ids")
	f.StringVar(&addSource, "source", "", "Who or what produced the discovery")
	f.StringVar(&addPayload, "payload", "", "Category payload as JSON")
	f.StringVar(&addSupersedes, "supersedes", "", "Id of the discovery this one corrects")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runCatalogAdd(args []string) error {
	eng, err := openImage(args[0])
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	cat, err := openCatalog(eng.Space())
	if err != nil {
		return err
	}
	defer cat.Close()

	d, err := buildDiscovery(eng.Space(), cat)
	if err != nil {
		return err
	}
	if addSupersedes != "" {
		if d, err = cat.Supersede(addSupersedes, d); err != nil {
			return err
		}
	} else {
		if err := cat.Add(d); err != nil {
			return err
		}
		if stored, ok := cat.Get(d.ID); ok {
			d = stored
		}
	}

	if jsonOut {
		return printJSON(d)
	}
	printInfo("✓ Added %s\n", d)
	return nil
}

// buildDiscovery assembles the add flags. The payload is decoded through
// the discovery's own JSON form, so it gets the same strict checks as a
// catalog file.
func buildDiscovery(space *addrspace.Space, cat *catalog.Catalog) (catalog.Discovery, error) {
	category, err := catalog.ParseCategory(addCategory)
	if err != nil {
		return catalog.Discovery{}, err
	}
	confidence, err := catalog.ParseConfidence(addConfidence)
	if err != nil {
		return catalog.Discovery{}, err
	}
	id := addID
	if id == "" {
		id = cat.NewID(category)
	}

	var d catalog.Discovery
	if addPayload != "" {
		wire, err := json.Marshal(map[string]any{
			"id":         id,
			"category":   category,
			"confidence": confidence,
			"validated":  false,
			"created_at": "0001-01-01T00:00:00Z",
			"payload":    json.RawMessage(addPayload),
		})
		if err != nil {
			return catalog.Discovery{}, fmt.Errorf("invalid payload: %w", err)
		}
		if err := json.Unmarshal(wire, &d); err != nil {
			return catalog.Discovery{}, fmt.Errorf("invalid %s payload: %w", category, err)
		}
	}

	d.ID = id
	d.Category = category
	d.Name = addName
	d.Description = addDescription
	d.Size = addSize
	d.Tags = addTags
	d.Confidence = confidence
	d.RelatedIDs = addRelated
	d.Source = addSource
	if addAddress != "" {
		a, err := parseTarget(space, addAddress)
		if err != nil {
			return catalog.Discovery{}, err
		}
		d.Address = &a
	}
	return d, nil
}

func newCatalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <rom> <id>",
		Short: "Show one discovery",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogShow(args)
		},
	}
}

func runCatalogShow(args []string) error {
	_, cat, err := loadCatalog(args[0])
	if err != nil {
		return err
	}
	d, ok := cat.Get(args[1])
	if !ok {
		return fmt.Errorf("discovery %q not found", args[1])
	}
	if jsonOut {
		return printJSON(d)
	}
	printDiscovery(cat, d)
	return nil
}

// catalog find flags
var (
	findCategory   string
	findTags       []string
	findAddress    string
	findConfidence string
)

func newCatalogFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <rom>",
		Short: "Find discoveries by category, tags, address or confidence",
		Long: `The find command lists discoveries matching every given filter.

Example:
  romctl catalog find alttp.sfc --address 0x274F5
  romctl catalog find alttp.sfc --category memory --tags player --min-confidence high`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogFind(args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&findCategory, "category", "", "Only this category")
	f.StringSliceVar(&findTags, "tags", nil, "Only discoveries carrying every tag")
	f.StringVar(&findAddress, "address", "", "Only discoveries containing this address")
	f.StringVar(&findConfidence, "min-confidence", "", "Only discoveries at or above this level")
	return cmd
}

func runCatalogFind(args []string) error {
	eng, cat, err := loadCatalog(args[0])
	if err != nil {
		return err
	}

	results := cat.All()
	if findAddress != "" {
		a, err := parseTarget(eng.Space(), findAddress)
		if err != nil {
			return err
		}
		results = cat.FindByAddress(a)
	}
	if findCategory != "" {
		c, err := catalog.ParseCategory(findCategory)
		if err != nil {
			return err
		}
		results = intersect(results, cat.FindByCategory(c))
	}
	if len(findTags) > 0 {
		results = intersect(results, cat.FindByTags(findTags...))
	}
	if findConfidence != "" {
		level, err := catalog.ParseConfidence(findConfidence)
		if err != nil {
			return err
		}
		results = intersect(results, cat.FindByConfidence(level))
	}
	return printDiscoveries(results)
}

// intersect keeps the entries of a, in a's order, that also appear in b.
func intersect(a, b []catalog.Discovery) []catalog.Discovery {
	keep := make(map[string]bool, len(b))
	for _, d := range b {
		keep[d.ID] = true
	}
	out := a[:0]
	for _, d := range a {
		if keep[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

var (
	searchFuzzy bool
	searchLimit int
)

func newCatalogSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <rom> <text>",
		Short: "Search names and descriptions",
		Long: `The search command matches text against discovery names and
descriptions, case-insensitively. With --fuzzy the results are ranked
by fuzzy match score over names, tags and descriptions.

Example:
  romctl catalog search alttp.sfc health
  romctl catalog search alttp.sfc hlth --fuzzy --limit 5`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogSearch(args)
		},
	}
	cmd.Flags().BoolVar(&searchFuzzy, "fuzzy", false, "Rank by fuzzy match")
	cmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum fuzzy results (0 for all)")
	return cmd
}

func runCatalogSearch(args []string) error {
	_, cat, err := loadCatalog(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	if !searchFuzzy {
		return printDiscoveries(cat.Search(text))
	}

	matches := cat.FuzzySearch(text, searchLimit)
	if jsonOut {
		return printJSON(matches)
	}
	if len(matches) == 0 {
		printInfo("No matches\n")
		return nil
	}
	for _, m := range matches {
		printInfo("  %4d  %s\n", m.Score, m.Discovery)
	}
	return nil
}

func newCatalogHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <rom> <id>",
		Short: "Show the version history of a discovery, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogHistory(args)
		},
	}
}

func runCatalogHistory(args []string) error {
	_, cat, err := loadCatalog(args[0])
	if err != nil {
		return err
	}
	latest, err := cat.Latest(args[1])
	if err != nil {
		return err
	}
	hist, err := cat.History(latest.ID)
	if err != nil {
		return err
	}
	return printDiscoveries(hist)
}

var relatedDepth int

func newCatalogRelatedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "related <rom> <id>",
		Short: "List discoveries reachable through related ids and dependencies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogRelated(args)
		},
	}
	cmd.Flags().IntVar(&relatedDepth, "depth", 1, "Hops to follow (0 for unlimited)")
	return cmd
}

func runCatalogRelated(args []string) error {
	_, cat, err := loadCatalog(args[0])
	if err != nil {
		return err
	}
	list, err := cat.Related(args[1], relatedDepth)
	if err != nil {
		return err
	}
	return printDiscoveries(list)
}

var promoteBy string

func newCatalogPromoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote <rom> <id> <confidence>",
		Short: "Record a validated confidence change",
		Long: `The promote command adds a new version of a discovery at the given
confidence level, marked validated by --by.

Example:
  romctl catalog promote alttp.sfc mem-0001 verified --by emulator-trace`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogPromote(args)
		},
	}
	cmd.Flags().StringVar(&promoteBy, "by", "", "Validator name")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func runCatalogPromote(args []string) error {
	_, cat, err := loadCatalog(args[0])
	if err != nil {
		return err
	}
	level, err := catalog.ParseConfidence(args[2])
	if err != nil {
		return err
	}
	d, err := cat.Promote(args[1], level, promoteBy)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(d)
	}
	printInfo("✓ Promoted %s to %s as %s\n", args[1], level, d.ID)
	return nil
}

func newCatalogStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <rom>",
		Short: "Summarize the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogStats(args)
		},
	}
}

func runCatalogStats(args []string) error {
	_, cat, err := loadCatalog(args[0])
	if err != nil {
		return err
	}
	s := cat.Stats()
	if jsonOut {
		byCat := make(map[string]int, len(s.ByCategory))
		for c, n := range s.ByCategory {
			byCat[c.String()] = n
		}
		byConf := make(map[string]int, len(s.ByConfidence))
		for c, n := range s.ByConfidence {
			byConf[c.String()] = n
		}
		return printJSON(map[string]any{
			"total":         s.Total,
			"current":       s.Current,
			"validated":     s.Validated,
			"by_category":   byCat,
			"by_confidence": byConf,
		})
	}
	printInfo("\nCatalog Statistics:\n")
	printInfo("  Discoveries: %d (%d current, %d validated)\n", s.Total, s.Current, s.Validated)
	for _, c := range catalog.Categories() {
		if n := s.ByCategory[c]; n > 0 {
			printInfo("  %-10s %d\n", c.String()+":", n)
		}
	}
	return nil
}

func loadCatalog(path string) (*patch.Engine, *catalog.Catalog, error) {
	eng, err := openImage(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load image: %w", err)
	}
	cat, err := openCatalog(eng.Space())
	if err != nil {
		return nil, nil, err
	}
	return eng, cat, nil
}

func printDiscoveries(list []catalog.Discovery) error {
	if jsonOut {
		if list == nil {
			list = []catalog.Discovery{}
		}
		return printJSON(list)
	}
	if len(list) == 0 {
		printInfo("No discoveries\n")
		return nil
	}
	for _, d := range list {
		printInfo("  %s\n", d)
	}
	return nil
}

func printDiscovery(cat *catalog.Catalog, d catalog.Discovery) {
	printInfo("\n%s: %s\n", d.ID, d.Name)
	printInfo("  Category: %s\n", d.Category)
	printInfo("  Confidence: %s", d.Confidence)
	if d.Validation != nil {
		printInfo(" (validated by %s on %s)", d.Validation.By, d.Validation.At.Format("2006-01-02"))
	}
	printInfo("\n")
	if d.Address != nil {
		printInfo("  Range: %s+%d", *d.Address, d.Size)
		if bus, err := cat.Space().ToBus(*d.Address); err == nil {
			printInfo(" (%s)", bus)
		}
		printInfo("\n")
	}
	if d.Description != "" {
		printInfo("  Description: %s\n", d.Description)
	}
	if len(d.Tags) > 0 {
		printInfo("  Tags: %s\n", strings.Join(d.Tags, ", "))
	}
	if len(d.RelatedIDs) > 0 {
		printInfo("  Related: %s\n", strings.Join(d.RelatedIDs, ", "))
	}
	if d.PreviousVersionID != "" {
		printInfo("  Supersedes: %s\n", d.PreviousVersionID)
	}
	if cat.Superseded(d.ID) {
		if latest, err := cat.Latest(d.ID); err == nil {
			printInfo("  Superseded by: %s (latest)\n", latest.ID)
		}
	}
	if d.Payload != nil {
		if raw, err := json.Marshal(d.Payload); err == nil {
			printInfo("  Payload: %s\n", raw)
		}
	}
}
