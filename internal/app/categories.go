package app

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/purrwatch/internal/output"
	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

// categoriesFile is the YAML layout used by categories import and export.
type categoriesFile struct {
	Productive   []string `yaml:"productive"`
	Unproductive []string `yaml:"unproductive"`
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Manage productive and unproductive site lists",
	Long: `Manage the site lists used to classify domains. A list entry matches any
domain that contains it as a substring, so "x.com" also matches "netflix.com".
The unproductive list is checked first. Domains on neither list are neutral.`,
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show both site lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newClient(cmd).Settings(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if flagJSON {
			return writeJSON(w, s.WebsiteCategories)
		}
		tbl := output.NewTable("Domain", "Category")
		for _, d := range s.WebsiteCategories.Productive {
			tbl.AddRow(d, output.CategoryStyle(string(tracker.Productive)).Render(string(tracker.Productive)))
		}
		for _, d := range s.WebsiteCategories.Unproductive {
			tbl.AddRow(d, output.CategoryStyle(string(tracker.Unproductive)).Render(string(tracker.Unproductive)))
		}
		tbl.Print(w)
		return nil
	},
}

var categoriesAddCmd = &cobra.Command{
	Use:     "add <productive|unproductive> <domain>...",
	Short:   "Add domains to a list",
	Example: "  purrwatch categories add unproductive news.ycombinator.com",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editCategories(cmd, func(lists tracker.CategoryLists) (tracker.CategoryLists, error) {
			return addDomains(lists, tracker.Category(args[0]), args[1:])
		})
	},
}

var categoriesRemoveCmd = &cobra.Command{
	Use:   "remove <domain>...",
	Short: "Remove domains from both lists",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editCategories(cmd, func(lists tracker.CategoryLists) (tracker.CategoryLists, error) {
			return removeDomains(lists, args), nil
		})
	},
}

var categoriesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Replace both lists from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		lists, err := decodeCategories(f)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		if err := newClient(cmd).SetCategories(cmd.Context(), lists); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d productive and %d unproductive sites\n",
			len(lists.Productive), len(lists.Unproductive))
		return nil
	},
}

var categoriesExportCmd = &cobra.Command{
	Use:   "export [file.yaml]",
	Short: "Write both lists as YAML to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newClient(cmd).Settings(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return encodeCategories(cmd.OutOrStdout(), s.WebsiteCategories)
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := encodeCategories(f, s.WebsiteCategories); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	},
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd, categoriesAddCmd, categoriesRemoveCmd,
		categoriesImportCmd, categoriesExportCmd)
	rootCmd.AddCommand(categoriesCmd)
}

// editCategories reads the current lists, applies fn, and writes them back.
func editCategories(cmd *cobra.Command, fn func(tracker.CategoryLists) (tracker.CategoryLists, error)) error {
	c := newClient(cmd)
	s, err := c.Settings(cmd.Context())
	if err != nil {
		return err
	}
	lists, err := fn(s.WebsiteCategories)
	if err != nil {
		return err
	}
	if err := c.SetCategories(cmd.Context(), lists); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d productive, %d unproductive\n",
		len(lists.Productive), len(lists.Unproductive))
	return nil
}

// addDomains puts domains on the named list and takes them off the other.
func addDomains(lists tracker.CategoryLists, category tracker.Category, domains []string) (tracker.CategoryLists, error) {
	lists = removeDomains(lists, domains)
	switch category {
	case tracker.Productive:
		lists.Productive = append(lists.Productive, domains...)
	case tracker.Unproductive:
		lists.Unproductive = append(lists.Unproductive, domains...)
	default:
		return lists, fmt.Errorf("category must be productive or unproductive, got %q", category)
	}
	return tracker.NormalizeLists(lists), nil
}

func removeDomains(lists tracker.CategoryLists, domains []string) tracker.CategoryLists {
	drop := tracker.NormalizeLists(tracker.CategoryLists{Productive: domains}).Productive
	keep := func(sites []string) []string {
		out := make([]string, 0, len(sites))
		for _, s := range sites {
			if !slices.Contains(drop, s) {
				out = append(out, s)
			}
		}
		return out
	}
	return tracker.CategoryLists{
		Productive:   keep(lists.Productive),
		Unproductive: keep(lists.Unproductive),
	}
}

func decodeCategories(r io.Reader) (tracker.CategoryLists, error) {
	var f categoriesFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return tracker.CategoryLists{}, err
	}
	return tracker.NormalizeLists(tracker.CategoryLists{
		Productive:   f.Productive,
		Unproductive: f.Unproductive,
	}), nil
}

func encodeCategories(w io.Writer, lists tracker.CategoryLists) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(categoriesFile{
		Productive:   lists.Productive,
		Unproductive: lists.Unproductive,
	}); err != nil {
		return err
	}
	return enc.Close()
}
