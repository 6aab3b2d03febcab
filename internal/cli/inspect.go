package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mangaforge/pkg/cache"
	"github.com/matzehuels/mangaforge/pkg/metadata"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	dir      string
	tree     string
	detailed bool
	noCache  bool
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	opts := inspectOpts{dir: "out/metadata"}

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show the panel tree of a page",
		Long: `Inspect prints the panels of a metadata document as a table. Without a file
it opens a picker over the documents in --dir. With --tree it also writes a
diagram of the panel tree; the format follows the extension (.svg, .png, .dot).`,
		Example: `  mangaforge inspect out/metadata/3f2a.json --tree tree.svg --detailed`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				var err error
				if path, err = pickPage(opts.dir); err != nil || path == "" {
					return err
				}
			}
			return c.runInspect(cmd.Context(), path, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", opts.dir, "metadata directory for the picker")
	f.StringVar(&opts.tree, "tree", "", "write the panel tree diagram to this file")
	f.BoolVar(&opts.detailed, "detailed", false, "include boxes, areas and bubble counts in the diagram")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the diagram cache")

	return cmd
}

// pickPage lets the user choose a metadata file from dir. An aborted
// picker returns "".
func pickPage(dir string) (string, error) {
	files, err := metadata.ListFiles(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		printInfo("No metadata files in %s", dir)
		return "", nil
	}
	final, err := tea.NewProgram(NewPageListModel(files)).Run()
	if err != nil {
		return "", fmt.Errorf("page picker: %w", err)
	}
	return final.(PageListModel).Selected, nil
}

func (c *CLI) runInspect(ctx context.Context, path string, opts inspectOpts) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}
	doc, err := metadata.Unmarshal(raw, metadata.FormatForPath(path))
	if err != nil {
		return err
	}
	pg := metadata.ToPage(doc)

	fmt.Println(StyleTitle.Render(pg.Name))
	printKeyValue("Size", fmt.Sprintf("%.0fx%.0f", pg.PageWidth, pg.PageHeight))
	printKeyValue("Type", string(pg.PageType))
	printKeyValue("Panels", fmt.Sprint(pg.NumPanels))
	if pg.Background != "" {
		printKeyValue("Background", pg.Background)
	}
	printNewline()
	fmt.Println(panelTable(pg))

	if opts.tree == "" {
		return nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner := c.newRunner(ctx, cfg, opts.noCache, "")
	defer runner.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.tree)), ".")
	data, cached, err := runner.TreeWithCacheInfo(ctx, pg, cache.DocumentHash(raw), format, opts.detailed)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.tree, data, 0o644); err != nil {
		return fmt.Errorf("write tree: %w", err)
	}
	printNewline()
	printSuccess("Wrote panel tree")
	printFile(opts.tree)
	if cached {
		printDetail("from cache")
	}
	return nil
}

// panelRows returns one table row per panel in depth-first order.
func panelRows(pg *panel.Page) [][]string {
	var rows [][]string
	pg.Walk(func(p *panel.Panel) bool {
		b := p.Polygon().Bounds()
		var flags []string
		if p.NonRect {
			flags = append(flags, "non-rect")
		}
		if p.Sliced {
			flags = append(flags, "sliced")
		}
		if p.NoRender {
			flags = append(flags, "hidden")
		}
		image := "—"
		if p.Image != "" {
			image = filepath.Base(p.Image)
		}
		rows = append(rows, []string{
			strings.Repeat("  ", p.Depth()) + p.Name,
			string(p.Orientation),
			fmt.Sprintf("%.0f,%.0f %.0fx%.0f", b.X, b.Y, b.W, b.H),
			fmt.Sprintf("%.2f", p.AreaProportion(pg.PageArea())),
			strings.Join(flags, ","),
			image,
			fmt.Sprint(len(p.SpeechBubbles)),
		})
		return true
	})
	return rows
}

func panelTable(pg *panel.Page) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Panel", "Axis", "Box", "Area", "Flags", "Image", "Bubbles").
		Rows(panelRows(pg)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}
