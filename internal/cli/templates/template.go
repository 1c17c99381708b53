package templates

import (
	"context"
	"fmt"
	"slices"

	"github.com/artyomka101/appforphone/internal/catalog"
	"github.com/artyomka101/appforphone/internal/cli"
)

type TemplateCmd struct {
	List TemplateListCmd `cmd:"" help:"Browse habit templates." default:"1"`
	Add  TemplateAddCmd  `cmd:"" help:"Create a habit from a template."`
}

type TemplateListCmd struct {
	Category string `short:"c" help:"Only show one category." default:"All"`
	Query    string `short:"q" help:"Case-insensitive search in title and description."`
}

func (c *TemplateListCmd) Run(app *cli.Context) error {
	if c.Category != catalog.AllCategories && !slices.Contains(catalog.Categories, c.Category) {
		return fmt.Errorf("unknown category %q (expected %s or one of %v)", c.Category, catalog.AllCategories, catalog.Categories)
	}
	list := catalog.Filter(c.Category, c.Query)
	if len(list) == 0 {
		app.Println("No templates match.")
		return nil
	}
	return catalog.Render(app.Out, list)
}

type TemplateAddCmd struct {
	ID string `arg:"" help:"Template ID (see 'template list')."`
}

func (c *TemplateAddCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	h, err := st.AddFromTemplate(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to add habit from template: %w", err)
	}
	app.Printf("✓ Habit added: %s (target %d days, id %s)\n", h.Title, h.TargetDays, h.ID)
	return nil
}
