package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/talgya/hamlet/internal/config"
	"github.com/talgya/hamlet/internal/construct"
	"github.com/talgya/hamlet/internal/persistence"
	"github.com/talgya/hamlet/internal/villager"
	"github.com/talgya/hamlet/internal/world"
)

func statsCmd() *cobra.Command {
	var eventLimit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print saved world state as tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			db, err := persistence.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			tick, err := db.GetMeta("last_tick")
			if err != nil {
				return fmt.Errorf("no saved world in %s", cfg.DBPath)
			}
			fmt.Printf("saved world at tick %s (%s)\n\n", tick, cfg.DBPath)

			if err := printVillagers(db); err != nil {
				return err
			}
			if err := printBuildings(db); err != nil {
				return err
			}
			return printEvents(db, eventLimit)
		},
	}

	cmd.Flags().IntVar(&eventLimit, "events", 15, "number of recent events to show")
	return cmd
}

func printVillagers(db *persistence.DB) error {
	vs, err := db.LoadVillagers()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Villagers (%d)", len(vs))
	t.AppendHeader(table.Row{"ID", "Pos", "Age", "Role", "Carrying", "Home"})
	for _, v := range vs {
		home := "-"
		if v.Home != nil {
			home = fmt.Sprintf("(%d,%d)", v.Home.X, v.Home.Y)
		}
		t.AppendRow(table.Row{
			v.ID,
			fmt.Sprintf("(%d,%d)", v.Position.X, v.Position.Y),
			v.Age,
			villager.RoleName(v.Role),
			v.Inventory.Total(),
			home,
		})
	}
	t.Render()
	fmt.Println()
	return nil
}

func printBuildings(db *persistence.DB) error {
	bs, err := db.LoadBuildings()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Buildings (%d)", len(bs))
	t.AppendHeader(table.Row{"ID", "Kind", "Pos", "Status", "Wood", "Stone"})
	for _, b := range bs {
		status := "building"
		if b.Complete {
			status = "complete"
		}
		t.AppendRow(table.Row{
			b.ID,
			construct.KindName(b.Kind),
			fmt.Sprintf("(%d,%d)", b.Position.X, b.Position.Y),
			status,
			fmt.Sprintf("%d/%d", b.Delivered[world.ResourceWood], b.Blueprint().Cost[world.ResourceWood]),
			fmt.Sprintf("%d/%d", b.Delivered[world.ResourceStone], b.Blueprint().Cost[world.ResourceStone]),
		})
	}
	t.Render()
	fmt.Println()
	return nil
}

func printEvents(db *persistence.DB, limit int) error {
	events, err := db.RecentEvents(limit)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Recent events")
	t.AppendHeader(table.Row{"Tick", "Category", "Description"})
	for _, e := range events {
		t.AppendRow(table.Row{e.Tick, e.Category, e.Description})
	}
	t.Render()
	return nil
}
