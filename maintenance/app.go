package maintenance

import (
	"fmt"

	cli "github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/bagarji/library/models"
	"github.com/bagarji/library/utils"
)

// NewApp builds the maintenance command line. openDB is called lazily so
// `help` works without a reachable database.
func NewApp(openDB func() *gorm.DB) *cli.App {
	return &cli.App{
		Name:  "library",
		Usage: "library maintenance commands",
		Commands: []*cli.Command{
			{
				Name:  "repair-parents",
				Usage: "null comment parent references that no longer resolve",
				Action: func(c *cli.Context) error {
					report, err := RepairParents(openDB(), utils.Sugar.Infof)
					if err != nil {
						return err
					}
					printReport(c, "fixed", report)
					return nil
				},
			},
			{
				Name:  "find-bad-parents",
				Usage: "report dangling parent references without writing",
				Action: func(c *cli.Context) error {
					report, err := FindBadParents(openDB(), utils.Sugar.Warnf)
					if err != nil {
						return err
					}
					printReport(c, "found", report)
					return nil
				},
			},
			{
				Name:  "purge-orphans",
				Usage: "delete admin reply ledger entries whose comment is gone",
				Action: func(c *cli.Context) error {
					report, err := PurgeOrphans(openDB(), utils.Sugar.Infof)
					if err != nil {
						return err
					}
					printReport(c, "deleted", report)
					return nil
				},
			},
			{
				Name:  "flush-content-cache",
				Usage: "drop cached catalogue responses after out-of-band content edits",
				Action: func(c *cli.Context) error {
					utils.InvalidateByPrefix("content:")
					fmt.Fprintln(c.App.Writer, "content cache flushed")
					return nil
				},
			},
		},
	}
}

func printReport(c *cli.Context, verb string, report *Report) {
	for _, kind := range models.Kinds {
		fmt.Fprintf(c.App.Writer, "%s: %d %s\n", kind, report.PerKind[kind], verb)
	}
	fmt.Fprintf(c.App.Writer, "total: %d %s\n", report.Total, verb)
}
