package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/profile"
)

var (
	profileSample int
	profileTop    int
	profileStem   string
)

var profileCmd = &cobra.Command{
	Use:   "profile [collection]",
	Short: "Rank prefixes of a query log by frequency and priority tier",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfile,
}

func init() {
	fs := profileCmd.Flags()
	fs.IntVar(&profileSample, "sample", profile.DefaultSample, "maximum queries to sample")
	fs.IntVar(&profileTop, "top", 20, "number of prefixes to list")
	fs.StringVar(&profileStem, "stem", "", "list only prefixes starting with this stem")
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Experiment.Collection = args[0]
	}
	p, err := profile.BuildFile(cfg.Data.QueryLogPath(cfg.Experiment.Collection), cfg.Experiment.PrefixLength, profileSample)
	if err != nil {
		return err
	}
	printProfile(cmd.OutOrStdout(), p, profileStem, profileTop)
	return nil
}

func printProfile(w io.Writer, p *profile.Profile, stem string, top int) {
	fmt.Fprintf(w, "sampled %d queries, %d prefixes of length %d\n", p.Sampled(), p.Len(), p.PrefixLength())
	sizes := p.TierSizes()
	for _, t := range []profile.Tier{profile.Highest, profile.AboveNormal, profile.Normal, profile.BelowNormal, profile.Lowest} {
		fmt.Fprintf(w, "  %-13s %d\n", t, sizes[t])
	}

	list := p.Top(top)
	if stem != "" {
		list = p.Under(stem)
		if len(list) > top {
			list = list[:top]
		}
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PREFIX\tCOUNT\tTIER")
	for _, pc := range list {
		fmt.Fprintf(tw, "%q\t%d\t%s\n", pc.Prefix, pc.Count, pc.Tier)
	}
	tw.Flush()
}
