package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/giftwise/giftwise/internal/utils"
	"github.com/giftwise/giftwise/pkg/api"
	"github.com/giftwise/giftwise/pkg/catalog"
	"github.com/giftwise/giftwise/pkg/recommend"
	"github.com/giftwise/giftwise/pkg/storage"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the organization's gift catalog",
}

var catalogSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download the catalog into the local workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := commandContext()
		defer cancel()

		repo, bundles, err := loadCatalog(ctx, c, db, false)
		if err != nil {
			return err
		}
		if err := db.SaveCatalog(ctx, bundles, repo.All()); err != nil {
			return fmt.Errorf("failed to store catalog: %w", err)
		}
		utils.Log.Infof("Synced %d bundles and %d gifts", len(bundles), repo.Len())
		return nil
	},
}

// catalogPool loads the catalog and narrows it to one bundle if asked.
func catalogPool(cmd *cobra.Command) ([]catalog.Gift, error) {
	offline, _ := cmd.Flags().GetBool("offline")
	bundleID, _ := cmd.Flags().GetString("bundle")

	var c *api.Client
	if !offline {
		var err error
		if c, err = apiClient(); err != nil {
			return nil, err
		}
	}
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := commandContext()
	defer cancel()

	repo, bundles, err := loadCatalog(ctx, c, db, offline)
	if err != nil {
		return nil, err
	}
	if offline {
		if info, err := db.LastSync(ctx); err == nil {
			utils.Log.Debugf("Using catalog synced at %s", info.SyncedAt.Local().Format("2006-01-02 15:04"))
		}
	}
	if bundleID == "" {
		return repo.All(), nil
	}
	for _, b := range bundles {
		if b.ID == bundleID {
			return repo.Lookup(b.GiftIDs), nil
		}
	}
	return nil, fmt.Errorf("unknown bundle %q", bundleID)
}

func budgetFlag(cmd *cobra.Command) (float64, error) {
	budget, _ := cmd.Flags().GetFloat64("budget")
	if budget < 0 || math.IsNaN(budget) {
		return 0, fmt.Errorf("--budget must be positive")
	}
	if budget == 0 {
		return math.Inf(1), nil
	}
	return budget, nil
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List gifts, most expensive first",
	Long: `Lists gifts sorted by price. With --budget, only gifts within budget are
shown unless fewer than three fit, in which case the whole catalog is listed.
Prices marked with ~ are estimates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, err := budgetFlag(cmd)
		if err != nil {
			return err
		}
		gifts, err := catalogPool(cmd)
		if err != nil {
			return err
		}
		view := recommend.CatalogView(gifts, budget)
		if fit := len(recommend.Recommend(gifts, budget, len(gifts))); fit < recommend.MinCatalogItems && fit < len(gifts) {
			utils.Log.Infof("Fewer than %d gifts fit a budget of %.2f, showing the whole catalog", recommend.MinCatalogItems, budget)
		}
		printGifts(view)
		return nil
	},
}

var catalogBundlesCmd = &cobra.Command{
	Use:   "bundles",
	Short: "List cached bundles",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		ctx, cancel := commandContext()
		defer cancel()

		bundles, _, err := db.LoadCatalog(ctx)
		if err != nil {
			return err
		}
		if len(bundles) == 0 {
			return storage.ErrNoCatalog
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tGIFTS\t")
		for _, b := range bundles {
			fmt.Fprintf(w, "%s\t%s\t%d\t\n", b.ID, b.Name, len(b.GiftIDs))
		}
		w.Flush()
		return nil
	},
}

var catalogRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Show the top gifts within a budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, err := budgetFlag(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		gifts, err := catalogPool(cmd)
		if err != nil {
			return err
		}
		recs := recommend.Recommend(gifts, budget, limit)
		if len(recs) == 0 {
			fmt.Println("No gift fits this budget")
			return nil
		}
		printGifts(recs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogSyncCmd, catalogListCmd, catalogBundlesCmd, catalogRecommendCmd)

	for _, c := range []*cobra.Command{catalogListCmd, catalogRecommendCmd} {
		c.Flags().Bool("offline", false, "Use the catalog from the last 'catalog sync'")
		c.Flags().String("bundle", "", "Only consider gifts of this bundle")
		c.Flags().Float64("budget", 0, "Budget per gift (0 = no limit)")
	}
	catalogRecommendCmd.Flags().Int("limit", recommend.DefaultLimit, "Number of recommendations")
}
