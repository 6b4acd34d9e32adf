package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/viper"

	"github.com/giftwise/giftwise/internal/utils"
	"github.com/giftwise/giftwise/pkg/api"
	"github.com/giftwise/giftwise/pkg/catalog"
	"github.com/giftwise/giftwise/pkg/session"
	"github.com/giftwise/giftwise/pkg/storage"
	"github.com/giftwise/giftwise/pkg/validation"
	"github.com/giftwise/giftwise/pkg/whttp"
)

func sessionStore() (*session.FileStore, error) {
	path, err := utils.ResolvePath(viper.GetString("session.path"), "session.json")
	if err != nil {
		return nil, err
	}
	return session.NewFileStore(path), nil
}

func apiClient() (*api.Client, error) {
	store, err := sessionStore()
	if err != nil {
		return nil, err
	}
	hc, err := whttp.NewClient(whttp.Options{
		Proxy:    viper.GetString("api.proxy"),
		Timeout:  viper.GetDuration("api.timeout"),
		RetryMax: viper.GetInt("api.retries"),
	})
	if err != nil {
		return nil, err
	}
	c := api.New(viper.GetString("api.url"), hc, store)
	c.Log = utils.Log
	return c, nil
}

func openDB() (*storage.DB, error) {
	path, err := utils.ResolvePath(viper.GetString("db.path"), "workspace.sqlite")
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace %s: %w", path, err)
	}
	return db, nil
}

// commandContext is cancelled on Ctrl+C.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// loadCatalog fills a repository from the backend, or from the workspace
// cache when offline is set.
func loadCatalog(ctx context.Context, c *api.Client, db *storage.DB, offline bool) (*catalog.Repository, []catalog.Bundle, error) {
	repo := catalog.NewRepository()
	loader := &catalog.Loader{
		Repo:        repo,
		Concurrency: viper.GetInt("catalog.concurrency"),
		Log:         utils.Log,
	}
	if offline {
		loader.Source = db.Source()
	} else {
		loader.Source = c
	}
	bundles, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return repo, bundles, nil
}

func printErrors(errs validation.Errors) {
	for _, f := range errs.Fields() {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", f, errs[f])
	}
}

// reportValidation prints field errors carried by err, if any.
func reportValidation(err error) {
	var fe *validation.FieldErrors
	if errors.As(err, &fe) {
		fmt.Fprintln(os.Stderr, "Please fix the following:")
		printErrors(fe.Errors)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
}

func printGifts(gifts []catalog.Gift) {
	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tCATEGORY\t")
	for _, g := range gifts {
		price := fmt.Sprintf("%.2f", g.Price)
		if g.PriceEstimated {
			price = "~" + price
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", g.ID, g.Name, price, g.Category)
	}
	w.Flush()
}
