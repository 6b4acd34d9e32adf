package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/giftwise/giftwise/internal/utils"
	"github.com/giftwise/giftwise/pkg/api"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload media and templates, printing the hosted URL",
}

func uploadRunE(kind api.UploadKind) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		ctx, cancel := commandContext()
		defer cancel()

		url, err := c.Upload(ctx, kind, filepath.Base(args[0]), f)
		if err != nil {
			return err
		}
		utils.Log.Debugf("Uploaded %s as %s", args[0], kind)
		fmt.Println(url)
		return nil
	}
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	for _, k := range []struct {
		kind  api.UploadKind
		short string
	}{
		{api.UploadImage, "Upload an image (logos, landing page images)"},
		{api.UploadVideo, "Upload a landing page video"},
		{api.UploadTemplate, "Upload an HTML email template"},
	} {
		uploadCmd.AddCommand(&cobra.Command{
			Use:   string(k.kind) + " <file>",
			Short: k.short,
			Args:  cobra.ExactArgs(1),
			RunE:  uploadRunE(k.kind),
		})
	}
}
