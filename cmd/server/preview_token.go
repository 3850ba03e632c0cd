package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	previewLabel      string
	previewDocumentID string
)

var previewTokenCmd = &cobra.Command{
	Use:   "preview-token",
	Short: "Create a preview token for the local content API",
	Long: `preview-token creates a short-lived ref that exposes draft revisions of the
local content store, and prints the front-end URL that enters preview mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := openDocuments(appConfig)
		if err != nil {
			return err
		}
		session, err := docs.CreatePreviewSession(previewLabel, appConfig.PreviewTTL)
		if err != nil {
			return err
		}

		values := url.Values{}
		values.Set("token", session.Token)
		if previewDocumentID != "" {
			values.Set("documentId", previewDocumentID)
		}
		logger.Info("preview token created",
			zap.String("label", session.Label),
			zap.Time("expiresAt", session.ExpiresAt))

		fmt.Fprintln(cmd.OutOrStdout(), session.Token)
		fmt.Fprintln(cmd.OutOrStdout(), appConfig.SiteBaseURL+"/api/preview?"+values.Encode())
		return nil
	},
}

func init() {
	previewTokenCmd.Flags().StringVar(&previewLabel, "label", "cli", "label stored with the token")
	previewTokenCmd.Flags().StringVar(&previewDocumentID, "document", "", "document id to open after entering preview")
	rootCmd.AddCommand(previewTokenCmd)
}
