package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/snapatlas/enrich/internal/model"
)

var (
	enrichGPS    string
	enrichDevice string
	enrichModels map[string]string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <image-file>",
	Short: "Enrich a single photo and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		image, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "read image %s", path)
		}

		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "image/jpeg"
		}

		e, err := buildEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		state := e.Engine.Run(cmd.Context(), model.Input{
			Image:          image,
			MIMEType:       mimeType,
			Filename:       filepath.Base(path),
			GPS:            enrichGPS,
			Device:         enrichDevice,
			ModelOverrides: enrichModels,
		})
		if state.Failed() {
			return eris.Errorf("enrichment failed: %s", state.Error)
		}

		out, err := json.MarshalIndent(state.FinalResult, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal result")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichGPS, "gps", "", `GPS position as "lat,lon"`)
	enrichCmd.Flags().StringVar(&enrichDevice, "device", "", "camera or phone model")
	enrichCmd.Flags().StringToStringVar(&enrichModels, "model", nil, "per-stage model override, e.g. classify=claude-opus-4-1")
	rootCmd.AddCommand(enrichCmd)
}
