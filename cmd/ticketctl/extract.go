package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/ocr"
	"github.com/monicap360/move-around-tms/internal/parsefields"
)

func (c *cli) ocrCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ocr [file]",
		Short: "Extract text from an image or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := c.cfg.OCR
			extractor, err := ocr.NewExtractor(ocr.Config{
				Provider:        o.Provider,
				AzureEndpoint:   o.AzureEndpoint,
				AzureKey:        o.AzureKey,
				Tesseract:       o.TesseractBin,
				TesseractLang:   o.TesseractLang,
				TessdataDir:     o.TessdataDir,
				Enhance:         o.Enhance,
				DownloadTimeout: o.DownloadTimeout,
				HeicConverter:   o.HeicConverter,
			}, c.logger)
			if err != nil {
				return err
			}
			res, err := extractor.ExtractFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"text":        res.Text,
				"confidence":  res.Confidence,
				"provider":    res.Provider,
				"method":      res.Method,
				"pages":       res.Pages,
				"duration_ms": res.Duration.Milliseconds(),
				"warnings":    res.Warnings,
			})
		},
	}
}

// parseCommand runs the classifier and field extractor over OCR text without touching storage.
func (c *cli) parseCommand() *cobra.Command {
	var hint string
	cmd := &cobra.Command{
		Use:   "parse [text-file|-]",
		Short: "Classify OCR text and extract ticket or HR fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			text := string(raw)
			kind := parsefields.Classify(text, hint)
			out := map[string]any{"kind": kind}
			if kind == constants.KindHR {
				out["fields"] = parsefields.ExtractHRFields(text)
			} else {
				out["fields"] = parsefields.ExtractTicketFields(text, nil)
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&hint, "kind", "", "classification hint: ticket or hr")
	return cmd
}
