package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ES-COCO/es-coco/internal/db"
	"github.com/ES-COCO/es-coco/internal/logging"
	"github.com/ES-COCO/es-coco/internal/transcript"
	"github.com/spf13/cobra"
)

// segmentsCmd prints assembled segments
var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Print transcript segments",
	Long: `Print assembled segments as text or JSON.

Without flags every code-switch segment is printed. Use --ids to pick
segments or --data-source to print one data source in time order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := logging.New(logging.Options{FilePath: cfg.LogFile, Console: cfg.Debug, Debug: cfg.Debug})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()

		// Get flags
		idsFlag, _ := cmd.Flags().GetString("ids")
		dataSourceID, _ := cmd.Flags().GetInt64("data-source")
		orderFlag, _ := cmd.Flags().GetString("order")
		format, _ := cmd.Flags().GetString("format")
		showPOS, _ := cmd.Flags().GetBool("pos")

		order, ok := db.ParseSegmentOrder(orderFlag)
		if !ok {
			return fmt.Errorf("invalid order %q (use source or start)", orderFlag)
		}
		formatter, err := NewFormatter(format, showPOS)
		if err != nil {
			return err
		}

		store, assembler, err := openAssembler(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		var segments []transcript.Segment
		switch {
		case idsFlag != "":
			ids, err := parseIDList(idsFlag)
			if err != nil {
				return err
			}
			segments, err = assembler.Segments(ctx, ids, order)
			if err != nil {
				return fmt.Errorf("failed to load segments: %w", err)
			}
		case dataSourceID > 0:
			segments, err = assembler.DataSourceSegments(ctx, dataSourceID)
			if err != nil {
				return fmt.Errorf("failed to load data source %d: %w", dataSourceID, err)
			}
		default:
			segments, err = assembler.SwitchSegments(ctx)
			if err != nil {
				return fmt.Errorf("failed to load switch segments: %w", err)
			}
		}

		output, err := formatter.Format(segments)
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, output)
		return nil
	},
}

func init() {
	segmentsCmd.Flags().String("ids", "", "Comma separated segment ids")
	segmentsCmd.Flags().Int64("data-source", 0, "Print every segment of this data source")
	segmentsCmd.Flags().String("order", "source", "Order for --ids: source or start")
	segmentsCmd.Flags().StringP("format", "f", "text", "Output format: text or json")
	segmentsCmd.Flags().Bool("pos", false, "Show part-of-speech tags in text output")
	segmentsCmd.MarkFlagsMutuallyExclusive("ids", "data-source")

	rootCmd.AddCommand(segmentsCmd)
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid segment id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
