package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/trainload/internal/config"
	"github.com/rshade/trainload/internal/docstore"
	"github.com/rshade/trainload/internal/timetable"
)

// StationsFlags holds the stations command flags.
type StationsFlags struct {
	UploadFlags

	Collection          string
	DistancesCollection string
	NoDistances         bool
}

// NewStationsCmd creates the stations command, which derives the station
// directory and station-to-station distances from a timetable CSV.
func NewStationsCmd() *cobra.Command {
	var flags StationsFlags

	cmd := &cobra.Command{
		Use:   "stations [file]",
		Short: "Derive and upload stations and station distances",
		Long: `Loads and cleans the timetable exactly like upload, then derives two
collections from it:

  stations          one document per station code, keyed by the code
  stationDistances  one document per station pair on a route, keyed by
                    {from}_{to}, holding the distance in km and the train
                    that covers it

Stops are ordered by sequence within each train. A pair is kept once; its
reverse is skipped. Documents are upserted in atomic batches, so re-running
overwrites instead of duplicating. No upload log entry is written.`,
		Example: `  # Derive both collections from train_data.csv
  trainload stations

  # Stations only, into the local file store
  trainload stations stops.csv --no-distances --driver file --dir ./out`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStations(cmd, args, &flags)
		},
	}

	bindStoreFlags(cmd, &flags.UploadFlags)
	cmd.Flags().StringVar(&flags.Collection, "stations-collection", "", "collection for station documents")
	cmd.Flags().StringVar(&flags.DistancesCollection, "distances-collection", "", "collection for station distance documents")
	cmd.Flags().BoolVar(&flags.NoDistances, "no-distances", false, "skip the station distance collection")

	return cmd
}

func applyStationsFlags(cmd *cobra.Command, cfg *config.Config, flags *StationsFlags, args []string) {
	applyUploadFlags(cmd, cfg, &flags.UploadFlags, args)

	changed := cmd.Flags().Changed
	if changed("stations-collection") {
		cfg.Stations.Collection = flags.Collection
	}
	if changed("distances-collection") {
		cfg.Stations.DistancesCollection = flags.DistancesCollection
	}
	if flags.NoDistances {
		cfg.Stations.Distances = false
	}
}

func runStations(cmd *cobra.Command, args []string, flags *StationsFlags) error {
	ctx := cmd.Context()
	out := NewStatusPrinter(cmd.OutOrStdout())
	start := time.Now()

	cfg := *config.GetGlobalConfig()
	applyStationsFlags(cmd, &cfg, flags, args)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	location := cfg.Input.Path
	if err := checkSource(ctx, location); err != nil {
		return err
	}

	out.Starting(cfg.Store.Driver, cfg.Stations.Collection, cfg.Upload.BatchSize, flags.DryRun)
	log := logger.With().Str("source", location).Str("driver", cfg.Store.Driver).Logger()

	store, err := docstore.Open(ctx, cfg.Store.StoreOptions())
	if err != nil {
		return err
	}
	defer closeStore(store)

	up, err := newUploader(&cfg, store, out)
	if err != nil {
		return err
	}

	table, err := up.Load(ctx, location)
	if err != nil {
		return err
	}
	out.Loaded(location, table.Len())
	records := up.Normalize(table)

	stations := timetable.DeriveStations(records)
	out.DerivedUploading("📍", "stations", len(stations), cfg.Stations.Collection)
	stationCount, err := up.UploadStations(ctx, stations)
	if err != nil {
		return err
	}
	log.Info().Int("stations", stationCount).Msg("stations uploaded")

	pairCount := 0
	if cfg.Stations.Distances {
		distances := timetable.DeriveDistances(records)
		out.DerivedUploading("🗺️", "distance pairs", len(distances), cfg.Stations.DistancesCollection)
		if pairCount, err = up.UploadDistances(ctx, distances); err != nil {
			return err
		}
		log.Info().Int("pairs", pairCount).Msg("station distances uploaded")
	}

	out.StationsDone(stationCount, pairCount, time.Since(start))
	return nil
}
