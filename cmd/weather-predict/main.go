package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-predictor/internal/dataset"
	"github.com/i474232898/weather-predictor/internal/forest"
	"github.com/i474232898/weather-predictor/internal/weather"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("weather-predict", flag.ContinueOnError)
	dataPath := fs.String("data", "data/seattle-weather.csv", "training dataset (CSV)")
	date := fs.String("date", "", "day to predict, YYYY-MM-DD")
	precipitation := fs.String("precipitation", "", "precipitation (mm)")
	tempMax := fs.String("temp-max", "", "maximum temperature (C)")
	tempMin := fs.String("temp-min", "", "minimum temperature (C)")
	wind := fs.String("wind", "", "wind speed (m/s)")
	trees := fs.Int("trees", forest.DefaultConfig().Trees, "number of trees")
	seed := fs.Int64("seed", forest.DefaultConfig().Seed, "random seed")
	verbose := fs.Bool("v", false, "log training progress")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	records, err := dataset.Load(*dataPath)
	if err != nil {
		return err
	}

	cfg := forest.DefaultConfig()
	cfg.Trees = *trees
	cfg.Seed = *seed
	model, err := weather.Train(context.Background(), records, cfg)
	if err != nil {
		return err
	}

	res := model.Service().Predict(weather.PredictionRequest{
		Date:          *date,
		Precipitation: weather.NumericInput(*precipitation),
		TempMax:       weather.NumericInput(*tempMax),
		TempMin:       weather.NumericInput(*tempMin),
		Wind:          weather.NumericInput(*wind),
	})
	if res.Status != weather.StatusSuccess {
		return fmt.Errorf("%s", res.Message)
	}

	header := fmt.Sprintf("Prediction for %s:", *date)
	fmt.Fprintf(out, "%s\n", header)
	fmt.Fprintf(out, "%s\n", strings.Repeat("-", len(header)))
	fmt.Fprintf(out, "Conditions: %s\n", cases.Title(language.English).String(string(res.Prediction)))
	fmt.Fprintf(out, "Advice:     %s\n", res.Details)
	return nil
}
