// Package main scores a single listing against the current artifact
// pair and prints the estimate as JSON.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"especulai/internal/artifacts"
	"especulai/internal/config"
	"especulai/internal/inference"
	"especulai/internal/models"
)

func main() {
	configFile := flag.String("config", "configs/pipeline.yaml", "Path to YAML configuration file")
	fromStdin := flag.Bool("stdin", false, "Read the request as JSON from stdin")
	area := flag.Float64("area", 0, "Usable area in m²")
	rooms := flag.Int("quartos", 0, "Number of rooms")
	baths := flag.Int("banheiros", 0, "Number of bathrooms")
	tipo := flag.String("tipo", "", "Property type (apartamento, casa, ...)")
	bairro := flag.String("bairro", "", "Neighborhood")
	cidade := flag.String("cidade", "", "City")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	req, err := buildRequest(*fromStdin, *area, *rooms, *baths, *tipo, *bairro, *cidade)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Bad request: %v\n", err)
		os.Exit(1)
	}

	adapter := inference.NewAdapter(artifacts.NewStore(cfg.Output.ArtifactDir))
	if err := adapter.Reload(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Model unavailable: %v\n", err)
		os.Exit(1)
	}

	resp, err := adapter.Predict(req)
	if err != nil {
		if inference.IsValidationError(err) {
			fmt.Fprintf(os.Stderr, "❌ Bad request: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "❌ Model unavailable: %v\n", err)
		}

		os.Exit(1)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Encode response: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(out))
}

func buildRequest(fromStdin bool, area float64, rooms, baths int, tipo, bairro, cidade string) (models.PredictionRequest, error) {
	if !fromStdin {
		return models.PredictionRequest{
			Area:      area,
			Rooms:     rooms,
			Bathrooms: baths,
			Type:      tipo,
			Bairro:    bairro,
			Cidade:    cidade,
		}, nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return models.PredictionRequest{}, fmt.Errorf("read stdin: %w", err)
	}

	var req models.PredictionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return models.PredictionRequest{}, errors.New("request must be a JSON object with area, quartos, banheiros, tipo, bairro and cidade")
	}

	return req, nil
}
