package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mapier/poimport/export"
)

type StatusResult struct {
	Body struct {
		Started string `json:"started" doc:"Time in UTC when the server started"`
		Uptime  string `json:"uptime" doc:"Uptime of the preview server"`
	}
}

func statusHandler(start time.Time) func(ctx context.Context, input *struct{}) (*StatusResult, error) {
	return func(ctx context.Context, input *struct{}) (*StatusResult, error) {
		statusResult := &StatusResult{}
		statusResult.Body.Started = start.UTC().String()
		statusResult.Body.Uptime = formatDuration(time.Since(start))

		return statusResult, nil
	}
}

type PoisResult struct {
	Body export.FeatureCollection
}

// poisHandler serves the exported FeatureCollection. The file is read per
// request so a re-export shows up without a restart.
func poisHandler(geojsonPath string) func(ctx context.Context, input *struct{}) (*PoisResult, error) {
	return func(ctx context.Context, input *struct{}) (*PoisResult, error) {
		data, err := os.ReadFile(geojsonPath)
		if err != nil {
			return nil, huma.Error404NotFound(fmt.Sprintf("Export '%s' not found", geojsonPath))
		}

		result := &PoisResult{}
		if err := json.Unmarshal(data, &result.Body); err != nil {
			return nil, huma.Error500InternalServerError("Export is not valid GeoJSON")
		}

		return result, nil
	}
}

// formatDuration formats a time.Duration into a more readable string.
func formatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	days := seconds / 86400
	seconds -= days * 86400
	hours := seconds / 3600
	seconds -= hours * 3600
	minutes := seconds / 60
	seconds -= minutes * 60

	if days > 0 {
		return fmt.Sprintf("%dd %02dh %02dm %02ds", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%02dm %02ds", minutes, seconds)
	}
	return fmt.Sprintf("%02ds", seconds)
}
