package cache

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/evyataryagoni/iptracker/internal/models"
)

// seedColumns is the expected CSV layout, header row included
var seedColumns = []string{"query", "ip", "city", "region", "country", "postal_code", "timezone", "lat", "lng", "isp"}

// ImportCSV pre-warms the cache from CSV records
//
// CSV Format: query,ip,city,region,country,postal_code,timezone,lat,lng,isp
// Example: 8.8.8.8,8.8.8.8,Mountain View,California,US,94043,-07:00,37.40599,-122.078514,Google LLC
//
// Rows with a blank query or unparsable coordinates are skipped. Returns the
// number of imported rows.
func (c *Cache) ImportCSV(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("CSV file is empty")
	}
	if len(records[0]) != len(seedColumns) {
		return 0, fmt.Errorf("CSV file must have %d columns (%s), got %d",
			len(seedColumns), strings.Join(seedColumns, ","), len(records[0]))
	}

	results := make(map[string]models.LookupResult)
	for i, record := range records {
		// Skip header row
		if i == 0 {
			continue
		}

		result, query, ok := parseSeedRecord(record)
		if !ok {
			c.logger.Warn().Int("line", i+1).Msg("Skipping invalid seed row")
			continue
		}
		results[query] = result
	}

	c.AddAll(results)
	c.logger.Info().Int("count", len(results)).Msg("Seed data imported")
	return len(results), nil
}

// ImportCSVFile opens path and imports it
func (c *Cache) ImportCSVFile(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return c.ImportCSV(file)
}

func parseSeedRecord(record []string) (models.LookupResult, string, bool) {
	query := strings.TrimSpace(record[0])
	if query == "" {
		return models.LookupResult{}, "", false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(record[7]), 64)
	if err != nil {
		return models.LookupResult{}, "", false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(record[8]), 64)
	if err != nil {
		return models.LookupResult{}, "", false
	}

	return models.LookupResult{
		IP: record[1],
		Location: &models.Location{
			City:       record[2],
			Region:     record[3],
			Country:    record[4],
			PostalCode: record[5],
			Timezone:   record[6],
			Lat:        lat,
			Lng:        lng,
		},
		ISP: record[9],
	}, query, true
}
