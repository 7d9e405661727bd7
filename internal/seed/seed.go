// Package seed loads the initial class catalog from a JSON file or URL.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"fitness-booking-backend/internal/model"
	"fitness-booking-backend/internal/store"
	"fitness-booking-backend/internal/timezone"
)

// ClassRecord is one entry of the seed document.
type ClassRecord struct {
	Name        string `json:"name" validate:"required,max=100"`
	ScheduledAt string `json:"scheduled_at" validate:"required"`
	Instructor  string `json:"instructor" validate:"required,max=100"`
	Slots       int    `json:"slots" validate:"gte=1"`
}

var (
	httpClient = &http.Client{Timeout: 30 * time.Second}
	validate   = validator.New()
)

// Load reads and validates the seed document. Naive scheduled_at values are
// interpreted in the default timezone.
func Load(ctx context.Context, source string) ([]model.FitnessClass, error) {
	body, err := read(ctx, source)
	if err != nil {
		return nil, err
	}

	var records []ClassRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classes from %s: %w", source, err)
	}

	classes := make([]model.FitnessClass, 0, len(records))
	for i, r := range records {
		r.Name = strings.TrimSpace(r.Name)
		r.Instructor = strings.TrimSpace(r.Instructor)
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("class #%d (%q) is invalid: %w", i, r.Name, err)
		}
		at, err := timezone.ParseToUTC(r.ScheduledAt, "")
		if err != nil {
			return nil, fmt.Errorf("class #%d (%q): %w", i, r.Name, err)
		}
		classes = append(classes, model.FitnessClass{
			Name:           r.Name,
			ScheduledAt:    at,
			Instructor:     r.Instructor,
			TotalSlots:     r.Slots,
			AvailableSlots: r.Slots,
		})
	}
	return classes, nil
}

// Run inserts the catalog unless one already exists.
func Run(ctx context.Context, s store.Store, source string) error {
	if source == "" {
		logrus.Warn("no classes file configured; skipping initial data load")
		return nil
	}

	n, err := s.CountClasses(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logrus.WithField("classes", n).Info("initial data already loaded")
		return nil
	}

	classes, err := Load(ctx, source)
	if err != nil {
		return err
	}
	if err := s.InsertClasses(ctx, classes); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"classes": len(classes), "source": source}).Info("initial data inserted")
	return nil
}

func read(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		body, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read classes file: %w", err)
		}
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
