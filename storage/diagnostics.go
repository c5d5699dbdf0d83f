package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// The diagnostic probe writes into its own bucket so it never touches
// application data.
const diagnosticBucket = "syncline-diagnostics"

// Report is the outcome of a storage connectivity probe. On failure the
// step, error, details, and hint fields describe which stage went wrong and
// where to look.
type Report struct {
	Healthy     bool     `json:"healthy"`
	BucketCount int      `json:"bucket_count"`
	Buckets     []string `json:"buckets,omitempty"`
	Uploaded    string   `json:"uploaded,omitempty"`
	Step        string   `json:"step,omitempty"`
	Error       string   `json:"error,omitempty"`
	Details     string   `json:"details,omitempty"`
	Hint        string   `json:"hint,omitempty"`
}

// Diagnostician probes the storage API and turns failures into actionable
// reports.
type Diagnostician struct {
	client *Client
	logger *zap.Logger
}

// NewDiagnostician creates a diagnostician over the given storage client.
// A nil client means the service-role key is not configured.
func NewDiagnostician(client *Client, logger *zap.Logger) *Diagnostician {
	return &Diagnostician{client: client, logger: logger}
}

// Check probes storage with the privileged credentials in three steps:
// list the buckets, ensure the diagnostic bucket exists (creating it when
// absent), and upload a sample object into it. The report names the step
// that failed.
func (d *Diagnostician) Check(ctx context.Context) Report {
	if d.client == nil {
		return Report{
			Error:   "storage not configured",
			Details: "no service-role key is available to this process",
			Hint:    "set PLATFORM_SERVICE_KEY and restart",
		}
	}

	buckets, err := d.client.ListBuckets(ctx)
	if err != nil {
		d.logger.Error("storage diagnostic failed", zap.String("step", "list buckets"), zap.Error(err))
		return reportFromError("list buckets", err)
	}

	names := make([]string, 0, len(buckets))
	found := false
	for _, b := range buckets {
		names = append(names, b.Name)
		if b.Name == diagnosticBucket {
			found = true
		}
	}

	if !found {
		if err := d.client.CreateBucket(ctx, diagnosticBucket, false); err != nil {
			d.logger.Error("storage diagnostic failed", zap.String("step", "create bucket"), zap.Error(err))
			return reportFromError("create bucket", err)
		}
		names = append(names, diagnosticBucket)
	}

	object := fmt.Sprintf("healthcheck-%d.txt", time.Now().UnixNano())
	payload := []byte("storage check " + time.Now().UTC().Format(time.RFC3339))
	if err := d.client.Upload(ctx, diagnosticBucket, object, "text/plain", payload); err != nil {
		d.logger.Error("storage diagnostic failed", zap.String("step", "upload"), zap.Error(err))
		return reportFromError("upload", err)
	}

	return Report{
		Healthy:     true,
		BucketCount: len(names),
		Buckets:     names,
		Uploaded:    diagnosticBucket + "/" + object,
	}
}

func reportFromError(step string, err error) Report {
	report := Report{
		Step:    step,
		Error:   "storage probe failed",
		Details: err.Error(),
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			report.Error = "storage rejected the credentials"
			report.Hint = "verify that PLATFORM_SERVICE_KEY is the service-role key, not the anon key"
		case http.StatusNotFound:
			report.Error = "storage endpoint not found"
			report.Hint = "verify that PLATFORM_URL points at the platform project, not a custom domain"
		default:
			report.Error = fmt.Sprintf("storage returned status %d", apiErr.Status)
			report.Hint = "check the platform status page and project logs"
		}
		return report
	}

	report.Hint = "verify that PLATFORM_URL is reachable from this host"
	return report
}
