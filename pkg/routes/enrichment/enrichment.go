package enrichment

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/enrichment"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/pipeline"
	"github.com/Ramsey-B/fern/pkg/registry"
	"github.com/Ramsey-B/fern/pkg/tabular"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const formatJSON = "json"

// DefaultMaxUploadBytes caps upload size when none is configured (50MB)
const DefaultMaxUploadBytes = 50 << 20

// RunRequest holds the query options of an enrichment request
type RunRequest struct {
	Format   string `query:"format" validate:"omitempty,oneof=csv xlsx json"`
	Filename string `query:"filename"`
}

// RunResponse is the JSON rendering of a run
type RunResponse struct {
	RunID           string            `json:"run_id"`
	SnapshotVersion string            `json:"snapshot_version"`
	NameField       string            `json:"name_field"`
	Stats           models.RunStats   `json:"stats"`
	Enrichment      enrichment.Report `json:"enrichment"`
	Columns         []string          `json:"columns"`
	Rows            [][]string        `json:"rows"`
	Warnings        []tabular.Warning `json:"warnings,omitempty"`
}

// Options tunes the enrichment routes. Registered in the container alongside
// the pipeline; a missing or zero limit falls back to DefaultMaxUploadBytes.
type Options struct {
	MaxUploadBytes int64
}

var validate = validator.New()

// Register registers enrichment routes
func Register(g *echo.Group) {
	g.POST("/enrichments", CreateEnrichment)
}

// CreateEnrichment accepts a CSV or XLSX upload and returns the enriched dataset
func CreateEnrichment(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "routes.enrichment.CreateEnrichment")
	defer span.End()

	var req RunRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	req.Format = strings.ToLower(req.Format)
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "format must be one of csv, xlsx, json").AddMetaValue("format", req.Format)
	}

	ctx, runner, err := ectoinject.GetContext[*pipeline.Pipeline](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, store, err := ectoinject.GetContext[*registry.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, opts, err := ectoinject.GetContext[Options](ctx)
	if err != nil || opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	data, filename, err := readUpload(c, opts.MaxUploadBytes)
	if err != nil {
		return err
	}
	if req.Filename != "" {
		filename = req.Filename
	}

	table, err := tabular.ReadUpload(data, filename)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("could not read upload: %v", err))
	}

	snapshot, err := store.Current()
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, snapshot, table)
	if err != nil {
		return err
	}

	c.Response().Header().Set("X-Run-Id", result.RunID)

	if req.Format == formatJSON {
		return c.JSON(http.StatusOK, RunResponse{
			RunID:           result.RunID,
			SnapshotVersion: result.SnapshotVersion,
			NameField:       result.NameField,
			Stats:           result.Stats,
			Enrichment:      result.Enrichment,
			Columns:         result.Output.Columns,
			Rows:            result.Output.Rows,
			Warnings:        result.Warnings,
		})
	}

	format, err := tabular.ParseFormat(req.Format)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var buf bytes.Buffer
	if err := tabular.WriteTable(&buf, format, result.Output); err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="enriched_data.%s"`, format))
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

// readUpload returns the uploaded bytes from a multipart "file" field or the raw body
func readUpload(c echo.Context, limit int64) ([]byte, string, error) {
	req := c.Request()
	contentType := req.Header.Get(echo.HeaderContentType)

	var (
		src      io.Reader
		filename string
	)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, "", httperror.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
		}
		if fh.Size > limit {
			return nil, "", tooLarge(limit)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open upload: %w", err)
		}
		defer f.Close()
		src = f
		filename = fh.Filename
	} else {
		src = req.Body
		if strings.Contains(contentType, "spreadsheetml") {
			filename = "upload.xlsx"
		}
	}

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", tooLarge(limit)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "", httperror.NewHTTPError(http.StatusBadRequest, "upload is empty")
	}
	return data, filename, nil
}

func tooLarge(limit int64) error {
	return httperror.NewHTTPError(http.StatusRequestEntityTooLarge, "upload too large").AddMetaValue("max_bytes", limit)
}
